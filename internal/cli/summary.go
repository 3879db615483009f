package cli

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/leapstack-labs/songlake/pkg/core"
)

// renderSummary prints one line per output table in pipeline order.
func renderSummary(w io.Writer, run *core.Run) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"table", "status", "rows", "dropped", "ms"})

	byTable := make(map[string]*core.TableRun, len(run.Tables))
	for _, tr := range run.Tables {
		byTable[tr.Table] = tr
	}

	var total int64
	for _, spec := range core.Tables {
		tr, ok := byTable[spec.Name]
		if !ok {
			t.AppendRow(table.Row{spec.Name, "-", "", "", ""})
			continue
		}
		total += tr.ExecutionMS
		t.AppendRow(table.Row{tr.Table, string(tr.Status), tr.Rows, tr.Dropped, tr.ExecutionMS})
	}
	t.AppendFooter(table.Row{"run " + shortID(run.ID), string(run.Status), "", "", total})
	t.Render()

	if run.Error != "" {
		_, _ = fmt.Fprintf(w, "error: %s\n", run.Error)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
