package engine

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/songlake/internal/dag"
	"github.com/leapstack-labs/songlake/pkg/core"
)

// stage produces the rows of one output table.
type stage struct {
	spec  core.TableSpec
	build func(ctx context.Context) (rows []core.Row, dropped int, err error)
}

// rowsOf wraps already-derived rows as a stage body.
func rowsOf[T core.Row](rows []T) func(context.Context) ([]core.Row, int, error) {
	return func(context.Context) ([]core.Row, int, error) {
		return core.AsRows(rows), 0, nil
	}
}

// buildGraph wires the stage graph: the fact table depends on the two
// dimensions it joins against; everything else is independent.
func buildGraph(stages map[string]*stage) (*dag.Graph[*stage], error) {
	g := dag.NewGraph[*stage]()
	for _, spec := range core.Tables {
		s, ok := stages[spec.Name]
		if !ok {
			return nil, fmt.Errorf("no stage for table %s", spec.Name)
		}
		g.AddNode(spec.Name, s)
	}
	for _, parent := range []string{core.TableSongs, core.TableArtists} {
		if err := g.AddEdge(parent, core.TableSongplays); err != nil {
			return nil, err
		}
	}
	return g, nil
}
