package duckdb

import (
	"errors"
	"regexp"
	"strings"

	"github.com/marcboeker/go-duckdb"

	"github.com/leapstack-labs/songlake/pkg/adapter"
)

var missingColumnRe = regexp.MustCompile(`(?i)column "?(\w+)"? not found`)

var (
	schemaMarkers  = []string{"Binder Error", "Conversion Error", "Mismatch Type Error", "Invalid Input Error"}
	storageMarkers = []string{"IO Error", "HTTP Error", "Permission Error"}
)

func classifyError(err error) (adapter.ErrorKind, string) {
	if err == nil {
		return adapter.ErrorUnknown, ""
	}

	msg := err.Error()
	var dErr *duckdb.Error
	if errors.As(err, &dErr) {
		switch dErr.Type {
		case duckdb.ErrorTypeBinder, duckdb.ErrorTypeConversion,
			duckdb.ErrorTypeMismatchType, duckdb.ErrorTypeInvalidInput:
			return adapter.ErrorSchema, missingColumn(dErr.Msg)
		case duckdb.ErrorTypeIO, duckdb.ErrorTypeHTTP, duckdb.ErrorTypePermission:
			return adapter.ErrorStorage, ""
		}
		msg = dErr.Msg
	}

	// Older driver builds surface some errors untyped; fall back to the message prefix.
	if containsAny(msg, schemaMarkers) {
		return adapter.ErrorSchema, missingColumn(msg)
	}
	if containsAny(msg, storageMarkers) {
		return adapter.ErrorStorage, ""
	}
	return adapter.ErrorUnknown, ""
}

func missingColumn(msg string) string {
	if m := missingColumnRe.FindStringSubmatch(msg); m != nil {
		return m[1]
	}
	return ""
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
