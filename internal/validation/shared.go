package validation

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Error reports every offending field of a request at once, keyed by the
// JSON field name.
type Error struct {
	Fields map[string]string
}

// Error lists the field messages sorted by field name.
func (e *Error) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, field := range slices.Sorted(maps.Keys(e.Fields)) {
		msgs = append(msgs, fmt.Sprintf("%s: %s", field, e.Fields[field]))
	}
	return strings.Join(msgs, "; ")
}
