package application

import (
	"strings"

	"github.com/OliveiraNt/kafka-lens/internal/domain"
)

// Filter returns the records whose key and value, joined by a single space, contain the
// trimmed query, ignoring case. A query spanning that space can match the end of the key
// and the start of the value. A blank query returns records unchanged. Relative order is
// always preserved.
func Filter(records []domain.Record, query string) []domain.Record {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return records
	}
	out := make([]domain.Record, 0)
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.Key+" "+r.Value), q) {
			out = append(out, r)
		}
	}
	return out
}
