// Package temporal derives the rows in force on a given day from a set of
// effective-dated rows. The day is always supplied by the caller.
package temporal

import (
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/locvowork/employee_records/internal/domain"
)

// Current returns the rows in force on today, keeping input order.
func Current[P any](rows []domain.Row[P], today civil.Date) []domain.Row[P] {
	out := make([]domain.Row[P], 0, len(rows))
	for _, r := range rows {
		if r.CurrentAt(today) {
			out = append(out, r)
		}
	}
	return out
}

// Latest returns the current row with the greatest FromDate. On equal
// FromDates the first one seen wins.
func Latest[P any](rows []domain.Row[P], today civil.Date) (domain.Row[P], error) {
	var (
		best  domain.Row[P]
		found bool
	)
	for _, r := range rows {
		if !r.CurrentAt(today) {
			continue
		}
		if !found || r.FromDate.After(best.FromDate) {
			best, found = r, true
		}
	}
	if !found {
		return best, fmt.Errorf("as of %s: %w", today, domain.ErrNoCurrentRecord)
	}
	return best, nil
}

// Single returns the only current row. More than one is reported as
// ErrAmbiguousCurrentState rather than picking one.
func Single[P any](rows []domain.Row[P], today civil.Date) (domain.Row[P], error) {
	current := Current(rows, today)
	switch len(current) {
	case 0:
		var zero domain.Row[P]
		return zero, fmt.Errorf("as of %s: %w", today, domain.ErrNoCurrentRecord)
	case 1:
		return current[0], nil
	default:
		var zero domain.Row[P]
		return zero, fmt.Errorf("%d rows current as of %s: %w", len(current), today, domain.ErrAmbiguousCurrentState)
	}
}

func Any[P any](rows []domain.Row[P], today civil.Date) bool {
	for _, r := range rows {
		if r.CurrentAt(today) {
			return true
		}
	}
	return false
}
