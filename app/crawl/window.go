package crawl

import (
	"fmt"
	"time"
)

// ComputeWindow returns the months to search, counting the month of now as
// the first one. Zero and one both mean "this month only".
func ComputeWindow(now time.Time, monthsBack int) (Window, error) {
	if monthsBack < 0 {
		return Window{}, fmt.Errorf("%w: number of months must be non-negative, got %d", ErrInvalidArgument, monthsBack)
	}

	latest := firstOfMonth(now)

	year, month := latest.Year(), latest.Month()
	for i := 0; i < monthsBack-1; i++ {
		if month == time.January {
			year--
			month = time.December
		} else {
			month--
		}
	}

	return Window{
		Earliest: time.Date(year, month, 1, 0, 0, 0, 0, time.UTC),
		Latest:   latest,
	}, nil
}

// firstOfMonth uses the wall clock of t, so the current month follows the
// configured time zone.
func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
