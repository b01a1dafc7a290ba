package crawl

import (
	"time"
)

// ShouldStop reports whether an item dated itemDate lies past the cutoff.
// Results arrive newest first, so the first such item ends the crawl; an
// item dated exactly earliest is still collected.
func ShouldStop(itemDate, earliest time.Time) bool {
	return itemDate.Before(earliest)
}
