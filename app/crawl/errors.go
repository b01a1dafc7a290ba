package crawl

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrPageRenderTimeout = errors.New("page render timeout")
	ErrDateParse         = errors.New("date parse error")
	ErrFieldNotFound     = errors.New("field not found")
	ErrPersistence       = errors.New("persistence error")
)

// Signals reported by Page implementations.
var (
	ErrTimeout = errors.New("timed out waiting for page")
	ErrNoMatch = errors.New("search returned no matches")
)

// ItemError is a failure confined to one result item. The paginator skips
// the item and keeps going.
type ItemError struct {
	Index int
	Link  string
	Err   error
}

func (e *ItemError) Error() string {
	if e.Link != "" {
		return fmt.Sprintf("item %d (%s): %v", e.Index, e.Link, e.Err)
	}
	return fmt.Sprintf("item %d: %v", e.Index, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}
