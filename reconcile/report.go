package reconcile

import (
	"time"

	"github.com/hashicorp/go-multierror"

	menusync "github.com/unkn0wn-root/menusync"
	"github.com/unkn0wn-root/menusync/catalog"
)

// Counts is a tally per entity kind.
type Counts struct {
	Menus    int
	Submenus int
	Dishes   int
}

func (c *Counts) add(k catalog.Kind) {
	switch k {
	case catalog.KindMenu:
		c.Menus++
	case catalog.KindSubmenu:
		c.Submenus++
	case catalog.KindDish:
		c.Dishes++
	}
}

func (c Counts) Total() int { return c.Menus + c.Submenus + c.Dishes }

// Report describes one pass. Errors holds store and cache failures that did
// not stop the pass.
type Report struct {
	Started  time.Time
	Duration time.Duration

	Created       Counts
	Updated       Counts
	Deleted       Counts
	DiscountsSet  int
	Skipped       int
	Invalidations int
	Errors        []error
}

// Err aggregates Errors, or returns nil.
func (r *Report) Err() error {
	var result *multierror.Error
	for _, err := range r.Errors {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

func (r *Report) Stats() menusync.PassStats {
	return menusync.PassStats{
		Created:      r.Created.Total(),
		Updated:      r.Updated.Total(),
		Deleted:      r.Deleted.Total(),
		DiscountsSet: r.DiscountsSet,
		Skipped:      r.Skipped,
		Failed:       len(r.Errors),
	}
}
