// Package listing holds the search and ordering state of a guild or
// community list page and derives the visible projection from it.
package listing

import (
	"slices"
	"strings"
)

// Item is anything listed by display name.
type Item interface {
	DisplayName() string
}

// Order names a sort order.
type Order string

// Comparator orders two items like strings.Compare.
type Comparator[T Item] func(a, b T) int

// Controller derives a filtered, ordered view over an immutable base list.
// It is not safe for concurrent use; create one per request.
type Controller[T Item] struct {
	base    []T
	search  string
	order   Order
	orders  map[Order]Comparator[T]
	ordered []T
	view    []T
}

// NewController creates a controller over base. orders lists the supported
// sort orders; def is used when an unknown order is selected.
func NewController[T Item](base []T, orders map[Order]Comparator[T], def Order) *Controller[T] {
	c := &Controller[T]{
		base:   slices.Clone(base),
		order:  def,
		orders: orders,
	}
	c.reorder()
	return c
}

// SetBase replaces the base list, e.g. after a background revalidation.
func (c *Controller[T]) SetBase(base []T) {
	c.base = slices.Clone(base)
	c.reorder()
}

// SetSearch updates the free-text search string.
func (c *Controller[T]) SetSearch(search string) {
	c.search = search
	c.refilter()
}

// SetOrder selects a sort order. Unknown orders are ignored.
func (c *Controller[T]) SetOrder(order Order) bool {
	if _, ok := c.orders[order]; !ok {
		return false
	}
	c.order = order
	c.reorder()
	return true
}

// Search returns the current search string.
func (c *Controller[T]) Search() string {
	return c.search
}

// Order returns the current sort order.
func (c *Controller[T]) Order() Order {
	return c.order
}

// View returns the filtered, ordered projection. The slice must not be
// modified.
func (c *Controller[T]) View() []T {
	return c.view
}

// Len returns the number of visible items.
func (c *Controller[T]) Len() int {
	return len(c.view)
}

func (c *Controller[T]) reorder() {
	c.ordered = slices.Clone(c.base)
	if cmp, ok := c.orders[c.order]; ok && cmp != nil {
		slices.SortStableFunc(c.ordered, cmp)
	}
	c.refilter()
}

func (c *Controller[T]) refilter() {
	needle := strings.ToLower(c.search)
	if needle == "" {
		c.view = c.ordered
		return
	}

	view := make([]T, 0, len(c.ordered))
	for _, item := range c.ordered {
		if strings.Contains(strings.ToLower(item.DisplayName()), needle) {
			view = append(view, item)
		}
	}
	c.view = view
}

// ByName orders items by case-insensitive display name.
func ByName[T Item](a, b T) int {
	return strings.Compare(strings.ToLower(a.DisplayName()), strings.ToLower(b.DisplayName()))
}
