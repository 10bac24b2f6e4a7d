package pagination

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// DefaultLimit matches the API default page size. Limit -1 disables
// pagination entirely and returns the full result set.
const DefaultLimit = 25

type Params struct {
	Search   string
	Sort     string
	Order    Order
	CursorID string
	Limit    int
}

// sortColumns whitelists the sortable API fields against their
// database columns. Unknown sorts fall back to created_at.
var sortColumns = map[string]string{
	"firstName": "first_name",
	"createdAt": "created_at",
}

func (p Params) EffectiveLimit() int {
	if p.Limit == -1 {
		return -1
	}
	if p.Limit <= 0 {
		return DefaultLimit
	}
	return p.Limit
}

// SortColumn resolves the requested sort to a column and direction.
// explicit reports whether the caller asked for a non-default sort.
func (p Params) SortColumn() (col string, dir Order, explicit bool) {
	col, ok := sortColumns[p.Sort]
	if !ok || p.Sort == "createdAt" {
		dir = OrderDesc
		if p.Order == OrderAsc {
			dir = OrderAsc
		}
		return "created_at", dir, false
	}
	dir = OrderAsc
	if p.Order == OrderDesc {
		dir = OrderDesc
	}
	return col, dir, true
}

// Apply orders and limits q for one page. cursorValue must be the
// cursor row's value of the sort column (ignored when CursorID is
// empty). Rows are keyset-filtered strictly past the cursor row in
// the same ordering, so the cursor row itself is never repeated.
// The id column breaks ties descending, which keeps the ordering
// total even when many rows share a sort value.
func Apply(q *gorm.DB, p Params, cursorValue interface{}) *gorm.DB {
	if p.Limit == -1 {
		return q
	}
	col, dir, _ := p.SortColumn()
	q = q.Order(fmt.Sprintf("%s %s, id desc", col, dir))
	if p.CursorID != "" {
		if dir == OrderAsc {
			q = q.Where(fmt.Sprintf("%s > ? OR (%s = ? AND id < ?)", col, col), cursorValue, cursorValue, p.CursorID)
		} else {
			q = q.Where(fmt.Sprintf("%s < ? OR (%s = ? AND id < ?)", col, col), cursorValue, cursorValue, p.CursorID)
		}
	}
	return q.Limit(p.EffectiveLimit())
}

// Page is the cursor pagination envelope: cursorID carries the last
// row's id when the page came back full, else null to signal the end.
type Page[T any] struct {
	Data     []T     `json:"data"`
	CursorID *string `json:"cursorID"`
}

func NewPage[T any](items []T, limit int, id func(T) uuid.UUID) Page[T] {
	if items == nil {
		items = []T{}
	}
	page := Page[T]{Data: items}
	if limit > 0 && len(items) == limit {
		last := id(items[len(items)-1]).String()
		page.CursorID = &last
	}
	return page
}
