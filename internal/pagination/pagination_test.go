package pagination

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type row struct{ ID uuid.UUID }

func rowID(r row) uuid.UUID { return r.ID }

func TestNewPageFullPageSetsCursor(t *testing.T) {
	rows := []row{{ID: uuid.New()}, {ID: uuid.New()}}
	page := NewPage(rows, 2, rowID)

	assert.NotNil(t, page.CursorID)
	assert.Equal(t, rows[1].ID.String(), *page.CursorID)
}

func TestNewPageShortPageNullCursor(t *testing.T) {
	rows := []row{{ID: uuid.New()}}
	page := NewPage(rows, 2, rowID)

	assert.Nil(t, page.CursorID)
}

func TestNewPageNoPagination(t *testing.T) {
	rows := []row{{ID: uuid.New()}, {ID: uuid.New()}}
	page := NewPage(rows, -1, rowID)

	assert.Nil(t, page.CursorID)
	assert.Len(t, page.Data, 2)
}

func TestNewPageNilItemsMarshalsEmptyArray(t *testing.T) {
	page := NewPage[row](nil, 5, rowID)
	assert.NotNil(t, page.Data)
	assert.Len(t, page.Data, 0)
}

func TestEffectiveLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, Params{}.EffectiveLimit())
	assert.Equal(t, 10, Params{Limit: 10}.EffectiveLimit())
	assert.Equal(t, -1, Params{Limit: -1}.EffectiveLimit())
}

func TestSortColumnWhitelist(t *testing.T) {
	col, dir, explicit := Params{Sort: "firstName", Order: OrderDesc}.SortColumn()
	assert.Equal(t, "first_name", col)
	assert.Equal(t, OrderDesc, dir)
	assert.True(t, explicit)

	col, dir, explicit = Params{}.SortColumn()
	assert.Equal(t, "created_at", col)
	assert.Equal(t, OrderDesc, dir)
	assert.False(t, explicit)

	col, _, explicit = Params{Sort: "notes; drop table contact"}.SortColumn()
	assert.Equal(t, "created_at", col)
	assert.False(t, explicit)
}
