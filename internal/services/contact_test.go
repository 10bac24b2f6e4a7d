package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keaz/contacts-backend/internal/apperr"
	"github.com/keaz/contacts-backend/internal/pagination"
	"github.com/keaz/contacts-backend/internal/repos"
	"github.com/keaz/contacts-backend/internal/types"
)

func TestCreateRejectsDuplicateCanonicalPhone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedContact(t, "+4915112345678")

	// Same number without the plus normalizes to the same canonical
	// form and counts as a duplicate for this owner.
	_, err := f.contacts.Create(ctx, CreateContactInput{
		FirstName: "Other",
		LastName:  "Person",
		Fon:       "4915112345678",
	}, f.user.ID)
	assert.ErrorIs(t, err, apperr.ErrDuplicateContact)

	// A different owner may hold the same number.
	other := f.seedUser(t, "other@example.com")
	_, err = f.contacts.Create(ctx, CreateContactInput{
		FirstName: "Other",
		LastName:  "Person",
		Fon:       "4915112345678",
	}, other.ID)
	assert.NoError(t, err)
}

func TestCreateRequiresPhone(t *testing.T) {
	f := newFixture(t)

	_, err := f.contacts.Create(context.Background(), CreateContactInput{
		FirstName: "No",
		LastName:  "Phone",
	}, f.user.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidPhoneNumber)
}

func TestCreateRejectsGarbagePhone(t *testing.T) {
	f := newFixture(t)

	_, err := f.contacts.Create(context.Background(), CreateContactInput{
		FirstName: "Bad",
		LastName:  "Phone",
		Fon:       "not a number",
	}, f.user.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidPhoneNumber)
}

func TestCreateStoresInactiveFlag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inactive := false

	created, err := f.contacts.Create(ctx, CreateContactInput{
		FirstName: "Off",
		LastName:  "Line",
		Fon:       "+4915112345678",
		Active:    &inactive,
	}, f.user.ID)
	require.NoError(t, err)
	assert.False(t, created.Active)

	// Reload from the database, not just the returned struct.
	reloaded, err := f.contacts.FindOne(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.Active)

	active, err := f.contactRepo.CountActive(ctx, nil, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), active)
}

func TestCreateAttachesTagsThroughCascade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tag := f.seedTag(t, "vip")
	group := f.seedGroup(t, "VIPs", true, tag)

	contact, err := f.contacts.Create(ctx, CreateContactInput{
		FirstName: "Jane",
		LastName:  "Doe",
		Fon:       "+4915112345678",
		TagIDs:    []uuid.UUID{tag.ID},
	}, f.user.ID)
	require.NoError(t, err)

	assert.True(t, f.isMember(t, group.ID, contact.ID))
	require.Len(t, contact.Tags, 1)
	assert.Equal(t, tag.ID, contact.Tags[0].ID)
}

func TestFindOneByFonNormalizesLookup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	contact := f.seedContact(t, "+4915112345678")

	found, err := f.contacts.FindOneByFon(ctx, "4915112345678", f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, contact.ID, found.ID)

	_, err = f.contacts.FindOneByFon(ctx, "+4915112345679", f.user.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	other := f.seedUser(t, "other@example.com")
	_, err = f.contacts.FindOneByFon(ctx, "+4915112345678", other.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound, "lookup is owner-scoped")
}

func TestFindOneNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.contacts.FindOne(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestFindAllByTags(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tagA := f.seedTag(t, "a")
	tagB := f.seedTag(t, "b")
	both := f.seedContact(t, "+4915112345671")
	onlyA := f.seedContact(t, "+4915112345672")
	untagged := f.seedContact(t, "+4915112345673")

	require.NoError(t, f.membership.AttachTag(ctx, tagA.ID, both.ID))
	require.NoError(t, f.membership.AttachTag(ctx, tagB.ID, both.ID))
	require.NoError(t, f.membership.AttachTag(ctx, tagA.ID, onlyA.ID))

	some, err := f.contacts.FindAllByTags(ctx, []uuid.UUID{tagA.ID}, false)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{both.ID, onlyA.ID}, contactIDs(some))

	// Exclusive requires every requested tag, so subset and zero-tag
	// contacts stay out.
	every, err := f.contacts.FindAllByTags(ctx, []uuid.UUID{tagA.ID, tagB.ID}, true)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{both.ID}, contactIDs(every))
	assert.NotContains(t, contactIDs(every), untagged.ID)
}

func TestUpdateReplacesTagsWithoutDetachCascade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tagA := f.seedTag(t, "keep")
	tagB := f.seedTag(t, "drop")
	group := f.seedGroup(t, "Droppers", true, tagB)
	contact := f.seedContact(t, "+4915112345678")
	require.NoError(t, f.membership.AttachTag(ctx, tagA.ID, contact.ID))
	require.NoError(t, f.membership.AttachTag(ctx, tagB.ID, contact.ID))
	require.True(t, f.isMember(t, group.ID, contact.ID))

	updated, err := f.contacts.Update(ctx, contact.ID, UpdateContactInput{
		TagIDs: []uuid.UUID{tagA.ID},
	})
	require.NoError(t, err)

	require.Len(t, updated.Tags, 1)
	assert.Equal(t, tagA.ID, updated.Tags[0].ID)
	// The dropped tag never went through the detach cascade, so the
	// materialized membership survives.
	assert.True(t, f.isMember(t, group.ID, contact.ID))
}

func TestUpdateEmptyGroupListKeepsMembership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tag := f.seedTag(t, "vip")
	group := f.seedGroup(t, "VIPs", true, tag)
	contact := f.seedContact(t, "+4915112345678")
	require.NoError(t, f.membership.AttachTag(ctx, tag.ID, contact.ID))
	require.True(t, f.isMember(t, group.ID, contact.ID))

	newName := "Renamed"
	_, err := f.contacts.Update(ctx, contact.ID, UpdateContactInput{
		FirstName: &newName,
		GroupIDs:  []uuid.UUID{},
	})
	require.NoError(t, err)

	// No tags were re-attached, so membership can only survive if the
	// empty group list was treated as a no-op.
	assert.True(t, f.isMember(t, group.ID, contact.ID))
}

func TestUpdatePartialFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	contact := f.seedContact(t, "+4915112345678")
	newName := "Renamed"

	updated, err := f.contacts.Update(ctx, contact.ID, UpdateContactInput{FirstName: &newName})
	require.NoError(t, err)

	assert.Equal(t, "Renamed", updated.FirstName)
	assert.Equal(t, contact.LastName, updated.LastName)
	assert.Equal(t, contact.Fon, updated.Fon)
}

func TestUpsertCreatesThenUpdatesByPhone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.contacts.Upsert(ctx, UpsertContactInput{
		FirstName: "Jane",
		LastName:  "Doe",
		Fon:       "4915112345678",
		Tags:      []string{"import"},
	}, f.user.ID)
	require.NoError(t, err)
	require.Len(t, created.Tags, 1)

	updated, err := f.contacts.Upsert(ctx, UpsertContactInput{
		FirstName: "Janet",
		LastName:  "Doe",
		Fon:       "+4915112345678",
		Tags:      []string{"import", "vip"},
	}, f.user.ID)
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Janet", updated.FirstName)
	assert.Len(t, updated.Tags, 2)
}

func TestUpsertConnectsTagsWithoutCascade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tag := f.seedTag(t, "vip")
	group := f.seedGroup(t, "VIPs", true, tag)

	contact, err := f.contacts.Upsert(ctx, UpsertContactInput{
		FirstName: "Jane",
		LastName:  "Doe",
		Fon:       "+4915112345678",
		Tags:      []string{"vip"},
	}, f.user.ID)
	require.NoError(t, err)

	require.Len(t, contact.Tags, 1)
	assert.False(t, f.isMember(t, group.ID, contact.ID), "upsert connects tags directly")
}

func TestRemoveDeletesStructurally(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tag := f.seedTag(t, "vip")
	group := f.seedGroup(t, "VIPs", true, tag)
	contact := f.seedContact(t, "+4915112345678")
	require.NoError(t, f.membership.AttachTag(ctx, tag.ID, contact.ID))
	require.True(t, f.isMember(t, group.ID, contact.ID))

	require.NoError(t, f.contacts.Remove(ctx, contact.ID))

	assert.False(t, f.isMember(t, group.ID, contact.ID))
	_, err := f.contacts.FindOne(ctx, contact.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCountAndKpis(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedContact(t, "+4915112345671")
	inactive := false
	_, err := f.contacts.Create(ctx, CreateContactInput{
		FirstName: "Off",
		LastName:  "Line",
		Fon:       "+4915112345672",
		Active:    &inactive,
	}, f.user.ID)
	require.NoError(t, err)

	count, err := f.contacts.GetCount(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	kpis, err := f.contacts.GetKpis(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), kpis.ContactsCount)
	assert.Equal(t, int64(1), kpis.ActiveCount)
}

func TestFindAllPaginationCursor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedContact(t, "+4915112345671")
	f.seedContact(t, "+4915112345672")
	f.seedContact(t, "+4915112345673")

	page1Params := repos.FindAllParams{
		UserID: f.user.ID,
		Page:   pagination.Params{Limit: 2},
	}
	page1, err := f.contacts.FindAll(ctx, page1Params)
	require.NoError(t, err)
	require.Len(t, page1, 2)

	envelope1 := pagination.NewPage(page1, page1Params.Page.EffectiveLimit(), func(c *types.Contact) uuid.UUID { return c.ID })
	require.NotNil(t, envelope1.CursorID, "full page carries a cursor")
	assert.Equal(t, page1[1].ID.String(), *envelope1.CursorID)

	page2Params := repos.FindAllParams{
		UserID: f.user.ID,
		Page:   pagination.Params{Limit: 2, CursorID: *envelope1.CursorID},
	}
	page2, err := f.contacts.FindAll(ctx, page2Params)
	require.NoError(t, err)
	require.Len(t, page2, 1)

	envelope2 := pagination.NewPage(page2, page2Params.Page.EffectiveLimit(), func(c *types.Contact) uuid.UUID { return c.ID })
	assert.Nil(t, envelope2.CursorID, "short page ends the iteration")

	seen := append(contactIDs(page1), contactIDs(page2)...)
	assert.Len(t, seen, 3)
	assert.NotContains(t, contactIDs(page2), page1[0].ID)
	assert.NotContains(t, contactIDs(page2), page1[1].ID)
}

func TestFindAllSearchFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	match, err := f.contacts.Create(ctx, CreateContactInput{
		FirstName: "Greta",
		LastName:  "Miller",
		Fon:       "+4915112345671",
	}, f.user.ID)
	require.NoError(t, err)
	f.seedContact(t, "+4915112345672")

	found, err := f.contacts.FindAll(ctx, repos.FindAllParams{
		UserID: f.user.ID,
		Page:   pagination.Params{Search: "gret"},
	})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{match.ID}, contactIDs(found))
}

func TestFindAllUnlimited(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedContact(t, "+4915112345671")
	f.seedContact(t, "+4915112345672")

	all, err := f.contacts.FindAll(ctx, repos.FindAllParams{
		UserID: f.user.ID,
		Page:   pagination.Params{Limit: -1},
	})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func contactIDs(contacts []*types.Contact) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(contacts))
	for _, c := range contacts {
		ids = append(ids, c.ID)
	}
	return ids
}
