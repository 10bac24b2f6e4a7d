package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keaz/contacts-backend/internal/apperr"
)

func TestCreateGroupStoresRuleAndStartsEmpty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tagA := f.seedTag(t, "a")
	tagB := f.seedTag(t, "b")

	group, err := f.groups.Create(ctx, CreateGroupInput{
		Title:       "Both",
		IsInclusive: false,
		TagIDs:      []uuid.UUID{tagA.ID, tagB.ID},
	}, f.user.ID)
	require.NoError(t, err)

	assert.Len(t, group.Tags, 2)
	assert.Empty(t, group.Contacts, "members come only from tag attaches")
	assert.False(t, group.IsInclusive)
}

func TestCreateGroupValidatesRuleTags(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.groups.Create(ctx, CreateGroupInput{
		Title:  "Broken",
		TagIDs: []uuid.UUID{uuid.New()},
	}, f.user.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.groups.Create(ctx, CreateGroupInput{}, f.user.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	other := f.seedUser(t, "other@example.com")
	theirTag := f.seedTag(t, "theirs")
	_, err = f.groups.Create(ctx, CreateGroupInput{
		Title:  "Foreign rule",
		TagIDs: []uuid.UUID{theirTag.ID},
	}, other.ID)
	// seedTag created the tag for f.user, so other may not use it.
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestGetOneChecksOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tag := f.seedTag(t, "vip")
	group := f.seedGroup(t, "VIPs", true, tag)
	other := f.seedUser(t, "other@example.com")

	found, err := f.groups.GetOne(ctx, group.ID, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, group.ID, found.ID)

	_, err = f.groups.GetOne(ctx, group.ID, other.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.groups.GetOne(ctx, uuid.New(), f.user.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRemoveGroupLeavesContactsAlone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tag := f.seedTag(t, "vip")
	group := f.seedGroup(t, "VIPs", true, tag)
	contact := f.seedContact(t, "+4915112345678")
	require.NoError(t, f.membership.AttachTag(ctx, tag.ID, contact.ID))

	require.NoError(t, f.groups.Remove(ctx, group.ID, f.user.ID))

	_, err := f.groups.GetOne(ctx, group.ID, f.user.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	reloaded, err := f.contacts.FindOne(ctx, contact.ID)
	require.NoError(t, err)
	assert.Len(t, reloaded.Tags, 1)
}
