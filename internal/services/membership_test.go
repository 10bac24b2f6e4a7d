package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keaz/contacts-backend/internal/apperr"
)

func TestAttachDetachSingleTagRule(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tag := f.seedTag(t, "newsletter")
	group := f.seedGroup(t, "Newsletter readers", true, tag)
	contact := f.seedContact(t, "+4915112345678")

	require.NoError(t, f.membership.AttachTag(ctx, tag.ID, contact.ID))
	assert.True(t, f.isMember(t, group.ID, contact.ID))

	require.NoError(t, f.membership.DetachTag(ctx, tag.ID, contact.ID))
	assert.False(t, f.isMember(t, group.ID, contact.ID))
}

func TestAttachIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tag := f.seedTag(t, "vip")
	group := f.seedGroup(t, "VIPs", true, tag)
	contact := f.seedContact(t, "+4915112345678")

	require.NoError(t, f.membership.AttachTag(ctx, tag.ID, contact.ID))
	require.NoError(t, f.membership.AttachTag(ctx, tag.ID, contact.ID))

	assert.True(t, f.isMember(t, group.ID, contact.ID))
	tagIDs, err := f.contactRepo.GetTagIDs(ctx, nil, contact.ID)
	require.NoError(t, err)
	assert.Len(t, tagIDs, 1)
}

func TestAttachTouchesLastApplied(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tag := f.seedTag(t, "lead")
	contact := f.seedContact(t, "+4915112345678")
	require.Nil(t, tag.LastApplied)

	require.NoError(t, f.membership.AttachTag(ctx, tag.ID, contact.ID))

	reloaded, err := f.tagRepo.GetByIDs(ctx, nil, []uuid.UUID{tag.ID})
	require.NoError(t, err)
	require.Len(t, reloaded, 1)
	assert.NotNil(t, reloaded[0].LastApplied)
}

func TestInclusiveGroupAnyRuleTagQualifies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tagA := f.seedTag(t, "customer")
	tagB := f.seedTag(t, "partner")
	group := f.seedGroup(t, "Contacts we bill", true, tagA, tagB)
	contact := f.seedContact(t, "+4915112345678")

	require.NoError(t, f.membership.AttachTag(ctx, tagA.ID, contact.ID))
	assert.True(t, f.isMember(t, group.ID, contact.ID))

	// No other rule tag held, so losing the last one drops membership.
	require.NoError(t, f.membership.DetachTag(ctx, tagA.ID, contact.ID))
	assert.False(t, f.isMember(t, group.ID, contact.ID))

	require.NoError(t, f.membership.AttachTag(ctx, tagA.ID, contact.ID))
	require.NoError(t, f.membership.AttachTag(ctx, tagB.ID, contact.ID))
	require.NoError(t, f.membership.DetachTag(ctx, tagA.ID, contact.ID))
	assert.True(t, f.isMember(t, group.ID, contact.ID), "another rule tag still held")

	require.NoError(t, f.membership.DetachTag(ctx, tagB.ID, contact.ID))
	assert.False(t, f.isMember(t, group.ID, contact.ID))
}

func TestExclusiveGroupNeedsEveryRuleTag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tagA := f.seedTag(t, "berlin")
	tagB := f.seedTag(t, "customer")
	group := f.seedGroup(t, "Berlin customers", false, tagA, tagB)
	contact := f.seedContact(t, "+4915112345678")

	require.NoError(t, f.membership.AttachTag(ctx, tagA.ID, contact.ID))
	assert.False(t, f.isMember(t, group.ID, contact.ID), "one of two rule tags is not enough")

	require.NoError(t, f.membership.AttachTag(ctx, tagB.ID, contact.ID))
	assert.True(t, f.isMember(t, group.ID, contact.ID))

	require.NoError(t, f.membership.DetachTag(ctx, tagA.ID, contact.ID))
	assert.False(t, f.isMember(t, group.ID, contact.ID))
}

func TestAttachUnknownTagFails(t *testing.T) {
	f := newFixture(t)
	contact := f.seedContact(t, "+4915112345678")

	err := f.membership.AttachTag(context.Background(), uuid.New(), contact.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAttachUnknownContactFails(t *testing.T) {
	f := newFixture(t)
	tag := f.seedTag(t, "vip")

	err := f.membership.AttachTag(context.Background(), tag.ID, uuid.New())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAttachTagToManyKeepsPartialProgress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tag := f.seedTag(t, "imported")
	group := f.seedGroup(t, "Imported contacts", true, tag)
	first := f.seedContact(t, "+4915112345678")
	second := f.seedContact(t, "+4915112345679")
	bogus := uuid.New()

	result, err := f.membership.AttachTagToMany(ctx, tag.ID, []uuid.UUID{first.ID, bogus, second.ID})
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{first.ID, second.ID}, result.Succeeded)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, bogus, result.Failed[0].ContactID)

	assert.True(t, f.isMember(t, group.ID, first.ID))
	assert.True(t, f.isMember(t, group.ID, second.ID))
}

func TestAttachTagToManyUnknownTag(t *testing.T) {
	f := newFixture(t)
	contact := f.seedContact(t, "+4915112345678")

	_, err := f.membership.AttachTagToMany(context.Background(), uuid.New(), []uuid.UUID{contact.ID})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
