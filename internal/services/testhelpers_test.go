package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/keaz/contacts-backend/internal/logger"
	"github.com/keaz/contacts-backend/internal/repos"
	"github.com/keaz/contacts-backend/internal/types"
)

// fixture wires the full service stack onto an isolated in-memory
// sqlite database.
type fixture struct {
	db          *gorm.DB
	contactRepo repos.ContactRepo
	tagRepo     repos.TagRepo
	groupRepo   repos.GroupRepo
	userRepo    repos.UserRepo
	membership  MembershipService
	contacts    ContactService
	tags        TagService
	groups      GroupService
	user        *types.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(
		&types.User{},
		&types.Contact{},
		&types.Tag{},
		&types.Group{},
	))
	t.Cleanup(func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	log := logger.NewNop()
	contactRepo := repos.NewContactRepo(gdb, log)
	tagRepo := repos.NewTagRepo(gdb, log)
	groupRepo := repos.NewGroupRepo(gdb, log)
	userRepo := repos.NewUserRepo(gdb, log)

	tags := NewTagService(gdb, log, tagRepo)
	membership := NewMembershipService(gdb, log, contactRepo, tagRepo, groupRepo)
	contacts := NewContactService(gdb, log, contactRepo, membership, tags, nil)
	groups := NewGroupService(gdb, log, groupRepo, tagRepo)

	f := &fixture{
		db:          gdb,
		contactRepo: contactRepo,
		tagRepo:     tagRepo,
		groupRepo:   groupRepo,
		userRepo:    userRepo,
		membership:  membership,
		contacts:    contacts,
		tags:        tags,
		groups:      groups,
	}
	f.user = f.seedUser(t, "owner@example.com")
	return f
}

func (f *fixture) seedUser(t *testing.T, email string) *types.User {
	t.Helper()
	user := &types.User{
		Email:     email,
		Hash:      "x",
		FirstName: "Test",
		LastName:  "User",
		Role:      types.RoleUser,
	}
	created, err := f.userRepo.Create(context.Background(), nil, []*types.User{user})
	require.NoError(t, err)
	return created[0]
}

func (f *fixture) seedContact(t *testing.T, fon string) *types.Contact {
	t.Helper()
	contact, err := f.contacts.Create(context.Background(), CreateContactInput{
		FirstName: "Jane",
		LastName:  "Doe",
		Fon:       fon,
	}, f.user.ID)
	require.NoError(t, err)
	return contact
}

func (f *fixture) seedTag(t *testing.T, title string) *types.Tag {
	t.Helper()
	tags, err := f.tags.UpsertMany(context.Background(), []string{title}, f.user.ID)
	require.NoError(t, err)
	return tags[0]
}

func (f *fixture) seedGroup(t *testing.T, title string, inclusive bool, ruleTags ...*types.Tag) *types.Group {
	t.Helper()
	ids := make([]uuid.UUID, 0, len(ruleTags))
	for _, tag := range ruleTags {
		ids = append(ids, tag.ID)
	}
	group, err := f.groups.Create(context.Background(), CreateGroupInput{
		Title:       title,
		IsInclusive: inclusive,
		TagIDs:      ids,
	}, f.user.ID)
	require.NoError(t, err)
	return group
}

func (f *fixture) isMember(t *testing.T, groupID, contactID uuid.UUID) bool {
	t.Helper()
	member, err := f.groupRepo.IsMember(context.Background(), nil, groupID, contactID)
	require.NoError(t, err)
	return member
}
