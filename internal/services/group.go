package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/keaz/contacts-backend/internal/apperr"
	"github.com/keaz/contacts-backend/internal/logger"
	"github.com/keaz/contacts-backend/internal/repos"
	"github.com/keaz/contacts-backend/internal/types"
)

type CreateGroupInput struct {
	Title       string
	IsInclusive bool
	TagIDs      []uuid.UUID
}

type GroupService interface {
	// Create stores the group with its tag rule. The member cache
	// starts empty; contacts join only through later tag attaches.
	Create(ctx context.Context, in CreateGroupInput, userID uuid.UUID) (*types.Group, error)
	GetAll(ctx context.Context, userID uuid.UUID) ([]*types.Group, error)
	GetOne(ctx context.Context, groupID, userID uuid.UUID) (*types.Group, error)
	Remove(ctx context.Context, groupID, userID uuid.UUID) error
}

type groupService struct {
	db        *gorm.DB
	log       *logger.Logger
	groupRepo repos.GroupRepo
	tagRepo   repos.TagRepo
}

func NewGroupService(db *gorm.DB, log *logger.Logger, groupRepo repos.GroupRepo, tagRepo repos.TagRepo) GroupService {
	serviceLog := log.With("service", "GroupService")
	return &groupService{db: db, log: serviceLog, groupRepo: groupRepo, tagRepo: tagRepo}
}

func (gs *groupService) Create(ctx context.Context, in CreateGroupInput, userID uuid.UUID) (*types.Group, error) {
	if in.Title == "" {
		return nil, fmt.Errorf("a group title is required: %w", apperr.ErrInvalidInput)
	}
	tags, err := gs.tagRepo.GetByIDs(ctx, nil, in.TagIDs)
	if err != nil {
		return nil, fmt.Errorf("error fetching rule tags: %w", err)
	}
	if len(tags) != len(in.TagIDs) {
		return nil, fmt.Errorf("one or more rule tags do not exist: %w", apperr.ErrNotFound)
	}
	for _, tag := range tags {
		if tag.ByUserID != userID {
			return nil, fmt.Errorf("rule tag %s belongs to another user: %w", tag.ID, apperr.ErrForbidden)
		}
	}

	group := &types.Group{
		Title:       in.Title,
		ByUserID:    userID,
		IsInclusive: in.IsInclusive,
	}
	var created *types.Group
	if err := gs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, err = gs.groupRepo.Create(ctx, tx, group, in.TagIDs)
		return err
	}); err != nil {
		return nil, fmt.Errorf("error creating group: %w", err)
	}
	return created, nil
}

func (gs *groupService) GetAll(ctx context.Context, userID uuid.UUID) ([]*types.Group, error) {
	return gs.groupRepo.GetAllForUser(ctx, nil, userID)
}

func (gs *groupService) GetOne(ctx context.Context, groupID, userID uuid.UUID) (*types.Group, error) {
	group, err := gs.groupRepo.GetByID(ctx, nil, groupID)
	if err != nil {
		return nil, fmt.Errorf("error fetching group: %w", err)
	}
	if group == nil {
		return nil, fmt.Errorf("group %s not found: %w", groupID, apperr.ErrNotFound)
	}
	if group.ByUserID != userID {
		return nil, fmt.Errorf("group belongs to another user: %w", apperr.ErrForbidden)
	}
	return group, nil
}

func (gs *groupService) Remove(ctx context.Context, groupID, userID uuid.UUID) error {
	if _, err := gs.GetOne(ctx, groupID, userID); err != nil {
		return err
	}
	return gs.groupRepo.Delete(ctx, nil, groupID)
}
