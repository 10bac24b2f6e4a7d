package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/keaz/contacts-backend/internal/apperr"
	"github.com/keaz/contacts-backend/internal/logger"
	"github.com/keaz/contacts-backend/internal/repos"
	"github.com/keaz/contacts-backend/internal/types"
)

type TagService interface {
	// UpsertMany resolves titles to tags for the owner, creating the
	// ones that do not exist yet. Upserting the same title twice hands
	// back the same tag. Results keep the input order.
	UpsertMany(ctx context.Context, titles []string, userID uuid.UUID) ([]*types.Tag, error)
	GetAll(ctx context.Context, userID uuid.UUID) ([]*types.Tag, error)
	Remove(ctx context.Context, tagID, userID uuid.UUID) error
}

type tagService struct {
	db      *gorm.DB
	log     *logger.Logger
	tagRepo repos.TagRepo
}

func NewTagService(db *gorm.DB, log *logger.Logger, tagRepo repos.TagRepo) TagService {
	serviceLog := log.With("service", "TagService")
	return &tagService{db: db, log: serviceLog, tagRepo: tagRepo}
}

func (ts *tagService) UpsertMany(ctx context.Context, titles []string, userID uuid.UUID) ([]*types.Tag, error) {
	var out []*types.Tag
	err := ts.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seen := map[string]*types.Tag{}
		for _, title := range titles {
			title = strings.TrimSpace(title)
			if title == "" {
				return fmt.Errorf("tag title must not be empty: %w", apperr.ErrInvalidInput)
			}
			if tag, ok := seen[title]; ok {
				out = append(out, tag)
				continue
			}
			tag, err := ts.tagRepo.GetByTitleAndUser(ctx, tx, title, userID)
			if err != nil {
				return fmt.Errorf("error looking up tag %q: %w", title, err)
			}
			if tag == nil {
				created, err := ts.tagRepo.Create(ctx, tx, []*types.Tag{{Title: title, ByUserID: userID}})
				if err != nil {
					return fmt.Errorf("error creating tag %q: %w", title, err)
				}
				tag = created[0]
			}
			seen[title] = tag
			out = append(out, tag)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (ts *tagService) GetAll(ctx context.Context, userID uuid.UUID) ([]*types.Tag, error) {
	return ts.tagRepo.GetAllForUser(ctx, nil, userID)
}

func (ts *tagService) Remove(ctx context.Context, tagID, userID uuid.UUID) error {
	tags, err := ts.tagRepo.GetByIDs(ctx, nil, []uuid.UUID{tagID})
	if err != nil {
		return fmt.Errorf("error fetching tag: %w", err)
	}
	if len(tags) == 0 {
		return fmt.Errorf("tag not found: %w", apperr.ErrNotFound)
	}
	if tags[0].ByUserID != userID {
		return fmt.Errorf("tag belongs to another user: %w", apperr.ErrForbidden)
	}
	return ts.tagRepo.Delete(ctx, nil, tagID)
}
