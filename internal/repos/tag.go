package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/keaz/contacts-backend/internal/logger"
	"github.com/keaz/contacts-backend/internal/types"
)

type TagRepo interface {
	Create(ctx context.Context, tx *gorm.DB, tags []*types.Tag) ([]*types.Tag, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, tagIDs []uuid.UUID) ([]*types.Tag, error)
	GetByTitleAndUser(ctx context.Context, tx *gorm.DB, title string, userID uuid.UUID) (*types.Tag, error)
	GetAllForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Tag, error)
	TouchLastApplied(ctx context.Context, tx *gorm.DB, tagID uuid.UUID) error
	Delete(ctx context.Context, tx *gorm.DB, tagID uuid.UUID) error
}

type tagRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTagRepo(db *gorm.DB, baseLog *logger.Logger) TagRepo {
	repoLog := baseLog.With("repo", "TagRepo")
	return &tagRepo{db: db, log: repoLog}
}

func (tr *tagRepo) Create(ctx context.Context, tx *gorm.DB, tags []*types.Tag) ([]*types.Tag, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	if len(tags) == 0 {
		return []*types.Tag{}, nil
	}
	for _, t := range tags {
		if t.ID == uuid.Nil {
			t.ID = uuid.New()
		}
	}
	if err := transaction.WithContext(ctx).Omit("Contacts", "Groups").Create(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

func (tr *tagRepo) GetByIDs(ctx context.Context, tx *gorm.DB, tagIDs []uuid.UUID) ([]*types.Tag, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	var results []*types.Tag
	if len(tagIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", tagIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (tr *tagRepo) GetByTitleAndUser(ctx context.Context, tx *gorm.DB, title string, userID uuid.UUID) (*types.Tag, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	var results []*types.Tag
	if err := transaction.WithContext(ctx).
		Where("title = ? AND by_user_id = ?", title, userID).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (tr *tagRepo) GetAllForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Tag, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	var results []*types.Tag
	if err := transaction.WithContext(ctx).
		Where("by_user_id = ?", userID).
		Order("title asc").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (tr *tagRepo) TouchLastApplied(ctx context.Context, tx *gorm.DB, tagID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	now := time.Now()
	return transaction.WithContext(ctx).
		Model(&types.Tag{}).
		Where("id = ?", tagID).
		Update("last_applied", &now).Error
}

func (tr *tagRepo) Delete(ctx context.Context, tx *gorm.DB, tagID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	if err := transaction.WithContext(ctx).
		Exec("DELETE FROM contact_tag WHERE tag_id = ?", tagID).Error; err != nil {
		return err
	}
	if err := transaction.WithContext(ctx).
		Exec("DELETE FROM group_tag WHERE tag_id = ?", tagID).Error; err != nil {
		return err
	}
	return transaction.WithContext(ctx).
		Where("id = ?", tagID).
		Delete(&types.Tag{}).Error
}
