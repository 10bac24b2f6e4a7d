package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/keaz/contacts-backend/internal/logger"
	"github.com/keaz/contacts-backend/internal/types"
)

type GroupRepo interface {
	Create(ctx context.Context, tx *gorm.DB, group *types.Group, ruleTagIDs []uuid.UUID) (*types.Group, error)
	GetByID(ctx context.Context, tx *gorm.DB, groupID uuid.UUID) (*types.Group, error)
	GetAllForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Group, error)
	// FindForTags returns every group whose rule references at least one
	// of the tags, with the full rule tag set preloaded.
	FindForTags(ctx context.Context, tx *gorm.DB, tagIDs []uuid.UUID) ([]*types.Group, error)
	IsMember(ctx context.Context, tx *gorm.DB, groupID, contactID uuid.UUID) (bool, error)
	AddContact(ctx context.Context, tx *gorm.DB, groupID, contactID uuid.UUID) error
	RemoveContact(ctx context.Context, tx *gorm.DB, groupID, contactID uuid.UUID) error
	Delete(ctx context.Context, tx *gorm.DB, groupID uuid.UUID) error
}

type groupRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGroupRepo(db *gorm.DB, baseLog *logger.Logger) GroupRepo {
	repoLog := baseLog.With("repo", "GroupRepo")
	return &groupRepo{db: db, log: repoLog}
}

func (gr *groupRepo) Create(ctx context.Context, tx *gorm.DB, group *types.Group, ruleTagIDs []uuid.UUID) (*types.Group, error) {
	transaction := tx
	if transaction == nil {
		transaction = gr.db
	}
	if group.ID == uuid.Nil {
		group.ID = uuid.New()
	}
	if err := transaction.WithContext(ctx).Omit("Tags", "Contacts").Create(group).Error; err != nil {
		return nil, err
	}
	for _, tagID := range ruleTagIDs {
		if err := transaction.WithContext(ctx).
			Exec("INSERT INTO group_tag (group_id, tag_id) VALUES (?, ?) ON CONFLICT DO NOTHING", group.ID, tagID).Error; err != nil {
			return nil, err
		}
	}
	return gr.GetByID(ctx, transaction, group.ID)
}

func (gr *groupRepo) GetByID(ctx context.Context, tx *gorm.DB, groupID uuid.UUID) (*types.Group, error) {
	transaction := tx
	if transaction == nil {
		transaction = gr.db
	}
	var group types.Group
	err := transaction.WithContext(ctx).
		Preload("Tags").
		Preload("Contacts").
		Where("id = ?", groupID).
		First(&group).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (gr *groupRepo) GetAllForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Group, error) {
	transaction := tx
	if transaction == nil {
		transaction = gr.db
	}
	var results []*types.Group
	if err := transaction.WithContext(ctx).
		Preload("Tags").
		Where("by_user_id = ?", userID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (gr *groupRepo) FindForTags(ctx context.Context, tx *gorm.DB, tagIDs []uuid.UUID) ([]*types.Group, error) {
	transaction := tx
	if transaction == nil {
		transaction = gr.db
	}
	if len(tagIDs) == 0 {
		return []*types.Group{}, nil
	}
	var results []*types.Group
	if err := transaction.WithContext(ctx).
		Model(&types.Group{}).
		Distinct(`"group".*`).
		Joins(`JOIN group_tag gt ON gt.group_id = "group".id`).
		Where("gt.tag_id IN ?", tagIDs).
		Preload("Tags").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (gr *groupRepo) IsMember(ctx context.Context, tx *gorm.DB, groupID, contactID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = gr.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Table("group_contact").
		Where("group_id = ? AND contact_id = ?", groupID, contactID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (gr *groupRepo) AddContact(ctx context.Context, tx *gorm.DB, groupID, contactID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = gr.db
	}
	return transaction.WithContext(ctx).
		Exec("INSERT INTO group_contact (group_id, contact_id) VALUES (?, ?) ON CONFLICT DO NOTHING", groupID, contactID).Error
}

func (gr *groupRepo) RemoveContact(ctx context.Context, tx *gorm.DB, groupID, contactID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = gr.db
	}
	return transaction.WithContext(ctx).
		Exec("DELETE FROM group_contact WHERE group_id = ? AND contact_id = ?", groupID, contactID).Error
}

func (gr *groupRepo) Delete(ctx context.Context, tx *gorm.DB, groupID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = gr.db
	}
	if err := transaction.WithContext(ctx).
		Exec("DELETE FROM group_tag WHERE group_id = ?", groupID).Error; err != nil {
		return err
	}
	if err := transaction.WithContext(ctx).
		Exec("DELETE FROM group_contact WHERE group_id = ?", groupID).Error; err != nil {
		return err
	}
	return transaction.WithContext(ctx).
		Where("id = ?", groupID).
		Delete(&types.Group{}).Error
}
