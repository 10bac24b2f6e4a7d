package repos

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/keaz/contacts-backend/internal/logger"
	"github.com/keaz/contacts-backend/internal/pagination"
	"github.com/keaz/contacts-backend/internal/types"
	"github.com/keaz/contacts-backend/internal/utils"
)

type FindAllParams struct {
	UserID  uuid.UUID
	GroupID *uuid.UUID
	Page    pagination.Params
}

type ContactRepo interface {
	Create(ctx context.Context, tx *gorm.DB, contact *types.Contact) (*types.Contact, error)
	GetByID(ctx context.Context, tx *gorm.DB, contactID uuid.UUID) (*types.Contact, error)
	GetByFonAndUser(ctx context.Context, tx *gorm.DB, fon string, userID uuid.UUID) (*types.Contact, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, contactID uuid.UUID, fields map[string]interface{}) error
	Delete(ctx context.Context, tx *gorm.DB, contactID uuid.UUID) error
	DeleteMany(ctx context.Context, tx *gorm.DB, contactIDs []uuid.UUID) error
	Count(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
	CountActive(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
	FindAll(ctx context.Context, tx *gorm.DB, params FindAllParams) ([]*types.Contact, error)
	FindByTags(ctx context.Context, tx *gorm.DB, tagIDs []uuid.UUID, exclusive bool) ([]*types.Contact, error)
	GetTagIDs(ctx context.Context, tx *gorm.DB, contactID uuid.UUID) ([]uuid.UUID, error)
	AppendTag(ctx context.Context, tx *gorm.DB, contactID, tagID uuid.UUID) error
	RemoveTag(ctx context.Context, tx *gorm.DB, contactID, tagID uuid.UUID) error
	ClearTags(ctx context.Context, tx *gorm.DB, contactID uuid.UUID) error
	ConnectTags(ctx context.Context, tx *gorm.DB, contactID uuid.UUID, tagIDs []uuid.UUID) error
	SetGroups(ctx context.Context, tx *gorm.DB, contactID uuid.UUID, groupIDs []uuid.UUID) error
}

type contactRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContactRepo(db *gorm.DB, baseLog *logger.Logger) ContactRepo {
	repoLog := baseLog.With("repo", "ContactRepo")
	return &contactRepo{db: db, log: repoLog}
}

func (cr *contactRepo) Create(ctx context.Context, tx *gorm.DB, contact *types.Contact) (*types.Contact, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if contact.ID == uuid.Nil {
		contact.ID = uuid.New()
	}
	if err := transaction.WithContext(ctx).Omit("Tags", "Groups").Create(contact).Error; err != nil {
		return nil, err
	}
	return contact, nil
}

func (cr *contactRepo) GetByID(ctx context.Context, tx *gorm.DB, contactID uuid.UUID) (*types.Contact, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var contact types.Contact
	err := transaction.WithContext(ctx).
		Preload("Tags").
		Preload("Groups").
		Preload("ByUser").
		Where("id = ?", contactID).
		First(&contact).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

func (cr *contactRepo) GetByFonAndUser(ctx context.Context, tx *gorm.DB, fon string, userID uuid.UUID) (*types.Contact, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var results []*types.Contact
	if err := transaction.WithContext(ctx).
		Where("fon = ? AND by_user_id = ?", fon, userID).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (cr *contactRepo) UpdateFields(ctx context.Context, tx *gorm.DB, contactID uuid.UUID, fields map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if len(fields) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Contact{}).
		Where("id = ?", contactID).
		Updates(fields).Error
}

// Delete removes the contact row and its association rows directly.
// Group membership entries for the contact disappear structurally, the
// membership rules are not re-evaluated for a contact that no longer
// exists.
func (cr *contactRepo) Delete(ctx context.Context, tx *gorm.DB, contactID uuid.UUID) error {
	return cr.DeleteMany(ctx, tx, []uuid.UUID{contactID})
}

func (cr *contactRepo) DeleteMany(ctx context.Context, tx *gorm.DB, contactIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if len(contactIDs) == 0 {
		return nil
	}
	if err := transaction.WithContext(ctx).
		Exec("DELETE FROM contact_tag WHERE contact_id IN ?", contactIDs).Error; err != nil {
		return err
	}
	if err := transaction.WithContext(ctx).
		Exec("DELETE FROM group_contact WHERE contact_id IN ?", contactIDs).Error; err != nil {
		return err
	}
	return transaction.WithContext(ctx).
		Where("id IN ?", contactIDs).
		Delete(&types.Contact{}).Error
}

func (cr *contactRepo) Count(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Contact{}).
		Where("by_user_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (cr *contactRepo) CountActive(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Contact{}).
		Where("by_user_id = ? AND active = ?", userID, true).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (cr *contactRepo) FindAll(ctx context.Context, tx *gorm.DB, params FindAllParams) ([]*types.Contact, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	q := transaction.WithContext(ctx).
		Model(&types.Contact{}).
		Where("contact.by_user_id = ?", params.UserID)

	if search := strings.TrimSpace(params.Page.Search); search != "" {
		pattern := "%" + strings.ToLower(utils.EscapeLike(search)) + "%"
		q = q.Where(
			`LOWER(contact.first_name) LIKE ? ESCAPE '\' OR LOWER(contact.last_name) LIKE ? ESCAPE '\' OR LOWER(contact.fon) LIKE ? ESCAPE '\' OR LOWER(contact.email) LIKE ? ESCAPE '\'`,
			pattern, pattern, pattern, pattern,
		)
	}

	if params.GroupID != nil {
		q = q.Joins("JOIN group_contact gc ON gc.contact_id = contact.id AND gc.group_id = ?", *params.GroupID)
	}

	var cursorValue interface{}
	if params.Page.CursorID != "" {
		var cursorRow types.Contact
		err := transaction.WithContext(ctx).
			Where("id = ?", params.Page.CursorID).
			First(&cursorRow).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []*types.Contact{}, nil
		}
		if err != nil {
			return nil, err
		}
		col, _, _ := params.Page.SortColumn()
		switch col {
		case "first_name":
			cursorValue = cursorRow.FirstName
		default:
			cursorValue = cursorRow.CreatedAt
		}
	}
	q = pagination.Apply(q, params.Page, cursorValue)

	var results []*types.Contact
	if err := q.Preload("Tags").Preload("Groups").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// FindByTags in "some" mode matches contacts holding any of the tags.
// In "every" mode it matches contacts with no tag outside the given
// set, which still lets zero-tag and subset contacts through; the
// service layer filters those out afterwards.
func (cr *contactRepo) FindByTags(ctx context.Context, tx *gorm.DB, tagIDs []uuid.UUID, exclusive bool) ([]*types.Contact, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if len(tagIDs) == 0 {
		return []*types.Contact{}, nil
	}
	q := transaction.WithContext(ctx).Model(&types.Contact{}).Preload("Tags")
	if exclusive {
		q = q.Where("contact.id NOT IN (SELECT contact_id FROM contact_tag WHERE tag_id NOT IN ?)", tagIDs)
	} else {
		q = q.Where("contact.id IN (SELECT contact_id FROM contact_tag WHERE tag_id IN ?)", tagIDs)
	}
	var results []*types.Contact
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *contactRepo) GetTagIDs(ctx context.Context, tx *gorm.DB, contactID uuid.UUID) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var ids []uuid.UUID
	if err := transaction.WithContext(ctx).
		Table("contact_tag").
		Where("contact_id = ?", contactID).
		Pluck("tag_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (cr *contactRepo) AppendTag(ctx context.Context, tx *gorm.DB, contactID, tagID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	// Idempotent: re-attaching an existing pair is a no-op.
	return transaction.WithContext(ctx).
		Exec("INSERT INTO contact_tag (contact_id, tag_id) VALUES (?, ?) ON CONFLICT DO NOTHING", contactID, tagID).Error
}

func (cr *contactRepo) RemoveTag(ctx context.Context, tx *gorm.DB, contactID, tagID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	return transaction.WithContext(ctx).
		Exec("DELETE FROM contact_tag WHERE contact_id = ? AND tag_id = ?", contactID, tagID).Error
}

func (cr *contactRepo) ClearTags(ctx context.Context, tx *gorm.DB, contactID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	return transaction.WithContext(ctx).
		Exec("DELETE FROM contact_tag WHERE contact_id = ?", contactID).Error
}

func (cr *contactRepo) ConnectTags(ctx context.Context, tx *gorm.DB, contactID uuid.UUID, tagIDs []uuid.UUID) error {
	for _, tagID := range tagIDs {
		if err := cr.AppendTag(ctx, tx, contactID, tagID); err != nil {
			return err
		}
	}
	return nil
}

func (cr *contactRepo) SetGroups(ctx context.Context, tx *gorm.DB, contactID uuid.UUID, groupIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if err := transaction.WithContext(ctx).
		Exec("DELETE FROM group_contact WHERE contact_id = ?", contactID).Error; err != nil {
		return err
	}
	for _, groupID := range groupIDs {
		if err := transaction.WithContext(ctx).
			Exec("INSERT INTO group_contact (group_id, contact_id) VALUES (?, ?) ON CONFLICT DO NOTHING", groupID, contactID).Error; err != nil {
			return err
		}
	}
	return nil
}
