package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/keaz/contacts-backend/internal/apperr"
	"github.com/keaz/contacts-backend/internal/cache"
	"github.com/keaz/contacts-backend/internal/logger"
	"github.com/keaz/contacts-backend/internal/phone"
	"github.com/keaz/contacts-backend/internal/repos"
	"github.com/keaz/contacts-backend/internal/types"
)

type CreateContactInput struct {
	FirstName string
	LastName  string
	Fon       string
	Email     string
	Birthday  *time.Time
	Active    *bool
	Notes     string
	TagIDs    []uuid.UUID
	GroupIDs  []uuid.UUID
}

// UpdateContactInput carries a partial update. Nil fields stay
// untouched. TagIDs lists tags to connect: the contact's tag set is
// cleared first and each listed tag re-attached through the
// membership cascade. Tags that were attached before but are missing
// from TagIDs are only dropped from the contact, never run through
// the detach cascade.
type UpdateContactInput struct {
	FirstName *string
	LastName  *string
	Fon       *string
	Email     *string
	Birthday  *time.Time
	Active    *bool
	Notes     *string
	TagIDs    []uuid.UUID
	GroupIDs  []uuid.UUID
}

type UpsertContactInput struct {
	FirstName string
	LastName  string
	Fon       string
	Email     string
	Birthday  *time.Time
	Active    *bool
	Notes     string
	Tags      []string
}

type ContactKpis struct {
	ContactsCount int64 `json:"contactsCount"`
	ActiveCount   int64 `json:"activeCount"`
}

type ContactService interface {
	Create(ctx context.Context, in CreateContactInput, userID uuid.UUID) (*types.Contact, error)
	FindAll(ctx context.Context, params repos.FindAllParams) ([]*types.Contact, error)
	FindAllByTags(ctx context.Context, tagIDs []uuid.UUID, exclusive bool) ([]*types.Contact, error)
	FindOne(ctx context.Context, contactID uuid.UUID) (*types.Contact, error)
	FindOneByFon(ctx context.Context, fon string, userID uuid.UUID) (*types.Contact, error)
	GetCount(ctx context.Context, userID uuid.UUID) (int64, error)
	GetKpis(ctx context.Context, userID uuid.UUID) (*ContactKpis, error)
	Update(ctx context.Context, contactID uuid.UUID, in UpdateContactInput) (*types.Contact, error)
	Upsert(ctx context.Context, in UpsertContactInput, userID uuid.UUID) (*types.Contact, error)
	Remove(ctx context.Context, contactID uuid.UUID) error
	RemoveMany(ctx context.Context, contactIDs []uuid.UUID) error
}

type contactService struct {
	db          *gorm.DB
	log         *logger.Logger
	contactRepo repos.ContactRepo
	membership  MembershipService
	tagService  TagService
	counts      cache.CountCache
}

// NewContactService wires the orchestration layer. counts may be nil
// when no redis is configured; count queries then always hit the
// database.
func NewContactService(
	db *gorm.DB,
	log *logger.Logger,
	contactRepo repos.ContactRepo,
	membership MembershipService,
	tagService TagService,
	counts cache.CountCache,
) ContactService {
	serviceLog := log.With("service", "ContactService")
	return &contactService{
		db:          db,
		log:         serviceLog,
		contactRepo: contactRepo,
		membership:  membership,
		tagService:  tagService,
		counts:      counts,
	}
}

func (cs *contactService) Create(ctx context.Context, in CreateContactInput, userID uuid.UUID) (*types.Contact, error) {
	normalized, err := phone.Normalize(in.Fon)
	if err != nil {
		return nil, err
	}
	if normalized == nil {
		return nil, fmt.Errorf("a phone number is required: %w", apperr.ErrInvalidPhoneNumber)
	}

	existing, err := cs.contactRepo.GetByFonAndUser(ctx, nil, normalized.Fon, userID)
	if err != nil {
		return nil, fmt.Errorf("error checking existing contact: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("contact with phone %s already exists: %w", normalized.Fon, apperr.ErrDuplicateContact)
	}

	active := true
	if in.Active != nil {
		active = *in.Active
	}
	contact := &types.Contact{
		ByUserID:    userID,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Fon:         normalized.Fon,
		CountryCode: normalized.CountryCode,
		Email:       in.Email,
		Birthday:    in.Birthday,
		Active:      active,
		Notes:       in.Notes,
	}
	if _, err := cs.contactRepo.Create(ctx, nil, contact); err != nil {
		return nil, fmt.Errorf("error creating contact: %w", err)
	}

	if len(in.GroupIDs) > 0 {
		if err := cs.contactRepo.SetGroups(ctx, nil, contact.ID, in.GroupIDs); err != nil {
			return nil, fmt.Errorf("error connecting groups: %w", err)
		}
	}
	// Tag connects run through the membership cascade one by one. A
	// failure partway leaves the earlier attaches in place.
	for _, tagID := range in.TagIDs {
		if err := cs.membership.AttachTag(ctx, tagID, contact.ID); err != nil {
			return nil, fmt.Errorf("error attaching tag %s: %w", tagID, err)
		}
	}

	cs.invalidateCounts(ctx, userID)
	return cs.contactRepo.GetByID(ctx, nil, contact.ID)
}

func (cs *contactService) FindAll(ctx context.Context, params repos.FindAllParams) ([]*types.Contact, error) {
	return cs.contactRepo.FindAll(ctx, nil, params)
}

// FindAllByTags in exclusive mode keeps only contacts that hold every
// requested tag. The repo's "every" query also matches contacts whose
// tag set is a subset of the request, including the empty set, so
// those are filtered out here.
func (cs *contactService) FindAllByTags(ctx context.Context, tagIDs []uuid.UUID, exclusive bool) ([]*types.Contact, error) {
	contacts, err := cs.contactRepo.FindByTags(ctx, nil, tagIDs, exclusive)
	if err != nil {
		return nil, err
	}
	if !exclusive {
		return contacts, nil
	}

	want := make(map[uuid.UUID]struct{}, len(tagIDs))
	for _, id := range tagIDs {
		want[id] = struct{}{}
	}
	filtered := make([]*types.Contact, 0, len(contacts))
	for _, contact := range contacts {
		hits := 0
		for _, tag := range contact.Tags {
			if _, ok := want[tag.ID]; ok {
				hits++
			}
		}
		if hits == len(want) {
			filtered = append(filtered, contact)
		}
	}
	return filtered, nil
}

func (cs *contactService) FindOne(ctx context.Context, contactID uuid.UUID) (*types.Contact, error) {
	contact, err := cs.contactRepo.GetByID(ctx, nil, contactID)
	if err != nil {
		return nil, fmt.Errorf("error fetching contact: %w", err)
	}
	if contact == nil {
		return nil, fmt.Errorf("contact %s not found: %w", contactID, apperr.ErrNotFound)
	}
	return contact, nil
}

// FindOneByFon looks a contact up by any spelling of its phone number;
// the input is normalized to the canonical form first.
func (cs *contactService) FindOneByFon(ctx context.Context, fon string, userID uuid.UUID) (*types.Contact, error) {
	normalized, err := phone.Normalize(fon)
	if err != nil {
		return nil, err
	}
	if normalized == nil {
		return nil, fmt.Errorf("a phone number is required: %w", apperr.ErrInvalidPhoneNumber)
	}
	found, err := cs.contactRepo.GetByFonAndUser(ctx, nil, normalized.Fon, userID)
	if err != nil {
		return nil, fmt.Errorf("error fetching contact: %w", err)
	}
	if found == nil {
		return nil, fmt.Errorf("contact with phone %s not found: %w", normalized.Fon, apperr.ErrNotFound)
	}
	return cs.contactRepo.GetByID(ctx, nil, found.ID)
}

func (cs *contactService) GetCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	if cs.counts != nil {
		if n, ok := cs.counts.Get(ctx, userID, "count"); ok {
			return n, nil
		}
	}
	n, err := cs.contactRepo.Count(ctx, nil, userID)
	if err != nil {
		return 0, err
	}
	if cs.counts != nil {
		cs.counts.Set(ctx, userID, "count", n)
	}
	return n, nil
}

func (cs *contactService) GetKpis(ctx context.Context, userID uuid.UUID) (*ContactKpis, error) {
	contactsCount, err := cs.GetCount(ctx, userID)
	if err != nil {
		return nil, err
	}

	var activeCount int64
	cached := false
	if cs.counts != nil {
		activeCount, cached = cs.counts.Get(ctx, userID, "activeCount")
	}
	if !cached {
		activeCount, err = cs.contactRepo.CountActive(ctx, nil, userID)
		if err != nil {
			return nil, err
		}
		if cs.counts != nil {
			cs.counts.Set(ctx, userID, "activeCount", activeCount)
		}
	}
	return &ContactKpis{ContactsCount: contactsCount, ActiveCount: activeCount}, nil
}

func (cs *contactService) Update(ctx context.Context, contactID uuid.UUID, in UpdateContactInput) (*types.Contact, error) {
	contact, err := cs.FindOne(ctx, contactID)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if in.FirstName != nil {
		fields["first_name"] = *in.FirstName
	}
	if in.LastName != nil {
		fields["last_name"] = *in.LastName
	}
	if in.Email != nil {
		fields["email"] = *in.Email
	}
	if in.Notes != nil {
		fields["notes"] = *in.Notes
	}
	if in.Active != nil {
		fields["active"] = *in.Active
	}
	if in.Birthday != nil {
		fields["birthday"] = in.Birthday
	}
	if in.Fon != nil && *in.Fon != "" {
		normalized, err := phone.Normalize(*in.Fon)
		if err != nil {
			return nil, err
		}
		fields["fon"] = normalized.Fon
		fields["country_code"] = normalized.CountryCode
	}

	if err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := cs.contactRepo.UpdateFields(ctx, tx, contactID, fields); err != nil {
			return fmt.Errorf("error updating contact: %w", err)
		}
		// Tags are fully replaced: drop all and reconnect the listed
		// ones below. Dropping here bypasses the detach cascade on
		// purpose, only explicit connects cascade on update.
		if err := cs.contactRepo.ClearTags(ctx, tx, contactID); err != nil {
			return fmt.Errorf("error clearing contact tags: %w", err)
		}
		// An empty list is a no-op, not a wipe: group membership only
		// changes when groups are actually named.
		if len(in.GroupIDs) > 0 {
			if err := cs.contactRepo.SetGroups(ctx, tx, contactID, in.GroupIDs); err != nil {
				return fmt.Errorf("error setting contact groups: %w", err)
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}

	for _, tagID := range in.TagIDs {
		if err := cs.membership.AttachTag(ctx, tagID, contactID); err != nil {
			return nil, fmt.Errorf("error attaching tag %s: %w", tagID, err)
		}
	}

	cs.invalidateCounts(ctx, contact.ByUserID)
	return cs.contactRepo.GetByID(ctx, nil, contactID)
}

// Upsert finds the owner's contact by canonical phone inside one
// transaction and updates it in place, or creates it. The given tag
// titles are upserted and connected directly, without the attach
// cascade.
func (cs *contactService) Upsert(ctx context.Context, in UpsertContactInput, userID uuid.UUID) (*types.Contact, error) {
	normalized, err := phone.Normalize(in.Fon)
	if err != nil {
		return nil, err
	}
	if normalized == nil {
		return nil, fmt.Errorf("a phone number is required: %w", apperr.ErrInvalidPhoneNumber)
	}

	tags, err := cs.tagService.UpsertMany(ctx, in.Tags, userID)
	if err != nil {
		return nil, err
	}
	tagIDs := make([]uuid.UUID, 0, len(tags))
	for _, t := range tags {
		tagIDs = append(tagIDs, t.ID)
	}

	var contactID uuid.UUID
	if err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := cs.contactRepo.GetByFonAndUser(ctx, tx, normalized.Fon, userID)
		if err != nil {
			return fmt.Errorf("error checking existing contact: %w", err)
		}
		if existing != nil {
			contactID = existing.ID
			fields := map[string]interface{}{
				"first_name":   in.FirstName,
				"last_name":    in.LastName,
				"email":        in.Email,
				"notes":        in.Notes,
				"fon":          normalized.Fon,
				"country_code": normalized.CountryCode,
			}
			if in.Birthday != nil {
				fields["birthday"] = in.Birthday
			}
			if in.Active != nil {
				fields["active"] = *in.Active
			}
			if err := cs.contactRepo.UpdateFields(ctx, tx, contactID, fields); err != nil {
				return fmt.Errorf("error updating contact: %w", err)
			}
		} else {
			active := true
			if in.Active != nil {
				active = *in.Active
			}
			contact := &types.Contact{
				ByUserID:    userID,
				FirstName:   in.FirstName,
				LastName:    in.LastName,
				Fon:         normalized.Fon,
				CountryCode: normalized.CountryCode,
				Email:       in.Email,
				Birthday:    in.Birthday,
				Active:      active,
				Notes:       in.Notes,
			}
			if _, err := cs.contactRepo.Create(ctx, tx, contact); err != nil {
				return fmt.Errorf("error creating contact: %w", err)
			}
			contactID = contact.ID
		}
		return cs.contactRepo.ConnectTags(ctx, tx, contactID, tagIDs)
	}); err != nil {
		return nil, err
	}

	cs.invalidateCounts(ctx, userID)
	return cs.contactRepo.GetByID(ctx, nil, contactID)
}

func (cs *contactService) Remove(ctx context.Context, contactID uuid.UUID) error {
	contact, err := cs.FindOne(ctx, contactID)
	if err != nil {
		return err
	}
	if err := cs.contactRepo.Delete(ctx, nil, contactID); err != nil {
		return fmt.Errorf("error deleting contact: %w", err)
	}
	cs.invalidateCounts(ctx, contact.ByUserID)
	return nil
}

func (cs *contactService) RemoveMany(ctx context.Context, contactIDs []uuid.UUID) error {
	owners := map[uuid.UUID]struct{}{}
	for _, id := range contactIDs {
		contact, err := cs.contactRepo.GetByID(ctx, nil, id)
		if err != nil {
			return fmt.Errorf("error fetching contact: %w", err)
		}
		if contact != nil {
			owners[contact.ByUserID] = struct{}{}
		}
	}
	if err := cs.contactRepo.DeleteMany(ctx, nil, contactIDs); err != nil {
		return fmt.Errorf("error deleting contacts: %w", err)
	}
	for owner := range owners {
		cs.invalidateCounts(ctx, owner)
	}
	return nil
}

func (cs *contactService) invalidateCounts(ctx context.Context, userID uuid.UUID) {
	if cs.counts != nil {
		cs.counts.Invalidate(ctx, userID)
	}
}
