package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/keaz/contacts-backend/internal/apperr"
	"github.com/keaz/contacts-backend/internal/logger"
	"github.com/keaz/contacts-backend/internal/repos"
)

// MembershipService keeps each group's materialized member set
// consistent with its tag rule whenever a contact's tag set changes.
// Updates are incremental: only the groups referencing the touched tag
// are re-evaluated, and only for the one contact involved.
//
// Each attach/detach runs its read-modify-write sequence (read the
// contact's tag set, evaluate the affected group rules, write the
// membership rows) inside a single database transaction, so two
// concurrent mutations of the same contact cannot both act on a stale
// tag set.
type MembershipService interface {
	AttachTag(ctx context.Context, tagID, contactID uuid.UUID) error
	DetachTag(ctx context.Context, tagID, contactID uuid.UUID) error
	// AttachTagToMany applies AttachTag per contact, sequentially.
	// There is no cross-contact atomicity: contacts processed before a
	// failure keep their new state, the failure is recorded and the
	// remaining contacts are still processed.
	AttachTagToMany(ctx context.Context, tagID uuid.UUID, contactIDs []uuid.UUID) (*BulkResult, error)
}

type BulkFailure struct {
	ContactID uuid.UUID `json:"contactID"`
	Error     string    `json:"error"`
}

type BulkResult struct {
	Succeeded []uuid.UUID   `json:"succeeded"`
	Failed    []BulkFailure `json:"failed"`
}

type membershipService struct {
	db          *gorm.DB
	log         *logger.Logger
	contactRepo repos.ContactRepo
	tagRepo     repos.TagRepo
	groupRepo   repos.GroupRepo
}

func NewMembershipService(
	db *gorm.DB,
	log *logger.Logger,
	contactRepo repos.ContactRepo,
	tagRepo repos.TagRepo,
	groupRepo repos.GroupRepo,
) MembershipService {
	serviceLog := log.With("service", "MembershipService")
	return &membershipService{
		db:          db,
		log:         serviceLog,
		contactRepo: contactRepo,
		tagRepo:     tagRepo,
		groupRepo:   groupRepo,
	}
}

func (ms *membershipService) AttachTag(ctx context.Context, tagID, contactID uuid.UUID) error {
	return ms.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ms.checkPairExists(ctx, tx, tagID, contactID); err != nil {
			return err
		}

		if err := ms.contactRepo.AppendTag(ctx, tx, contactID, tagID); err != nil {
			return fmt.Errorf("failed to attach tag: %w", err)
		}
		// Re-attaching keeps membership untouched but still counts as
		// an application of the tag.
		if err := ms.tagRepo.TouchLastApplied(ctx, tx, tagID); err != nil {
			return fmt.Errorf("failed to update tag lastApplied: %w", err)
		}

		contactTags, err := ms.contactRepo.GetTagIDs(ctx, tx, contactID)
		if err != nil {
			return fmt.Errorf("failed to read contact tag set: %w", err)
		}
		tagSet := toSet(contactTags)

		ruleGroups, err := ms.groupRepo.FindForTags(ctx, tx, []uuid.UUID{tagID})
		if err != nil {
			return fmt.Errorf("failed to load rule groups: %w", err)
		}

		for _, group := range ruleGroups {
			member, err := ms.groupRepo.IsMember(ctx, tx, group.ID, contactID)
			if err != nil {
				return fmt.Errorf("failed to check membership of group %s: %w", group.ID, err)
			}
			if member {
				continue
			}
			// Inclusive: any one rule tag qualifies. Exclusive: the
			// contact must now hold every rule tag.
			qualifies := group.IsInclusive
			if !qualifies {
				qualifies = true
				for _, ruleTag := range group.Tags {
					if ruleTag.ID == tagID {
						continue
					}
					if _, ok := tagSet[ruleTag.ID]; !ok {
						qualifies = false
						break
					}
				}
			}
			if !qualifies {
				continue
			}
			if err := ms.groupRepo.AddContact(ctx, tx, group.ID, contactID); err != nil {
				return fmt.Errorf("failed to add contact to group %s: %w", group.ID, err)
			}
			ms.log.Debug("Contact joined group", "contactID", contactID, "groupID", group.ID, "tagID", tagID)
		}
		return nil
	})
}

func (ms *membershipService) DetachTag(ctx context.Context, tagID, contactID uuid.UUID) error {
	return ms.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ms.checkPairExists(ctx, tx, tagID, contactID); err != nil {
			return err
		}

		if err := ms.contactRepo.RemoveTag(ctx, tx, contactID, tagID); err != nil {
			return fmt.Errorf("failed to detach tag: %w", err)
		}

		contactTags, err := ms.contactRepo.GetTagIDs(ctx, tx, contactID)
		if err != nil {
			return fmt.Errorf("failed to read contact tag set: %w", err)
		}
		tagSet := toSet(contactTags)

		ruleGroups, err := ms.groupRepo.FindForTags(ctx, tx, []uuid.UUID{tagID})
		if err != nil {
			return fmt.Errorf("failed to load rule groups: %w", err)
		}

		for _, group := range ruleGroups {
			member, err := ms.groupRepo.IsMember(ctx, tx, group.ID, contactID)
			if err != nil {
				return fmt.Errorf("failed to check membership of group %s: %w", group.ID, err)
			}
			if !member {
				continue
			}

			remove := false
			if len(group.Tags) == 1 {
				// The removed tag was the whole rule.
				remove = true
			} else if group.IsInclusive {
				// Inclusive needs at least one rule tag left on the
				// contact.
				remove = true
				for _, ruleTag := range group.Tags {
					if ruleTag.ID == tagID {
						continue
					}
					if _, ok := tagSet[ruleTag.ID]; ok {
						remove = false
						break
					}
				}
			} else {
				// Exclusive needs all rule tags; the removed one is
				// already gone, so any other missing tag also fails it.
				for _, ruleTag := range group.Tags {
					if _, ok := tagSet[ruleTag.ID]; !ok {
						remove = true
						break
					}
				}
			}
			if !remove {
				continue
			}
			if err := ms.groupRepo.RemoveContact(ctx, tx, group.ID, contactID); err != nil {
				return fmt.Errorf("failed to remove contact from group %s: %w", group.ID, err)
			}
			ms.log.Debug("Contact left group", "contactID", contactID, "groupID", group.ID, "tagID", tagID)
		}
		return nil
	})
}

func (ms *membershipService) AttachTagToMany(ctx context.Context, tagID uuid.UUID, contactIDs []uuid.UUID) (*BulkResult, error) {
	tags, err := ms.tagRepo.GetByIDs(ctx, nil, []uuid.UUID{tagID})
	if err != nil {
		return nil, fmt.Errorf("error fetching tag: %w", err)
	}
	if len(tags) == 0 {
		return nil, fmt.Errorf("tag not found: %w", apperr.ErrNotFound)
	}

	result := &BulkResult{Succeeded: []uuid.UUID{}, Failed: []BulkFailure{}}
	for _, contactID := range contactIDs {
		if err := ms.AttachTag(ctx, tagID, contactID); err != nil {
			ms.log.Warn("Bulk tag attach failed for contact", "contactID", contactID, "tagID", tagID, "error", err)
			result.Failed = append(result.Failed, BulkFailure{ContactID: contactID, Error: err.Error()})
			continue
		}
		result.Succeeded = append(result.Succeeded, contactID)
	}
	return result, nil
}

func (ms *membershipService) checkPairExists(ctx context.Context, tx *gorm.DB, tagID, contactID uuid.UUID) error {
	tags, err := ms.tagRepo.GetByIDs(ctx, tx, []uuid.UUID{tagID})
	if err != nil {
		return fmt.Errorf("error fetching tag: %w", err)
	}
	if len(tags) == 0 {
		return fmt.Errorf("tag %s not found: %w", tagID, apperr.ErrNotFound)
	}
	contact, err := ms.contactRepo.GetByID(ctx, tx, contactID)
	if err != nil {
		return fmt.Errorf("error fetching contact: %w", err)
	}
	if contact == nil {
		return fmt.Errorf("contact %s not found: %w", contactID, apperr.ErrNotFound)
	}
	return nil
}

func toSet(ids []uuid.UUID) map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
