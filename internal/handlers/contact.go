package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/keaz/contacts-backend/internal/apperr"
	"github.com/keaz/contacts-backend/internal/pagination"
	"github.com/keaz/contacts-backend/internal/repos"
	"github.com/keaz/contacts-backend/internal/requestdata"
	"github.com/keaz/contacts-backend/internal/services"
	"github.com/keaz/contacts-backend/internal/types"
)

type ContactHandler struct {
	contactService services.ContactService
	membership     services.MembershipService
}

func NewContactHandler(contactService services.ContactService, membership services.MembershipService) *ContactHandler {
	return &ContactHandler{contactService: contactService, membership: membership}
}

func (ch *ContactHandler) Create(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var req struct {
		FirstName string      `json:"firstName"`
		LastName  string      `json:"lastName"`
		Fon       string      `json:"fon"`
		Email     string      `json:"email"`
		Birthday  *time.Time  `json:"birthday"`
		Active    *bool       `json:"active"`
		Notes     string      `json:"notes"`
		TagIDs    []uuid.UUID `json:"tagIDs"`
		GroupIDs  []uuid.UUID `json:"groupIDs"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apperr.InvalidInputf("invalid request body"))
		return
	}
	contact, err := ch.contactService.Create(c.Request.Context(), services.CreateContactInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Fon:       req.Fon,
		Email:     req.Email,
		Birthday:  req.Birthday,
		Active:    req.Active,
		Notes:     req.Notes,
		TagIDs:    req.TagIDs,
		GroupIDs:  req.GroupIDs,
	}, rd.UserID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, contact)
}

func (ch *ContactHandler) FindAll(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	params := repos.FindAllParams{UserID: rd.UserID, Page: pageParams(c)}
	ch.respondPage(c, params)
}

func (ch *ContactHandler) FindAllByGroup(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	groupID, err := uuid.Parse(c.Param("groupID"))
	if err != nil {
		RespondError(c, apperr.InvalidInputf("invalid group id"))
		return
	}
	params := repos.FindAllParams{UserID: rd.UserID, GroupID: &groupID, Page: pageParams(c)}
	ch.respondPage(c, params)
}

func (ch *ContactHandler) respondPage(c *gin.Context, params repos.FindAllParams) {
	contacts, err := ch.contactService.FindAll(c.Request.Context(), params)
	if err != nil {
		RespondError(c, err)
		return
	}
	if len(contacts) == 0 {
		RespondError(c, apperr.NotFoundf("no contacts found"))
		return
	}
	page := pagination.NewPage(contacts, params.Page.EffectiveLimit(), func(contact *types.Contact) uuid.UUID {
		return contact.ID
	})
	c.JSON(http.StatusOK, page)
}

func (ch *ContactHandler) FindAllByTags(c *gin.Context) {
	raw := strings.Split(c.Query("tagIDs"), ",")
	var tagIDs []uuid.UUID
	for _, part := range raw {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := uuid.Parse(part)
		if err != nil {
			RespondError(c, apperr.InvalidInputf("invalid tag id %q", part))
			return
		}
		tagIDs = append(tagIDs, id)
	}
	exclusive := c.Query("exclusive") == "true"
	contacts, err := ch.contactService.FindAllByTags(c.Request.Context(), tagIDs, exclusive)
	if err != nil {
		RespondError(c, err)
		return
	}
	if contacts == nil {
		contacts = []*types.Contact{}
	}
	c.JSON(http.StatusOK, contacts)
}

func (ch *ContactHandler) Count(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	count, err := ch.contactService.GetCount(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (ch *ContactHandler) Kpis(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	kpis, err := ch.contactService.GetKpis(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, kpis)
}

// FindOne rejects cross-owner reads with 405 unless the caller is an
// admin.
func (ch *ContactHandler) FindOne(c *gin.Context) {
	contact, err := ch.loadOwned(c, apperr.ErrMethodNotAllowed)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, contact)
}

func (ch *ContactHandler) Upsert(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var req struct {
		FirstName string     `json:"firstName"`
		LastName  string     `json:"lastName"`
		Fon       string     `json:"fon"`
		Email     string     `json:"email"`
		Birthday  *time.Time `json:"birthday"`
		Active    *bool      `json:"active"`
		Notes     string     `json:"notes"`
		Tags      []string   `json:"tags"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apperr.InvalidInputf("invalid request body"))
		return
	}
	contact, err := ch.contactService.Upsert(c.Request.Context(), services.UpsertContactInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Fon:       req.Fon,
		Email:     req.Email,
		Birthday:  req.Birthday,
		Active:    req.Active,
		Notes:     req.Notes,
		Tags:      req.Tags,
	}, rd.UserID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, contact)
}

func (ch *ContactHandler) Update(c *gin.Context) {
	contact, err := ch.loadOwned(c, apperr.ErrForbidden)
	if err != nil {
		RespondError(c, err)
		return
	}
	var req struct {
		FirstName *string     `json:"firstName"`
		LastName  *string     `json:"lastName"`
		Fon       *string     `json:"fon"`
		Email     *string     `json:"email"`
		Birthday  *time.Time  `json:"birthday"`
		Active    *bool       `json:"active"`
		Notes     *string     `json:"notes"`
		TagIDs    []uuid.UUID `json:"tagIDs"`
		GroupIDs  []uuid.UUID `json:"groupIDs"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apperr.InvalidInputf("invalid request body"))
		return
	}
	updated, err := ch.contactService.Update(c.Request.Context(), contact.ID, services.UpdateContactInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Fon:       req.Fon,
		Email:     req.Email,
		Birthday:  req.Birthday,
		Active:    req.Active,
		Notes:     req.Notes,
		TagIDs:    req.TagIDs,
		GroupIDs:  req.GroupIDs,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (ch *ContactHandler) AttachTagToMany(c *gin.Context) {
	tagID, err := uuid.Parse(c.Param("tagID"))
	if err != nil {
		RespondError(c, apperr.InvalidInputf("invalid tag id"))
		return
	}
	var req struct {
		ContactIDs []uuid.UUID `json:"contactIDs"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apperr.InvalidInputf("invalid request body"))
		return
	}
	result, err := ch.membership.AttachTagToMany(c.Request.Context(), tagID, req.ContactIDs)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (ch *ContactHandler) AttachTag(c *gin.Context) {
	contact, tagID, err := ch.loadOwnedWithTag(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	if err := ch.membership.AttachTag(c.Request.Context(), tagID, contact.ID); err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (ch *ContactHandler) DetachTag(c *gin.Context) {
	contact, tagID, err := ch.loadOwnedWithTag(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	if err := ch.membership.DetachTag(c.Request.Context(), tagID, contact.ID); err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (ch *ContactHandler) RemoveMany(c *gin.Context) {
	var req struct {
		IDs []uuid.UUID `json:"ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apperr.InvalidInputf("invalid request body"))
		return
	}
	if err := ch.contactService.RemoveMany(c.Request.Context(), req.IDs); err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (ch *ContactHandler) Remove(c *gin.Context) {
	contact, err := ch.loadOwned(c, apperr.ErrForbidden)
	if err != nil {
		RespondError(c, err)
		return
	}
	if err := ch.contactService.Remove(c.Request.Context(), contact.ID); err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// loadOwned fetches the contact behind :id and enforces ownership.
// crossOwnerErr is the sentinel returned when the contact belongs to
// someone else and the caller is not an admin.
func (ch *ContactHandler) loadOwned(c *gin.Context, crossOwnerErr error) (*types.Contact, error) {
	contactID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, apperr.InvalidInputf("invalid contact id")
	}
	contact, err := ch.contactService.FindOne(c.Request.Context(), contactID)
	if err != nil {
		return nil, err
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	if contact.ByUserID != rd.UserID && !rd.IsAdmin() {
		return nil, fmt.Errorf("contact belongs to another user: %w", crossOwnerErr)
	}
	return contact, nil
}

func (ch *ContactHandler) loadOwnedWithTag(c *gin.Context) (*types.Contact, uuid.UUID, error) {
	contact, err := ch.loadOwned(c, apperr.ErrForbidden)
	if err != nil {
		return nil, uuid.Nil, err
	}
	tagID, err := uuid.Parse(c.Param("tagID"))
	if err != nil {
		return nil, uuid.Nil, apperr.InvalidInputf("invalid tag id")
	}
	return contact, tagID, nil
}

func pageParams(c *gin.Context) pagination.Params {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}
	return pagination.Params{
		Search:   c.Query("search"),
		Sort:     c.Query("sort"),
		Order:    pagination.Order(c.Query("order")),
		CursorID: c.Query("cursorID"),
		Limit:    limit,
	}
}
