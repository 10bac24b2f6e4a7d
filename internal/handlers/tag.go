package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/keaz/contacts-backend/internal/apperr"
	"github.com/keaz/contacts-backend/internal/requestdata"
	"github.com/keaz/contacts-backend/internal/services"
)

type TagHandler struct {
	tagService services.TagService
}

func NewTagHandler(tagService services.TagService) *TagHandler {
	return &TagHandler{tagService: tagService}
}

func (th *TagHandler) GetAll(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	tags, err := th.tagService.GetAll(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tags)
}

// Upsert creates the given titles for the caller where missing and
// returns the full resolved tag list in input order.
func (th *TagHandler) Upsert(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var req struct {
		Titles []string `json:"titles"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apperr.InvalidInputf("invalid request body"))
		return
	}
	tags, err := th.tagService.UpsertMany(c.Request.Context(), req.Titles, rd.UserID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tags)
}

func (th *TagHandler) Remove(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	tagID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, apperr.InvalidInputf("invalid tag id"))
		return
	}
	if err := th.tagService.Remove(c.Request.Context(), tagID, rd.UserID); err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
