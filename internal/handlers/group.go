package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/keaz/contacts-backend/internal/apperr"
	"github.com/keaz/contacts-backend/internal/requestdata"
	"github.com/keaz/contacts-backend/internal/services"
)

type GroupHandler struct {
	groupService services.GroupService
}

func NewGroupHandler(groupService services.GroupService) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

func (gh *GroupHandler) GetAll(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	groups, err := gh.groupService.GetAll(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, groups)
}

func (gh *GroupHandler) Create(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var req struct {
		Title       string      `json:"title"`
		IsInclusive bool        `json:"isInclusive"`
		TagIDs      []uuid.UUID `json:"tagIDs"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apperr.InvalidInputf("invalid request body"))
		return
	}
	group, err := gh.groupService.Create(c.Request.Context(), services.CreateGroupInput{
		Title:       req.Title,
		IsInclusive: req.IsInclusive,
		TagIDs:      req.TagIDs,
	}, rd.UserID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, group)
}

func (gh *GroupHandler) FindOne(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, apperr.InvalidInputf("invalid group id"))
		return
	}
	group, err := gh.groupService.GetOne(c.Request.Context(), groupID, rd.UserID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, group)
}

func (gh *GroupHandler) Remove(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, apperr.InvalidInputf("invalid group id"))
		return
	}
	if err := gh.groupService.Remove(c.Request.Context(), groupID, rd.UserID); err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
