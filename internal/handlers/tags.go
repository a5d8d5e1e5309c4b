package handlers

import (
	"net/http"

	"task-planner/backend/internal/models"
	"task-planner/backend/internal/services"

	"github.com/gin-gonic/gin"
)

type TagHandler struct {
	tagService services.TagService
}

func NewTagHandler(tagService services.TagService) *TagHandler {
	return &TagHandler{tagService: tagService}
}

func (h *TagHandler) CreateTag(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	var req tagRequest
	if err := decodeJSON(c, &req); err != nil {
		badRequest(c, err)
		return
	}

	tag, err := h.tagService.CreateTag(c.Request.Context(), owner, models.TagInput{
		Name:  deref(req.Name),
		Color: deref(req.Color),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tag)
}

func (h *TagHandler) GetTags(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	tags, err := h.tagService.ListTags(c.Request.Context(), owner)
	if err != nil {
		writeError(c, err)
		return
	}
	if tags == nil {
		tags = []models.Tag{}
	}
	c.JSON(http.StatusOK, tags)
}

func (h *TagHandler) GetTagByID(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	tag, err := h.tagService.GetTag(c.Request.Context(), owner, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tag)
}

func (h *TagHandler) UpdateTag(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req tagRequest
	if err := decodeJSON(c, &req); err != nil {
		badRequest(c, err)
		return
	}

	tag, err := h.tagService.UpdateTag(c.Request.Context(), owner, id, models.TagPatch{
		Name:  req.Name,
		Color: req.Color,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tag)
}

// DeleteTag detaches the tag from every task before removing it.
func (h *TagHandler) DeleteTag(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.tagService.DeleteTag(c.Request.Context(), owner, id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
