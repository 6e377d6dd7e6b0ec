package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/univeil/univeil/internal/models"
	"github.com/univeil/univeil/internal/services"
	"github.com/univeil/univeil/internal/utils"
	"gorm.io/datatypes"
)

type ProfileHandler struct {
	svc services.ProfileService
}

func NewProfileHandler(svc services.ProfileService) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

func (h *ProfileHandler) Me(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	p, err := h.svc.GetMe(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name,omitempty"`
	Bio         *string `json:"bio,omitempty"`
	Campus      *string `json:"campus,omitempty"`
	Major       *string `json:"major,omitempty"`
	GradYear    *int    `json:"grad_year,omitempty"`

	Interests *[]string `json:"interests,omitempty"`
	PhotoURLs *[]string `json:"photo_urls,omitempty"`

	// JSONB field (raw)
	Preferences *json.RawMessage `json:"preferences,omitempty"`
}

func (h *ProfileHandler) Update(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ProfileHandler.Update", "invalid request body", err))
		return
	}

	// Load existing (if not found => create new)
	existing, err := h.svc.GetMe(c.Request.Context(), userID)
	if err != nil {
		if utils.IsCode(err, utils.CodeNotFound) {
			existing = &models.Profile{UserID: userID}
		} else {
			writeError(c, err)
			return
		}
	}

	// Apply partial updates
	if req.DisplayName != nil {
		existing.DisplayName = *req.DisplayName
	}
	if req.Bio != nil {
		existing.Bio = *req.Bio
	}
	if req.Campus != nil {
		existing.Campus = *req.Campus
	}
	if req.Major != nil {
		existing.Major = *req.Major
	}
	if req.GradYear != nil {
		existing.GradYear = *req.GradYear
	}
	if req.Interests != nil {
		existing.Interests = *req.Interests
	}
	if req.PhotoURLs != nil {
		existing.PhotoURLs = *req.PhotoURLs
	}
	if req.Preferences != nil {
		existing.Preferences = datatypes.JSON(*req.Preferences)
	}

	existing.UpdatedAt = time.Now().UTC()

	if err := h.svc.Upsert(c.Request.Context(), existing); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, existing)
}
