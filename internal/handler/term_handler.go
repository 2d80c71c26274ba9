package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/scolaris/scolaris-api/internal/models"
	"github.com/scolaris/scolaris-api/internal/service"
	"github.com/scolaris/scolaris-api/pkg/response"
)

// TermHandler exposes term endpoints.
type TermHandler struct {
	terms *service.TermService
}

// NewTermHandler constructs handler.
func NewTermHandler(terms *service.TermService) *TermHandler {
	return &TermHandler{terms: terms}
}

// List godoc
// @Summary List terms
// @Tags Terms
// @Produce json
// @Param academicYear query string false "Filter by academic year"
// @Param isActive query bool false "Filter by active flag"
// @Success 200 {object} response.Envelope
// @Router /terms [get]
func (h *TermHandler) List(c *gin.Context) {
	filter := models.TermFilter{AcademicYear: c.Query("academicYear")}
	if raw := c.Query("isActive"); raw != "" {
		if active, err := strconv.ParseBool(raw); err == nil {
			filter.IsActive = &active
		}
	}
	terms, err := h.terms.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, terms, nil)
}

// Get godoc
// @Summary Get term by ID
// @Tags Terms
// @Produce json
// @Param id path string true "Term ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /terms/{id} [get]
func (h *TermHandler) Get(c *gin.Context) {
	term, err := h.terms.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, term, nil)
}
