package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/scolaris/scolaris-api/internal/models"
	"github.com/scolaris/scolaris-api/internal/service"
	appErrors "github.com/scolaris/scolaris-api/pkg/errors"
	"github.com/scolaris/scolaris-api/pkg/export"
	"github.com/scolaris/scolaris-api/pkg/response"
)

type bulletinService interface {
	Generate(ctx context.Context, req service.GenerateBulletinsRequest) (*service.GenerateBulletinsResult, error)
	GetByID(ctx context.Context, id string) (*models.BulletinDetail, error)
	ListByClassAndTerm(ctx context.Context, classID, termID string) ([]models.BulletinDetail, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.BulletinDetail, error)
	UpdateComments(ctx context.Context, id string, req models.UpdateBulletinCommentsRequest) (*models.BulletinDetail, error)
}

// BulletinHandler exposes report card endpoints.
type BulletinHandler struct {
	bulletins bulletinService
	pdf       *export.BulletinPDF
}

// NewBulletinHandler constructs handler. The PDF exporter may be nil when the
// export feature is disabled.
func NewBulletinHandler(bulletins bulletinService, pdf *export.BulletinPDF) *BulletinHandler {
	return &BulletinHandler{bulletins: bulletins, pdf: pdf}
}

// Generate godoc
// @Summary Generate bulletins for a class and term
// @Description Compute report cards for every active enrollment of the class
// @Tags Bulletins
// @Accept json
// @Produce json
// @Param payload body service.GenerateBulletinsRequest true "Generation scope"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /bulletins/generate [post]
func (h *BulletinHandler) Generate(c *gin.Context) {
	var req service.GenerateBulletinsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if claims := claimsFromContext(c); claims != nil {
		req.ActorID = claims.UserID
	}
	result, err := h.bulletins.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// List godoc
// @Summary List bulletins for a class and term
// @Tags Bulletins
// @Produce json
// @Param classId query string true "Class ID"
// @Param termId query string true "Term ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /bulletins [get]
func (h *BulletinHandler) List(c *gin.Context) {
	classID := c.Query("classId")
	termID := c.Query("termId")
	if classID == "" || termID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "classId and termId are required"))
		return
	}
	bulletins, err := h.bulletins.ListByClassAndTerm(c.Request.Context(), classID, termID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bulletins, nil)
}

// Get godoc
// @Summary Get bulletin by ID
// @Tags Bulletins
// @Produce json
// @Param id path string true "Bulletin ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /bulletins/{id} [get]
func (h *BulletinHandler) Get(c *gin.Context) {
	bulletin, err := h.bulletins.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bulletin, nil)
}

// StudentBulletins godoc
// @Summary List bulletins of a student
// @Tags Bulletins
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/bulletins [get]
func (h *BulletinHandler) StudentBulletins(c *gin.Context) {
	bulletins, err := h.bulletins.ListByStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bulletins, nil)
}

// UpdateComments godoc
// @Summary Update bulletin comments
// @Description Set teacher/principal comments and the decision on a bulletin
// @Tags Bulletins
// @Accept json
// @Produce json
// @Param id path string true "Bulletin ID"
// @Param payload body models.UpdateBulletinCommentsRequest true "Comments payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /bulletins/{id}/comments [patch]
func (h *BulletinHandler) UpdateComments(c *gin.Context) {
	var req models.UpdateBulletinCommentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	bulletin, err := h.bulletins.UpdateComments(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bulletin, nil)
}

// ExportPDF godoc
// @Summary Export bulletin as PDF
// @Tags Bulletins
// @Produce application/pdf
// @Param id path string true "Bulletin ID"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /bulletins/{id}/pdf [get]
func (h *BulletinHandler) ExportPDF(c *gin.Context) {
	if h.pdf == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "pdf export is disabled"))
		return
	}
	bulletin, err := h.bulletins.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	content, err := h.pdf.Render(bulletin)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render bulletin pdf"))
		return
	}
	filename := fmt.Sprintf("bulletin-%s.pdf", bulletin.ID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", content)
}
