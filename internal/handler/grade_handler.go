package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/scolaris/scolaris-api/internal/models"
	"github.com/scolaris/scolaris-api/internal/service"
	appErrors "github.com/scolaris/scolaris-api/pkg/errors"
	"github.com/scolaris/scolaris-api/pkg/response"
)

// GradeHandler exposes grade endpoints.
type GradeHandler struct {
	grades *service.GradeService
}

// NewGradeHandler constructs handler.
func NewGradeHandler(grades *service.GradeService) *GradeHandler {
	return &GradeHandler{grades: grades}
}

// List godoc
// @Summary List grade entries
// @Tags Grades
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param classSubjectId query string false "Filter by class subject"
// @Param termId query string false "Filter by term"
// @Param kind query string false "Filter by kind"
// @Success 200 {object} response.Envelope
// @Router /grades [get]
func (h *GradeHandler) List(c *gin.Context) {
	filter := models.GradeFilter{
		StudentID:      c.Query("studentId"),
		ClassSubjectID: c.Query("classSubjectId"),
		TermID:         c.Query("termId"),
		Kind:           models.GradeKind(c.Query("kind")),
	}
	grades, err := h.grades.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grades, nil)
}

// Create godoc
// @Summary Record grade entry
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body service.CreateGradeRequest true "Grade payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /grades [post]
func (h *GradeHandler) Create(c *gin.Context) {
	var req service.CreateGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if claims := claimsFromContext(c); claims != nil {
		req.TeacherID = claims.UserID
	}
	grade, err := h.grades.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, grade)
}

// Delete godoc
// @Summary Delete grade entry
// @Tags Grades
// @Param id path string true "Grade ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /grades/{id} [delete]
func (h *GradeHandler) Delete(c *gin.Context) {
	if err := h.grades.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
