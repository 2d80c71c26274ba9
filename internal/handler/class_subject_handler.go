package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/scolaris/scolaris-api/internal/service"
	appErrors "github.com/scolaris/scolaris-api/pkg/errors"
	"github.com/scolaris/scolaris-api/pkg/response"
)

// ClassSubjectHandler exposes class-subject mapping endpoints.
type ClassSubjectHandler struct {
	classSubjects *service.ClassSubjectService
}

// NewClassSubjectHandler constructs handler.
func NewClassSubjectHandler(classSubjects *service.ClassSubjectService) *ClassSubjectHandler {
	return &ClassSubjectHandler{classSubjects: classSubjects}
}

// List godoc
// @Summary List subjects of a class
// @Tags Classes
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{id}/subjects [get]
func (h *ClassSubjectHandler) List(c *gin.Context) {
	assignments, err := h.classSubjects.ListByClass(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// Replace godoc
// @Summary Replace subjects of a class
// @Description Replace the class's full subject mapping with coefficients
// @Tags Classes
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body service.ReplaceClassSubjectsRequest true "Subjects payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{id}/subjects [put]
func (h *ClassSubjectHandler) Replace(c *gin.Context) {
	var req service.ReplaceClassSubjectsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	assignments, err := h.classSubjects.Replace(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}
