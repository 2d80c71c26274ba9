package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scolaris/scolaris-api/internal/middleware"
	"github.com/scolaris/scolaris-api/internal/models"
	"github.com/scolaris/scolaris-api/internal/service"
	appErrors "github.com/scolaris/scolaris-api/pkg/errors"
	"github.com/scolaris/scolaris-api/pkg/export"
	"github.com/scolaris/scolaris-api/pkg/response"
)

type bulletinServiceMock struct {
	generateResult *service.GenerateBulletinsResult
	generateErr    error
	generateReq    *service.GenerateBulletinsRequest
	detail         *models.BulletinDetail
	detailErr      error
	listed         []models.BulletinDetail
	listErr        error
}

func (m *bulletinServiceMock) Generate(ctx context.Context, req service.GenerateBulletinsRequest) (*service.GenerateBulletinsResult, error) {
	m.generateReq = &req
	return m.generateResult, m.generateErr
}

func (m *bulletinServiceMock) GetByID(ctx context.Context, id string) (*models.BulletinDetail, error) {
	return m.detail, m.detailErr
}

func (m *bulletinServiceMock) ListByClassAndTerm(ctx context.Context, classID, termID string) ([]models.BulletinDetail, error) {
	return m.listed, m.listErr
}

func (m *bulletinServiceMock) ListByStudent(ctx context.Context, studentID string) ([]models.BulletinDetail, error) {
	return m.listed, m.listErr
}

func (m *bulletinServiceMock) UpdateComments(ctx context.Context, id string, req models.UpdateBulletinCommentsRequest) (*models.BulletinDetail, error) {
	return m.detail, m.detailErr
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope
}

func TestBulletinHandlerGenerate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &bulletinServiceMock{generateResult: &service.GenerateBulletinsResult{Count: 24}}
	h := NewBulletinHandler(mockSvc, nil)

	payload, _ := json.Marshal(service.GenerateBulletinsRequest{ClassID: "class-1", TermID: "term-1"})
	c, w := newGinContext(http.MethodPost, "/bulletins/generate", payload)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})

	h.Generate(c)

	require.Equal(t, http.StatusOK, w.Code)
	envelope := decodeEnvelope(t, w)
	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 24, data["count"])
	require.NotNil(t, mockSvc.generateReq)
	assert.Equal(t, "admin-1", mockSvc.generateReq.ActorID)
}

func TestBulletinHandlerGenerateEmptyScope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &bulletinServiceMock{generateErr: appErrors.ErrEmptyScope}
	h := NewBulletinHandler(mockSvc, nil)

	payload, _ := json.Marshal(service.GenerateBulletinsRequest{ClassID: "class-1", TermID: "term-1"})
	c, w := newGinContext(http.MethodPost, "/bulletins/generate", payload)

	h.Generate(c)

	require.Equal(t, http.StatusPreconditionFailed, w.Code)
	envelope := decodeEnvelope(t, w)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, appErrors.ErrEmptyScope.Code, envelope.Error.Code)
}

func TestBulletinHandlerGenerateBadPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewBulletinHandler(&bulletinServiceMock{}, nil)

	c, w := newGinContext(http.MethodPost, "/bulletins/generate", []byte("{not json"))
	h.Generate(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBulletinHandlerListRequiresScope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewBulletinHandler(&bulletinServiceMock{}, nil)

	c, w := newGinContext(http.MethodGet, "/bulletins?classId=class-1", nil)
	h.List(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBulletinHandlerList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &bulletinServiceMock{listed: []models.BulletinDetail{
		{Bulletin: models.Bulletin{ID: "bul-1", Rank: 1}},
		{Bulletin: models.Bulletin{ID: "bul-2", Rank: 2}},
	}}
	h := NewBulletinHandler(mockSvc, nil)

	c, w := newGinContext(http.MethodGet, "/bulletins?classId=class-1&termId=term-1", nil)
	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	envelope := decodeEnvelope(t, w)
	data, ok := envelope.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, data, 2)
}

func TestBulletinHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &bulletinServiceMock{detailErr: appErrors.ErrNotFound}
	h := NewBulletinHandler(mockSvc, nil)

	c, w := newGinContext(http.MethodGet, "/bulletins/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	h.Get(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestBulletinHandlerExportPDFDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewBulletinHandler(&bulletinServiceMock{}, nil)

	c, w := newGinContext(http.MethodGet, "/bulletins/bul-1/pdf", nil)
	c.Params = gin.Params{{Key: "id", Value: "bul-1"}}
	h.ExportPDF(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestBulletinHandlerExportPDF(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &bulletinServiceMock{detail: &models.BulletinDetail{
		Bulletin:    models.Bulletin{ID: "bul-1", GeneralAverage: 15.33, Rank: 1, TotalStudents: 2},
		StudentName: "Alice",
		ClassName:   "6eme A",
		TermName:    "Trimestre 1",
		Subjects: []models.BulletinSubjectResult{
			{SubjectName: "Mathematiques", Average: 15.33, Coefficient: 3, Total: 46.0, Appreciation: "Bien"},
		},
	}}
	h := NewBulletinHandler(mockSvc, export.NewBulletinPDF("College Moderne"))

	c, w := newGinContext(http.MethodGet, "/bulletins/bul-1/pdf", nil)
	c.Params = gin.Params{{Key: "id", Value: "bul-1"}}
	h.ExportPDF(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Body.Bytes())
}

func TestBulletinHandlerUpdateComments(t *testing.T) {
	gin.SetMode(gin.TestMode)
	comment := "Bon trimestre"
	mockSvc := &bulletinServiceMock{detail: &models.BulletinDetail{
		Bulletin: models.Bulletin{ID: "bul-1", TeacherComment: &comment},
	}}
	h := NewBulletinHandler(mockSvc, nil)

	payload, _ := json.Marshal(models.UpdateBulletinCommentsRequest{TeacherComment: &comment})
	c, w := newGinContext(http.MethodPatch, "/bulletins/bul-1/comments", payload)
	c.Params = gin.Params{{Key: "id", Value: "bul-1"}}
	h.UpdateComments(c)

	require.Equal(t, http.StatusOK, w.Code)
}
