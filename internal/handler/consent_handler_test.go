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

	"github.com/stainespoir/parent-portal-api/internal/middleware"
	"github.com/stainespoir/parent-portal-api/internal/models"
	"github.com/stainespoir/parent-portal-api/internal/service"
	appErrors "github.com/stainespoir/parent-portal-api/pkg/errors"
	"github.com/stainespoir/parent-portal-api/pkg/response"
)

type consentServiceMock struct {
	signResp    *models.OutingRegistration
	signErr     error
	signReq     service.SignConsentRequest
	signParent  string
	signRegID   string
	declineResp *models.OutingRegistration
	declineErr  error
	reviewResp  *models.OutingRegistration
	reviewErr   error
	reviewWith  models.RegistrationStatus
}

func (m *consentServiceMock) Sign(ctx context.Context, parentProfileID, registrationID string, req service.SignConsentRequest) (*models.OutingRegistration, error) {
	m.signParent = parentProfileID
	m.signRegID = registrationID
	m.signReq = req
	return m.signResp, m.signErr
}

func (m *consentServiceMock) Decline(ctx context.Context, parentProfileID, registrationID string) (*models.OutingRegistration, error) {
	return m.declineResp, m.declineErr
}

func (m *consentServiceMock) Review(ctx context.Context, registrationID string, status models.RegistrationStatus) (*models.OutingRegistration, error) {
	m.reviewWith = status
	return m.reviewResp, m.reviewErr
}

func parentContext(t *testing.T, w *httptest.ResponseRecorder, method, target string, body []byte) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(w)
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.Header.Set("User-Agent", "test-agent")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleParent, ParentProfileID: "p1"})
	return c
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope
}

func TestConsentHandlerSign(t *testing.T) {
	mockSvc := &consentServiceMock{
		signResp: &models.OutingRegistration{ID: "r1", Status: models.RegistrationConfirmed},
	}
	handler := NewConsentHandler(mockSvc)

	payload, _ := json.Marshal(service.SignConsentRequest{
		SignatureName:  "Claire Dupont",
		SignaturePhone: "+33612345678",
		ConsentGiven:   true,
	})
	w := httptest.NewRecorder()
	c := parentContext(t, w, http.MethodPost, "/account/registrations/r1/sign", payload)
	c.Params = gin.Params{{Key: "id", Value: "r1"}}

	handler.Sign(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "p1", mockSvc.signParent)
	assert.Equal(t, "r1", mockSvc.signRegID)
	// The handler, not the client, stamps request metadata.
	assert.Equal(t, "test-agent", mockSvc.signReq.UserAgent)
	assert.NotEmpty(t, mockSvc.signReq.IPAddress)
}

func TestConsentHandlerSignOutingFull(t *testing.T) {
	mockSvc := &consentServiceMock{signErr: appErrors.ErrOutingFull}
	handler := NewConsentHandler(mockSvc)

	payload, _ := json.Marshal(service.SignConsentRequest{
		SignatureName:  "Claire Dupont",
		SignaturePhone: "+33612345678",
		ConsentGiven:   true,
	})
	w := httptest.NewRecorder()
	c := parentContext(t, w, http.MethodPost, "/account/registrations/r1/sign", payload)
	c.Params = gin.Params{{Key: "id", Value: "r1"}}

	handler.Sign(c)
	require.Equal(t, http.StatusConflict, w.Code)
	envelope := decodeEnvelope(t, w)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "CAPACITY_EXCEEDED", envelope.Error.Code)
}

func TestConsentHandlerSignLockUnavailable(t *testing.T) {
	mockSvc := &consentServiceMock{signErr: appErrors.ErrLockUnavailable}
	handler := NewConsentHandler(mockSvc)

	payload, _ := json.Marshal(service.SignConsentRequest{
		SignatureName:  "Claire Dupont",
		SignaturePhone: "+33612345678",
		ConsentGiven:   true,
	})
	w := httptest.NewRecorder()
	c := parentContext(t, w, http.MethodPost, "/account/registrations/r1/sign", payload)
	c.Params = gin.Params{{Key: "id", Value: "r1"}}

	handler.Sign(c)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	envelope := decodeEnvelope(t, w)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "LOCK_UNAVAILABLE", envelope.Error.Code)
}

func TestConsentHandlerSignWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewConsentHandler(&consentServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/account/registrations/r1/sign", nil)

	handler.Sign(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestConsentHandlerSignInvalidBody(t *testing.T) {
	handler := NewConsentHandler(&consentServiceMock{})

	w := httptest.NewRecorder()
	c := parentContext(t, w, http.MethodPost, "/account/registrations/r1/sign", []byte(`{"signature_name":`))
	c.Params = gin.Params{{Key: "id", Value: "r1"}}

	handler.Sign(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConsentHandlerDecline(t *testing.T) {
	mockSvc := &consentServiceMock{
		declineResp: &models.OutingRegistration{ID: "r1", Status: models.RegistrationDeclined},
	}
	handler := NewConsentHandler(mockSvc)

	w := httptest.NewRecorder()
	c := parentContext(t, w, http.MethodPost, "/account/registrations/r1/decline", nil)
	c.Params = gin.Params{{Key: "id", Value: "r1"}}

	handler.Decline(c)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestConsentHandlerReview(t *testing.T) {
	mockSvc := &consentServiceMock{
		reviewResp: &models.OutingRegistration{ID: "r1", Status: models.RegistrationAttended},
	}
	handler := NewConsentHandler(mockSvc)

	w := httptest.NewRecorder()
	c := parentContext(t, w, http.MethodPut, "/admin/registrations/r1/review", []byte(`{"status":"attended"}`))
	c.Params = gin.Params{{Key: "id", Value: "r1"}}

	handler.Review(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.RegistrationAttended, mockSvc.reviewWith)
}
