package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"clinicbook/models"
	"clinicbook/services/payment"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubAuth struct {
	result *payment.AuthResult
	err    error
}

func (s *stubAuth) Authenticate(payload []byte, header http.Header) (*payment.AuthResult, error) {
	return s.result, s.err
}

type stubMatcher struct {
	result *payment.MatchResult
	err    error
	calls  int
}

func (s *stubMatcher) Match(ctx context.Context, evt *models.ProviderEvent, mode payment.AuthMode) (*payment.MatchResult, error) {
	s.calls++
	return s.result, s.err
}

type stubReconciler struct {
	outcome   payment.Outcome
	err       error
	applied   int
	unmatched int
}

func (s *stubReconciler) Apply(ctx context.Context, evt *models.ProviderEvent, target *payment.MatchResult) (payment.Outcome, error) {
	s.applied++
	return s.outcome, s.err
}

func (s *stubReconciler) RecordUnmatched(ctx context.Context, evt *models.ProviderEvent, raw []byte) {
	s.unmatched++
}

func postWebhook(t *testing.T, h *WebhookHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/payments/webhook", h.HandleProviderWebhook)

	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleProviderWebhook_RejectsUnauthenticated(t *testing.T) {
	matcher := &stubMatcher{}
	reconciler := &stubReconciler{}
	h := NewWebhookHandler(&stubAuth{err: &payment.UnauthenticatedError{}}, matcher, reconciler, zap.NewNop())

	w := postWebhook(t, h, `{"eventType":"checkout.paid","eventId":"evt-1"}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	// The body stays generic whatever the auth failure was.
	assert.Equal(t, map[string]string{"error": "unauthorized"}, body)

	// Rejected deliveries must touch nothing downstream.
	assert.Zero(t, matcher.calls)
	assert.Zero(t, reconciler.applied)
	assert.Zero(t, reconciler.unmatched)
}

func TestHandleProviderWebhook_AppliesMatchedEvent(t *testing.T) {
	reconciler := &stubReconciler{outcome: payment.OutcomeSettled}
	h := NewWebhookHandler(
		&stubAuth{result: &payment.AuthResult{Mode: payment.AuthModeProduction}},
		&stubMatcher{result: &payment.MatchResult{Payment: &models.Payment{ID: "pay-1"}}},
		reconciler,
		zap.NewNop(),
	)

	w := postWebhook(t, h, `{"eventType":"checkout.paid","eventId":"evt-1"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "settled", body["outcome"])
	assert.Equal(t, 1, reconciler.applied)
}

func TestHandleProviderWebhook_UnmatchedStillAcknowledged(t *testing.T) {
	reconciler := &stubReconciler{}
	h := NewWebhookHandler(
		&stubAuth{result: &payment.AuthResult{Mode: payment.AuthModeProduction}},
		&stubMatcher{},
		reconciler,
		zap.NewNop(),
	)

	w := postWebhook(t, h, `{"eventType":"checkout.paid","eventId":"evt-ghost"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "no_match", body["outcome"])
	assert.Equal(t, 1, reconciler.unmatched)
	assert.Zero(t, reconciler.applied)
}

func TestHandleProviderWebhook_MalformedPayloadAcknowledged(t *testing.T) {
	h := NewWebhookHandler(
		&stubAuth{result: &payment.AuthResult{Mode: payment.AuthModeTest}},
		&stubMatcher{},
		&stubReconciler{},
		zap.NewNop(),
	)

	w := postWebhook(t, h, `{not json`)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "invalid_payload", body["outcome"])
}
