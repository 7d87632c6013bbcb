package payment

import (
	"encoding/hex"
	"fmt"
	"net/http"
	"testing"
	"time"

	"clinicbook/config"
	"clinicbook/utils"

	"github.com/stripe/stripe-go/v76/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSigningSecret = "whsec_test_secret"

func signedHeader(payload []byte, secret string, at time.Time) string {
	sig := webhook.ComputeSignature(at, payload, secret)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(sig))
}

func newAuth(env, webhookSecret string) *WebhookAuthenticator {
	return NewWebhookAuthenticator(AuthConfig{
		Env:                 env,
		WebhookSecret:       webhookSecret,
		InternalTokenSecret: "internal-secret",
	}, testLogger())
}

func TestAuthenticate_ValidSignature(t *testing.T) {
	auth := newAuth("production", testSigningSecret)
	payload := []byte(`{"eventType":"payment.updated","eventId":"evt-1"}`)

	header := http.Header{}
	header.Set(HeaderSignature, signedHeader(payload, testSigningSecret, time.Now()))

	res, err := auth.Authenticate(payload, header)
	require.NoError(t, err)
	assert.Equal(t, AuthModeProduction, res.Mode)
}

func TestAuthenticate_InvalidSignatureFatalInAnyEnv(t *testing.T) {
	payload := []byte(`{"eventType":"payment.updated","eventId":"evt-1","test":true}`)

	for _, env := range []string{"production", "development"} {
		auth := newAuth(env, testSigningSecret)
		header := http.Header{}
		header.Set(HeaderSignature, signedHeader(payload, "wrong-secret", time.Now()))
		// The payload tags itself as test traffic; a bad signature must still
		// win over any bypass.
		_, err := auth.Authenticate(payload, header)
		var invalid *InvalidSignatureError
		require.ErrorAs(t, err, &invalid, "env %s", env)
	}
}

func TestAuthenticate_ProductionRejectsUnsigned(t *testing.T) {
	auth := newAuth("production", testSigningSecret)
	payload := []byte(`{"eventType":"payment.updated","eventId":"evt-1","test":true}`)

	_, err := auth.Authenticate(payload, http.Header{})
	var unauth *UnauthenticatedError
	require.ErrorAs(t, err, &unauth)

	// Test header bypass is non-production only.
	header := http.Header{}
	header.Set(HeaderTestWebhook, "true")
	_, err = auth.Authenticate(payload, header)
	require.ErrorAs(t, err, &unauth)
}

func TestAuthenticate_TestMarkersNonProduction(t *testing.T) {
	auth := newAuth("development", "")

	header := http.Header{}
	header.Set(HeaderTestWebhook, "true")
	res, err := auth.Authenticate([]byte(`{}`), header)
	require.NoError(t, err)
	assert.Equal(t, AuthModeTest, res.Mode)

	// Payload self-tagging works without the header.
	res, err = auth.Authenticate([]byte(`{"test":true}`), http.Header{})
	require.NoError(t, err)
	assert.Equal(t, AuthModeTest, res.Mode)

	_, err = auth.Authenticate([]byte(`{"test":false}`), http.Header{})
	var unauth *UnauthenticatedError
	require.ErrorAs(t, err, &unauth)
}

func TestAuthenticate_InternalToken(t *testing.T) {
	config.AppConfig.InternalTokenSecret = "internal-secret"
	auth := newAuth("development", "")

	token, err := utils.GenerateInternalToken("booking-flow", time.Minute)
	require.NoError(t, err)

	header := http.Header{}
	header.Set(HeaderInternal, token)
	res, err := auth.Authenticate([]byte(`{}`), header)
	require.NoError(t, err)
	assert.Equal(t, AuthModeInternal, res.Mode)
	assert.Equal(t, "booking-flow", res.Caller)

	header.Set(HeaderInternal, "not-a-token")
	_, err = auth.Authenticate([]byte(`{}`), header)
	var unauth *UnauthenticatedError
	require.ErrorAs(t, err, &unauth)
}
