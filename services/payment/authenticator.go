package payment

import (
	"encoding/json"
	"net/http"

	"clinicbook/utils"

	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

// AuthMode classifies accepted webhook traffic.
type AuthMode string

const (
	AuthModeProduction AuthMode = "production"
	AuthModeTest       AuthMode = "test"
	AuthModeInternal   AuthMode = "internal"
)

// Headers carrying authentication material.
const (
	HeaderSignature   = "Stripe-Signature"
	HeaderInternal    = "X-Internal-Token"
	HeaderTestWebhook = "X-Test-Webhook"
)

// InternalTokenScope is the scope claim required on internal-call tokens.
const InternalTokenScope = "internal-webhook"

// AuthResult is a trusted classification of an inbound webhook request.
type AuthResult struct {
	Mode AuthMode
	// Caller names the internal component for internal-mode requests.
	Caller string
}

// AuthConfig is the explicit configuration injected into the authenticator.
type AuthConfig struct {
	Env                 string
	WebhookSecret       string
	InternalTokenSecret string
}

// WebhookAuthenticator gates the inbound webhook endpoint. Production must
// never accept unsigned traffic; non-production stays usable for internal and
// test calls until a signing secret is provisioned, at which point the secret
// is authoritative for any signed-looking request.
type WebhookAuthenticator struct {
	cfg    AuthConfig
	logger *zap.Logger
}

// NewWebhookAuthenticator constructs an authenticator from explicit config.
func NewWebhookAuthenticator(cfg AuthConfig, logger *zap.Logger) *WebhookAuthenticator {
	return &WebhookAuthenticator{cfg: cfg, logger: logger}
}

func (a *WebhookAuthenticator) isProduction() bool {
	return a.cfg.Env == "production"
}

// Authenticate classifies the request, in precedence order: verified provider
// signature, then (non-production only) internal token or test markers. A
// configured secret that fails to verify is fatal regardless of environment.
func (a *WebhookAuthenticator) Authenticate(payload []byte, header http.Header) (*AuthResult, error) {
	sig := header.Get(HeaderSignature)

	if sig != "" && a.cfg.WebhookSecret != "" {
		// Signature verification only; the payload is not a Stripe event so
		// the SDK's API version check does not apply.
		if _, err := webhook.ConstructEventWithOptions(payload, sig, a.cfg.WebhookSecret,
			webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true}); err != nil {
			a.logger.Warn("webhook signature verification failed", zap.Error(err))
			return nil, &InvalidSignatureError{Reason: err.Error()}
		}
		return &AuthResult{Mode: AuthModeProduction}, nil
	}

	if !a.isProduction() {
		if token := header.Get(HeaderInternal); token != "" {
			caller, err := utils.ValidateScopedToken(token, a.cfg.InternalTokenSecret, InternalTokenScope)
			if err != nil {
				a.logger.Warn("internal webhook token rejected", zap.Error(err))
				return nil, &UnauthenticatedError{}
			}
			return &AuthResult{Mode: AuthModeInternal, Caller: caller}, nil
		}
		if header.Get(HeaderTestWebhook) == "true" || payloadTagsTest(payload) {
			return &AuthResult{Mode: AuthModeTest}, nil
		}
	}

	return nil, &UnauthenticatedError{}
}

func payloadTagsTest(payload []byte) bool {
	var probe struct {
		Test bool `json:"test"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil {
		return false
	}
	return probe.Test
}
