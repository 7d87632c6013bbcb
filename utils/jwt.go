package utils

import (
	"errors"
	"time"

	"clinicbook/config"

	"github.com/golang-jwt/jwt"
)

// GenerateInternalToken creates a signed HS256 token marking an in-process
// call into the webhook endpoint (e.g. the payment request processor driving
// the same pipeline synchronously). The subject names the calling component.
func GenerateInternalToken(subject string, duration time.Duration) (string, error) {
	secret := config.AppConfig.InternalTokenSecret
	if secret == "" {
		return "", errors.New("internal token secret not configured")
	}
	claims := jwt.MapClaims{
		"sub":   subject,
		"scope": "internal-webhook",
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(duration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateInternalToken verifies an internal-call token and returns its subject.
func ValidateInternalToken(tokenString string) (string, error) {
	return validateHS256(tokenString, config.AppConfig.InternalTokenSecret, "internal-webhook")
}

// ValidateAdminToken verifies an admin bearer token and returns its subject.
func ValidateAdminToken(tokenString string) (string, error) {
	return validateHS256(tokenString, config.AppConfig.AdminTokenSecret, "admin")
}

// ValidateScopedToken verifies an HS256 token against an explicitly supplied
// secret and scope. Used by components that carry their own injected config
// rather than reading AppConfig.
func ValidateScopedToken(tokenString, secret, wantScope string) (string, error) {
	return validateHS256(tokenString, secret, wantScope)
}

func validateHS256(tokenString, secret, wantScope string) (string, error) {
	if secret == "" {
		return "", errors.New("token secret not configured")
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Ensure that the token's signing method is HMAC.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", errors.New("invalid token")
	}
	if scope, _ := claims["scope"].(string); scope != wantScope {
		return "", errors.New("token scope mismatch")
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", errors.New("token does not contain a valid 'sub' claim")
	}
	return sub, nil
}
