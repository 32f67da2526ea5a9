package tests

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	googleauth "github.com/illusion-note/backend-go/internal/google"
	"github.com/illusion-note/backend-go/tests/testutil"
)

const testClientID = "test-client-id.apps.googleusercontent.com"

// makeIDToken builds a structurally valid but unsigned ID token. Only the
// unsafe verification path can accept it; the safe path must reject it.
func makeIDToken(t *testing.T, payload map[string]interface{}) string {
	t.Helper()

	header, err := json.Marshal(map[string]string{"alg": "RS256", "typ": "JWT", "kid": "test-key"})
	require.NoError(t, err)
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	return base64.RawURLEncoding.EncodeToString(header) + "." +
		base64.RawURLEncoding.EncodeToString(body) + "." +
		base64.RawURLEncoding.EncodeToString([]byte("unsigned"))
}

func basePayload(now time.Time) map[string]interface{} {
	return map[string]interface{}{
		"iss":     "https://accounts.google.com",
		"aud":     testClientID,
		"sub":     "google-subject-123",
		"email":   "test@example.com",
		"name":    "Test User",
		"picture": "https://example.com/photo.jpg",
		"iat":     now.Unix(),
		"exp":     now.Add(time.Hour).Unix(),
	}
}

func unsafeVerifier() *googleauth.Verifier {
	cfg := testutil.TestConfig()
	cfg.GoogleClientIDs = []string{testClientID}
	cfg.AllowUnsafeToken = true
	cfg.AppEnv = "development"
	return googleauth.NewVerifier(cfg, testutil.TestLogger())
}

// ==================== GOOGLE VERIFIER TESTS ====================

func TestVerifier_UnsafeMode(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		payload func() map[string]interface{}
		wantErr error
	}{
		{
			name:    "accepts an unsigned but otherwise valid token",
			payload: func() map[string]interface{} { return basePayload(now) },
		},
		{
			name: "plain issuer form is accepted",
			payload: func() map[string]interface{} {
				p := basePayload(now)
				p["iss"] = "accounts.google.com"
				return p
			},
		},
		{
			name: "expired token",
			payload: func() map[string]interface{} {
				p := basePayload(now)
				p["exp"] = now.Add(-time.Hour).Unix()
				return p
			},
			wantErr: googleauth.ErrTokenExpired,
		},
		{
			name: "wrong issuer",
			payload: func() map[string]interface{} {
				p := basePayload(now)
				p["iss"] = "https://evil.example.com"
				return p
			},
			wantErr: googleauth.ErrWrongIssuer,
		},
		{
			name: "unregistered audience",
			payload: func() map[string]interface{} {
				p := basePayload(now)
				p["aud"] = "someone-else.apps.googleusercontent.com"
				return p
			},
			wantErr: googleauth.ErrWrongAudience,
		},
		{
			name: "missing email claim",
			payload: func() map[string]interface{} {
				p := basePayload(now)
				delete(p, "email")
				return p
			},
			wantErr: googleauth.ErrMissingClaims,
		},
		{
			name: "not yet valid",
			payload: func() map[string]interface{} {
				p := basePayload(now)
				p["nbf"] = now.Add(time.Hour).Unix()
				return p
			},
			wantErr: googleauth.ErrTokenNotYetValid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := unsafeVerifier()
			token := makeIDToken(t, tt.payload())

			claims, err := verifier.Verify(context.Background(), token)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, claims)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "test@example.com", claims.Email)
				assert.Equal(t, "google-subject-123", claims.Subject)
				assert.Equal(t, testClientID, claims.Audience)
			}
		})
	}
}

func TestVerifier_MalformedTokens(t *testing.T) {
	verifier := unsafeVerifier()

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "one segment", token: "justonepart"},
		{name: "two segments", token: "part1.part2"},
		{name: "four segments", token: "a.b.c.d"},
		{name: "payload not base64", token: "aGVhZGVy.!!!.c2ln"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := verifier.Verify(context.Background(), tt.token)
			assert.ErrorIs(t, err, googleauth.ErrMalformedToken)
		})
	}
}

func TestVerifier_SafeModeRejectsUnsigned(t *testing.T) {
	cfg := testutil.TestConfig()
	cfg.GoogleClientIDs = []string{testClientID}
	cfg.AllowUnsafeToken = false
	verifier := googleauth.NewVerifier(cfg, testutil.TestLogger())

	token := makeIDToken(t, basePayload(time.Now()))
	_, err := verifier.Verify(context.Background(), token)
	assert.ErrorIs(t, err, googleauth.ErrInvalidSignature)
}

func TestVerifier_UnsafeNeverArmsInProduction(t *testing.T) {
	cfg := testutil.TestConfig()
	cfg.GoogleClientIDs = []string{testClientID}
	cfg.AllowUnsafeToken = true
	cfg.AppEnv = "production"
	verifier := googleauth.NewVerifier(cfg, testutil.TestLogger())

	token := makeIDToken(t, basePayload(time.Now()))
	_, err := verifier.Verify(context.Background(), token)
	assert.ErrorIs(t, err, googleauth.ErrInvalidSignature)
}

func TestVerifier_NoClientIDs(t *testing.T) {
	cfg := testutil.TestConfig()
	cfg.GoogleClientIDs = nil
	verifier := googleauth.NewVerifier(cfg, testutil.TestLogger())

	_, err := verifier.Verify(context.Background(), "whatever")
	assert.ErrorIs(t, err, googleauth.ErrNoClientIDs)
}
