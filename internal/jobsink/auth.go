package jobsink

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidKey = errors.New("invalid API key")

type contextKey string

const callerContextKey contextKey = "caller"

// Anonymous is the caller name used when no API keys are configured
const Anonymous = "anonymous"

// HashAPIKey returns the bcrypt hash to put in the api_keys section
func HashAPIKey(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("API key is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash API key: %w", err)
	}
	return string(hash), nil
}

// KeyVerifier checks bearer keys against bcrypt hashes. Keys that verified
// once are remembered by digest so bcrypt runs once per key.
type KeyVerifier struct {
	keys []APIKey

	mu       sync.RWMutex
	verified map[string]string // sha256(key) -> name
}

// NewKeyVerifier creates a verifier. With no keys every request is accepted.
func NewKeyVerifier(keys []APIKey) *KeyVerifier {
	return &KeyVerifier{
		keys:     keys,
		verified: make(map[string]string),
	}
}

// Enabled reports whether any key is configured
func (v *KeyVerifier) Enabled() bool {
	return len(v.keys) > 0
}

// Verify returns the name of the key matching token
func (v *KeyVerifier) Verify(token string) (string, error) {
	if !v.Enabled() {
		return Anonymous, nil
	}
	if token == "" {
		return "", ErrInvalidKey
	}

	sum := sha256.Sum256([]byte(token))
	digest := hex.EncodeToString(sum[:])

	v.mu.RLock()
	name, ok := v.verified[digest]
	v.mu.RUnlock()
	if ok {
		return name, nil
	}

	for _, k := range v.keys {
		if bcrypt.CompareHashAndPassword([]byte(k.Hash), []byte(token)) == nil {
			v.mu.Lock()
			v.verified[digest] = k.Name
			v.mu.Unlock()
			return k.Name, nil
		}
	}
	return "", ErrInvalidKey
}

// Middleware rejects requests without a valid bearer key. Health and metrics
// endpoints stay open.
func (v *KeyVerifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		name, err := v.Verify(bearerToken(r))
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="jobsink"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), callerContextKey, name)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CallerName returns the authenticated caller of a request
func CallerName(r *http.Request) string {
	if name, ok := r.Context().Value(callerContextKey).(string); ok {
		return name
	}
	return ""
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
