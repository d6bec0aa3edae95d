// Package auth provides actor credential value types and pure validation functions.
// This package has NO dependencies on I/O or external packages.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

// TokenPrefix marks confsync bearer tokens.
const TokenPrefix = "cs_"

// Actor is a principal allowed to talk to an authority (immutable value type).
type Actor struct {
	Name      string
	TokenHash []byte // bcrypt hash of the bearer token
	Level     int    // privilege level
}

// HasLevel reports whether the actor holds at least level.
func (a Actor) HasLevel(level int) bool {
	return a.Level >= level
}

// WithHash returns a copy of the actor with the hash set.
func (a Actor) WithHash(hash []byte) Actor {
	a.TokenHash = hash
	return a
}

// GenerateToken creates a new raw bearer token.
func GenerateToken() string {
	// 24 random bytes = 48 hex chars
	randomBytes := make([]byte, 24)
	if _, err := rand.Read(randomBytes); err != nil {
		panic("crypto/rand failed")
	}
	return TokenPrefix + hex.EncodeToString(randomBytes)
}

// ParseBearer extracts the token from an Authorization header value.
func ParseBearer(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

var namePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_.@-]{0,63}$`)

// ValidateActor checks an actor definition.
func ValidateActor(a Actor) error {
	if !namePattern.MatchString(a.Name) {
		return fmt.Errorf("actor name %q is invalid", a.Name)
	}
	if a.Level < 0 {
		return fmt.Errorf("actor %s: level must not be negative", a.Name)
	}
	if len(a.TokenHash) == 0 {
		return fmt.Errorf("actor %s: token hash is required", a.Name)
	}
	return nil
}

// ValidateActors checks every actor and rejects duplicate names.
func ValidateActors(actors []Actor) error {
	seen := make(map[string]bool, len(actors))
	for _, a := range actors {
		if err := ValidateActor(a); err != nil {
			return err
		}
		if seen[a.Name] {
			return fmt.Errorf("actor %s defined twice", a.Name)
		}
		seen[a.Name] = true
	}
	return nil
}
