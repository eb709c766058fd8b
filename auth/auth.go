// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid user token")
	ErrInvalidID    = errors.New("invalid id")
)

// NewID creates a random UUIDv4 identifier for any stored entity
func NewID() string {
	return uuid.NewString()
}

// ParseID validates id and returns it in canonical lowercase form
func ParseID(id string) (string, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrInvalidID, id, err)
	}
	return u.String(), nil
}

// GenerateUserToken creates the HMAC-based token a user presents with
// every request. Deterministic, so nothing needs to be stored.
func GenerateUserToken(userID, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte("user:" + userID))
	sum := h.Sum(nil)
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum), "=")
}

// ValidateUserToken checks if the provided token belongs to userID
func ValidateUserToken(userID, token, salt string) error {
	if userID == "" || token == "" {
		return ErrInvalidToken
	}
	expected := GenerateUserToken(userID, salt)
	if !hmac.Equal([]byte(token), []byte(expected)) {
		return ErrInvalidToken
	}
	return nil
}

// GenerateInviteCode creates a short, deterministic code for joining a group
// Uses HMAC for determinism and base62 encoding for URL-friendliness
func GenerateInviteCode(groupID, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte("invite:" + groupID))
	sum := h.Sum(nil)

	// Take first 8 bytes for a shorter code
	return base62Encode(sum[:8])
}

// base62Encode converts bytes to base62 (0-9, a-z, A-Z)
func base62Encode(data []byte) string {
	const base62Chars = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

	var num uint64
	for i := 0; i < len(data) && i < 8; i++ {
		num = num<<8 | uint64(data[i])
	}

	if num == 0 {
		return "0"
	}

	result := make([]byte, 0, 11) // max length for uint64
	for num > 0 {
		result = append(result, base62Chars[num%62])
		num /= 62
	}

	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}

	return string(result)
}
