// Package validation provides input validation and sanitization for network messages.
package validation

import (
	"encoding/json"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Message size and content limits
const (
	MaxMessageSize    = 64 * 1024 // 64KB max message
	MaxPlayerNameLen  = 32
	MaxMessagesPerMin = 100
	MaxVotesPerMin    = 10
)

var (
	// Allow alphanumeric, spaces, hyphens, underscores, and basic punctuation for player names
	validPlayerNameChars = regexp.MustCompile(`^[a-zA-Z0-9\s\-_.<>()]+$`)
)

// MessageValidator provides validation for different message types
type MessageValidator struct {
	rateLimiter *RateLimiter
	voteLimiter *RateLimiter
}

// NewMessageValidator creates a new message validator with rate limiting
func NewMessageValidator() *MessageValidator {
	return &MessageValidator{
		rateLimiter: NewRateLimiter(MaxMessagesPerMin, time.Minute),
		voteLimiter: NewRateLimiter(MaxVotesPerMin, time.Minute),
	}
}

// Close releases resources used by the message validator
func (v *MessageValidator) Close() {
	if v.rateLimiter != nil {
		v.rateLimiter.Close()
	}
	if v.voteLimiter != nil {
		v.voteLimiter.Close()
	}
}

// ValidateMessage validates a decoded message payload against size
// and format constraints. An absent payload is fine; types like ping
// may carry none.
func (v *MessageValidator) ValidateMessage(data []byte, clientID string) error {
	if len(data) > MaxMessageSize {
		return fmt.Errorf("message too large: %d bytes (max %d)", len(data), MaxMessageSize)
	}

	if len(data) > 0 && !json.Valid(data) {
		return fmt.Errorf("invalid JSON format")
	}

	if !v.rateLimiter.Allow(clientID) {
		return fmt.Errorf("rate limit exceeded: max %d messages per minute", MaxMessagesPerMin)
	}

	return nil
}

// AllowVote rate-limits map vote casts per client
func (v *MessageValidator) AllowVote(clientID string) bool {
	return v.voteLimiter.Allow(clientID)
}

// ValidatePlayerName validates and sanitizes a player name
func ValidatePlayerName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("player name cannot be empty")
	}

	if len(name) > MaxPlayerNameLen {
		return "", fmt.Errorf("player name too long: %d characters (max %d)", len(name), MaxPlayerNameLen)
	}

	if !utf8.ValidString(name) {
		return "", fmt.Errorf("player name contains invalid UTF-8 characters")
	}

	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", fmt.Errorf("player name cannot be only whitespace")
	}

	for _, r := range trimmed {
		if unicode.IsControl(r) {
			return "", fmt.Errorf("player name contains control characters")
		}
	}

	if !validPlayerNameChars.MatchString(trimmed) {
		return "", fmt.Errorf("player name contains invalid characters (only alphanumeric, spaces, hyphens, underscores, and basic punctuation allowed)")
	}

	// Escape HTML to prevent XSS
	sanitized := html.EscapeString(trimmed)

	return sanitized, nil
}

// ValidateTeamID validates a team ID against the match's team count
func ValidateTeamID(teamID, teamCount int) error {
	if teamID < 0 || teamID >= teamCount {
		return fmt.Errorf("invalid team ID: %d (must be 0-%d)", teamID, teamCount-1)
	}
	return nil
}

// ValidateInputAxis clamps a control axis into [-1, 1]
func ValidateInputAxis(value float64) float64 {
	if value > 1 {
		return 1
	}
	if value < -1 {
		return -1
	}
	return value
}
