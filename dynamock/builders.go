package dynamock

import (
	"fmt"

	"github.com/nisimpson/profilestore"
)

// ProfileOption is a functional option for configuring profiles during building.
type ProfileOption func(*ProfileBuilder)

// ProfileBuilder provides profile building through functional options only.
type ProfileBuilder struct {
	input profilestore.CreateProfileInput
}

// NewProfile creates a new profile builder with the given options applied.
func NewProfile(opts ...ProfileOption) *ProfileBuilder {
	builder := &ProfileBuilder{
		input: profilestore.CreateProfileInput{
			Key: profilestore.Key{
				UserID:    "user123",
				Timestamp: "2024-01-15T10:30:00Z",
			},
			Email:     "user123@example.com",
			FirstName: "Test",
			LastName:  "User",
		},
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder
}

// Build returns the configured create input.
func (b *ProfileBuilder) Build() profilestore.CreateProfileInput {
	return b.input
}

// Functional Options

// WithKey sets the profile key.
func WithKey(userID, timestamp string) ProfileOption {
	return func(b *ProfileBuilder) {
		b.input.Key = profilestore.Key{UserID: userID, Timestamp: timestamp}
	}
}

// WithUserID sets the user identifier.
func WithUserID(userID string) ProfileOption {
	return func(b *ProfileBuilder) {
		b.input.Key.UserID = userID
	}
}

// WithTimestamp sets the sort key timestamp.
func WithTimestamp(timestamp string) ProfileOption {
	return func(b *ProfileBuilder) {
		b.input.Key.Timestamp = timestamp
	}
}

// WithEmail sets the email address.
func WithEmail(email string) ProfileOption {
	return func(b *ProfileBuilder) {
		b.input.Email = email
	}
}

// WithName sets the first and last name.
func WithName(first, last string) ProfileOption {
	return func(b *ProfileBuilder) {
		b.input.FirstName = first
		b.input.LastName = last
	}
}

// WithAttribute adds an extra top-level attribute to the profile.
func WithAttribute(name string, value any) ProfileOption {
	return func(b *ProfileBuilder) {
		if b.input.Extra == nil {
			b.input.Extra = make(map[string]any)
		}
		b.input.Extra[name] = value
	}
}

// WithLoginCount sets the login counter starting value.
func WithLoginCount(count int) ProfileOption {
	return WithAttribute("loginCount", count)
}

// WithPreferences sets the nested preferences map.
func WithPreferences(theme string, notifications bool) ProfileOption {
	return WithAttribute("preferences", map[string]any{
		"theme":         theme,
		"notifications": notifications,
	})
}

// QuickProfile builds a create input for the given user with derived defaults.
// Useful when a test needs several distinct profiles without caring about
// their contents.
func QuickProfile(userID, timestamp string) profilestore.CreateProfileInput {
	return NewProfile(
		WithKey(userID, timestamp),
		WithEmail(fmt.Sprintf("%s@example.com", userID)),
	).Build()
}
