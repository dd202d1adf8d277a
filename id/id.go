// Package id defines TypeID-based identity types for debate entities.
//
// Sessions, questions, responses, grants and connections share a single ID
// struct whose prefix names the entity type. IDs are K-sortable (UUIDv7),
// so a session ID carries its creation timestamp followed by random bits.
package id

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix identifies the entity type encoded in a TypeID.
type Prefix string

// Prefix constants for debate entity types.
const (
	PrefixSession    Prefix = "quiz"  // Quiz session
	PrefixQuestion   Prefix = "q"     // Two-option question
	PrefixResponse   Prefix = "resp"  // Participant response
	PrefixGrant      Prefix = "grant" // Feature entitlement grant
	PrefixConnection Prefix = "conn"  // Live router connection
)

// ID wraps a TypeID in the format "prefix_suffix".
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receiver for UnmarshalText.
type ID struct {
	inner typeid.TypeID
	valid bool
}

// Nil is the zero-value ID.
var Nil ID

// New generates a new ID with the given prefix.
// It panics if prefix is not a valid TypeID prefix (programming error).
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}

	return ID{inner: tid, valid: true}
}

// Parse parses a TypeID string such as "quiz_01h2xcejqtf2nbrexx3vqjhp41".
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}

	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}

	return ID{inner: tid, valid: true}, nil
}

// ParseWithPrefix parses s and checks that its prefix is expected.
func ParseWithPrefix(s string, expected Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}

	if parsed.Prefix() != expected {
		return Nil, fmt.Errorf("id: expected prefix %q, got %q", expected, parsed.Prefix())
	}

	return parsed, nil
}

// NewSessionID generates a new session ID.
func NewSessionID() ID { return New(PrefixSession) }

// NewQuestionID generates a new question ID.
func NewQuestionID() ID { return New(PrefixQuestion) }

// NewResponseID generates a new response ID.
func NewResponseID() ID { return New(PrefixResponse) }

// NewGrantID generates a new grant ID.
func NewGrantID() ID { return New(PrefixGrant) }

// NewConnectionID generates a new connection ID.
func NewConnectionID() ID { return New(PrefixConnection) }

// ParseSessionID parses a string and validates the "quiz" prefix.
func ParseSessionID(s string) (ID, error) { return ParseWithPrefix(s, PrefixSession) }

// String returns the full TypeID string, or "" for Nil.
func (i ID) String() string {
	if !i.valid {
		return ""
	}

	return i.inner.String()
}

// Prefix returns the prefix component of this ID.
func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}

	return Prefix(i.inner.Prefix())
}

// IsNil reports whether this ID is the zero value.
func (i ID) IsNil() bool {
	return !i.valid
}

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	if !i.valid {
		return []byte{}, nil
	}

	return []byte(i.inner.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil

		return nil
	}

	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}

	*i = parsed

	return nil
}
