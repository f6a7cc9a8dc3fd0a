package parse

import (
	"encoding/json"
	"strings"
)

// RawRecord is one element of an exported chat history, as read from disk.
// Fields are kept undecoded until classification needs them.
type RawRecord map[string]json.RawMessage

type RoleKind int

const (
	RoleUnknown RoleKind = iota
	RoleUser
	RoleAssistant
)

// Role identifies who produced a record. Unknown roles keep the original
// discriminator in Tag.
type Role struct {
	Kind RoleKind
	Tag  string
}

var (
	User      = Role{Kind: RoleUser}
	Assistant = Role{Kind: RoleAssistant}
)

func Unknown(tag string) Role {
	return Role{Kind: RoleUnknown, Tag: tag}
}

func (r Role) String() string {
	switch r.Kind {
	case RoleUser:
		return "user"
	case RoleAssistant:
		return "assistant"
	default:
		return r.Tag
	}
}

// Slug is the role as it appears in file names: the Unknown tag is reduced
// to characters that are safe on every filesystem.
func (r Role) Slug() string {
	s := r.String()
	if s == "" {
		return "unknown"
	}
	return strings.Map(func(c rune) rune {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_', c == '-':
			return c
		default:
			return '_'
		}
	}, s)
}

func (r Role) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// RoleFromString reverses String for roles read back from storage.
func RoleFromString(s string) Role {
	if r, ok := nameRoles[s]; ok {
		return r
	}
	return Unknown(s)
}

type ClassifiedRecord struct {
	Index   int    `json:"index"`
	Role    Role   `json:"role"`
	Text    string `json:"text"`
	Length  int    `json:"length"`
	Preview string `json:"preview"`
}

// Classification is the ordered output of Classify plus its tallies.
type Classification struct {
	Records        []ClassifiedRecord
	TotalRaw       int
	UserCount      int
	AssistantCount int
	UnknownCount   int
}
