package core

import "fmt"

// Role is the part a player plays in its group.
type Role int

const (
	RoleStem Role = iota
	RoleFullTrack
)

func (r Role) String() string {
	if r == RoleFullTrack {
		return "full"
	}
	return "stem"
}

// SourceKind indicates which rendering a listen was made from.
type SourceKind string

const (
	SourceFullTrack SourceKind = "full"
	SourceStem      SourceKind = "stem"
)

// Kind maps a role to the source kind reported for listens.
func (r Role) Kind() SourceKind {
	if r == RoleFullTrack {
		return SourceFullTrack
	}
	return SourceStem
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(text []byte) error {
	switch string(text) {
	case "full":
		*r = RoleFullTrack
	case "stem", "":
		*r = RoleStem
	default:
		return fmt.Errorf("unknown role %q", text)
	}
	return nil
}
