// Package people holds the value types for site members and the mapping
// between them and the cached models.Person rows.
package people

import "net/url"

// Kind discriminates the person variants. The numeric values are persisted.
type Kind int16

const (
	KindUser     Kind = 0
	KindFollower Kind = 1
	KindViewer   Kind = 2
)

// ParseKind decodes a stored discriminator. Anything unknown is a follower.
func ParseKind(v int16) Kind {
	switch Kind(v) {
	case KindUser, KindViewer:
		return Kind(v)
	default:
		return KindFollower
	}
}

// KindFromName maps the API names ("user", "follower", "viewer") to a Kind.
func KindFromName(name string) (Kind, bool) {
	switch name {
	case "user", "users":
		return KindUser, true
	case "follower", "followers":
		return KindFollower, true
	case "viewer", "viewers":
		return KindViewer, true
	}
	return KindFollower, false
}

func (k Kind) String() string {
	switch k {
	case KindUser:
		return "user"
	case KindViewer:
		return "viewer"
	default:
		return "follower"
	}
}

// Profile carries the fields shared by every variant.
type Profile struct {
	ID           int64    `json:"id"`
	Username     string   `json:"username"`
	FirstName    string   `json:"first_name,omitempty"`
	LastName     string   `json:"last_name,omitempty"`
	DisplayName  string   `json:"display_name"`
	Role         Role     `json:"role"`
	SiteID       int64    `json:"site_id"`
	LinkedUserID int64    `json:"linked_user_id,omitempty"`
	AvatarURL    *url.URL `json:"-"`
	IsSuperAdmin bool     `json:"is_super_admin"`
}

// Person is one of User, Follower or Viewer.
type Person interface {
	Kind() Kind
	Details() Profile
	isPerson()
}

// User is a member with a role on the site.
type User struct{ Profile }

// Follower follows the site; its role is always RoleFollower.
type Follower struct{ Profile }

// Viewer may read a private site; its role is always RoleViewer.
type Viewer struct{ Profile }

func (User) Kind() Kind     { return KindUser }
func (Follower) Kind() Kind { return KindFollower }
func (Viewer) Kind() Kind   { return KindViewer }

func (u User) Details() Profile     { return u.Profile.clone() }
func (f Follower) Details() Profile { return f.Profile.clone() }
func (v Viewer) Details() Profile   { return v.Profile.clone() }

func (User) isPerson()     {}
func (Follower) isPerson() {}
func (Viewer) isPerson()   {}

func (p Profile) clone() Profile {
	if p.AvatarURL != nil {
		u := *p.AvatarURL
		p.AvatarURL = &u
	}
	return p
}

// New builds the variant for kind. Followers and viewers get their fixed role.
func New(kind Kind, p Profile) Person {
	p = p.clone()
	switch kind {
	case KindUser:
		return User{Profile: p}
	case KindViewer:
		p.Role = RoleViewer
		return Viewer{Profile: p}
	default:
		p.Role = RoleFollower
		return Follower{Profile: p}
	}
}
