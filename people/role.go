package people

import "fmt"

// Role is a site member's permission level, identified by a stable slug.
type Role string

const (
	RoleSuperAdmin  Role = "super-admin"
	RoleAdmin       Role = "administrator"
	RoleEditor      Role = "editor"
	RoleAuthor      Role = "author"
	RoleContributor Role = "contributor"
	RoleSubscriber  Role = "subscriber"
	RoleFollower    Role = "follower"
	RoleViewer      Role = "viewer"
	RoleUnsupported Role = "unsupported"
)

// AllRoles lists every declared role, most privileged first.
var AllRoles = []Role{
	RoleSuperAdmin,
	RoleAdmin,
	RoleEditor,
	RoleAuthor,
	RoleContributor,
	RoleSubscriber,
	RoleFollower,
	RoleViewer,
	RoleUnsupported,
}

var roleColors = map[Role]string{
	RoleSuperAdmin:  "#d63638",
	RoleAdmin:       "#d63638",
	RoleEditor:      "#2271b1",
	RoleAuthor:      "#00a32a",
	RoleContributor: "#dba617",
	RoleSubscriber:  "#646970",
	RoleFollower:    "#646970",
	RoleViewer:      "#646970",
	RoleUnsupported: "#a7aaad",
}

var roleLabels = map[Role]string{
	RoleSuperAdmin:  "Super Admin",
	RoleAdmin:       "Administrator",
	RoleEditor:      "Editor",
	RoleAuthor:      "Author",
	RoleContributor: "Contributor",
	RoleSubscriber:  "Subscriber",
	RoleFollower:    "Follower",
	RoleViewer:      "Viewer",
	RoleUnsupported: "Unsupported",
}

var rolesBySlug map[string]Role

func init() {
	if err := checkRoleTables(AllRoles, roleColors, roleLabels); err != nil {
		panic(err)
	}
	rolesBySlug = make(map[string]Role, len(AllRoles))
	for _, r := range AllRoles {
		rolesBySlug[string(r)] = r
	}
}

// checkRoleTables reports the first role missing a colour or a label.
func checkRoleTables(roles []Role, colors, labels map[Role]string) error {
	for _, r := range roles {
		if _, ok := colors[r]; !ok {
			return fmt.Errorf("people: role %q has no colour", r)
		}
		if _, ok := labels[r]; !ok {
			return fmt.Errorf("people: role %q has no label", r)
		}
	}
	return nil
}

// ParseRole maps a slug to a declared role; unknown slugs become RoleUnsupported.
func ParseRole(slug string) Role {
	if r, ok := rolesBySlug[slug]; ok {
		return r
	}
	return RoleUnsupported
}

// Color returns the hex colour used for the role badge.
func (r Role) Color() string {
	if c, ok := roleColors[r]; ok {
		return c
	}
	return roleColors[RoleUnsupported]
}

// Label returns the display name of the role.
func (r Role) Label() string {
	if l, ok := roleLabels[r]; ok {
		return l
	}
	return roleLabels[RoleUnsupported]
}

func (r Role) String() string {
	return string(r)
}

// RoleDefinition describes a role for API consumers.
type RoleDefinition struct {
	Slug  Role   `json:"slug"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// RoleDefinitions returns every declared role with its label and colour.
func RoleDefinitions() []RoleDefinition {
	defs := make([]RoleDefinition, 0, len(AllRoles))
	for _, r := range AllRoles {
		defs = append(defs, RoleDefinition{Slug: r, Label: r.Label(), Color: r.Color()})
	}
	return defs
}
