package people

import (
	"net/url"
	"strings"

	"github.com/camden-git/pressdesk/models"
	"github.com/camden-git/pressdesk/remote"
)

// ApplyToRecord overwrites every mapped field of rec from p. The
// discriminator is taken from p's concrete variant. Row identity and
// timestamps are left alone.
func ApplyToRecord(p Person, rec *models.Person) {
	d := p.Details()

	rec.AvatarURL = ""
	if d.AvatarURL != nil {
		rec.AvatarURL = d.AvatarURL.String()
	}
	rec.DisplayName = d.DisplayName
	rec.FirstName = d.FirstName
	rec.LastName = d.LastName
	rec.Role = string(d.Role)
	rec.SiteID = d.SiteID
	rec.UserID = d.ID
	rec.LinkedUserID = d.LinkedUserID
	rec.Username = d.Username
	rec.IsSuperAdmin = d.IsSuperAdmin
	rec.Kind = int16(p.Kind())
}

// FromRecord rebuilds the variant stored in rec. Unknown discriminators
// come back as a Follower and unparsable avatars as nil.
func FromRecord(rec models.Person) Person {
	return New(ParseKind(rec.Kind), Profile{
		ID:           rec.UserID,
		Username:     rec.Username,
		FirstName:    rec.FirstName,
		LastName:     rec.LastName,
		DisplayName:  rec.DisplayName,
		Role:         ParseRole(rec.Role),
		SiteID:       rec.SiteID,
		LinkedUserID: rec.LinkedUserID,
		AvatarURL:    parseAvatar(rec.AvatarURL),
		IsSuperAdmin: rec.IsSuperAdmin,
	})
}

// FromRemote converts an API person for siteID into the variant for kind.
func FromRemote(siteID int64, kind Kind, rp remote.Person) Person {
	role := RoleUnsupported
	if len(rp.Roles) > 0 {
		role = ParseRole(rp.Roles[0])
	}
	if rp.IsSuperAdmin {
		role = RoleSuperAdmin
	}

	displayName := rp.Name
	if displayName == "" {
		displayName = rp.Login
	}

	return New(kind, Profile{
		ID:           rp.ID,
		Username:     rp.Login,
		FirstName:    rp.FirstName,
		LastName:     rp.LastName,
		DisplayName:  displayName,
		Role:         role,
		SiteID:       siteID,
		LinkedUserID: rp.LinkedUserID,
		AvatarURL:    parseAvatar(rp.AvatarURL),
		IsSuperAdmin: rp.IsSuperAdmin,
	})
}

func parseAvatar(raw string) *url.URL {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil
	}
	return u
}
