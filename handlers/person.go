package handlers

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"strconv"

	"github.com/camden-git/pressdesk/database"
	"github.com/camden-git/pressdesk/people"
	"github.com/camden-git/pressdesk/realtime"
	"github.com/camden-git/pressdesk/services"
	"github.com/go-chi/chi/v5"
)

// PeopleService is the people cache as used by PeopleHandler.
type PeopleService interface {
	Sync(ctx context.Context, siteID int64, kind people.Kind) (services.SyncResult, error)
	List(siteID int64, kind *people.Kind) ([]people.Person, error)
	Invalidate(siteID int64) (int64, error)
}

// Broadcaster publishes realtime events. *realtime.Hub satisfies it.
type Broadcaster interface {
	Broadcast(event realtime.Event)
}

type PeopleHandler struct {
	DB      *sql.DB
	Service PeopleService
	Events  Broadcaster
}

type personResponse struct {
	Kind         string `json:"kind"`
	ID           int64  `json:"id"`
	SiteID       int64  `json:"site_id"`
	LinkedUserID int64  `json:"linked_user_id,omitempty"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	DisplayName  string `json:"display_name"`
	Role         string `json:"role"`
	RoleLabel    string `json:"role_label"`
	RoleColor    string `json:"role_color"`
	AvatarURL    string `json:"avatar_url,omitempty"`
	IsSuperAdmin bool   `json:"is_super_admin"`
}

func toPersonResponse(p people.Person) personResponse {
	d := p.Details()
	resp := personResponse{
		Kind:         p.Kind().String(),
		ID:           d.ID,
		SiteID:       d.SiteID,
		LinkedUserID: d.LinkedUserID,
		Username:     d.Username,
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		DisplayName:  d.DisplayName,
		Role:         d.Role.String(),
		RoleLabel:    d.Role.Label(),
		RoleColor:    d.Role.Color(),
		IsSuperAdmin: d.IsSuperAdmin,
	}
	if d.AvatarURL != nil {
		resp.AvatarURL = d.AvatarURL.String()
	}
	return resp
}

func siteIDParam(r *http.Request) (int64, bool) {
	siteID, err := strconv.ParseInt(chi.URLParam(r, "site_id"), 10, 64)
	if err != nil || siteID <= 0 {
		return 0, false
	}
	return siteID, true
}

// kindParam reads the optional ?kind= filter. ok is false for unknown names.
func kindParam(r *http.Request) (*people.Kind, bool) {
	name := r.URL.Query().Get("kind")
	if name == "" {
		return nil, true
	}
	kind, ok := people.KindFromName(name)
	if !ok {
		return nil, false
	}
	return &kind, true
}

func (ph *PeopleHandler) ListRoles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, people.RoleDefinitions())
}

func (ph *PeopleHandler) ListPeople(w http.ResponseWriter, r *http.Request) {
	siteID, ok := siteIDParam(r)
	if !ok {
		WriteAPIError(w, http.StatusBadRequest, CodeInvalidRequest, "Invalid site ID format")
		return
	}
	kind, ok := kindParam(r)
	if !ok {
		WriteAPIError(w, http.StatusBadRequest, CodeInvalidRequest, "Unknown people kind")
		return
	}

	list, err := ph.Service.List(siteID, kind)
	if err != nil {
		log.Printf("Error listing people for site %d: %v", siteID, err)
		WriteAPIError(w, http.StatusInternalServerError, CodeInternal, "Failed to retrieve people")
		return
	}

	resp := make([]personResponse, 0, len(list))
	for _, p := range list {
		resp = append(resp, toPersonResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

// SyncPeople refreshes one kind of a site's people (users when no kind is
// given) from the remote API.
func (ph *PeopleHandler) SyncPeople(w http.ResponseWriter, r *http.Request) {
	siteID, ok := siteIDParam(r)
	if !ok {
		WriteAPIError(w, http.StatusBadRequest, CodeInvalidRequest, "Invalid site ID format")
		return
	}
	kind, ok := kindParam(r)
	if !ok {
		WriteAPIError(w, http.StatusBadRequest, CodeInvalidRequest, "Unknown people kind")
		return
	}
	if kind == nil {
		user := people.KindUser
		kind = &user
	}

	result, err := ph.Service.Sync(r.Context(), siteID, *kind)
	if err != nil {
		log.Printf("Error syncing %ss for site %d: %v", *kind, siteID, err)
		if status, ok := upstreamStatus(err); ok {
			WriteAPIError(w, status, CodeUpstream, err.Error())
			return
		}
		WriteAPIError(w, http.StatusInternalServerError, CodeInternal, "Failed to sync people")
		return
	}

	if ph.Events != nil {
		ph.Events.Broadcast(realtime.Event{
			Type:    realtime.EventPeopleSynced,
			Subject: strconv.FormatInt(siteID, 10),
			Status:  kind.String(),
			Extra:   map[string]any{"fetched": result.Fetched, "removed": result.Removed},
		})
	}
	writeJSON(w, http.StatusOK, result)
}

func (ph *PeopleHandler) InvalidatePeople(w http.ResponseWriter, r *http.Request) {
	siteID, ok := siteIDParam(r)
	if !ok {
		WriteAPIError(w, http.StatusBadRequest, CodeInvalidRequest, "Invalid site ID format")
		return
	}
	removed, err := ph.Service.Invalidate(siteID)
	if err != nil {
		log.Printf("Error invalidating people cache for site %d: %v", siteID, err)
		WriteAPIError(w, http.StatusInternalServerError, CodeInternal, "Failed to invalidate people cache")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"removed": removed})
}

func (ph *PeopleHandler) PeopleSummary(w http.ResponseWriter, r *http.Request) {
	siteID, ok := siteIDParam(r)
	if !ok {
		WriteAPIError(w, http.StatusBadRequest, CodeInvalidRequest, "Invalid site ID format")
		return
	}
	summary, err := database.CountPeopleByKind(ph.DB, siteID)
	if err != nil {
		log.Printf("Error counting people for site %d: %v", siteID, err)
		WriteAPIError(w, http.StatusInternalServerError, CodeInternal, "Failed to summarize people")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
