package services

import (
	"context"
	"fmt"
	"log"

	"github.com/camden-git/pressdesk/models"
	"github.com/camden-git/pressdesk/people"
	"github.com/camden-git/pressdesk/remote"
	"github.com/camden-git/pressdesk/repository"
)

// PeopleFetcher loads a site's member list from the REST API.
type PeopleFetcher interface {
	FetchPeople(ctx context.Context, siteID int64, endpoint remote.PeopleEndpoint) ([]remote.Person, error)
}

// PeopleService keeps the local people cache in step with the remote site
type PeopleService struct {
	personRepo repository.PersonRepositoryInterface
	fetcher    PeopleFetcher
}

// NewPeopleService creates a new people service
func NewPeopleService(personRepo repository.PersonRepositoryInterface, fetcher PeopleFetcher) *PeopleService {
	return &PeopleService{
		personRepo: personRepo,
		fetcher:    fetcher,
	}
}

// SyncResult reports what a sync changed.
type SyncResult struct {
	SiteID  int64  `json:"site_id"`
	Kind    string `json:"kind"`
	Fetched int    `json:"fetched"`
	Removed int64  `json:"removed"`
}

func endpointFor(kind people.Kind) remote.PeopleEndpoint {
	switch kind {
	case people.KindUser:
		return remote.EndpointUsers
	case people.KindViewer:
		return remote.EndpointViewers
	default:
		return remote.EndpointFollowers
	}
}

// Sync fetches one member list of a site, writes every person into the
// cache and drops cached people of that kind the site no longer returns.
func (s *PeopleService) Sync(ctx context.Context, siteID int64, kind people.Kind) (SyncResult, error) {
	result := SyncResult{SiteID: siteID, Kind: kind.String()}

	remotePeople, err := s.fetcher.FetchPeople(ctx, siteID, endpointFor(kind))
	if err != nil {
		return result, fmt.Errorf("failed to fetch %ss for site %d: %w", kind, siteID, err)
	}

	keep := make([]int64, 0, len(remotePeople))
	for _, rp := range remotePeople {
		var rec models.Person
		people.ApplyToRecord(people.FromRemote(siteID, kind, rp), &rec)
		if err := s.personRepo.Upsert(&rec); err != nil {
			return result, err
		}
		keep = append(keep, rec.UserID)
	}
	result.Fetched = len(remotePeople)

	removed, err := s.personRepo.DeleteMissing(siteID, int16(kind), keep)
	if err != nil {
		return result, err
	}
	result.Removed = removed

	log.Printf("people: synced %d %s(s) for site %d, removed %d", result.Fetched, kind, siteID, removed)
	return result, nil
}

// List returns the cached people of a site as value objects. A nil kind
// returns every variant.
func (s *PeopleService) List(siteID int64, kind *people.Kind) ([]people.Person, error) {
	var kindFilter *int16
	if kind != nil {
		k := int16(*kind)
		kindFilter = &k
	}

	records, err := s.personRepo.ListBySite(siteID, kindFilter)
	if err != nil {
		return nil, err
	}

	out := make([]people.Person, 0, len(records))
	for _, rec := range records {
		out = append(out, people.FromRecord(rec))
	}
	return out, nil
}

// Invalidate destroys the people cache of a site.
func (s *PeopleService) Invalidate(siteID int64) (int64, error) {
	removed, err := s.personRepo.DeleteBySite(siteID)
	if err != nil {
		return 0, err
	}
	log.Printf("people: invalidated cache for site %d (%d rows)", siteID, removed)
	return removed, nil
}
