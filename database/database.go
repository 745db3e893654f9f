package database

import (
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// PeopleSummary counts the cached people of one site by discriminator.
type PeopleSummary struct {
	SiteID     int64 `json:"site_id"`
	Users      int   `json:"users"`
	Followers  int   `json:"followers"`
	Viewers    int   `json:"viewers"`
	LastSynced int64 `json:"last_synced"` // newest updated_at across the site's rows, 0 when empty
}

// discriminator values, see people.Kind
const (
	kindUser   = 0
	kindViewer = 2
)

// CountPeopleByKind summarises the people cache for a site.
// Unknown discriminators are counted as followers.
func CountPeopleByKind(db *sql.DB, siteID int64) (PeopleSummary, error) {
	summary := PeopleSummary{SiteID: siteID}

	queryBuilder := psql.Select("kind", "COUNT(*)", "MAX(updated_at)").
		From("people").
		Where(sq.Eq{"site_id": siteID}).
		GroupBy("kind")

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return summary, fmt.Errorf("failed to build SQL for CountPeopleByKind: %w", err)
	}

	rows, err := db.Query(sqlStr, args...)
	if err != nil {
		return summary, fmt.Errorf("failed to execute CountPeopleByKind for site %d: %w", siteID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind, count int
		var lastUpdated sql.NullInt64
		if err := rows.Scan(&kind, &count, &lastUpdated); err != nil {
			return summary, fmt.Errorf("failed to scan people summary row: %w", err)
		}
		switch kind {
		case kindUser:
			summary.Users += count
		case kindViewer:
			summary.Viewers += count
		default:
			summary.Followers += count
		}
		if lastUpdated.Valid && lastUpdated.Int64 > summary.LastSynced {
			summary.LastSynced = lastUpdated.Int64
		}
	}
	if err := rows.Err(); err != nil {
		return summary, fmt.Errorf("error iterating people summary rows: %w", err)
	}
	return summary, nil
}
