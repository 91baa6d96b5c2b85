package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cesargomez89/showmover/internal/domain"
)

const showColumns = `id, title, path, location, size_bytes, season_count, episode_count,
	thumbnail_path, source, last_scan, created_at`

// ShowFilter narrows and orders ListShows.
type ShowFilter struct {
	Location domain.Location
	Search   string
	SortBy   string
	SortDir  string
	Limit    int
	Offset   int
}

var showSortColumns = map[string]string{
	"title":    "title COLLATE NOCASE",
	"size":     "size_bytes",
	"date":     "last_scan",
	"seasons":  "season_count",
	"episodes": "episode_count",
}

// UpsertShow inserts the show or refreshes the row with the same path. It
// reports whether a new row was created and sets show.ID to the stored id.
func (db *DB) UpsertShow(ctx context.Context, show *domain.Show) (bool, error) {
	var inserted bool

	err := db.RunInTx(ctx, func(tx *DB) error {
		var existingID string
		err := tx.GetContext(ctx, &existingID, `SELECT id FROM shows WHERE path = ?`, show.Path)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			inserted = true
			if show.ID == "" {
				show.ID = uuid.New().String()
			}
			if show.CreatedAt.IsZero() {
				show.CreatedAt = time.Now().UTC()
			}
		case err != nil:
			return fmt.Errorf("lookup show path: %w", err)
		default:
			show.ID = existingID
		}

		if show.LastScan.IsZero() {
			show.LastScan = time.Now().UTC()
		}

		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO shows (id, title, path, location, size_bytes, season_count, episode_count,
				thumbnail_path, source, last_scan, created_at)
			VALUES (:id, :title, :path, :location, :size_bytes, :season_count, :episode_count,
				:thumbnail_path, :source, :last_scan, :created_at)
			ON CONFLICT(path) DO UPDATE SET
				title = excluded.title,
				location = excluded.location,
				size_bytes = excluded.size_bytes,
				season_count = excluded.season_count,
				episode_count = excluded.episode_count,
				thumbnail_path = excluded.thumbnail_path,
				source = excluded.source,
				last_scan = excluded.last_scan`, show)
		if err != nil {
			return fmt.Errorf("upsert show: %w", err)
		}
		return nil
	})

	return inserted, err
}

func (db *DB) GetShow(ctx context.Context, id string) (*domain.Show, error) {
	show := &domain.Show{}
	err := db.GetContext(ctx, show, `SELECT `+showColumns+` FROM shows WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return show, nil
}

func (db *DB) GetShowByPath(ctx context.Context, path string) (*domain.Show, error) {
	show := &domain.Show{}
	err := db.GetContext(ctx, show, `SELECT `+showColumns+` FROM shows WHERE path = ?`, path)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return show, nil
}

// ListShows returns shows matching the filter. Unknown sort keys fall back to
// title; a non-positive limit returns every row.
func (db *DB) ListShows(ctx context.Context, f ShowFilter) ([]*domain.Show, error) {
	where, args := f.whereClause()

	sortCol, ok := showSortColumns[f.SortBy]
	if !ok {
		sortCol = showSortColumns["title"]
	}
	dir := "ASC"
	if strings.EqualFold(f.SortDir, "desc") {
		dir = "DESC"
	}

	query := `SELECT ` + showColumns + ` FROM shows` + where +
		fmt.Sprintf(` ORDER BY %s %s, id ASC`, sortCol, dir)
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	var shows []*domain.Show
	if err := db.SelectContext(ctx, &shows, query, args...); err != nil {
		return nil, err
	}
	return shows, nil
}

// CountShows returns how many shows match the filter, ignoring paging.
func (db *DB) CountShows(ctx context.Context, f ShowFilter) (int, error) {
	where, args := f.whereClause()
	var count int
	err := db.GetContext(ctx, &count, `SELECT COUNT(*) FROM shows`+where, args...)
	return count, err
}

func (f ShowFilter) whereClause() (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if f.Location != domain.LocationUnknown {
		clauses = append(clauses, `lower(location) = lower(?)`)
		args = append(args, string(f.Location))
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		pattern := "%" + escapeLike(term) + "%"
		clauses = append(clauses, `(title LIKE ? ESCAPE '\' OR path LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
