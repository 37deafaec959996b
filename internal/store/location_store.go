package store

import (
	"context"
	"fmt"

	"github.com/nhle/civic-dashboard/internal/model"
)

// locationRow is the flattened table shape of a model.Location.
type locationRow struct {
	ID        string  `db:"id"`
	Name      string  `db:"name"`
	Type      string  `db:"type"`
	ParentID  string  `db:"parent_id"`
	North     float64 `db:"north"`
	South     float64 `db:"south"`
	East      float64 `db:"east"`
	West      float64 `db:"west"`
	CenterLat float64 `db:"center_lat"`
	CenterLon float64 `db:"center_lon"`
	ZoomLevel int     `db:"zoom_level"`
	Level     int     `db:"level"`
}

func (r locationRow) location() model.Location {
	return model.Location{
		ID:        r.ID,
		Name:      r.Name,
		Type:      model.LocationType(r.Type),
		ParentID:  r.ParentID,
		Bounds:    model.Bounds{North: r.North, South: r.South, East: r.East, West: r.West},
		Center:    model.LatLng{Latitude: r.CenterLat, Longitude: r.CenterLon},
		ZoomLevel: r.ZoomLevel,
		Level:     r.Level,
	}
}

func rowFromLocation(l model.Location) locationRow {
	return locationRow{
		ID:        l.ID,
		Name:      l.Name,
		Type:      string(l.Type),
		ParentID:  l.ParentID,
		North:     l.Bounds.North,
		South:     l.Bounds.South,
		East:      l.Bounds.East,
		West:      l.Bounds.West,
		CenterLat: l.Center.Latitude,
		CenterLon: l.Center.Longitude,
		ZoomLevel: l.ZoomLevel,
		Level:     l.Level,
	}
}

// UpsertLocations caches administrative areas for offline area filtering.
func (s *SQLiteStore) UpsertLocations(ctx context.Context, locs []model.Location) error {
	if len(locs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	const query = `
		INSERT OR REPLACE INTO locations (
			id, name, type, parent_id,
			north, south, east, west,
			center_lat, center_lon, zoom_level, level
		) VALUES (
			:id, :name, :type, :parent_id,
			:north, :south, :east, :west,
			:center_lat, :center_lon, :zoom_level, :level
		)`

	for _, l := range locs {
		if _, err := tx.NamedExecContext(ctx, query, rowFromLocation(l)); err != nil {
			return fmt.Errorf("upserting location %s: %w", l.ID, err)
		}
	}

	return tx.Commit()
}

// GetLocations lists cached areas of type t. An empty parentID lists every
// area of that type.
func (s *SQLiteStore) GetLocations(ctx context.Context, t model.LocationType, parentID string) ([]model.Location, error) {
	query := "SELECT * FROM locations WHERE type = ?"
	args := []interface{}{string(t)}
	if parentID != "" {
		query += " AND parent_id = ?"
		args = append(args, parentID)
	}
	query += " ORDER BY name ASC"

	var rows []locationRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("querying locations: %w", err)
	}

	locs := make([]model.Location, 0, len(rows))
	for _, r := range rows {
		locs = append(locs, r.location())
	}
	return locs, nil
}
