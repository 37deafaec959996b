package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/nhle/civic-dashboard/internal/model"
)

// UpsertIssues inserts or replaces a batch of issues in the snapshot.
func (s *SQLiteStore) UpsertIssues(ctx context.Context, issues []model.Issue, fetchedAt time.Time) error {
	if len(issues) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	const query = `
		INSERT OR REPLACE INTO issues (
			id, title, description,
			category, status, priority, priority_rank,
			latitude, longitude, address,
			created_at, updated_at, fetched_at,
			raw_data
		) VALUES (
			?, ?, ?,
			?, ?, ?, ?,
			?, ?, ?,
			?, ?, ?,
			?
		)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing upsert statement: %w", err)
	}
	defer stmt.Close()

	for _, is := range issues {
		raw, err := json.Marshal(is)
		if err != nil {
			return fmt.Errorf("marshaling issue %s: %w", is.ID, err)
		}

		_, err = stmt.ExecContext(ctx,
			is.ID, is.Title, is.Description,
			string(is.Category), string(is.Status), string(is.Priority), is.Priority.Rank(),
			is.Latitude, is.Longitude, is.Address,
			is.CreatedAt.UTC(), is.UpdatedAt.UTC(), fetchedAt.UTC(),
			string(raw),
		)
		if err != nil {
			return fmt.Errorf("upserting issue %s: %w", is.ID, err)
		}
	}

	return tx.Commit()
}

// GetIssues retrieves snapshot issues matching filter.
func (s *SQLiteStore) GetIssues(ctx context.Context, filter IssueFilter) ([]model.Issue, error) {
	var conditions []string
	var args []interface{}

	if len(filter.Categories) > 0 {
		conditions = append(conditions, "category IN (?)")
		args = append(args, strs(filter.Categories))
	}
	if len(filter.Statuses) > 0 {
		conditions = append(conditions, "status IN (?)")
		args = append(args, strs(filter.Statuses))
	}
	if len(filter.Priorities) > 0 {
		conditions = append(conditions, "priority IN (?)")
		args = append(args, strs(filter.Priorities))
	}
	if filter.Query != nil && *filter.Query != "" {
		conditions = append(conditions, "(title LIKE ? OR description LIKE ? OR address LIKE ?)")
		q := "%" + *filter.Query + "%"
		args = append(args, q, q, q)
	}

	query := "SELECT raw_data FROM issues"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	sortBy := "created_at"
	if filter.SortBy != "" {
		allowedSorts := map[string]string{
			"title":      "title",
			"status":     "status",
			"priority":   "priority_rank",
			"created_at": "created_at",
			"updated_at": "updated_at",
		}
		if col, ok := allowedSorts[filter.SortBy]; ok {
			sortBy = col
		}
	}

	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s, id ASC", sortBy, direction)

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("expanding issue filter: %w", err)
	}

	var raws []string
	if err := s.db.SelectContext(ctx, &raws, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("querying issues: %w", err)
	}

	issues := make([]model.Issue, 0, len(raws))
	for _, raw := range raws {
		is, err := decodeIssue(raw)
		if err != nil {
			return nil, err
		}
		issues = append(issues, is)
	}
	return issues, nil
}

// GetIssueByID returns the snapshot copy of one issue, or nil if it is not
// in the snapshot.
func (s *SQLiteStore) GetIssueByID(ctx context.Context, id string) (*model.Issue, error) {
	var raw string
	err := s.db.GetContext(ctx, &raw, "SELECT raw_data FROM issues WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying issue %s: %w", id, err)
	}
	is, err := decodeIssue(raw)
	if err != nil {
		return nil, err
	}
	return &is, nil
}

func (s *SQLiteStore) DeleteIssue(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM issues WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting issue %s: %w", id, err)
	}
	return nil
}

// KnownIssueIDs returns the id of every issue in the snapshot.
func (s *SQLiteStore) KnownIssueIDs(ctx context.Context) (map[string]struct{}, error) {
	var ids []string
	if err := s.db.SelectContext(ctx, &ids, "SELECT id FROM issues"); err != nil {
		return nil, fmt.Errorf("querying issue ids: %w", err)
	}
	known := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		known[id] = struct{}{}
	}
	return known, nil
}

func decodeIssue(raw string) (model.Issue, error) {
	var is model.Issue
	if err := json.Unmarshal([]byte(raw), &is); err != nil {
		return model.Issue{}, fmt.Errorf("unmarshaling issue: %w", err)
	}
	return is, nil
}

func strs[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
