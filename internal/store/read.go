package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/logrename/internal/engine"
)

// Rename is a journaled rename with its session.
type Rename struct {
	SessionID string `json:"session_id"`
	engine.RenameEvent
}

// ListSessions returns every session in the order it was begun.
//
// Returns an empty slice (not nil) for an empty journal.
func (s *Store) ListSessions(ctx context.Context) ([]engine.SessionInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, target_class, factory_ref, factory_source, factory_error,
		       location_ref, location_source, location_error
		FROM sessions
		ORDER BY rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []engine.SessionInfo{}
	for rows.Next() {
		var info engine.SessionInfo
		if err := rows.Scan(
			&info.ID,
			&info.TargetClass,
			&info.FactoryRef,
			&info.FactorySource,
			&info.FactoryError,
			&info.LocationRef,
			&info.LocationSource,
			&info.LocationError,
		); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// GetSession returns one session, or sql.ErrNoRows.
func (s *Store) GetSession(ctx context.Context, id string) (engine.SessionInfo, error) {
	var info engine.SessionInfo
	err := s.db.QueryRowContext(ctx, `
		SELECT id, target_class, factory_ref, factory_source, factory_error,
		       location_ref, location_source, location_error
		FROM sessions
		WHERE id = ?
	`, id).Scan(
		&info.ID,
		&info.TargetClass,
		&info.FactoryRef,
		&info.FactorySource,
		&info.FactoryError,
		&info.LocationRef,
		&info.LocationSource,
		&info.LocationError,
	)
	if err != nil {
		return engine.SessionInfo{}, fmt.Errorf("get session %s: %w", id, err)
	}
	return info, nil
}

// ListRenames returns a session's renames in application order:
// ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if the session recorded nothing.
func (s *Store) ListRenames(ctx context.Context, sessionID string) ([]engine.RenameEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, seq, kind, category, class, method, from_name, to_name, site
		FROM renames
		WHERE session_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query renames: %w", err)
	}
	defer rows.Close()

	renames, err := scanRenames(rows)
	if err != nil {
		return nil, err
	}
	events := make([]engine.RenameEvent, len(renames))
	for i, r := range renames {
		events[i] = r.RenameEvent
	}
	return events, nil
}

// ClassHistory returns every rename recorded for a class (by load-time
// name) across sessions, oldest session first.
func (s *Store) ClassHistory(ctx context.Context, class string) ([]Rename, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.session_id, r.seq, r.kind, r.category, r.class, r.method, r.from_name, r.to_name, r.site
		FROM renames r
		JOIN sessions s ON r.session_id = s.id
		WHERE r.class = ?
		ORDER BY s.rowid ASC, r.seq ASC, r.id COLLATE BINARY ASC
	`, class)
	if err != nil {
		return nil, fmt.Errorf("query class history: %w", err)
	}
	defer rows.Close()

	return scanRenames(rows)
}

func scanRenames(rows *sql.Rows) ([]Rename, error) {
	renames := []Rename{}
	for rows.Next() {
		var (
			r        Rename
			kind     string
			category string
		)
		if err := rows.Scan(
			&r.SessionID,
			&r.Seq,
			&kind,
			&category,
			&r.Class,
			&r.Method,
			&r.From,
			&r.To,
			&r.Site,
		); err != nil {
			return nil, fmt.Errorf("scan rename: %w", err)
		}
		r.Kind = engine.RenameKind(kind)
		r.Category = engine.Category(category)
		renames = append(renames, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate renames: %w", err)
	}
	return renames, nil
}
