package store

import (
	"context"
	"fmt"

	"github.com/roach88/logrename/internal/engine"
)

// BeginSession records a session. Uses ON CONFLICT(id) DO NOTHING, so
// beginning the same session twice keeps the first record.
func (s *Store) BeginSession(ctx context.Context, info engine.SessionInfo) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions
		(id, target_class, factory_ref, factory_source, factory_error,
		 location_ref, location_source, location_error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		info.ID,
		info.TargetClass,
		info.FactoryRef,
		info.FactorySource,
		info.FactoryError,
		info.LocationRef,
		info.LocationSource,
		info.LocationError,
	)
	if err != nil {
		return fmt.Errorf("begin session: %w", err)
	}
	return nil
}

// Record appends a rename to a session. Duplicate events (same content
// ID, or same session and seq) are silently ignored. The session must
// exist (foreign key constraint).
func (s *Store) Record(ctx context.Context, sessionID string, ev engine.RenameEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO renames
		(id, session_id, seq, kind, category, class, method, from_name, to_name, site)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		RenameID(sessionID, ev),
		sessionID,
		ev.Seq,
		string(ev.Kind),
		string(ev.Category),
		ev.Class,
		ev.Method,
		ev.From,
		ev.To,
		ev.Site,
	)
	if err != nil {
		return fmt.Errorf("record rename: %w", err)
	}
	return nil
}
