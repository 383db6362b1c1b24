package testutil

// FixedSessionID generates the same session ID every time. It can back any
// number of engines, so a scenario run twice produces byte-identical
// journals and traces.
//
// Thread-safety: FixedSessionID is stateless and safe for concurrent use.
type FixedSessionID struct {
	id string
}

// NewFixedSessionID creates a generator for id.
//
// If id is empty, Generate() returns "test-session".
func NewFixedSessionID(id string) *FixedSessionID {
	if id == "" {
		id = "test-session"
	}
	return &FixedSessionID{id: id}
}

// Generate returns the fixed session ID.
//
// Implements engine.SessionIDGenerator.
func (g *FixedSessionID) Generate() string {
	return g.id
}
