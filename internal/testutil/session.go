package testutil

// FixedSession generates the same session id every time.
//
// This enables deterministic log output and golden trace comparison.
// The same scenario with the same FixedSession produces byte-identical traces.
//
// Thread-safety: FixedSession is stateless and safe for concurrent use.
type FixedSession struct {
	id string
}

// NewFixedSession creates a new fixed session id generator.
//
// If id is empty, Generate() returns "test-session-default".
func NewFixedSession(id string) *FixedSession {
	if id == "" {
		id = "test-session-default"
	}
	return &FixedSession{id: id}
}

// Generate returns the fixed session id.
//
// Implements dataset.SessionGenerator interface.
func (g *FixedSession) Generate() string {
	return g.id
}
