package session

// Guard derives which actions are currently permitted. It performs no I/O
// and cancels nothing.
type Guard struct {
	HasSession bool
	Uploading  bool
	Analyzing  bool
}

// CanUpload is true when neither operation is in flight.
func (g Guard) CanUpload() bool {
	return !g.Uploading && !g.Analyzing
}

// CanAnalyze is true when a document is active and neither operation is in
// flight.
func (g Guard) CanAnalyze() bool {
	return g.HasSession && !g.Uploading && !g.Analyzing
}

// Token identifies the epoch an operation started in.
type Token uint64

// Epoch is a generation counter. Anything that invalidates in-flight work
// (a reset, an accepted intake) advances it; a completion may commit only while
// the token it captured is still valid.
type Epoch struct {
	n uint64
}

// Advance moves to a new epoch and returns its token.
func (e *Epoch) Advance() Token {
	e.n++
	return Token(e.n)
}

// Current returns the token of the live epoch.
func (e *Epoch) Current() Token {
	return Token(e.n)
}

// Valid reports whether t still names the live epoch.
func (e *Epoch) Valid(t Token) bool {
	return uint64(t) == e.n
}
