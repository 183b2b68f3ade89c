// Package store implements the Object Store: typed, indexed in-memory
// collections with an undo-session stack giving atomic block application
// (spec.md §4.1).
package store

// Inverse is a closure that undoes exactly one prior mutation.
type Inverse func()

// UndoStack records inverses for every mutation since the outermost session
// began. Sessions nest; a transaction is one inner session, a block is the
// outer session, matching spec.md §4.1's "sessions nest" rule.
type UndoStack struct {
	inverses []Inverse
}

// Session is a checkpoint into the UndoStack. Commit discards the recorded
// inverses (keeping the mutations); Undo replays them in LIFO order,
// unwinding every mutation recorded since the session began.
type Session struct {
	stack *UndoStack
	mark  int
	done  bool
}

// Begin opens a new nested session at the stack's current depth.
func (u *UndoStack) Begin() *Session {
	return &Session{stack: u, mark: len(u.inverses)}
}

// push records one mutation's inverse. Called by every Table mutator.
func (u *UndoStack) push(inv Inverse) {
	u.inverses = append(u.inverses, inv)
}

// Commit discards this session's recorded inverses, keeping the mutations
// applied. Safe to call at most once.
func (s *Session) Commit() {
	if s.done {
		return
	}
	s.done = true
	s.stack.inverses = s.stack.inverses[:s.mark:s.mark]
}

// Undo replays, in reverse order, every inverse recorded since the session
// began, then discards them. Safe to call at most once.
func (s *Session) Undo() {
	if s.done {
		return
	}
	s.done = true
	for i := len(s.stack.inverses) - 1; i >= s.mark; i-- {
		s.stack.inverses[i]()
	}
	s.stack.inverses = s.stack.inverses[:s.mark:s.mark]
}
