package session

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"csi-insights-go/internal/escalate"
	"csi-insights-go/internal/report"
)

// ErrUnknownCall is returned when a call id has no live session.
var ErrUnknownCall = errors.New("session: unknown call")

// Call holds all per-call analysis state: the escalation outcome, the
// scored report, and the follow-up conversation. Calls share nothing
// with each other.
type Call struct {
	ID       string
	AudioURL string

	chatMu   sync.Mutex // one in-flight chat turn per call
	mu       sync.Mutex // guards the fields below
	notified bool
	flag     escalate.Flag
	report   *report.Report
	buffer   ConversationBuffer
}

// LockChat serializes chat turns: each turn's prompt depends on all
// prior turns being appended first.
func (c *Call) LockChat()   { c.chatMu.Lock() }
func (c *Call) UnlockChat() { c.chatMu.Unlock() }

// Buffer exposes the conversation history. The buffer locks its own
// state; the chat lock only orders whole turns.
func (c *Call) Buffer() *ConversationBuffer { return &c.buffer }

// MarkNotified flips the per-call notification marker and reports
// whether this caller won. At most one caller ever gets true, however
// many times the surrounding pipeline re-evaluates the flag.
func (c *Call) MarkNotified() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.notified {
		return false
	}
	c.notified = true
	return true
}

// SetFlag records the escalation outcome.
func (c *Call) SetFlag(f escalate.Flag) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flag = f
}

// Flag returns the recorded escalation outcome.
func (c *Call) Flag() escalate.Flag {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flag
}

// SetReport records the scored report.
func (c *Call) SetReport(r *report.Report) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.report = r
}

// Report returns the scored report, or nil before scoring completes.
func (c *Call) Report() *report.Report {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.report
}

// Store maps call ids to their live sessions.
type Store struct {
	mu    sync.RWMutex
	calls map[string]*Call
}

func NewStore() *Store {
	return &Store{calls: make(map[string]*Call)}
}

// New registers a fresh call session with a generated id.
func (s *Store) New(audioURL string) *Call {
	c := &Call{ID: uuid.NewString(), AudioURL: audioURL}
	s.mu.Lock()
	s.calls[c.ID] = c
	s.mu.Unlock()
	return c
}

// Get looks up a live session.
func (s *Store) Get(id string) (*Call, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.calls[id]
	if !ok {
		return nil, ErrUnknownCall
	}
	return c, nil
}

// Delete ends a call session, discarding its buffer and report.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.calls, id)
	s.mu.Unlock()
}

// All returns a snapshot of every live session.
func (s *Store) All() []*Call {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Call, 0, len(s.calls))
	for _, c := range s.calls {
		out = append(out, c)
	}
	return out
}
