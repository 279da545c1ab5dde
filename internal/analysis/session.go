package analysis

import (
	"context"
	"errors"
	"log"
	"sync"

	"engineer-alpha/internal/domain"
)

// Analyzer runs one analysis request against the external service.
type Analyzer interface {
	Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisResponse, error)
}

// State is the lifecycle position of a Session.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateSuccess
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Ticket ties an in-flight request to the submission that issued it.
type Ticket struct {
	Seq     uint64
	Request domain.AnalysisRequest
}

// Snapshot is a read-only view of a Session. Result and ResultRequest must not be modified.
type Snapshot struct {
	State         State
	Result        *domain.AnalysisResponse
	ResultRequest *domain.AnalysisRequest
	ErrorMessage  string
	ErrorKind     domain.ErrorKind
	Pending       *domain.AnalysisRequest
}

func (s Snapshot) HasError() bool  { return s.ErrorMessage != "" }
func (s Snapshot) HasResult() bool { return s.Result != nil }

// Session orchestrates validation, dispatch and result storage for one view.
// Only the most recently issued ticket may change state.
type Session struct {
	mu       sync.Mutex
	client   Analyzer
	identity *domain.Identity

	seq       uint64
	state     State
	pending   *domain.AnalysisRequest
	result    *domain.AnalysisResponse
	resultReq *domain.AnalysisRequest
	errMsg    string
	errKind   domain.ErrorKind
}

// NewSession creates an idle session. identity may be nil.
func NewSession(client Analyzer, identity *domain.Identity) *Session {
	return &Session{
		client:   client,
		identity: identity,
		state:    StateIdle,
	}
}

// Identity returns the identity attached at construction, if any.
func (s *Session) Identity() *domain.Identity { return s.identity }

// Begin validates raw and, on success, issues a new ticket and moves to Loading.
// Every call supersedes any in-flight ticket, including calls that fail validation.
func (s *Session) Begin(raw RawInput) (Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	req, err := ValidateInput(raw)
	if err != nil {
		s.state = StateError
		s.pending = nil
		s.errMsg = domain.DisplayMessage(err)
		s.errKind = domain.KindValidation
		return Ticket{}, err
	}

	s.state = StateLoading
	s.pending = &req
	s.errMsg = ""
	s.errKind = ""
	return Ticket{Seq: s.seq, Request: req}, nil
}

// Dispatch performs the outbound call for t without touching session state.
func (s *Session) Dispatch(ctx context.Context, t Ticket) (*domain.AnalysisResponse, error) {
	if s.client == nil {
		return nil, domain.NewUnknownError(errors.New("analysis client not configured"))
	}
	return s.client.Analyze(ctx, t.Request)
}

// Resolve commits the outcome of t. It returns false when t has been superseded,
// in which case the outcome is discarded.
func (s *Session) Resolve(t Ticket, resp *domain.AnalysisResponse, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.Seq == 0 || t.Seq != s.seq || s.state != StateLoading {
		log.Printf("discarding stale analysis result for %s (ticket %d, latest %d)", t.Request.Ticker, t.Seq, s.seq)
		return false
	}

	s.pending = nil
	if err == nil && resp == nil {
		err = domain.NewUnknownError(errors.New("empty analysis response"))
	}
	if err != nil {
		// the last good result stays visible under the error banner
		s.state = StateError
		s.errMsg = domain.DisplayMessage(err)
		s.errKind = domain.KindOf(err)
		return true
	}

	req := t.Request
	s.state = StateSuccess
	s.result = resp
	s.resultReq = &req
	s.errMsg = ""
	s.errKind = ""
	return true
}

// Submit runs a full submission synchronously and returns the resulting snapshot.
// The returned error is the submission's own failure, if any.
func (s *Session) Submit(ctx context.Context, raw RawInput) (Snapshot, error) {
	t, err := s.Begin(raw)
	if err != nil {
		return s.Snapshot(), err
	}
	resp, err := s.Dispatch(ctx, t)
	s.Resolve(t, resp, err)
	return s.Snapshot(), err
}

// DismissError clears the error banner, falling back to the retained result if any.
func (s *Session) DismissError() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateError {
		return
	}
	s.errMsg = ""
	s.errKind = ""
	if s.result != nil {
		s.state = StateSuccess
	} else {
		s.state = StateIdle
	}
}

// Reset returns to Idle and invalidates any in-flight ticket.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	s.state = StateIdle
	s.pending = nil
	s.result = nil
	s.resultReq = nil
	s.errMsg = ""
	s.errKind = ""
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		State:         s.state,
		Result:        s.result,
		ResultRequest: s.resultReq,
		ErrorMessage:  s.errMsg,
		ErrorKind:     s.errKind,
		Pending:       s.pending,
	}
}
