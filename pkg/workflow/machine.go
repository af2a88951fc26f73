// Package workflow drives one reconciliation session through
// idle → analyzing → awaitingConfirmation → processing → completed, with
// error reachable from either backend call.
//
// At most one backend call runs per session. Every call is issued a Ticket
// carrying a monotonically increasing sequence; Reset and every new call
// advance the sequence, so a response arriving for a superseded ticket is
// discarded instead of overwriting newer state.
package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/errors"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/logging"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/reconcile"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/report"
)

// Machine is the workflow state machine for one session. It is safe for
// concurrent use; backend calls run without holding its lock.
type Machine struct {
	mu sync.Mutex

	collab  Collaborator
	catalog reconcile.RoleCatalog
	logger  *zerolog.Logger
	now     func() time.Time

	status      Status
	lastErr     string
	downloadErr string
	inFlight    Operation
	seq         uint64

	settings *Settings
	state    *reconcile.State
	result   *report.ProcessResult

	updatedAt time.Time
	hooks     []TransitionHook

	// Transitions not yet delivered, and whether a caller is delivering them.
	pending  []transition
	draining bool
}

type transition struct {
	from, to Status
}

// Option configures a Machine.
type Option func(*Machine)

// WithLogger sets the machine's logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(m *Machine) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithRoleCatalog sets the catalog used to attach UIDs to confirmed roles.
func WithRoleCatalog(catalog reconcile.RoleCatalog) Option {
	return func(m *Machine) {
		m.catalog = catalog
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		if now != nil {
			m.now = now
		}
	}
}

// New creates an idle machine backed by collab.
func New(collab Collaborator, opts ...Option) *Machine {
	m := &Machine{
		collab: collab,
		logger: logging.Default(),
		now:    time.Now,
		status: StatusIdle,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.updatedAt = m.now()
	return m
}

// OnTransition registers a hook fired after every status change. Hooks run
// outside the machine lock, in registration order. Transitions are delivered
// one at a time in the order they happened, even when they are made from
// different goroutines.
func (m *Machine) OnTransition(fn TransitionHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, fn)
}

// Status returns the current status.
func (m *Machine) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// StartAnalysis validates req, calls the analyzer and applies its response.
// The returned error is the validation, busy, or backend failure; a response
// superseded by Reset returns a StaleResponseError.
func (m *Machine) StartAnalysis(ctx context.Context, req AnalysisRequest) error {
	ticket, err := m.BeginAnalysis(req)
	if err != nil {
		return err
	}
	raw, err := m.collab.Analyze(ctx, req.Normalized())
	return m.CompleteAnalysis(ticket, raw, err)
}

// BeginAnalysis moves to analyzing and issues a ticket. Any previous analysis,
// choices and result are discarded.
func (m *Machine) BeginAnalysis(req AnalysisRequest) (Ticket, error) {
	m.mu.Lock()
	if err := m.guard(OpAnalyze); err != nil {
		m.mu.Unlock()
		return Ticket{}, err
	}
	if m.status == StatusAnalyzing || m.status == StatusProcessing {
		m.mu.Unlock()
		return Ticket{}, &errors.TransitionError{Operation: string(OpAnalyze), State: m.status.String()}
	}
	if err := req.Validate(); err != nil {
		m.mu.Unlock()
		return Ticket{}, err
	}

	settings := req.Settings()
	m.settings = &settings
	m.state = nil
	m.result = nil
	m.lastErr = ""
	m.downloadErr = ""
	ticket := m.issue(OpAnalyze)
	from := m.setStatus(StatusAnalyzing)
	m.unlockAndNotify(from)

	m.logger.Info().
		Uint64("sequence", ticket.Sequence).
		Str("survey_file", settings.SurveyFile).
		Str("roles_file", settings.RolesFile).
		Msg("Analysis started")
	return ticket, nil
}

// CompleteAnalysis applies an analyzer response. It returns nil once the
// session awaits confirmation, the failure that moved it to error, or a
// StaleResponseError when the ticket was superseded.
func (m *Machine) CompleteAnalysis(t Ticket, raw reconcile.RawAnalysis, callErr error) error {
	m.mu.Lock()
	if err := m.checkTicket(t, OpAnalyze); err != nil {
		m.mu.Unlock()
		m.logger.Debug().Err(err).Msg("Discarding analysis response")
		return err
	}
	m.inFlight = ""

	if callErr != nil {
		from := m.fail(callErr)
		m.unlockAndNotify(from)
		m.logger.Error().Err(callErr).Uint64("sequence", t.Sequence).Msg("Analysis failed")
		return callErr
	}

	analysis, err := reconcile.BuildAnalysisResult(raw)
	if err != nil {
		from := m.fail(err)
		m.unlockAndNotify(from)
		m.logger.Error().Err(err).Uint64("sequence", t.Sequence).Msg("Analysis response rejected")
		return err
	}

	m.state = reconcile.NewState(analysis)
	from := m.setStatus(StatusAwaitingConfirmation)
	m.unlockAndNotify(from)

	m.logger.Info().
		Int("auto", analysis.AutoCount()).
		Int("pending", analysis.PendingCount()).
		Msg("Analysis completed")
	return nil
}

// RecordChoice confirms a role for a pending value. It is only legal while
// awaiting confirmation; an invalid choice leaves the state unchanged.
func (m *Machine) RecordChoice(c reconcile.Category, original, roleName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status != StatusAwaitingConfirmation {
		return &errors.TransitionError{Operation: "recordChoice", State: m.status.String()}
	}
	if err := m.state.RecordChoice(c, original, roleName); err != nil {
		m.logger.Warn().
			Err(err).
			Str("category", c.String()).
			Str("original", original).
			Msg("Rejected choice")
		return err
	}
	m.touch()
	m.logger.Debug().
		Str("category", c.String()).
		Str("original", original).
		Str("role", roleName).
		Int("pending_remaining", m.state.PendingRemaining()).
		Msg("Choice recorded")
	return nil
}

// ClearChoice withdraws a choice. It reports whether one was removed.
func (m *Machine) ClearChoice(c reconcile.Category, original string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status != StatusAwaitingConfirmation {
		return false, &errors.TransitionError{Operation: "clearChoice", State: m.status.String()}
	}
	removed := m.state.ClearChoice(c, original)
	if removed {
		m.touch()
	}
	return removed, nil
}

// Submit sends the analysis and choices to the processor and applies the
// result. Submission does not require every pending value to be resolved.
func (m *Machine) Submit(ctx context.Context) error {
	ticket, req, err := m.BeginSubmit()
	if err != nil {
		return err
	}
	result, err := m.collab.Process(ctx, req)
	return m.CompleteSubmit(ticket, result, err)
}

// BeginSubmit moves to processing and returns the request to send. It is
// legal while awaiting confirmation, and from error when an analysis is
// present so a failed submission can be retried.
func (m *Machine) BeginSubmit() (Ticket, ProcessRequest, error) {
	m.mu.Lock()
	if err := m.guard(OpProcess); err != nil {
		m.mu.Unlock()
		return Ticket{}, ProcessRequest{}, err
	}
	retry := m.status == StatusError && m.state != nil
	if m.status != StatusAwaitingConfirmation && !retry {
		m.mu.Unlock()
		return Ticket{}, ProcessRequest{}, &errors.TransitionError{Operation: "submit", State: m.status.String()}
	}

	req := ProcessRequest{
		AnalysisData: m.state.Analysis().Raw(),
		UserChoices:  m.state.Choices().Wire(),
	}
	ready := m.state.IsReadyToSubmit()
	remaining := m.state.PendingRemaining()
	m.lastErr = ""
	ticket := m.issue(OpProcess)
	from := m.setStatus(StatusProcessing)
	m.unlockAndNotify(from)

	evt := m.logger.Info().Uint64("sequence", ticket.Sequence).Bool("ready", ready)
	if !ready {
		evt = evt.Int("pending_remaining", remaining)
	}
	evt.Msg("Submission started")
	return ticket, req, nil
}

// CompleteSubmit applies a processor response. A result without a process
// id gets a generated one; the caller's result is never modified.
func (m *Machine) CompleteSubmit(t Ticket, result *report.ProcessResult, callErr error) error {
	m.mu.Lock()
	if err := m.checkTicket(t, OpProcess); err != nil {
		m.mu.Unlock()
		m.logger.Debug().Err(err).Msg("Discarding processing response")
		return err
	}
	m.inFlight = ""

	if callErr == nil && result == nil {
		callErr = errors.NewTransportError(string(OpProcess), 0, "empty processing response")
	}
	if callErr != nil {
		from := m.fail(callErr)
		m.unlockAndNotify(from)
		m.logger.Error().Err(callErr).Uint64("sequence", t.Sequence).Msg("Processing failed")
		return callErr
	}

	own := *result
	if own.ProcessID == "" {
		own.ProcessID = fmt.Sprintf("proc_%d", m.now().UnixMilli())
	}
	result = &own
	m.result = result
	from := m.setStatus(StatusCompleted)
	m.unlockAndNotify(from)

	m.logger.Info().
		Str("process_id", result.ProcessID).
		Int("rows", len(result.Rows)).
		Int("highlighted", result.HighlightCount()).
		Msg("Processing completed")
	return nil
}

// Download fetches the result workbook. It is legal once completed and
// never changes the status; a failure is kept as the download error.
func (m *Machine) Download(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	if err := m.guard(OpDownload); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	if m.status != StatusCompleted || m.result == nil {
		m.mu.Unlock()
		return nil, &errors.TransitionError{Operation: string(OpDownload), State: m.status.String()}
	}
	processID := m.result.ProcessID
	m.downloadErr = ""
	ticket := m.issue(OpDownload)
	m.mu.Unlock()

	data, callErr := m.collab.Download(ctx, processID)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkTicket(ticket, OpDownload); err != nil {
		m.logger.Debug().Err(err).Msg("Discarding download response")
		return nil, err
	}
	m.inFlight = ""
	m.touch()
	if callErr != nil {
		m.downloadErr = callErr.Error()
		m.logger.Error().Err(callErr).Str("process_id", processID).Msg("Download failed")
		return nil, callErr
	}
	m.logger.Info().Str("process_id", processID).Int("bytes", len(data)).Msg("Result downloaded")
	return data, nil
}

// Reset returns to idle, discarding everything and invalidating any
// in-flight ticket.
func (m *Machine) Reset() {
	m.mu.Lock()
	m.seq++
	m.inFlight = ""
	m.settings = nil
	m.state = nil
	m.result = nil
	m.lastErr = ""
	m.downloadErr = ""
	from := m.setStatus(StatusIdle)
	m.unlockAndNotify(from)
	m.logger.Debug().Msg("Session reset")
}

// guard refuses a new backend call while another is in flight. Caller holds mu.
func (m *Machine) guard(op Operation) error {
	if m.inFlight != "" {
		return &errors.BusyError{Requested: string(op), InFlight: string(m.inFlight)}
	}
	return nil
}

// issue starts op under a fresh sequence. Caller holds mu.
func (m *Machine) issue(op Operation) Ticket {
	m.seq++
	m.inFlight = op
	return Ticket{Operation: op, Sequence: m.seq}
}

// checkTicket reports a StaleResponseError unless t is the live ticket for op. Caller holds mu.
func (m *Machine) checkTicket(t Ticket, op Operation) error {
	if t.Operation != op || t.Sequence != m.seq || m.inFlight != op {
		return &errors.StaleResponseError{Operation: string(op), Sequence: t.Sequence, Current: m.seq}
	}
	return nil
}

// fail records err and moves to error. Caller holds mu.
func (m *Machine) fail(err error) Status {
	m.lastErr = err.Error()
	return m.setStatus(StatusError)
}

// setStatus changes the status and returns the previous one. Caller holds mu.
func (m *Machine) setStatus(to Status) Status {
	from := m.status
	m.status = to
	m.touch()
	return from
}

func (m *Machine) touch() {
	m.updatedAt = m.now()
}

// unlockAndNotify queues the transition from the previous status, if any,
// and releases mu. The first caller to find the queue idle delivers every
// queued transition, so hooks never see them out of order. Caller holds mu.
func (m *Machine) unlockAndNotify(from Status) {
	if to := m.status; from != to {
		m.pending = append(m.pending, transition{from: from, to: to})
	}
	if m.draining {
		m.mu.Unlock()
		return
	}
	m.draining = true
	for len(m.pending) > 0 {
		t := m.pending[0]
		m.pending = m.pending[1:]
		hooks := append([]TransitionHook(nil), m.hooks...)
		m.mu.Unlock()
		for _, h := range hooks {
			h(t.from, t.to)
		}
		m.mu.Lock()
	}
	m.draining = false
	m.mu.Unlock()
}
