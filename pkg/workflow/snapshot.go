package workflow

import (
	"time"

	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/errors"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/reconcile"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/report"
)

// Snapshot is a read-only view of a machine.
type Snapshot struct {
	Status           Status                       `json:"status"`
	Error            string                       `json:"error,omitempty"`
	DownloadError    string                       `json:"download_error,omitempty"`
	InFlight         Operation                    `json:"in_flight,omitempty"`
	Sequence         uint64                       `json:"sequence"`
	Settings         *Settings                    `json:"settings,omitempty"`
	Analysis         *reconcile.AnalysisResult    `json:"analysis,omitempty"`
	Choices          map[string]map[string]string `json:"choices,omitempty"`
	Ready            bool                         `json:"ready"`
	PendingRemaining int                          `json:"pending_remaining"`
	Mapping          *reconcile.ResolvedMapping   `json:"mapping,omitempty"`
	Result           *report.ProcessResult        `json:"result,omitempty"`
	UpdatedAt        time.Time                    `json:"updated_at"`
}

// Snapshot returns the current view. The resolved mapping carries UIDs from
// the role catalog when one is configured.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		Status:        m.status,
		Error:         m.lastErr,
		DownloadError: m.downloadErr,
		InFlight:      m.inFlight,
		Sequence:      m.seq,
		Result:        m.result,
		UpdatedAt:     m.updatedAt,
	}
	if m.settings != nil {
		s := *m.settings
		snap.Settings = &s
	}
	if m.state != nil {
		snap.Analysis = m.state.Analysis()
		snap.Choices = m.state.Choices().Wire()
		snap.Ready = m.state.IsReadyToSubmit()
		snap.PendingRemaining = m.state.PendingRemaining()
		mapping := reconcile.ResolveUIDs(reconcile.ResolveMapping(m.state), m.catalog)
		snap.Mapping = &mapping
	}
	return snap
}

// Saved is the persisted form of a session. In-flight statuses are saved as
// the status the call started from, since the call cannot be resumed.
type Saved struct {
	Status   Status                `json:"status" yaml:"status"`
	Error    string                `json:"error,omitempty" yaml:"error,omitempty"`
	Settings *Settings             `json:"settings,omitempty" yaml:"settings,omitempty"`
	State    *reconcile.Snapshot   `json:"state,omitempty" yaml:"state,omitempty"`
	Result   *report.ProcessResult `json:"result,omitempty" yaml:"result,omitempty"`
}

// Save captures the machine for persistence.
func (m *Machine) Save() Saved {
	m.mu.Lock()
	defer m.mu.Unlock()

	saved := Saved{Status: m.status, Error: m.lastErr, Result: m.result}
	switch m.status {
	case StatusAnalyzing:
		saved.Status = StatusIdle
	case StatusProcessing:
		saved.Status = StatusAwaitingConfirmation
	}
	if m.settings != nil {
		s := *m.settings
		saved.Settings = &s
	}
	if m.state != nil {
		snap := m.state.Snapshot()
		saved.State = &snap
	}
	return saved
}

// Restore replaces the machine's contents with saved. Choices that no longer
// reference a pending candidate are dropped and returned. Any in-flight call
// is invalidated.
func (m *Machine) Restore(saved Saved) ([]error, error) {
	var (
		state   *reconcile.State
		dropped []error
	)
	if saved.State != nil {
		var err error
		state, dropped, err = reconcile.RestoreState(*saved.State)
		if err != nil {
			return nil, err
		}
	}

	status := saved.Status
	switch status {
	case StatusIdle, StatusError:
	case StatusAnalyzing:
		status = StatusIdle
	case StatusAwaitingConfirmation, StatusProcessing:
		if state == nil {
			return nil, errors.NewInputValidationError("saved session has no analysis", "state")
		}
		status = StatusAwaitingConfirmation
	case StatusCompleted:
		if saved.Result == nil {
			return nil, errors.NewInputValidationError("saved session has no result", "result")
		}
	default:
		return nil, errors.NewInputValidationError("unknown status "+string(saved.Status), "status")
	}

	m.mu.Lock()
	m.seq++
	m.inFlight = ""
	m.settings = saved.Settings
	m.state = state
	m.result = saved.Result
	m.lastErr = saved.Error
	m.downloadErr = ""
	from := m.setStatus(status)
	m.unlockAndNotify(from)

	for _, err := range dropped {
		m.logger.Warn().Err(err).Msg("Dropped saved choice")
	}
	return dropped, nil
}
