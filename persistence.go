package obrabotka

import (
	"io"
	"time"

	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/errors"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/save"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/workflow"
)

// Compile-time interface check to ensure proper implementation.
var _ Persistence = (*client)(nil)

// Persistence saves and restores sessions.
type Persistence interface {
	// SaveSession writes a session to the path or writer in opts
	SaveSession(id string, opts ...save.Option) error

	// LoadSession restores a session from a saved file. Choices that no
	// longer match the saved analysis are dropped and returned.
	LoadSession(path string) (*Session, []error, error)

	// ImportSession restores a session from r.
	ImportSession(r io.Reader, format save.Format) (*Session, []error, error)
}

// SessionFile is the persisted form of a session.
type SessionFile struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	SavedAt   time.Time      `json:"saved_at"`
	Session   workflow.Saved `json:"session"`
}

// SaveSession writes a session to the path or writer in opts.
func (c *client) SaveSession(id string, opts ...save.Option) error {
	s, err := c.Session(id)
	if err != nil {
		return err
	}
	file := SessionFile{
		ID:        s.ID,
		CreatedAt: s.CreatedAt,
		SavedAt:   c.options.now(),
		Session:   s.Save(),
	}
	if err := save.Write(file, opts...); err != nil {
		return err
	}
	c.options.logger.Info().Str("session_id", id).Msg("Session saved")
	return nil
}

// LoadSession restores a session from a saved file. A live session with the
// same id is replaced.
func (c *client) LoadSession(path string) (*Session, []error, error) {
	var file SessionFile
	if err := save.Read(path, &file); err != nil {
		return nil, nil, err
	}
	return c.restore(file)
}

// ImportSession restores a session from r.
func (c *client) ImportSession(r io.Reader, format save.Format) (*Session, []error, error) {
	var file SessionFile
	if err := save.ReadFrom(r, format, &file); err != nil {
		return nil, nil, err
	}
	return c.restore(file)
}

func (c *client) restore(file SessionFile) (*Session, []error, error) {
	if file.ID == "" {
		return nil, nil, errors.NewInputValidationError("saved session has no id", "id")
	}
	created := file.CreatedAt
	if created.IsZero() {
		created = c.options.now()
	}

	s := c.newSession(file.ID, created)
	dropped, err := s.Restore(file.Session)
	if err != nil {
		return nil, nil, err
	}

	if old, ok := c.sessions.Get(file.ID); ok {
		old.(*Session).Reset()
	}
	c.sessions.SetDefault(s.ID, s)
	c.options.logger.Info().
		Str("session_id", s.ID).
		Str("status", s.Status().String()).
		Int("dropped_choices", len(dropped)).
		Msg("Session loaded")
	c.hooks.triggerCreated(s.ID)
	return s, dropped, nil
}
