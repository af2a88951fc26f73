// Package filter parses session list query parameters and applies them.
package filter

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	obrabotka "github.com/EvTKi/Obrabotka-Jeka-remake"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/errors"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/workflow"
)

// Sort fields accepted by the session list.
const (
	SortCreated = "created_at"
	SortUpdated = "updated_at"
	SortStatus  = "status"
)

var statuses = map[workflow.Status]bool{
	workflow.StatusIdle:                 true,
	workflow.StatusAnalyzing:            true,
	workflow.StatusAwaitingConfirmation: true,
	workflow.StatusProcessing:           true,
	workflow.StatusCompleted:            true,
	workflow.StatusError:                true,
}

// SessionFilter contains the criteria for listing sessions.
type SessionFilter struct {
	Statuses      []workflow.Status
	Ready         *bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time

	// Pagination
	Sort   string
	Order  string
	Limit  int
	Offset int
}

// ParseSessionFilter extracts session filter parameters from the request.
// Unknown statuses and sort fields are rejected; malformed numbers fall
// back to their defaults.
func ParseSessionFilter(r *http.Request) (SessionFilter, error) {
	q := r.URL.Query()

	f := SessionFilter{
		Sort:   q.Get("sort"),
		Order:  strings.ToLower(q.Get("order")),
		Limit:  parseIntOrDefault(q.Get("limit"), 100),
		Offset: parseIntOrDefault(q.Get("offset"), 0),
	}

	if raw := q.Get("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			status := workflow.Status(strings.TrimSpace(s))
			if !statuses[status] {
				return f, errors.NewInputValidationError("unknown status "+string(status), "status")
			}
			f.Statuses = append(f.Statuses, status)
		}
	}

	if raw := q.Get("ready"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return f, errors.NewInputValidationError("ready must be a boolean", "ready")
		}
		f.Ready = &b
	}

	if raw := q.Get("created_after"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			f.CreatedAfter = &t
		}
	}
	if raw := q.Get("created_before"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			f.CreatedBefore = &t
		}
	}

	switch f.Sort {
	case "", SortCreated, SortUpdated, SortStatus:
	default:
		return f, errors.NewInputValidationError("unknown sort field "+f.Sort, "sort")
	}
	if f.Order != "" && f.Order != "asc" && f.Order != "desc" {
		return f, errors.NewInputValidationError("order must be asc or desc", "order")
	}
	if f.Limit < 0 {
		f.Limit = 0
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f, nil
}

// entry pairs a session with the view the filter reads.
type entry struct {
	session *obrabotka.Session
	snap    workflow.Snapshot
}

// Apply filters, sorts and pages sessions. It returns the page and the
// number of sessions that matched before paging.
func (f SessionFilter) Apply(sessions []*obrabotka.Session) ([]*obrabotka.Session, int) {
	matched := make([]entry, 0, len(sessions))
	for _, s := range sessions {
		e := entry{session: s, snap: s.Snapshot()}
		if f.matches(e) {
			matched = append(matched, e)
		}
	}

	f.sort(matched)

	total := len(matched)
	start := min(f.Offset, total)
	end := total
	if f.Limit > 0 {
		end = min(start+f.Limit, total)
	}

	page := make([]*obrabotka.Session, 0, end-start)
	for _, e := range matched[start:end] {
		page = append(page, e.session)
	}
	return page, total
}

func (f SessionFilter) matches(e entry) bool {
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, e.snap.Status) {
		return false
	}
	if f.Ready != nil && e.snap.Ready != *f.Ready {
		return false
	}
	if f.CreatedAfter != nil && !e.session.CreatedAt.After(*f.CreatedAfter) {
		return false
	}
	if f.CreatedBefore != nil && !e.session.CreatedAt.Before(*f.CreatedBefore) {
		return false
	}
	return true
}

// sort orders entries in place. Ties keep creation order.
func (f SessionFilter) sort(entries []entry) {
	less := func(a, b entry) bool {
		switch f.Sort {
		case SortUpdated:
			return a.snap.UpdatedAt.Before(b.snap.UpdatedAt)
		case SortStatus:
			return a.snap.Status < b.snap.Status
		default:
			return a.session.CreatedAt.Before(b.session.CreatedAt)
		}
	}
	desc := f.Order == "desc"
	sort.SliceStable(entries, func(i, j int) bool {
		if desc {
			return less(entries[j], entries[i])
		}
		return less(entries[i], entries[j])
	})
}

func containsStatus(list []workflow.Status, s workflow.Status) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// parseIntOrDefault parses an integer or returns default.
func parseIntOrDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	return def
}
