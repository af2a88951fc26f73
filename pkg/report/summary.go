package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/errors"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/reconcile"
)

// SummaryRecord is the canonical per-value summary. The backend has sent
// both role_name and role, and both match_type and type; decoding folds the
// synonyms into one field each.
type SummaryRecord struct {
	RoleName  string `json:"role_name"`
	Found     bool   `json:"found"`
	UID       string `json:"uid,omitempty"`
	MatchType string `json:"match_type,omitempty"`
}

// SummaryEntry is one source value and its record.
type SummaryEntry struct {
	Value string
	SummaryRecord
}

// Summary is a category summary in backend order.
type Summary []SummaryEntry

// summaryWire accepts every known key spelling.
type summaryWire struct {
	RoleName  looseString `json:"role_name"`
	Role      looseString `json:"role"`
	Found     bool        `json:"found"`
	UID       looseString `json:"uid"`
	MatchType looseString `json:"match_type"`
	Type      looseString `json:"type"`
}

func (w summaryWire) record() SummaryRecord {
	return SummaryRecord{
		RoleName:  firstNonEmpty(string(w.RoleName), string(w.Role)),
		Found:     w.Found,
		UID:       string(w.UID),
		MatchType: firstNonEmpty(string(w.MatchType), string(w.Type)),
	}
}

// UnmarshalJSON decodes {value: {...}, ...} keeping key order. A value
// repeated in the object keeps its first position and its last record.
func (s *Summary) UnmarshalJSON(data []byte) error {
	members, err := decodeObject(data)
	if err != nil {
		return err
	}
	if members == nil {
		*s = nil
		return nil
	}

	out := make(Summary, 0, len(members))
	at := make(map[string]int, len(members))
	for _, m := range members {
		var w summaryWire
		if err := json.Unmarshal(m.raw, &w); err != nil {
			return errors.WrapParse("json", "", err)
		}
		if i, dup := at[m.key]; dup {
			out[i].SummaryRecord = w.record()
			continue
		}
		at[m.key] = len(out)
		out = append(out, SummaryEntry{Value: m.key, SummaryRecord: w.record()})
	}
	*s = out
	return nil
}

// MarshalJSON encodes the canonical keys in entry order.
func (s Summary) MarshalJSON() ([]byte, error) {
	members := make([]member, len(s))
	for i, e := range s {
		members[i] = member{key: e.Value, value: e.SummaryRecord}
	}
	return encodeObject(members)
}

// SummaryFromMapping builds a summary from resolved entries, for reporting
// on a session before the backend has processed it.
func SummaryFromMapping(entries []reconcile.Resolution) Summary {
	out := make(Summary, 0, len(entries))
	for _, e := range entries {
		out = append(out, SummaryEntry{
			Value: e.Original,
			SummaryRecord: SummaryRecord{
				RoleName:  e.RoleName,
				Found:     e.Resolved,
				UID:       e.UID,
				MatchType: e.MatchType,
			},
		})
	}
	return out
}

// SummaryRow is one display row of a category summary table.
type SummaryRow struct {
	Value string `json:"value" yaml:"value"`
	Role  string `json:"role" yaml:"role"`
	Found bool   `json:"found" yaml:"found"`
	UID   string `json:"uid" yaml:"uid"`
	Type  string `json:"type" yaml:"type"`
}

// FoundMark renders Found as a check or a cross.
func (r SummaryRow) FoundMark() string {
	if r.Found {
		return "✅"
	}
	return "❌"
}

// ProjectSummary turns a summary into display rows in the same order.
func ProjectSummary(s Summary) []SummaryRow {
	rows := make([]SummaryRow, len(s))
	for i, e := range s {
		rows[i] = SummaryRow{
			Value: e.Value,
			Role:  e.RoleName,
			Found: e.Found,
			UID:   e.UID,
			Type:  e.MatchType,
		}
	}
	return rows
}

// SummaryHeader is the column header of a summary table.
var SummaryHeader = []string{"Значение", "Сопоставленная роль", "Найдено", "UID", "Тип сопоставления"}

// Cells renders the row under SummaryHeader.
func (r SummaryRow) Cells() []string {
	return []string{r.Value, r.Role, r.FoundMark(), r.UID, r.Type}
}

// looseString decodes strings, numbers and booleans as text; null is empty.
// UIDs read from spreadsheets frequently arrive as numbers.
type looseString string

func (l *looseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*l = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = looseString(s)
	case bytes.Equal(data, []byte("true")), bytes.Equal(data, []byte("false")):
		*l = looseString(data)
	default:
		if _, err := strconv.ParseFloat(string(data), 64); err != nil {
			return fmt.Errorf("unsupported value %s", data)
		}
		*l = looseString(data)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
