// Package report projects processed results for display: per-row highlight
// flags, per-category role summaries and the analysis confirmation table.
// Projections are pure and never reorder their input.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/errors"
)

// Field is one cell of a processed row. Decoded scalars are string,
// json.Number, bool or nil; objects and arrays stay json.RawMessage so
// they are written back exactly as received.
type Field struct {
	Key   string
	Value any
}

// Row is a processed output row. Column order is the order the backend sent.
type Row []Field

// Columns returns the column names in order.
func (r Row) Columns() []string {
	cols := make([]string, len(r))
	for i, f := range r {
		cols[i] = f.Key
	}
	return cols
}

// Get returns the value of column key.
func (r Row) Get(key string) (any, bool) {
	for _, f := range r {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Cell renders column key for display; missing and null cells are empty.
func (r Row) Cell(key string) string {
	v, ok := r.Get(key)
	if !ok {
		return ""
	}
	return display(v)
}

// Values renders every cell in column order.
func (r Row) Values() []string {
	out := make([]string, len(r))
	for i, f := range r {
		out[i] = display(f.Value)
	}
	return out
}

func display(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case json.RawMessage:
		return string(v)
	}
	return fmt.Sprint(v)
}

// MarshalJSON encodes the row as an object with its original key order.
func (r Row) MarshalJSON() ([]byte, error) {
	members := make([]member, len(r))
	for i, f := range r {
		members[i] = member{key: f.Key, value: f.Value}
	}
	return encodeObject(members)
}

// UnmarshalJSON decodes an object keeping its key order.
func (r *Row) UnmarshalJSON(data []byte) error {
	members, err := decodeObject(data)
	if err != nil {
		return err
	}
	if members == nil {
		*r = nil
		return nil
	}
	row := make(Row, 0, len(members))
	for _, m := range members {
		v, err := cellValue(m.raw)
		if err != nil {
			return err
		}
		row = append(row, Field{Key: m.key, Value: v})
	}
	*r = row
	return nil
}

// cellValue decodes a scalar, keeping numbers in their written form.
func cellValue(raw json.RawMessage) (any, error) {
	if c := raw[0]; c == '{' || c == '[' {
		return raw, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, errors.WrapParse("json", "", err)
	}
	return v, nil
}

// RowView is a row paired with its display flag.
type RowView struct {
	Index     int  `json:"index"`
	Row       Row  `json:"row"`
	Highlight bool `json:"highlight"`
}

// ProjectRows flags every row whose index appears in highlight. Indices
// outside the row range are ignored.
func ProjectRows(rows []Row, highlight []int) []RowView {
	marked := make(map[int]struct{}, len(highlight))
	for _, i := range highlight {
		marked[i] = struct{}{}
	}
	views := make([]RowView, len(rows))
	for i, row := range rows {
		_, hl := marked[i]
		views[i] = RowView{Index: i, Row: row, Highlight: hl}
	}
	return views
}

// Columns returns the column names of the first row, which is how the
// results table derives its header.
func Columns(rows []Row) []string {
	if len(rows) == 0 {
		return nil
	}
	return rows[0].Columns()
}

// member is one key of a JSON object with its value.
type member struct {
	key   string
	raw   json.RawMessage
	value any
}

// decodeObject splits a JSON object into its members in document order.
// Values are left undecoded. A null object yields nil members.
func decodeObject(data []byte) ([]member, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, errors.WrapParse("json", "", err)
	}
	if tok == nil {
		return nil, nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.NewParseError("json", "", "expected an object", nil)
	}

	members := []member{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, errors.WrapParse("json", "", err)
		}
		key, _ := tok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, errors.WrapParse("json", "", err)
		}
		members = append(members, member{key: key, raw: raw})
	}
	if _, err := dec.Token(); err != nil {
		return nil, errors.WrapParse("json", "", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.NewParseError("json", "", "trailing data after object", nil)
	}
	return members, nil
}

// encodeObject writes members as a JSON object in order.
func encodeObject(members []member) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range members {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(m.key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		val, err := json.Marshal(m.value)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
