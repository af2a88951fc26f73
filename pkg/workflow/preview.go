package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/errors"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/report"
)

// DefaultSheet is the sheet the backend reads when none is named.
const DefaultSheet = "Лист1"

// Previewer lists the sheets and column headers of a spreadsheet so the
// column settings can be picked before an analysis.
type Previewer interface {
	Preview(ctx context.Context, f File) (*FilePreview, error)
	SheetData(ctx context.Context, f File, sheet string) (*SheetPreview, error)
}

// ColumnNames are sheet headers. Spreadsheet headers may be numbers, so
// numeric names are kept in their textual form.
type ColumnNames []string

// UnmarshalJSON implements json.Unmarshaler.
func (c *ColumnNames) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*c = nil
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	names := make(ColumnNames, 0, len(raw))
	for i, r := range raw {
		dec := json.NewDecoder(bytes.NewReader(r))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			return err
		}
		switch v := v.(type) {
		case string:
			names = append(names, v)
		case json.Number:
			names = append(names, v.String())
		case nil:
			names = append(names, "")
		default:
			return fmt.Errorf("column %d: unsupported header %s", i, r)
		}
	}
	*c = names
	return nil
}

// SheetPreview is the header and first rows of one sheet.
type SheetPreview struct {
	Columns     ColumnNames  `json:"columns" yaml:"columns"`
	PreviewData []report.Row `json:"preview_data" yaml:"preview_data"`
}

// FilePreview is the sheet list of a workbook with a preview of each sheet.
type FilePreview struct {
	SheetNames []string                `json:"sheet_names" yaml:"sheet_names"`
	Sheets     map[string]SheetPreview `json:"sheets" yaml:"sheets"`
}

// Sheet returns the preview of the named sheet, or of the first sheet when
// name is empty.
func (p *FilePreview) Sheet(name string) (SheetPreview, error) {
	if name == "" {
		if len(p.SheetNames) == 0 {
			return SheetPreview{}, errors.NewNotFoundError("sheet", "")
		}
		name = p.SheetNames[0]
	}
	s, ok := p.Sheets[name]
	if !ok {
		return SheetPreview{}, errors.NewNotFoundError("sheet", name)
	}
	return s, nil
}
