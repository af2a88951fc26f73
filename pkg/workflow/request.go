package workflow

import (
	"path/filepath"
	"strings"

	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/errors"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/reconcile"
)

// File is an uploaded spreadsheet.
type File struct {
	Name    string
	Content []byte
}

// Replacement rewrites a substring in survey values before matching.
type Replacement struct {
	Old string `json:"old" yaml:"old"`
	New string `json:"new" yaml:"new"`
}

// Settings are the column and replacement settings of an analysis, without
// the file contents.
type Settings struct {
	SurveyFile       string        `json:"survey_file,omitempty" yaml:"survey_file,omitempty"`
	RolesFile        string        `json:"roles_file,omitempty" yaml:"roles_file,omitempty"`
	ControlColumn    string        `json:"control_col" yaml:"control_col"`
	OperationColumns []string      `json:"operation_cols" yaml:"operation_cols"`
	RoleColumn       string        `json:"role_col" yaml:"role_col"`
	UIDColumn        string        `json:"uid_col" yaml:"uid_col"`
	Replacements     []Replacement `json:"replacements" yaml:"replacements"`
}

// AnalysisRequest is everything the matching backend needs to analyze a survey.
type AnalysisRequest struct {
	SurveyFile       File
	RolesFile        File
	ControlColumn    string
	OperationColumns []string
	RoleColumn       string
	UIDColumn        string
	Replacements     []Replacement
}

var spreadsheetExts = []string{".xlsx", ".xls"}

// Validate reports a missing, empty or non-spreadsheet upload.
func (f File) Validate(field string) error {
	if problem := f.problem(field); problem != "" {
		return errors.NewInputValidationError(problem, field)
	}
	return nil
}

func (f File) problem(field string) string {
	switch {
	case f.Name == "" && len(f.Content) == 0:
		return field + " is required"
	case !isSpreadsheet(f.Name):
		return field + " must be an Excel file (.xlsx, .xls)"
	case len(f.Content) == 0:
		return field + " is empty"
	}
	return ""
}

// Validate reports every missing or malformed input at once.
func (r AnalysisRequest) Validate() error {
	var fields []string
	var problems []string

	checkFile := func(field string, f File) {
		if problem := f.problem(field); problem != "" {
			fields = append(fields, field)
			problems = append(problems, problem)
		}
	}
	checkFile("survey_file", r.SurveyFile)
	checkFile("roles_file", r.RolesFile)

	required := []struct {
		field string
		value string
	}{
		{"control_col", r.ControlColumn},
		{"role_col", r.RoleColumn},
		{"uid_col", r.UIDColumn},
	}
	for _, req := range required {
		if strings.TrimSpace(req.value) == "" {
			fields = append(fields, req.field)
			problems = append(problems, req.field+" is required")
		}
	}
	if len(nonBlank(r.OperationColumns)) == 0 {
		fields = append(fields, "operation_cols")
		problems = append(problems, "at least one operation column is required")
	}

	if len(fields) > 0 {
		return errors.NewInputValidationError(strings.Join(problems, "; "), fields...)
	}
	return nil
}

// Normalized trims the column names and drops blank operation columns and
// replacement pairs where either side is blank.
func (r AnalysisRequest) Normalized() AnalysisRequest {
	out := r
	out.ControlColumn = strings.TrimSpace(r.ControlColumn)
	out.RoleColumn = strings.TrimSpace(r.RoleColumn)
	out.UIDColumn = strings.TrimSpace(r.UIDColumn)
	out.OperationColumns = nonBlank(r.OperationColumns)
	out.Replacements = make([]Replacement, 0, len(r.Replacements))
	for _, rep := range r.Replacements {
		if strings.TrimSpace(rep.Old) == "" || strings.TrimSpace(rep.New) == "" {
			continue
		}
		out.Replacements = append(out.Replacements, rep)
	}
	return out
}

// Settings returns the request settings without file contents.
func (r AnalysisRequest) Settings() Settings {
	n := r.Normalized()
	return Settings{
		SurveyFile:       n.SurveyFile.Name,
		RolesFile:        n.RolesFile.Name,
		ControlColumn:    n.ControlColumn,
		OperationColumns: n.OperationColumns,
		RoleColumn:       n.RoleColumn,
		UIDColumn:        n.UIDColumn,
		Replacements:     n.Replacements,
	}
}

// ProcessRequest is the processing backend's input.
type ProcessRequest struct {
	AnalysisData reconcile.RawAnalysis        `json:"analysis_data"`
	UserChoices  map[string]map[string]string `json:"user_choices"`
}

func isSpreadsheet(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range spreadsheetExts {
		if ext == e {
			return true
		}
	}
	return false
}

func nonBlank(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
