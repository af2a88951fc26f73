package workflow_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/EvTKi/Obrabotka-Jeka-remake/pkg/errors"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/workflow"
)

func TestAnalysisRequestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*workflow.AnalysisRequest)
		fields []string
	}{
		{"valid", func(*workflow.AnalysisRequest) {}, nil},
		{"missing survey file", func(r *workflow.AnalysisRequest) { r.SurveyFile = workflow.File{} }, []string{"survey_file"}},
		{"roles file not excel", func(r *workflow.AnalysisRequest) { r.RolesFile.Name = "roles.csv" }, []string{"roles_file"}},
		{"empty survey content", func(r *workflow.AnalysisRequest) { r.SurveyFile.Content = nil }, []string{"survey_file"}},
		{"uppercase extension accepted", func(r *workflow.AnalysisRequest) { r.SurveyFile.Name = "SURVEY.XLSX" }, nil},
		{"blank operation columns", func(r *workflow.AnalysisRequest) { r.OperationColumns = []string{" ", ""} }, []string{"operation_cols"}},
		{"several missing columns", func(r *workflow.AnalysisRequest) {
			r.ControlColumn = ""
			r.UIDColumn = ""
		}, []string{"control_col", "uid_col"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			err := req.Validate()
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}
			var ve *pkgerrors.InputValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.fields, ve.Fields)
		})
	}
}

func TestAnalysisRequestNormalized(t *testing.T) {
	req := validRequest()
	req.ControlColumn = "  Управление "
	req.OperationColumns = []string{"Ведение", " ", " Доп "}
	req.Replacements = []workflow.Replacement{
		{Old: "ПС", New: "Подстанция"},
		{Old: "", New: "x"},
		{Old: "y", New: "  "},
	}

	n := req.Normalized()
	assert.Equal(t, "Управление", n.ControlColumn)
	assert.Equal(t, []string{"Ведение", "Доп"}, n.OperationColumns)
	assert.Equal(t, []workflow.Replacement{{Old: "ПС", New: "Подстанция"}}, n.Replacements)
	assert.Len(t, req.Replacements, 3, "original request is not modified")

	s := req.Settings()
	assert.Equal(t, "survey.xlsx", s.SurveyFile)
	assert.Len(t, s.Replacements, 1)
}
