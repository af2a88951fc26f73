package workflow

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/errors"
)

func TestColumnNamesAcceptNumericHeaders(t *testing.T) {
	var cols ColumnNames
	require.NoError(t, json.Unmarshal([]byte(`["Объект", 2024, 1.5, null]`), &cols))
	assert.Equal(t, ColumnNames{"Объект", "2024", "1.5", ""}, cols)

	assert.Error(t, json.Unmarshal([]byte(`[{"a": 1}]`), &cols))
	assert.Error(t, json.Unmarshal([]byte(`"Объект"`), &cols))
}

func TestFilePreviewSheet(t *testing.T) {
	var p FilePreview
	require.NoError(t, json.Unmarshal([]byte(`{
		"sheet_names": ["Данные", "Лист1"],
		"sheets": {
			"Данные": {"columns": ["A"], "preview_data": [{"A": 1e5}]},
			"Лист1": {"columns": [], "preview_data": []}
		}
	}`), &p))

	first, err := p.Sheet("")
	require.NoError(t, err)
	assert.Equal(t, "1e5", first.PreviewData[0].Cell("A"))

	_, err = p.Sheet("Лист1")
	require.NoError(t, err)

	_, err = p.Sheet("Лист2")
	assert.True(t, errors.IsNotFound(err))

	_, err = (&FilePreview{}).Sheet("")
	assert.True(t, errors.IsNotFound(err))
}

func TestFileValidate(t *testing.T) {
	assert.NoError(t, File{Name: "a.XLSX", Content: []byte("x")}.Validate("file"))
	assert.True(t, errors.IsInputValidation(File{}.Validate("file")))
	assert.True(t, errors.IsInputValidation(File{Name: "a.csv", Content: []byte("x")}.Validate("file")))
	assert.True(t, errors.IsInputValidation(File{Name: "a.xls"}.Validate("file")))
}
