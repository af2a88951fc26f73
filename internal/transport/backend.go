package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/constants"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/errors"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/reconcile"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/report"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/workflow"
)

// Backend API paths.
const (
	PathAnalyze  = "/api/analyze"
	PathProcess  = "/api/process"
	PathDownload = "/api/download-result"
	PathHealth   = "/health"

	PathFilePreview = "/api/file-preview"
	PathSheetData   = "/api/sheet-data"
)

var (
	_ workflow.Collaborator = (*Client)(nil)
	_ workflow.Previewer    = (*Client)(nil)
)

// Analyze uploads both spreadsheets with the column settings and returns the
// backend's match analysis.
func (c *Client) Analyze(ctx context.Context, req workflow.AnalysisRequest) (reconcile.RawAnalysis, error) {
	const op = "analyze"
	var raw reconcile.RawAnalysis

	body, contentType, err := analysisForm(req.Normalized())
	if err != nil {
		return raw, errors.WrapTransport(op, err)
	}

	ctx, cancel := c.withTimeout(ctx, constants.AnalyzeTimeout)
	defer cancel()
	httpReq, err := c.newRequest(ctx, op, http.MethodPost, PathAnalyze, body)
	if err != nil {
		return raw, err
	}
	httpReq.Header.Set("Content-Type", contentType)

	resp, err := c.Do(httpReq)
	if err != nil {
		return raw, errors.WrapTransport(op, err)
	}
	if err := DecodeResponse(resp, op, &raw); err != nil {
		return reconcile.RawAnalysis{}, err
	}
	return raw, nil
}

// Process sends the analysis with the confirmed choices and returns the
// processed rows and summaries.
func (c *Client) Process(ctx context.Context, req workflow.ProcessRequest) (*report.ProcessResult, error) {
	const op = "process"

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, errors.WrapTransport(op, err)
	}

	ctx, cancel := c.withTimeout(ctx, constants.ProcessTimeout)
	defer cancel()
	httpReq, err := c.newRequest(ctx, op, http.MethodPost, PathProcess, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.Do(httpReq)
	if err != nil {
		return nil, errors.WrapTransport(op, err)
	}
	var result report.ProcessResult
	if err := DecodeResponse(resp, op, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Download fetches the result workbook generated for processID.
func (c *Client) Download(ctx context.Context, processID string) ([]byte, error) {
	const op = "download"

	ctx, cancel := c.withTimeout(ctx, constants.DefaultHTTPTimeout)
	defer cancel()
	path := PathDownload + "?" + url.Values{"process_id": {processID}}.Encode()
	httpReq, err := c.newRequest(ctx, op, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/octet-stream")

	resp, err := c.Do(httpReq)
	if err != nil {
		return nil, errors.WrapTransport(op, err)
	}
	defer closeBody(resp)
	if err := CheckResponse(resp, op); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.WrapTransport(op, err)
	}
	return data, nil
}

// Health reports whether the backend answers its health check.
func (c *Client) Health(ctx context.Context) error {
	const op = "health"

	ctx, cancel := c.withTimeout(ctx, constants.DefaultHTTPTimeout)
	defer cancel()
	httpReq, err := c.newRequest(ctx, op, http.MethodGet, PathHealth, nil)
	if err != nil {
		return err
	}
	resp, err := c.Do(httpReq)
	if err != nil {
		return errors.WrapTransport(op, err)
	}
	defer closeBody(resp)
	return CheckResponse(resp, op)
}

// Preview uploads a workbook and returns its sheet names with the header
// and first rows of every sheet.
func (c *Client) Preview(ctx context.Context, f workflow.File) (*workflow.FilePreview, error) {
	const op = "file preview"
	var preview workflow.FilePreview
	if err := c.postFile(ctx, op, PathFilePreview, f, &preview); err != nil {
		return nil, err
	}
	return &preview, nil
}

// SheetData uploads a workbook and returns the preview of one sheet. An
// empty sheet name selects workflow.DefaultSheet.
func (c *Client) SheetData(ctx context.Context, f workflow.File, sheet string) (*workflow.SheetPreview, error) {
	const op = "sheet data"
	if sheet == "" {
		sheet = workflow.DefaultSheet
	}
	path := PathSheetData + "?" + url.Values{"sheet_name": {sheet}}.Encode()
	var data workflow.SheetPreview
	if err := c.postFile(ctx, op, path, f, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// postFile sends f as the multipart field "file" and decodes the reply.
func (c *Client) postFile(ctx context.Context, op, path string, f workflow.File, target any) error {
	if err := f.Validate("file"); err != nil {
		return err
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", f.Name)
	if err != nil {
		return errors.WrapTransport(op, err)
	}
	if _, err := part.Write(f.Content); err != nil {
		return errors.WrapTransport(op, err)
	}
	if err := w.Close(); err != nil {
		return errors.WrapTransport(op, err)
	}

	ctx, cancel := c.withTimeout(ctx, constants.DefaultHTTPTimeout)
	defer cancel()
	httpReq, err := c.newRequest(ctx, op, http.MethodPost, path, &buf)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.Do(httpReq)
	if err != nil {
		return errors.WrapTransport(op, err)
	}
	return DecodeResponse(resp, op, target)
}

// analysisForm encodes the multipart body of an analysis request. List
// fields are sent as JSON arrays.
func analysisForm(req workflow.AnalysisRequest) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	files := []struct {
		field string
		file  workflow.File
	}{
		{"survey_file", req.SurveyFile},
		{"roles_file", req.RolesFile},
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.field, f.file.Name)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(f.file.Content); err != nil {
			return nil, "", err
		}
	}

	opCols, err := json.Marshal(req.OperationColumns)
	if err != nil {
		return nil, "", err
	}
	replacements := req.Replacements
	if replacements == nil {
		replacements = []workflow.Replacement{}
	}
	reps, err := json.Marshal(replacements)
	if err != nil {
		return nil, "", err
	}

	fields := [][2]string{
		{"control_col", req.ControlColumn},
		{"operation_cols", string(opCols)},
		{"role_col", req.RoleColumn},
		{"uid_col", req.UIDColumn},
		{"replacements", string(reps)},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
