package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/EvTKi/Obrabotka-Jeka-remake/internal/server/response"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/constants"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/errors"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/logging"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/reconcile"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/report"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/workflow"
)

// xlsxContentType is the media type of downloaded result workbooks.
const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// isClientError reports errors caused by the request rather than the service.
func isClientError(err error) bool {
	return errors.IsInputValidation(err) ||
		errors.IsInvalidChoice(err) ||
		errors.IsNotFound(err) ||
		errors.IsBusy(err) ||
		errors.IsInvalidTransition(err) ||
		errors.IsStale(err)
}

// HandleAnalyze handles POST /api/v1/sessions/{id}/analyze. The multipart
// form mirrors the matching backend's analyze form: survey_file, roles_file,
// control_col, operation_cols, role_col, uid_col and replacements.
func (h *Handlers) HandleAnalyze(w http.ResponseWriter, r *http.Request, id string) {
	s, ok := h.session(w, r, id)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxUploadSize)
	if err := r.ParseMultipartForm(constants.MaxUploadMemory); err != nil {
		response.BadRequest(w, "Invalid multipart form", err.Error())
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	req, err := analysisRequestFromForm(r.MultipartForm)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	ctx := logging.WithSession(r.Context(), id)
	if err := s.StartAnalysis(ctx, req); err != nil {
		fail(w, r, err)
		return
	}
	h.cache.Forget(id)
	response.OK(w, viewOf(s))
}

// analysisRequestFromForm reads an analysis request from a parsed form.
// operation_cols and replacements accept a JSON array; operation_cols also
// accepts repeated or comma separated values.
func analysisRequestFromForm(form *multipart.Form) (workflow.AnalysisRequest, error) {
	value := func(key string) string {
		if v := form.Value[key]; len(v) > 0 {
			return v[0]
		}
		return ""
	}

	var req workflow.AnalysisRequest
	var err error
	if req.SurveyFile, err = formFile(form, "survey_file"); err != nil {
		return req, err
	}
	if req.RolesFile, err = formFile(form, "roles_file"); err != nil {
		return req, err
	}
	req.ControlColumn = value("control_col")
	req.RoleColumn = value("role_col")
	req.UIDColumn = value("uid_col")

	ops := form.Value["operation_cols"]
	switch {
	case len(ops) == 1 && strings.HasPrefix(strings.TrimSpace(ops[0]), "["):
		if err := json.Unmarshal([]byte(ops[0]), &req.OperationColumns); err != nil {
			return req, errors.NewInputValidationError("operation_cols must be a JSON array of strings", "operation_cols")
		}
	case len(ops) == 1:
		req.OperationColumns = strings.Split(ops[0], ",")
	default:
		req.OperationColumns = ops
	}

	if raw := strings.TrimSpace(value("replacements")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Replacements); err != nil {
			return req, errors.NewInputValidationError("replacements must be a JSON array of {old, new}", "replacements")
		}
	}
	return req, nil
}

// formFile reads an uploaded file. A missing file yields an empty File so
// validation reports it together with the other missing fields.
func formFile(form *multipart.Form, key string) (workflow.File, error) {
	headers := form.File[key]
	if len(headers) == 0 {
		return workflow.File{}, nil
	}
	fh := headers[0]
	f, err := fh.Open()
	if err != nil {
		return workflow.File{}, errors.WrapIO("open", fh.Filename, err)
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return workflow.File{}, errors.WrapIO("read", fh.Filename, err)
	}
	return workflow.File{Name: fh.Filename, Content: content}, nil
}

// ChoiceRequest is the body of the choices endpoints.
type ChoiceRequest struct {
	Category string `json:"category"`
	Original string `json:"original"`
	RoleName string `json:"role_name,omitempty"`
}

func decodeChoice(r *http.Request) (reconcile.Category, ChoiceRequest, error) {
	var body ChoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return 0, body, errors.NewInputValidationError("invalid JSON body: " + err.Error())
	}
	c, err := reconcile.ParseCategory(body.Category)
	if err != nil {
		return 0, body, err
	}
	return c, body, nil
}

// HandleRecordChoice handles PUT /api/v1/sessions/{id}/choices.
func (h *Handlers) HandleRecordChoice(w http.ResponseWriter, r *http.Request, id string) {
	s, ok := h.session(w, r, id)
	if !ok {
		return
	}
	c, body, err := decodeChoice(r)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	if err := s.RecordChoice(c, body.Original, body.RoleName); err != nil {
		fail(w, r, err)
		return
	}
	response.OK(w, viewOf(s))
}

// HandleClearChoice handles DELETE /api/v1/sessions/{id}/choices.
func (h *Handlers) HandleClearChoice(w http.ResponseWriter, r *http.Request, id string) {
	s, ok := h.session(w, r, id)
	if !ok {
		return
	}
	c, body, err := decodeChoice(r)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	removed, err := s.ClearChoice(c, body.Original)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.OK(w, map[string]any{
		"removed": removed,
		"session": viewOf(s),
	})
}

// HandleSubmit handles POST /api/v1/sessions/{id}/submit.
func (h *Handlers) HandleSubmit(w http.ResponseWriter, r *http.Request, id string) {
	s, ok := h.session(w, r, id)
	if !ok {
		return
	}
	ctx := logging.WithSession(r.Context(), id)
	if err := s.Submit(ctx); err != nil {
		fail(w, r, err)
		return
	}
	response.OK(w, viewOf(s))
}

// HandleDownload handles GET /api/v1/sessions/{id}/download. Workbooks are
// cached per process id.
func (h *Handlers) HandleDownload(w http.ResponseWriter, r *http.Request, id string) {
	s, ok := h.session(w, r, id)
	if !ok {
		return
	}
	snap := s.Snapshot()
	if snap.Status != workflow.StatusCompleted || snap.Result == nil {
		response.ErrorFromType(w, &errors.TransitionError{Operation: string(workflow.OpDownload), State: snap.Status.String()})
		return
	}
	processID := snap.Result.ProcessID

	data, cached := h.cache.Get(id, processID)
	if !cached {
		var err error
		data, err = s.Download(logging.WithSession(r.Context(), id))
		if err != nil {
			fail(w, r, err)
			return
		}
		h.cache.Put(id, processID, data)
	}

	name := fmt.Sprintf(constants.ResultFileFormat, processID)
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		logging.FromContext(r.Context()).Warn().Err(err).Msg("Failed to write download")
	}
}

// AnalysisView is the confirmation table of one category.
type AnalysisView struct {
	Category string               `json:"category"`
	Title    string               `json:"title"`
	Rows     []report.AnalysisRow `json:"rows"`
}

// HandleAnalysis handles GET /api/v1/sessions/{id}/analysis: the auto and
// pending rows of each category with the current choices applied.
func (h *Handlers) HandleAnalysis(w http.ResponseWriter, r *http.Request, id string) {
	s, ok := h.session(w, r, id)
	if !ok {
		return
	}
	snap := s.Snapshot()
	if snap.Analysis == nil {
		response.ErrorFromType(w, &errors.TransitionError{Operation: "analysis", State: snap.Status.String()})
		return
	}

	choices := reconcile.ChoicesFromWire(snap.Choices)
	views := make([]AnalysisView, 0, len(reconcile.Categories()))
	for _, c := range reconcile.Categories() {
		rows := report.ApplyChoices(report.ProjectAnalysis(snap.Analysis, c), choices, c)
		views = append(views, AnalysisView{Category: c.String(), Title: c.Title(), Rows: rows})
	}
	response.OK(w, map[string]any{
		"categories":        views,
		"ready":             snap.Ready,
		"pending_remaining": snap.PendingRemaining,
	})
}

// ReportView is the projected processing result.
type ReportView struct {
	ProcessID      string                         `json:"process_id"`
	Columns        []string                       `json:"columns"`
	Rows           []report.RowView               `json:"rows"`
	HighlightCount int                            `json:"highlight_count"`
	Warning        string                         `json:"warning,omitempty"`
	Summaries      map[string][]report.SummaryRow `json:"summaries"`
}

// HandleReport handles GET /api/v1/sessions/{id}/report. format=markdown
// returns the markdown summary report instead of JSON.
func (h *Handlers) HandleReport(w http.ResponseWriter, r *http.Request, id string) {
	s, ok := h.session(w, r, id)
	if !ok {
		return
	}
	snap := s.Snapshot()
	if snap.Result == nil {
		response.ErrorFromType(w, &errors.TransitionError{Operation: "report", State: snap.Status.String()})
		return
	}
	result := snap.Result

	if strings.EqualFold(r.URL.Query().Get("format"), "markdown") {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		if err := report.WriteMarkdown(w, result); err != nil {
			logging.FromContext(r.Context()).Error().Err(err).Msg("Failed to write markdown report")
		}
		return
	}

	view := ReportView{
		ProcessID:      result.ProcessID,
		Columns:        report.Columns(result.Rows),
		Rows:           result.Views(),
		HighlightCount: result.HighlightCount(),
		Summaries:      make(map[string][]report.SummaryRow, len(reconcile.Categories())),
	}
	if view.HighlightCount > 0 {
		view.Warning = report.HighlightWarning(view.HighlightCount)
	}
	for _, c := range reconcile.Categories() {
		view.Summaries[c.String()] = report.ProjectSummary(result.Summary(c))
	}
	response.OK(w, view)
}
