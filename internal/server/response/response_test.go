package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/EvTKi/Obrabotka-Jeka-remake/pkg/errors"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

// TestSuccess tests the Success helper function.
func TestSuccess(t *testing.T) {
	resp := Success(map[string]string{"message": "success"})
	assert.NotNil(t, resp.Data)
	assert.Nil(t, resp.Error)
}

// TestFail tests the Fail helper function.
func TestFail(t *testing.T) {
	resp := Fail("TEST_ERROR", "Test error message", "Additional details")
	assert.Nil(t, resp.Data)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "TEST_ERROR", resp.Error.Code)
	assert.Equal(t, "Test error message", resp.Error.Message)
	assert.Equal(t, "Additional details", resp.Error.Details)
}

// TestJSON tests the JSON helper function.
func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	JSON(w, http.StatusOK, Success(map[string]string{"test": "data"}))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	resp := decode(t, w)
	assert.NotNil(t, resp.Data)
	assert.Nil(t, resp.Error)
}

// TestErrorHelpers tests all error response helpers.
func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name           string
		fn             func(w http.ResponseWriter)
		expectedStatus int
		expectedCode   string
	}{
		{"BadRequest", func(w http.ResponseWriter) { BadRequest(w, "Invalid request", "Missing field") }, http.StatusBadRequest, "BAD_REQUEST"},
		{"Unauthorized", func(w http.ResponseWriter) { Unauthorized(w, "Auth failed", "Invalid key") }, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"NotFound", func(w http.ResponseWriter) { NotFound(w, "Session not found", "") }, http.StatusNotFound, "NOT_FOUND"},
		{"MethodNotAllowed", func(w http.ResponseWriter) { MethodNotAllowed(w, "POST") }, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"},
		{"RateLimited", func(w http.ResponseWriter) { RateLimited(w, "Too many requests") }, http.StatusTooManyRequests, "RATE_LIMITED"},
		{"InternalError", func(w http.ResponseWriter) { InternalError(w, errors.New("boom")) }, http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"Conflict", func(w http.ResponseWriter) { Conflict(w, "busy", "") }, http.StatusConflict, "CONFLICT"},
		{"BadGateway", func(w http.ResponseWriter) { BadGateway(w, "backend down", "") }, http.StatusBadGateway, "BACKEND_ERROR"},
		{"ServiceUnavailable", func(w http.ResponseWriter) { ServiceUnavailable(w, "Service down") }, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.fn(w)

			assert.Equal(t, tt.expectedStatus, w.Code)
			resp := decode(t, w)
			assert.Nil(t, resp.Data)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.expectedCode, resp.Error.Code)
		})
	}
}

// TestErrorFromType tests typed error mapping.
func TestErrorFromType(t *testing.T) {
	tests := []struct {
		name            string
		err             error
		expectedStatus  int
		expectedCode    string
		expectedDetails string
	}{
		{
			name:           "not found",
			err:            apperrors.NewNotFoundError("session", "abc"),
			expectedStatus: http.StatusNotFound,
			expectedCode:   "NOT_FOUND",
		},
		{
			name:            "invalid input",
			err:             apperrors.NewInputValidationError("missing fields", "role_col", "uid_col"),
			expectedStatus:  http.StatusBadRequest,
			expectedCode:    "INVALID_INPUT",
			expectedDetails: "role_col,uid_col",
		},
		{
			name:           "invalid choice",
			err:            apperrors.NewInvalidChoiceError("TU", "ПС", "ТУ ПС", "not a candidate"),
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INVALID_CHOICE",
		},
		{
			name:           "busy",
			err:            &apperrors.BusyError{Requested: "process", InFlight: "analyze"},
			expectedStatus: http.StatusConflict,
			expectedCode:   "CONFLICT",
		},
		{
			name:           "invalid transition",
			err:            &apperrors.TransitionError{Operation: "submit", State: "idle"},
			expectedStatus: http.StatusConflict,
			expectedCode:   "INVALID_TRANSITION",
		},
		{
			name:           "stale",
			err:            &apperrors.StaleResponseError{Operation: "analyze", Sequence: 1, Current: 2},
			expectedStatus: http.StatusConflict,
			expectedCode:   "CONFLICT",
		},
		{
			name:           "integrity",
			err:            apperrors.NewDataIntegrityError("TU", "X", "duplicate value"),
			expectedStatus: http.StatusBadGateway,
			expectedCode:   "DATA_INTEGRITY",
		},
		{
			name:            "transport with status",
			err:             apperrors.NewTransportError("analyze", http.StatusUnprocessableEntity, "bad file"),
			expectedStatus:  http.StatusBadGateway,
			expectedCode:    "BACKEND_ERROR",
			expectedDetails: "backend status 422",
		},
		{
			name:           "transport without status",
			err:            apperrors.WrapTransport("health", errors.New("connection refused")),
			expectedStatus: http.StatusBadGateway,
			expectedCode:   "BACKEND_ERROR",
		},
		{
			name:           "generic",
			err:            errors.New("generic error"),
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			ErrorFromType(w, tt.err)

			assert.Equal(t, tt.expectedStatus, w.Code)
			resp := decode(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.expectedCode, resp.Error.Code)
			assert.Equal(t, tt.expectedDetails, resp.Error.Details)
		})
	}
}

// TestInternalErrorHidesCause ensures internal errors are not leaked.
func TestInternalErrorHidesCause(t *testing.T) {
	w := httptest.NewRecorder()
	InternalError(w, errors.New("secret path /etc/x"))
	assert.NotContains(t, w.Body.String(), "/etc/x")
}

// TestErrorDetailsOmitted tests error details omitempty behavior.
func TestErrorDetailsOmitted(t *testing.T) {
	data, err := json.Marshal(Fail("TEST", "message", ""))
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "data")
	errorField, ok := raw["error"].(map[string]any)
	require.True(t, ok)
	assert.NotContains(t, errorField, "details")
}
