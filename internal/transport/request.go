package transport

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/errors"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/logging"
)

// maxErrorBody caps how much of a failed response is read for its message.
const maxErrorBody = 64 << 10

// DecodeResponse decodes a JSON response into target, or returns the
// backend failure as a TransportError for op.
func DecodeResponse(resp *http.Response, op string, target any) error {
	defer closeBody(resp)

	if err := CheckResponse(resp, op); err != nil {
		return err
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.WrapTransport(op, err)
	}
	if err := json.Unmarshal(body, target); err != nil {
		return &errors.TransportError{
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    "malformed response: " + err.Error(),
			Err:        errors.WrapParse("json", op+" response", err),
		}
	}
	return nil
}

// CheckResponse returns a TransportError for any non-2xx response. The
// message is the backend's "detail" when present.
func CheckResponse(resp *http.Response, op string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := detailMessage(body)
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return errors.NewTransportError(op, resp.StatusCode, msg)
}

// detailMessage extracts the error text from a failed response. The detail
// is either a string or a list of validation items with a "msg" field.
func detailMessage(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return strings.TrimSpace(string(body))
	}

	var text string
	if err := json.Unmarshal(payload.Detail, &text); err == nil {
		return text
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &items); err == nil && len(items) > 0 {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return string(payload.Detail)
}

func closeBody(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		logging.Warn().Err(err).Msg("Failed to close response body")
	}
}
