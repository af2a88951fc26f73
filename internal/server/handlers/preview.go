package handlers

import (
	"net/http"

	"github.com/EvTKi/Obrabotka-Jeka-remake/internal/server/response"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/constants"
)

// HandlePreview handles POST /api/v1/preview. The multipart field "file"
// holds the workbook; ?sheet= limits the reply to one sheet.
func (h *Handlers) HandlePreview(w http.ResponseWriter, r *http.Request) {
	matcher, err := h.app.Matcher()
	if err != nil {
		response.ServiceUnavailable(w, "Matching backend not configured")
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

	f, err := formFile(r.MultipartForm, "file")
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	if err := f.Validate("file"); err != nil {
		response.ErrorFromType(w, err)
		return
	}

	if sheet := r.URL.Query().Get("sheet"); sheet != "" {
		data, err := matcher.SheetData(r.Context(), f, sheet)
		if err != nil {
			fail(w, r, err)
			return
		}
		response.OK(w, data)
		return
	}

	preview, err := matcher.Preview(r.Context(), f)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.OK(w, preview)
}
