package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/lostfound/lostfound/internal/apperr"
)

// multipartMemory is how much of a multipart body is held in memory before
// the remainder spills to temporary files.
const multipartMemory = 32 << 20

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("error encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]any{"message": message})
}

// writeError maps err onto a status code and a {message, ...detail} body.
// Internal failures are logged and answered with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var e *apperr.Error
	if !errors.As(err, &e) {
		e = apperr.Wrap(apperr.CodeInternal, "internal error", err)
	}

	status := apperr.HTTPStatus(e.Code)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}

	body := make(map[string]any, len(e.Detail)+1)
	for k, v := range e.Detail {
		body[k] = v
	}
	body["message"] = e.Message
	jsonResponse(w, status, body)
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// isJSON reports whether the request declares a JSON body.
func isJSON(r *http.Request) bool {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mt == "application/json"
}

// parseForm parses a multipart or urlencoded body. The caller must call
// cleanupForm when done.
func parseForm(r *http.Request) error {
	err := r.ParseMultipartForm(multipartMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		return r.ParseForm()
	}
	return err
}

func cleanupForm(r *http.Request) {
	if r.MultipartForm != nil {
		r.MultipartForm.RemoveAll()
	}
}

// formFile returns the first file uploaded under field, or nil.
func formFile(r *http.Request, field string) *multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	if files := r.MultipartForm.File[field]; len(files) > 0 {
		return files[0]
	}
	return nil
}

// formValue returns the value of field and whether it was sent at all.
func formValue(r *http.Request, field string) (string, bool) {
	if r.MultipartForm != nil {
		if vs, ok := r.MultipartForm.Value[field]; ok && len(vs) > 0 {
			return vs[0], true
		}
	}
	if vs, ok := r.PostForm[field]; ok && len(vs) > 0 {
		return vs[0], true
	}
	return "", false
}

func badBody(err error) error {
	return apperr.Wrap(apperr.CodeValidation, "invalid request body", err)
}
