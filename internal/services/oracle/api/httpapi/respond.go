package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	apperrors "github.com/oppajeom/oppajeom/internal/platform/errors"
	i18n "github.com/oppajeom/oppajeom/internal/platform/i18n/catalog"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

// requestLocale picks the closest catalog locale from Accept-Language.
func requestLocale(r *http.Request) string {
	return i18n.Default().Match(r.Header.Get("Accept-Language"))
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("httpapi: encode response: %v", err)
	}
}

// writeError maps domain errors to a status and a localized message.
// Errors without a domain code are logged and reported as UNKNOWN.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var domainErr *apperrors.Error
	if !errors.As(err, &domainErr) {
		log.Printf("httpapi: %s %s: %v", r.Method, r.URL.Path, err)
		domainErr = apperrors.New(apperrors.CodeUnknown, "internal error")
	}
	writeJSON(w, domainErr.Code.HTTPStatus(), errorBody{
		Code:    string(domainErr.Code),
		Message: domainErr.LocalizedMessage(requestLocale(r)),
	})
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fieldError("body", "request body is required")
		}
		return fieldError("body", "malformed request body: "+err.Error())
	}
	return nil
}
