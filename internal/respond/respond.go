// Package respond writes the HTTP response envelopes shared by the API
// packages.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// JSON writes v with status. v is encoded before the header is sent, so an
// unencodable value becomes a 500 error envelope instead of an empty body.
func JSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Int("status", status).Msg("respond: encode failed")
		status = http.StatusInternalServerError
		data, _ = json.Marshal(errorBody("response encoding failed"))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(data, '\n'))
}

// Error writes {"success":false,"error":msg}.
func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, errorBody(msg))
}

// Text writes a 200 text/plain body.
func Text(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(text))
}

func errorBody(msg string) map[string]any {
	return map[string]any{"success": false, "error": msg}
}
