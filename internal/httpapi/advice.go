package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"pcadvisor/internal/model"
	"pcadvisor/internal/respond"
)

// chatHandler handles POST /api/chat with the question as the raw body.
func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxChatBody))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid body")
		return
	}
	respond.Text(w, s.advisor.Chat(r.Context(), strings.TrimSpace(string(body))))
}

// estimateHandler handles POST /api/estimate. A body with a "mode" member is
// a structured request answered with JSON; anything else is the legacy
// budget/purpose request answered with text.
func (s *Server) estimateHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxEstimateBody))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid body")
		return
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if _, structured := fields["mode"]; structured {
		var req model.EstimateRequest
		if err := json.Unmarshal(body, &req); err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		req = req.WithDefaults()
		if err := s.validate.Struct(req); err != nil {
			respond.Error(w, http.StatusBadRequest, validationMessage(err))
			return
		}
		respond.JSON(w, http.StatusOK, s.advisor.Estimate(r.Context(), req))
		return
	}

	req := model.LegacyEstimateRequest{
		Budget:  looseString(fields["budget"]),
		Purpose: looseString(fields["purpose"]),
	}
	if err := s.validate.Struct(req); err != nil {
		respond.Error(w, http.StatusBadRequest, validationMessage(err))
		return
	}
	respond.Text(w, s.advisor.LegacyEstimate(r.Context(), req))
}

// ingestHandler handles POST /api/ingest: crawler batches are validated at
// the batch level and forwarded to the ingest topic.
func (s *Server) ingestHandler(w http.ResponseWriter, r *http.Request) {
	var batch model.IngestBatch
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxIngestBody)).Decode(&batch); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(batch); err != nil {
		respond.Error(w, http.StatusBadRequest, "schema validation failed: "+validationMessage(err))
		return
	}
	if err := s.ingest.PublishIngest(r.Context(), batch); err != nil {
		log.Error().Err(err).Str("batch_id", batch.BatchID).Msg("httpapi: failed to publish ingest batch")
		respond.Error(w, http.StatusServiceUnavailable, "ingest unavailable")
		return
	}
	respond.JSON(w, http.StatusAccepted, map[string]any{
		"success":  true,
		"batch_id": batch.BatchID,
		"parts":    len(batch.Parts),
	})
}

// looseString reads a JSON string or the literal text of any other scalar.
func looseString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return verrs[0].Field() + " failed " + verrs[0].Tag()
	}
	return err.Error()
}
