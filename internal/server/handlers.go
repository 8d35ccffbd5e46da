package server

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strings"

	"github.com/matzehuels/panelgrid/pkg/buildinfo"
	"github.com/matzehuels/panelgrid/pkg/errors"
	"github.com/matzehuels/panelgrid/pkg/protocol"
)

type healthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Build: buildinfo.Get()})
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.cfg.Counters.Snapshot())
}

// handleLayout serves POST /v1/layout. The body is JSON unless the content
// type names YAML.
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		writeAPIError(w, 0, errors.Wrap(errors.ErrCodeInvalidRequest, err, "read body"))
		return
	}

	format := protocol.FormatJSON
	if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		format = protocol.FormatYAML
	}
	req, err := protocol.DecodeRequest(data, format)
	if err != nil {
		writeAPIError(w, 0, err)
		return
	}
	if err := protocol.Validate(req); err != nil {
		writeAPIError(w, req.RequestID, err)
		return
	}

	resp := s.cfg.Runner.Compute(r.Context(), req, s.cfg.Options)
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, requestID uint64, err error) {
	writeJSON(w, errors.HTTPStatus(err), errorResponse(requestID, err))
}

// errorResponse converts err into its wire form. Codeless errors are
// reported as internal.
func errorResponse(requestID uint64, err error) protocol.ErrorResponse {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	msg := errors.UserMessage(err)
	if cause := stderrors.Unwrap(err); cause != nil {
		msg += ": " + errors.UserMessage(cause)
	}
	return protocol.ErrorResponse{
		RequestID: requestID,
		Error:     protocol.ErrorBody{Code: string(code), Message: msg},
	}
}
