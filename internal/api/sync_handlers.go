package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rflorenc/pipedrive-person-sync/internal/mapping"
)

// StartSync starts one sync run as a background job. A JSON object in the
// request body replaces the configured input document.
func (s *Server) StartSync(w http.ResponseWriter, r *http.Request) {
	doc, err := s.requestDocument(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	job := s.Jobs.Create("sync")

	go func() {
		s.runMu.Lock()
		defer s.runMu.Unlock()

		job.AppendLog("Starting Pipedrive person sync")
		res, err := s.Syncer.Run(context.Background(), doc, job.AppendLog)
		if err != nil {
			job.AppendLog("ERROR: " + err.Error())
			job.Fail(err.Error())
			return
		}
		job.AppendLog(fmt.Sprintf("Result: person %s (%s)", res.PersonID, res.Outcome))
		job.Complete(res)
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": job.ID})
}

// PreviewPayload returns the payload a sync would send, without contacting
// Pipedrive.
func (s *Server) PreviewPayload(w http.ResponseWriter, r *http.Request) {
	doc, err := s.requestDocument(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	payload, err := s.Syncer.Preview(doc)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, mapping.ErrNoIdentityMapping) || errors.Is(err, mapping.ErrMissingIdentity) {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

// GetMappings returns the loaded mapping table.
func (s *Server) GetMappings(w http.ResponseWriter, r *http.Request) {
	table := s.Syncer.Table()
	if table == nil {
		table = mapping.Table{}
	}
	writeJSON(w, http.StatusOK, table)
}

// requestDocument decodes the body as the input document, falling back to
// the configured one when the body is empty.
func (s *Server) requestDocument(r *http.Request) (mapping.Document, error) {
	var body []byte
	if r.Body != nil {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, fmt.Errorf("reading body: %w", err)
		}
		body = bytes.TrimSpace(data)
	}
	if len(body) == 0 {
		if s.LoadInput == nil {
			return nil, errors.New("no input document configured")
		}
		return s.LoadInput()
	}
	doc, err := mapping.DecodeDocument(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return doc, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
