package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/amityadav/researchcrew/internal/core"
	"github.com/amityadav/researchcrew/internal/quota"
	"github.com/amityadav/researchcrew/internal/store"
	"github.com/gorilla/mux"
)

const maxBodyBytes = 1 << 20

type researchRequest struct {
	Topic      string `json:"topic"`
	Recipient  string `json:"recipient"`
	NumResults int    `json:"num_results"`
	Format     string `json:"format"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleResearch(w http.ResponseWriter, r *http.Request) {
	req, err := decodeResearchRequest(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	run, err := s.research.Submit(r.Context(), req)
	switch {
	case errors.Is(err, core.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, reason(err, core.ErrInvalidRequest))
		return
	case errors.Is(err, quota.ErrQuotaExceeded):
		writeError(w, http.StatusTooManyRequests, err.Error())
		return
	case err != nil:
		log.Printf("[REST] handleResearch - failed to start run: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to start research run")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"id":     run.ID,
		"status": string(run.Status),
	})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newRunView(run))
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	if run.Status != store.StatusCompleted {
		writeError(w, http.StatusConflict, "run has not completed")
		return
	}

	content, filename := run.Research, core.ResearchFilename(run.Topic)
	if mux.Vars(r)["kind"] == "summary" {
		content, filename = run.Summary, core.SummaryFilename(run.Topic)
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(content))
}

func (s *Server) lookupRun(w http.ResponseWriter, r *http.Request) (*store.Run, bool) {
	run, err := s.research.Get(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return nil, false
	}
	if err != nil {
		log.Printf("[REST] lookupRun - failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load run")
		return nil, false
	}
	return run, true
}

// decodeResearchRequest accepts a JSON body or an HTML form
func decodeResearchRequest(w http.ResponseWriter, r *http.Request) (core.Request, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body researchRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return core.Request{}, errors.New("invalid JSON payload")
		}
		return core.Request{
			Topic:      body.Topic,
			Recipient:  body.Recipient,
			NumResults: body.NumResults,
			Format:     body.Format,
		}, nil
	}

	if err := r.ParseForm(); err != nil {
		return core.Request{}, errors.New("invalid form payload")
	}
	req := core.Request{
		Topic:     r.PostForm.Get("topic"),
		Recipient: r.PostForm.Get("recipient"),
		Format:    r.PostForm.Get("format"),
	}
	if n := r.PostForm.Get("num_results"); n != "" {
		parsed, err := strconv.Atoi(n)
		if err != nil {
			return core.Request{}, errors.New("num_results must be a number")
		}
		req.NumResults = parsed
	}
	return req, nil
}

// reason strips the sentinel prefix so users see only the explanation
func reason(err, sentinel error) string {
	msg := strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
	if msg == "" {
		return sentinel.Error()
	}
	return msg
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[REST] Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
