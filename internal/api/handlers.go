package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/finfacts/internal/document"
	"github.com/dgallion1/finfacts/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

// handleCreateRun accepts a multipart batch of disclosure documents
// and starts a pipeline run. Only one run may be in flight at a time.
func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	var inputs []pipeline.Input
	for _, header := range files {
		name := sanitizeFilename(header.Filename)
		if !document.IsSupportedExtension(name) {
			jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(name)), http.StatusBadRequest)
			return
		}
		f, err := header.Open()
		if err != nil {
			jsonError(w, "failed to open upload: "+err.Error(), http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
		f.Close()
		if err != nil {
			jsonError(w, "failed to read upload", http.StatusInternalServerError)
			return
		}
		if int64(len(data)) > s.cfg.MaxUploadBytes {
			jsonError(w, fmt.Sprintf("file %s exceeds max size (%d bytes)", name, s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
			return
		}
		inputs = append(inputs, pipeline.Input{Name: name, Data: data})
	}

	if !s.busy.CompareAndSwap(false, true) {
		jsonError(w, "a run is already in progress", http.StatusConflict)
		return
	}

	run := pipeline.NewRun()
	s.runs.Put(run)

	go func() {
		defer s.busy.Store(false)
		result, err := s.runner.RunWithProgress(context.Background(), inputs, run.SetPhase)
		if err != nil {
			s.log.Error("run failed", "run_id", run.ID, "error", err)
		}
		run.Finish(result, err)
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"run_id": run.ID})
}

func (s *Server) handleRunStatus(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	run := s.runs.Get(runID)
	if run == nil {
		jsonError(w, "run not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(run.Snapshot())
}

// handleReport serves the most recent analytics report artifact.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	data, err := os.ReadFile(s.cfg.ReportPath)
	if err != nil {
		if os.IsNotExist(err) {
			jsonError(w, "no report available", http.StatusNotFound)
			return
		}
		jsonError(w, "failed to read report", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write(data)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
