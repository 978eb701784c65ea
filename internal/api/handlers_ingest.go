package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgallion1/deckseg/internal/ingest"
	"github.com/dgallion1/deckseg/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// handleIngest accepts a document upload, converts it to assets and
// queues a segmentation job.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !ingest.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	docID := r.FormValue("document_id")
	if docID == "" {
		docID = pipeline.ContentHashHex(data)[:16]
	}

	reader, err := ingest.ForFile(filename, ingest.Options{
		PDFFallbackPdftotext: s.cfg.PDFFallbackPdftotext,
	})
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	assets, err := reader.Read(bytes.NewReader(data), docID, filename)
	if err != nil {
		jsonError(w, "ingest failed: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if len(assets) == 0 {
		jsonError(w, "no extractable content", http.StatusUnprocessableEntity)
		return
	}

	brand := r.FormValue("brand_name")
	for i := range assets {
		assets[i].BrandName = brand
	}

	now := time.Now()
	job := &pipeline.Job{
		ID:         uuid.NewString(),
		DocumentID: docID,
		Filename:   filename,
		Status:     pipeline.StatusQueued,
		Phase:      "queued",
		Debug:      r.FormValue("debug") == "true",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	job.SetAssets(assets)

	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":      job.ID,
		"document_id": job.DocumentID,
		"status":      job.CurrentStatus(),
		"assets":      len(assets),
		"poll_url":    fmt.Sprintf("/api/jobs/%s", job.ID),
	})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"job":   job.Snapshot(),
		"pages": job.Outcomes(),
	})
}

func (s *Server) handleJobSections(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	if st := job.CurrentStatus(); st != pipeline.StatusCompleted && st != pipeline.StatusPartial {
		jsonError(w, fmt.Sprintf("job is %s", st), http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"document_id": job.DocumentID,
		"sections":    job.Sections(),
	})
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "..", "")
	if name == "" || name == "." {
		name = "upload"
	}
	return name
}
