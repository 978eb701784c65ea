package api

import (
	"encoding/json"
	"net/http"

	"github.com/dgallion1/deckseg/internal/asset"
	"github.com/dgallion1/deckseg/internal/classify"
	"github.com/dgallion1/deckseg/internal/features"
	"github.com/dgallion1/deckseg/internal/grouper"
	"github.com/dgallion1/deckseg/internal/pipeline"
	"github.com/dgallion1/deckseg/internal/segment"
)

type classifyRequest struct {
	Asset asset.Asset `json:"asset"`
	Hint  string      `json:"hint,omitempty"`
	Debug bool        `json:"debug,omitempty"`
}

type classifyResponse struct {
	Segment     segment.Segment    `json:"segment"`
	Confidence  float64            `json:"confidence"`
	Reason      segment.ReasonCode `json:"reason,omitempty"`
	Title       string             `json:"title,omitempty"`
	TitleSource string             `json:"title_source,omitempty"`
	Features    *features.Features `json:"features,omitempty"`
	Debug       *classify.Trace    `json:"debug,omitempty"`
}

// handleClassify classifies a single asset synchronously.
func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	hint := segment.Parse(req.Hint)
	f, res := pipeline.ClassifyOne(&req.Asset, hint, req.Debug)

	resp := classifyResponse{
		Segment:     res.Segment,
		Confidence:  res.Confidence,
		Title:       f.TitleText,
		TitleSource: f.TitleSource,
	}
	if res.Debug != nil {
		resp.Reason = res.Debug.Reason
		resp.Debug = res.Debug
		resp.Features = &f
	}
	writeJSON(w, http.StatusOK, resp)
}

type segmentDocumentRequest struct {
	DocumentID string        `json:"document_id"`
	Assets     []asset.Asset `json:"assets"`
	Debug      bool          `json:"debug,omitempty"`
}

type segmentDocumentResponse struct {
	DocumentID string                   `json:"document_id"`
	Pages      []pipeline.PageOutcome   `json:"pages"`
	Sections   []grouper.GroupedSection `json:"sections"`
	Stats      grouper.Stats            `json:"stats"`
}

// handleSegmentDocument runs the full pipeline synchronously over an
// inline asset list: brand model, per-page classification, grouping.
func (s *Server) handleSegmentDocument(w http.ResponseWriter, r *http.Request) {
	var req segmentDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Assets) == 0 {
		jsonError(w, "assets are required", http.StatusBadRequest)
		return
	}
	for i := range req.Assets {
		if req.Assets[i].DocumentID == "" {
			req.Assets[i].DocumentID = req.DocumentID
		}
	}

	brand := pipeline.BuildBrand(req.Assets)
	pages := make([]pipeline.PageOutcome, 0, len(req.Assets))
	blocks := make([]grouper.Input, 0, len(req.Assets))
	for i := range req.Assets {
		a := &req.Assets[i]
		f := features.Extract(a, brand)
		res := classify.Classify(f, classify.Options{Debug: true})
		out := pipeline.PageOutcome{
			AssetID:     a.ID,
			PageIndex:   f.PageIndex,
			Segment:     res.Segment,
			Confidence:  res.Confidence,
			Title:       f.TitleText,
			TitleSource: f.TitleSource,
		}
		if res.Debug != nil {
			out.Reason = res.Debug.Reason
			if req.Debug {
				out.Debug = res.Debug
			}
		}
		pages = append(pages, out)
		blocks = append(blocks, grouper.Input{Asset: a, Segment: res.Segment})
	}

	sections, stats := grouper.Group(blocks, s.orchestrator.GroupConfig())
	writeJSON(w, http.StatusOK, segmentDocumentResponse{
		DocumentID: req.DocumentID,
		Pages:      pages,
		Sections:   sections,
		Stats:      stats,
	})
}
