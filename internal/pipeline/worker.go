package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/deckseg/internal/asset"
	"github.com/dgallion1/deckseg/internal/assetstore"
	"github.com/dgallion1/deckseg/internal/classify"
	"github.com/dgallion1/deckseg/internal/features"
	"github.com/dgallion1/deckseg/internal/grouper"
	"github.com/dgallion1/deckseg/internal/segment"
	"github.com/dgallion1/deckseg/internal/title"
)

// Worker segments a single document job.
type Worker struct {
	store    *assetstore.Client
	log      *slog.Logger
	groupCfg grouper.Config
	stats    *JobStats
}

func NewWorker(store *assetstore.Client, log *slog.Logger, groupCfg grouper.Config, stats *JobStats) *Worker {
	return &Worker{
		store:    store,
		log:      log,
		groupCfg: groupCfg,
		stats:    stats,
	}
}

// Process runs the full segmentation pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "document_id", job.DocumentID)
	start := time.Now()
	defer func() {
		w.stats.Record(job.CurrentStatus(), time.Since(start).Milliseconds())
	}()

	// Phase 1: Fetch (unless the assets came inline with the job).
	assets := job.Assets()
	if len(assets) == 0 {
		job.SetStatus(StatusFetching, "fetching assets")
		fetched, err := w.fetchWithRetry(ctx, job.DocumentID)
		if err != nil {
			log.Error("asset fetch failed", "error", err)
			job.AddError(fmt.Sprintf("fetch: %s", err))
			job.SetStatus(StatusFailed, "fetching assets")
			return
		}
		assets = fetched
	}
	job.SetTotalAssets(len(assets))
	if len(assets) == 0 {
		job.AddError("document has no assets")
		job.SetStatus(StatusFailed, "fetching assets")
		return
	}

	// Phase 2: Classify. The brand model is a synchronous reduction over
	// all pages and must exist before any page's title inference runs.
	job.SetStatus(StatusClassifying, "classifying pages")
	brand := BuildBrand(assets)
	outcomes := make([]PageOutcome, 0, len(assets))
	for i := range assets {
		a := &assets[i]
		f := features.Extract(a, brand)
		res := classify.Classify(f, classify.Options{Debug: true})
		out := PageOutcome{
			AssetID:     a.ID,
			PageIndex:   f.PageIndex,
			Segment:     res.Segment,
			Confidence:  res.Confidence,
			Title:       f.TitleText,
			TitleSource: f.TitleSource,
		}
		if res.Debug != nil {
			out.Reason = res.Debug.Reason
			if job.Debug {
				out.Debug = res.Debug
			}
		}
		outcomes = append(outcomes, out)
	}
	job.SetOutcomes(outcomes)
	log.Info("classified document", "assets", len(assets))

	// Phase 3: Group word-like blocks into display sections.
	job.SetStatus(StatusGrouping, "grouping sections")
	blocks := make([]grouper.Input, len(assets))
	for i := range assets {
		blocks[i] = grouper.Input{Asset: &assets[i], Segment: outcomes[i].Segment}
	}
	sections, gstats := grouper.Group(blocks, w.groupCfg)
	job.SetSections(sections)
	log.Info("grouped document",
		"groups", gstats.GroupsEmitted,
		"filtered", gstats.BlocksFiltered,
		"discarded", gstats.ChunksDiscarded,
	)

	// Phase 4: Store results back, when an asset store is configured.
	if w.store != nil {
		job.SetStatus(StatusStoring, "storing results")
		if err := w.storeResults(ctx, job, outcomes, sections); err != nil {
			log.Warn("result store failed", "error", err)
			job.AddError(fmt.Sprintf("store: %s", err))
			job.SetStatus(StatusPartial, "storing results")
			return
		}
	}

	job.SetStatus(StatusCompleted, "done")
}

func (w *Worker) fetchWithRetry(ctx context.Context, documentID string) ([]asset.Asset, error) {
	var assets []asset.Asset
	var lastErr error
	for attempt := 0; attempt < MaxRetries; attempt++ {
		assets, lastErr = w.store.FetchAssets(ctx, documentID)
		if lastErr == nil || !IsRetryable(lastErr) {
			break
		}
		w.log.Warn("retryable fetch error", "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return assets, lastErr
}

func (w *Worker) storeResults(ctx context.Context, job *Job, outcomes []PageOutcome, sections []grouper.GroupedSection) error {
	results := make([]assetstore.PageResult, len(outcomes))
	for i, o := range outcomes {
		results[i] = assetstore.PageResult{
			AssetID:    o.AssetID,
			Segment:    string(o.Segment),
			Confidence: o.Confidence,
			Title:      o.Title,
			TitleSrc:   o.TitleSource,
			Reason:     string(o.Reason),
		}
	}
	if err := w.store.PostResults(ctx, job.DocumentID, results); err != nil {
		return err
	}
	return w.store.PostSections(ctx, job.DocumentID, sections)
}

// BuildBrand computes the document's brand model from its vision pages.
// The blacklist comes from the first asset carrying brand metadata.
func BuildBrand(assets []asset.Asset) *title.BrandModel {
	var pages [][]title.Line
	var blacklist []string
	for i := range assets {
		a := &assets[i]
		if len(blacklist) == 0 {
			if a.BrandName != "" {
				blacklist = append(blacklist, a.BrandName)
			}
			blacklist = append(blacklist, a.BrandBlacklist...)
		}
		kind := features.ResolveKind(a)
		if kind != features.KindVision && kind != features.KindImage {
			continue
		}
		pages = append(pages, title.BuildLines(a.OCRBlocks, a.PageWidth, a.PageHeight, a.OCRText))
	}
	return title.BuildBrandModel(pages, blacklist)
}

// ClassifyOne runs the pure pipeline for a single asset outside any job,
// used by the synchronous API path. hint, when known, is authoritative.
func ClassifyOne(a *asset.Asset, hint segment.Segment, debug bool) (features.Features, classify.Result) {
	f := features.Extract(a, nil)
	res := classify.Classify(f, classify.Options{Hint: hint, Debug: debug})
	return f, res
}
