package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/dgallion1/deckseg/internal/asset"
	"github.com/dgallion1/deckseg/internal/classify"
	"github.com/dgallion1/deckseg/internal/grouper"
	"github.com/dgallion1/deckseg/internal/segment"
)

// JobStatus represents the state of a segmentation job.
type JobStatus string

const (
	StatusQueued      JobStatus = "queued"
	StatusFetching    JobStatus = "fetching"
	StatusClassifying JobStatus = "classifying"
	StatusGrouping    JobStatus = "grouping"
	StatusStoring     JobStatus = "storing"
	StatusCompleted   JobStatus = "completed"
	StatusFailed      JobStatus = "failed"
	StatusPartial     JobStatus = "partial"
)

// PageOutcome is the classification result of one asset, kept on the
// job for retrieval by the API.
type PageOutcome struct {
	AssetID     string             `json:"asset_id"`
	PageIndex   int                `json:"page_index"`
	Segment     segment.Segment    `json:"segment"`
	Confidence  float64            `json:"confidence"`
	Title       string             `json:"title,omitempty"`
	TitleSource string             `json:"title_source,omitempty"`
	Reason      segment.ReasonCode `json:"reason,omitempty"`
	Debug       *classify.Trace    `json:"debug,omitempty"`
}

// Progress tracks processing progress.
type Progress struct {
	TotalAssets      int      `json:"total_assets"`
	AssetsClassified int      `json:"assets_classified"`
	Unknowns         int      `json:"unknowns"`
	GroupsEmitted    int      `json:"groups_emitted"`
	Errors           []string `json:"errors,omitempty"`
}

// Job tracks the state of a single document segmentation.
type Job struct {
	mu sync.Mutex

	ID         string `json:"job_id"`
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename,omitempty"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Progress Progress `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Debug attaches the full classification trace to every outcome.
	Debug bool `json:"debug,omitempty"`

	// Internal: not serialized.
	assets   []asset.Asset
	outcomes []PageOutcome
	sections []grouper.GroupedSection
}

func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// CurrentStatus reads the status under the job lock.
func (j *Job) CurrentStatus() JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.Status
}

// JobView is a point-in-time copy of a job's public state, safe to
// serialize while the worker keeps mutating the job.
type JobView struct {
	ID         string    `json:"job_id"`
	DocumentID string    `json:"document_id"`
	Filename   string    `json:"filename,omitempty"`
	Status     JobStatus `json:"status"`
	Phase      string    `json:"phase"`
	Progress   Progress  `json:"progress"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Debug      bool      `json:"debug,omitempty"`
}

// Snapshot copies the serializable fields under the job lock.
func (j *Job) Snapshot() JobView {
	j.mu.Lock()
	defer j.mu.Unlock()
	v := JobView{
		ID:         j.ID,
		DocumentID: j.DocumentID,
		Filename:   j.Filename,
		Status:     j.Status,
		Phase:      j.Phase,
		Progress:   j.Progress,
		CreatedAt:  j.CreatedAt,
		UpdatedAt:  j.UpdatedAt,
		Debug:      j.Debug,
	}
	v.Progress.Errors = append([]string(nil), j.Progress.Errors...)
	return v
}

func (j *Job) touchedAt() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.UpdatedAt
}

func (j *Job) AddError(msg string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Errors = append(j.Progress.Errors, msg)
	j.UpdatedAt = time.Now()
}

// SetAssets attaches inline input assets (the ingest path); jobs without
// inline assets fetch them from the asset store instead.
func (j *Job) SetAssets(assets []asset.Asset) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.assets = assets
}

func (j *Job) Assets() []asset.Asset {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.assets
}

func (j *Job) SetOutcomes(outcomes []PageOutcome) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.outcomes = outcomes
	j.Progress.AssetsClassified = len(outcomes)
	for _, o := range outcomes {
		if o.Segment == segment.Unknown {
			j.Progress.Unknowns++
		}
	}
	j.UpdatedAt = time.Now()
}

func (j *Job) Outcomes() []PageOutcome {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.outcomes
}

func (j *Job) SetSections(sections []grouper.GroupedSection) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.sections = sections
	j.Progress.GroupsEmitted = len(sections)
	j.UpdatedAt = time.Now()
}

func (j *Job) Sections() []grouper.GroupedSection {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.sections
}

func (j *Job) SetTotalAssets(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.TotalAssets = n
	j.UpdatedAt = time.Now()
}

// ContentHashHex returns the SHA-256 hex digest of data. Used to derive
// stable document ids for uploaded files.
func ContentHashHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.touchedAt()) > s.ttl {
			delete(s.jobs, id)
		}
	}
}
