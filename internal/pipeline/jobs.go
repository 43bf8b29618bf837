package pipeline

import (
	"sync"
	"time"
)

// JobStatus represents the state of a book-processing job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusSaving     JobStatus = "saving"
	StatusExtracting JobStatus = "extracting"
	StatusAnalyzing  JobStatus = "analyzing"
	StatusChunking   JobStatus = "chunking"
	StatusStoring    JobStatus = "storing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Job tracks the state of a single book upload through the pipeline.
type Job struct {
	mu sync.Mutex

	ID         string `json:"job_id"`
	BookID     int64  `json:"book_id"`
	UserID     int64  `json:"user_id"`
	TelegramID string `json:"telegram_id"`

	Status   JobStatus `json:"status"`
	Step     string    `json:"step"`
	Filename string    `json:"filename"`

	Progress Progress `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	errors   []string
}

// Progress tracks per-job processing counters.
type Progress struct {
	TextChars        int      `json:"text_chars"`
	HeadingsFound    int      `json:"headings_found"`
	ChaptersDetected int      `json:"chapters_detected"`
	ChaptersStored   int      `json:"chapters_stored"`
	Errors           []string `json:"errors"`
}

// NewJob builds a queued job with a fresh ULID for an uploaded file.
func NewJob(telegramID string, userID, bookID int64, filename string, data []byte) *Job {
	now := time.Now()
	return &Job{
		ID:         newJobID(),
		BookID:     bookID,
		UserID:     userID,
		TelegramID: telegramID,
		Status:     StatusQueued,
		Step:       "queued",
		Filename:   filename,
		CreatedAt:  now,
		UpdatedAt:  now,
		fileData:   data,
	}
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
		if now.Sub(job.UpdatedAt) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// ActiveFor returns snapshots of unfinished jobs for one Telegram account.
func (s *JobStore) ActiveFor(telegramID string) []JobSnapshot {
	s.mu.Lock()
	jobs := make([]*Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, job)
	}
	s.mu.Unlock()

	var out []JobSnapshot
	for _, job := range jobs {
		snap := job.Snapshot()
		if snap.TelegramID != telegramID {
			continue
		}
		if snap.Status == StatusCompleted || snap.Status == StatusFailed {
			continue
		}
		out = append(out, snap)
	}
	return out
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, step string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Step = step
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetTextChars records the extracted text size.
func (j *Job) SetTextChars(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.TextChars = n
	j.UpdatedAt = time.Now()
}

// SetHeadingsFound records the structural heading count.
func (j *Job) SetHeadingsFound(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.HeadingsFound = n
	j.UpdatedAt = time.Now()
}

// SetChaptersDetected records how many chapters the splitter produced.
func (j *Job) SetChaptersDetected(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.ChaptersDetected = n
	j.UpdatedAt = time.Now()
}

// SetChaptersStored records how many chapter rows were written.
func (j *Job) SetChaptersStored(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.ChaptersStored = n
	j.UpdatedAt = time.Now()
}

// SetFileData sets the raw file bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID         string    `json:"job_id"`
	BookID     int64     `json:"book_id"`
	UserID     int64     `json:"user_id"`
	TelegramID string    `json:"telegram_id"`
	Status     JobStatus `json:"status"`
	Step       string    `json:"step"`
	Filename   string    `json:"filename"`
	Progress   Progress  `json:"progress"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	return JobSnapshot{
		ID:         j.ID,
		BookID:     j.BookID,
		UserID:     j.UserID,
		TelegramID: j.TelegramID,
		Status:     j.Status,
		Step:       j.Step,
		Filename:   j.Filename,
		Progress: Progress{
			TextChars:        j.Progress.TextChars,
			HeadingsFound:    j.Progress.HeadingsFound,
			ChaptersDetected: j.Progress.ChaptersDetected,
			ChaptersStored:   j.Progress.ChaptersStored,
			Errors:           errs,
		},
	}
}
