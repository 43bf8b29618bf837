package pipeline

import (
	"strings"
	"testing"
	"time"
)

func TestNewJob(t *testing.T) {
	job := NewJob("12345", 7, 42, "book.txt", []byte("text"))

	if len(job.ID) != 26 {
		t.Errorf("expected 26-char job ID, got %d (%q)", len(job.ID), job.ID)
	}
	if job.Status != StatusQueued {
		t.Errorf("expected status %q, got %q", StatusQueued, job.Status)
	}
	if job.Step != "queued" {
		t.Errorf("expected step %q, got %q", "queued", job.Step)
	}
	if job.TelegramID != "12345" || job.UserID != 7 || job.BookID != 42 {
		t.Errorf("expected identifiers preserved, got %q/%d/%d",
			job.TelegramID, job.UserID, job.BookID)
	}
	if string(job.FileData()) != "text" {
		t.Errorf("expected file data %q, got %q", "text", job.FileData())
	}
	if job.CreatedAt.IsZero() || job.UpdatedAt.IsZero() {
		t.Error("expected timestamps set")
	}
}

func TestNewJobID_Format(t *testing.T) {
	id := newJobID()
	if len(id) != 26 {
		t.Fatalf("expected 26 characters, got %d (%q)", len(id), id)
	}
	for _, c := range id {
		if !strings.ContainsRune(crockford, c) {
			t.Errorf("unexpected character %q in ID %q", c, id)
		}
	}
}

func TestNewJobID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for range 1000 {
		id := newJobID()
		if seen[id] {
			t.Fatalf("duplicate ID %q", id)
		}
		seen[id] = true
	}
}

func TestNewJobID_SortsByTime(t *testing.T) {
	first := newJobID()
	time.Sleep(2 * time.Millisecond)
	second := newJobID()
	if !(first < second) {
		t.Errorf("expected %q to sort before %q", first, second)
	}
}

func TestJob_StateTransitions(t *testing.T) {
	job := &Job{
		ID:        "test-1",
		Status:    StatusQueued,
		Step:      "queued",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	transitions := []struct {
		status JobStatus
		step   string
	}{
		{StatusSaving, stepSaveFile},
		{StatusExtracting, stepExtractText},
		{StatusAnalyzing, stepAnalyzeStructure},
		{StatusChunking, stepDetectChapters},
		{StatusStoring, stepStoreBook},
		{StatusCompleted, "done"},
	}

	for _, tr := range transitions {
		before := job.UpdatedAt
		// Small sleep to ensure time difference is detectable.
		time.Sleep(time.Millisecond)
		job.SetStatus(tr.status, tr.step)

		if job.Status != tr.status {
			t.Errorf("expected status %q, got %q", tr.status, job.Status)
		}
		if job.Step != tr.step {
			t.Errorf("expected step %q, got %q", tr.step, job.Step)
		}
		if !job.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", tr.status)
		}
	}
}

func TestJob_AddError(t *testing.T) {
	job := &Job{ID: "err-test", UpdatedAt: time.Now()}
	job.AddError("extract failed")
	job.AddError("retry failed")

	snap := job.Snapshot()
	if len(snap.Progress.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(snap.Progress.Errors))
	}
	if snap.Progress.Errors[0] != "extract failed" {
		t.Errorf("expected first error %q, got %q", "extract failed", snap.Progress.Errors[0])
	}
}

func TestJob_ProgressSetters(t *testing.T) {
	job := &Job{ID: "progress-test", UpdatedAt: time.Now()}
	job.SetTextChars(52000)
	job.SetHeadingsFound(12)
	job.SetChaptersDetected(13)
	job.SetChaptersStored(13)

	snap := job.Snapshot()
	if snap.Progress.TextChars != 52000 {
		t.Errorf("expected 52000 text chars, got %d", snap.Progress.TextChars)
	}
	if snap.Progress.HeadingsFound != 12 {
		t.Errorf("expected 12 headings, got %d", snap.Progress.HeadingsFound)
	}
	if snap.Progress.ChaptersDetected != 13 {
		t.Errorf("expected 13 chapters detected, got %d", snap.Progress.ChaptersDetected)
	}
	if snap.Progress.ChaptersStored != 13 {
		t.Errorf("expected 13 chapters stored, got %d", snap.Progress.ChaptersStored)
	}
}

func TestJob_FileData(t *testing.T) {
	job := &Job{ID: "data-test"}
	data := []byte("file content here")
	job.SetFileData(data)
	got := job.FileData()
	if string(got) != string(data) {
		t.Errorf("expected file data %q, got %q", data, got)
	}
}

func TestJob_SnapshotErrorsNotNil(t *testing.T) {
	// Snapshot should always return non-nil errors slice.
	job := &Job{ID: "snap-test", UpdatedAt: time.Now()}
	snap := job.Snapshot()
	if snap.Progress.Errors == nil {
		t.Error("expected non-nil errors slice in snapshot")
	}
	if len(snap.Progress.Errors) != 0 {
		t.Errorf("expected empty errors, got %d", len(snap.Progress.Errors))
	}
}

func TestJobStore_PutGet(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := &Job{ID: "store-1", UpdatedAt: time.Now()}
	store.Put(job)

	got := store.Get("store-1")
	if got == nil {
		t.Fatal("expected to get job back")
	}
	if got.ID != "store-1" {
		t.Errorf("expected ID %q, got %q", "store-1", got.ID)
	}
}

func TestJobStore_GetMissing(t *testing.T) {
	store := NewJobStore(time.Hour)
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for missing job")
	}
}

func TestJobStore_TTLCleanup(t *testing.T) {
	store := NewJobStore(50 * time.Millisecond)

	expired := &Job{ID: "old", UpdatedAt: time.Now()}
	store.Put(expired)

	// Wait for the TTL to pass.
	time.Sleep(100 * time.Millisecond)

	// Add a fresh job.
	fresh := &Job{ID: "new", UpdatedAt: time.Now()}
	store.Put(fresh)

	store.Cleanup()

	if store.Get("old") != nil {
		t.Error("expected expired job to be cleaned up")
	}
	if store.Get("new") == nil {
		t.Error("expected fresh job to survive cleanup")
	}
}

func TestJobStore_CleanupEmpty(t *testing.T) {
	store := NewJobStore(time.Hour)
	// Should not panic on empty store.
	store.Cleanup()
}

func TestJobStore_ActiveFor(t *testing.T) {
	store := NewJobStore(time.Hour)

	running := &Job{ID: "run-1", TelegramID: "100", Status: StatusExtracting, UpdatedAt: time.Now()}
	queued := &Job{ID: "queue-1", TelegramID: "100", Status: StatusQueued, UpdatedAt: time.Now()}
	done := &Job{ID: "done-1", TelegramID: "100", Status: StatusCompleted, UpdatedAt: time.Now()}
	failed := &Job{ID: "fail-1", TelegramID: "100", Status: StatusFailed, UpdatedAt: time.Now()}
	other := &Job{ID: "other-1", TelegramID: "200", Status: StatusQueued, UpdatedAt: time.Now()}
	for _, j := range []*Job{running, queued, done, failed, other} {
		store.Put(j)
	}

	active := store.ActiveFor("100")
	if len(active) != 2 {
		t.Fatalf("expected 2 active jobs, got %d", len(active))
	}
	for _, snap := range active {
		if snap.ID != "run-1" && snap.ID != "queue-1" {
			t.Errorf("unexpected job %q in active set", snap.ID)
		}
	}

	if got := store.ActiveFor("999"); len(got) != 0 {
		t.Errorf("expected no active jobs for unknown account, got %d", len(got))
	}
}
