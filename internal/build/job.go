package build

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/pagegen/internal/build/queue"
)

// Mode distinguishes full-site builds from single-route builds.
type Mode string

const (
	ModeSite  Mode = "site"
	ModeRoute Mode = "route"
)

// Status is the final state of a Job.
type Status string

const (
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// RedirectRecord is one redirect followed by a page the job produced.
type RedirectRecord = queue.Redirect

// Job aggregates the outcome of one build invocation. Fields are complete
// once the Engine call that created the job returns.
type Job struct {
	ID        string           `json:"id"`
	Mode      Mode             `json:"mode"`
	Status    Status           `json:"status"`
	StartedAt time.Time        `json:"started_at"`
	Duration  time.Duration    `json:"duration"`
	Redirects []RedirectRecord `json:"redirects,omitempty"`

	// Written and Skipped hold output file paths.
	Written []string `json:"written,omitempty"`
	Skipped []string `json:"skipped,omitempty"`

	// Pages is the number of distinct pages discovered.
	Pages int `json:"pages"`

	// Output is the rendered page of a single-route build.
	Output string `json:"-"`

	mu sync.Mutex
}

func newJob(mode Mode) *Job {
	return &Job{
		ID:        uuid.NewString(),
		Mode:      mode,
		Status:    StatusRunning,
		StartedAt: time.Now(),
	}
}

func (j *Job) setOutput(out string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Output = out
}

func (j *Job) finish(err error) {
	j.Duration = time.Since(j.StartedAt)
	if err != nil {
		j.Status = StatusFailed
		return
	}
	j.Status = StatusSuccess
}
