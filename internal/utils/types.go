package utils

import (
	"sync"
	"time"
)

// VideoPage is what a single page yields after extraction. It is not retained
// past job planning.
type VideoPage struct {
	SourceURL string
	Streams   map[int]string // resolution -> stream URL
	Filename  string
}

// Resolutions returns the available resolutions in ascending order.
func (p *VideoPage) Resolutions() []int {
	return SortedKeys(p.Streams)
}

type DownloadJob struct {
	ID       string
	Filename string // destination path
	URL      string
	Page     string // page the stream came from, for reporting
}

type DownloadResult struct {
	Job     DownloadJob
	Bytes   int64
	Elapsed time.Duration
	Err     error
	Kind    ErrorKind
}

func (r DownloadResult) Success() bool {
	return r.Err == nil
}

type PageEntry struct {
	URL        string `yaml:"link"`
	Resolution int    `yaml:"resolution,omitempty"`
}

// ProgressSink receives transfer events from a stream download.
// Start is called once before any Advance.
type ProgressSink interface {
	Start(total int64)
	Advance(delta int64)
}

// ProgressState tracks one job's transfer. It is written only by the worker
// that owns the job; Snapshot may be read from anywhere.
type ProgressState struct {
	mu          sync.Mutex
	total       int64
	transferred int64
	onUpdate    func(transferred, total int64)
}

func NewProgressState(onUpdate func(transferred, total int64)) *ProgressState {
	return &ProgressState{total: UnknownSize, onUpdate: onUpdate}
}

func (p *ProgressState) Start(total int64) {
	p.mu.Lock()
	if total <= 0 {
		total = UnknownSize
	}
	p.total = total
	p.transferred = 0
	p.mu.Unlock()
	p.notify()
}

func (p *ProgressState) Advance(delta int64) {
	if delta <= 0 {
		return
	}
	p.mu.Lock()
	p.transferred += delta
	p.mu.Unlock()
	p.notify()
}

// Snapshot returns bytes transferred and the expected total (UnknownSize if
// the server did not say).
func (p *ProgressState) Snapshot() (transferred, total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.transferred, p.total
}

func (p *ProgressState) notify() {
	if p.onUpdate == nil {
		return
	}
	p.onUpdate(p.Snapshot())
}
