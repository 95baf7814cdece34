package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"
)

type JobOutput struct {
	ID          int
	Label       string
	Status      string
	Message     string
	Progress    string
	Complete    bool
	StartTime   time.Time
	LastUpdated time.Time
	Error       error
}

type ErrorReport struct {
	Label string
	Error error
	Time  time.Time
}

// Manager renders per-job status lines and the end-of-run summary. All
// methods are safe for concurrent use by workers.
type Manager struct {
	w           io.Writer
	live        bool
	outputs     map[int]*JobOutput
	mutex       sync.RWMutex
	numLines    int
	errors      []ErrorReport
	jobCount    int
	doneCh      chan struct{}
	displayTick time.Duration
	displayWg   sync.WaitGroup
}

// NewManager writes to w. Live redraws only happen when live is true;
// otherwise the final state is printed once by StopDisplay.
func NewManager(w io.Writer, live bool) *Manager {
	return &Manager{
		w:           w,
		live:        live,
		outputs:     make(map[int]*JobOutput),
		doneCh:      make(chan struct{}),
		displayTick: 200 * time.Millisecond,
	}
}

func NewStdoutManager() *Manager {
	return NewManager(os.Stdout, IsTerminal(os.Stdout))
}

func (m *Manager) RegisterJob(label string) int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.jobCount++
	m.outputs[m.jobCount] = &JobOutput{
		ID:          m.jobCount,
		Label:       label,
		Status:      "pending",
		StartTime:   time.Now(),
		LastUpdated: time.Now(),
	}
	return m.jobCount
}

func (m *Manager) SetMessage(id int, message string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if info, exists := m.outputs[id]; exists {
		info.Message = message
		info.LastUpdated = time.Now()
	}
}

// UpdateProgress replaces the job's progress line. total <= 0 means unknown.
func (m *Manager) UpdateProgress(id int, transferred, total int64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if info, exists := m.outputs[id]; exists {
		if info.Status == "pending" {
			info.Status = "active"
			info.StartTime = time.Now()
		}
		elapsed := time.Since(info.StartTime).Seconds()
		info.Progress = progressLine(transferred, total, elapsed)
		info.LastUpdated = time.Now()
	}
}

func (m *Manager) Complete(id int, message string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if info, exists := m.outputs[id]; exists {
		info.Progress = ""
		if message == "" {
			message = fmt.Sprintf("Completed %s", info.Label)
		}
		info.Message = message
		info.Complete = true
		info.Status = "success"
		info.LastUpdated = time.Now()
	}
}

func (m *Manager) ReportError(id int, err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if info, exists := m.outputs[id]; exists {
		info.Progress = ""
		info.Message = fmt.Sprintf("Failed %s", info.Label)
		info.Complete = true
		info.Status = "error"
		info.Error = err
		info.LastUpdated = time.Now()
		m.errors = append(m.errors, ErrorReport{
			Label: info.Label,
			Error: err,
			Time:  time.Now(),
		})
	}
}

// Counts returns the number of succeeded, failed and total jobs.
func (m *Manager) Counts() (success, failures, total int) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	for _, info := range m.outputs {
		switch info.Status {
		case "success":
			success++
		case "error":
			failures++
		}
	}
	return success, failures, len(m.outputs)
}

func statusIndicator(status string) string {
	switch status {
	case "success":
		return successStyle.Render(StyleSymbols["pass"])
	case "error":
		return errorStyle.Render(StyleSymbols["fail"])
	case "pending":
		return pendingStyle.Render(StyleSymbols["pending"])
	default:
		return infoStyle.Render(StyleSymbols["arrow"])
	}
}

func (m *Manager) sortJobs() (active, pending, completed []*JobOutput) {
	all := make([]*JobOutput, 0, len(m.outputs))
	for _, info := range m.outputs {
		all = append(all, info)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].ID < all[j].ID
	})
	for _, j := range all {
		switch {
		case j.Complete:
			completed = append(completed, j)
		case j.Status == "pending":
			pending = append(pending, j)
		default:
			active = append(active, j)
		}
	}
	return active, pending, completed
}

func (m *Manager) renderJob(info *JobOutput) []string {
	elapsed := time.Since(info.StartTime).Round(time.Second)
	if info.Complete {
		elapsed = info.LastUpdated.Sub(info.StartTime).Round(time.Second)
	}
	var styled string
	switch info.Status {
	case "success":
		styled = successStyle.Render(info.Message)
	case "error":
		styled = errorStyle.Render(info.Message)
	case "pending":
		styled = pendingStyle.Render("Waiting... " + info.Label)
	default:
		styled = pendingStyle.Render(info.Message)
	}
	lines := []string{fmt.Sprintf("  %s %s %s", statusIndicator(info.Status), debugStyle.Render(elapsed.String()), styled)}
	if info.Progress != "" {
		lines = append(lines, "      "+info.Progress)
	}
	return lines
}

func (m *Manager) updateDisplay() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	available := 1 << 30
	if m.live {
		available = terminalHeight() - 3
		if m.numLines > 0 {
			fmt.Fprintf(m.w, "\033[%dA\033[J", m.numLines)
		}
	}

	active, pending, completed := m.sortJobs()
	var lines []string
	for _, j := range active {
		lines = append(lines, m.renderJob(j)...)
	}
	for _, j := range pending {
		lines = append(lines, m.renderJob(j)...)
	}
	// Older completed jobs are dropped first when the terminal is short.
	room := max(0, available-len(lines))
	if len(completed) > room {
		hidden := len(completed) - room + 1
		if room > 0 {
			lines = append(lines, infoStyle.Render(fmt.Sprintf("  %d earlier jobs finished ...", hidden)))
			completed = completed[hidden:]
		} else {
			completed = nil
		}
	}
	for _, j := range completed {
		lines = append(lines, m.renderJob(j)...)
	}
	if len(lines) > available {
		lines = lines[:available]
	}
	for _, l := range lines {
		fmt.Fprintln(m.w, l)
	}
	m.numLines = len(lines)
}

func (m *Manager) StartDisplay() {
	m.displayWg.Add(1)
	go func() {
		defer m.displayWg.Done()
		ticker := time.NewTicker(m.displayTick)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if m.live {
					m.updateDisplay()
				}
			case <-m.doneCh:
				m.updateDisplay()
				m.ShowSummary()
				return
			}
		}
	}()
}

func (m *Manager) StopDisplay() {
	close(m.doneCh)
	m.displayWg.Wait()
}

func (m *Manager) ShowSummary() {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	fmt.Fprintln(m.w)
	var success, failures int
	for _, info := range m.outputs {
		switch info.Status {
		case "success":
			success++
		case "error":
			failures++
		}
	}
	fmt.Fprintln(m.w, "  "+success2Style.Render(fmt.Sprintf("Completed %d of %d", success, len(m.outputs))))
	if failures > 0 {
		fmt.Fprintln(m.w, "  "+errorStyle.Render(fmt.Sprintf("Failed %d of %d", failures, len(m.outputs))))
	}
	if len(m.errors) > 0 {
		fmt.Fprintln(m.w)
		fmt.Fprintln(m.w, "  "+errorStyle.Bold(true).Render("Errors:"))
		for i, e := range m.errors {
			fmt.Fprintf(m.w, "    %s %s %s\n",
				errorStyle.Render(fmt.Sprintf("%d.", i+1)),
				debugStyle.Render(fmt.Sprintf("[%s]", e.Time.Format("15:04:05"))),
				errorStyle.Render(e.Label))
			fmt.Fprintf(m.w, "      %s\n", errorStyle.Render(fmt.Sprintf("Error: %v", e.Error)))
		}
	}
	fmt.Fprintln(m.w)
}
