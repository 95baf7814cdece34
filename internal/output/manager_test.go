package output

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManagerSummary(t *testing.T) {
	var buf bytes.Buffer
	m := NewManager(&buf, false)
	m.StartDisplay()

	a := m.RegisterJob("a.mp4")
	b := m.RegisterJob("b.mp4")
	c := m.RegisterJob("c.mp4")
	m.UpdateProgress(a, 512, 1024)
	m.Complete(a, "")
	m.Complete(b, "Saved b.mp4")
	m.ReportError(c, errors.New("server returned 404"))
	m.StopDisplay()

	success, failures, total := m.Counts()
	assert.Equal(t, 2, success)
	assert.Equal(t, 1, failures)
	assert.Equal(t, 3, total)

	out := buf.String()
	assert.Contains(t, out, "Completed a.mp4")
	assert.Contains(t, out, "Saved b.mp4")
	assert.Contains(t, out, "Completed 2 of 3")
	assert.Contains(t, out, "Failed 1 of 3")
	assert.Contains(t, out, "server returned 404")
	assert.NotContains(t, out, "\033[J", "non-live output must not redraw")
}

func TestManagerConcurrentUpdates(t *testing.T) {
	m := NewManager(&bytes.Buffer{}, false)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := m.RegisterJob("job")
			for n := int64(0); n < 100; n++ {
				m.UpdateProgress(id, n, 100)
			}
			m.Complete(id, "")
		}()
	}
	wg.Wait()
	success, _, total := m.Counts()
	assert.Equal(t, 8, success)
	assert.Equal(t, 8, total)
}

func TestUnknownIDsAreIgnored(t *testing.T) {
	m := NewManager(&bytes.Buffer{}, false)
	m.SetMessage(42, "x")
	m.UpdateProgress(42, 1, 2)
	m.Complete(42, "")
	m.ReportError(42, errors.New("x"))
	_, _, total := m.Counts()
	assert.Equal(t, 0, total)
}

func TestProgressLine(t *testing.T) {
	known := progressLine(512, 1024, 1)
	assert.Contains(t, known, "50.0%")
	assert.Contains(t, known, "512 B / 1.00 KB")

	unknown := progressLine(2048, -1, 2)
	assert.NotContains(t, unknown, "%")
	assert.Contains(t, unknown, "2.00 KB")
	assert.Contains(t, unknown, "1.00 KB/s")
}
