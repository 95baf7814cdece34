package cmd

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanq16/vkdl/internal/selector"
	"github.com/tanq16/vkdl/internal/utils"
)

// videoSite serves /page/<stream>/<title> pages whose metadata points at
// /video/<stream>. "ok" streams succeed, "broken" streams fail with 500, and
// /page/empty has no metadata block at all.
func videoSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/page/empty", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><script type="module">import "/app.js";</script></body></html>`)
	})
	mux.HandleFunc("/page/", func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/page/"), "/")
		if len(parts) != 2 {
			http.NotFound(w, r)
			return
		}
		stream := strings.ReplaceAll("http://"+r.Host+"/video/"+parts[0], "/", `\/`)
		fmt.Fprintf(w, `<html><body><script type="module">var p = {"type":"al_video.php","url360": "%s","url720": "%s","title": "%s"};</script></body></html>`,
			stream, stream, parts[1])
	})
	mux.HandleFunc("/video/ok", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("v", 5000)))
	})
	mux.HandleFunc("/video/broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func useRunFlags(t *testing.T, dir string) {
	t.Helper()
	workers, resolution, urlListFile, outputDir = 2, selector.PolicyBest, "", dir
	chunkSize, timeout, kaTimeout = utils.DefaultChunkSize, 5*time.Second, 5*time.Second
	userAgent, proxyURL, proxyUsername, proxyPassword, headers = utils.BrowserUserAgent, "", "", "", nil
	t.Cleanup(func() {
		workers, resolution, outputDir = utils.DefaultWorkers, selector.PolicyAsk, "."
	})
}

func TestRunExitStatus(t *testing.T) {
	srv := videoSite(t)
	tests := []struct {
		name  string
		pages []string
		want  int
		files []string
	}{
		{"no pages", nil, 1, nil},
		{"every page skipped", []string{"/page/empty", "/page/missing/x/y"}, 1, nil},
		{"a job fails", []string{"/page/ok/First", "/page/broken/Second"}, 1, []string{"First.mp4"}},
		{"all succeed", []string{"/page/ok/First", "/page/ok/Second", "/page/empty"}, 0, []string{"First.mp4", "Second.mp4"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			useRunFlags(t, dir)
			var args []string
			for _, p := range tt.pages {
				args = append(args, srv.URL+p)
			}

			assert.Equal(t, tt.want, run(context.Background(), args))

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			var got []string
			for _, e := range entries {
				got = append(got, e.Name())
			}
			assert.ElementsMatch(t, tt.files, got)
			for _, f := range tt.files {
				data, err := os.ReadFile(filepath.Join(dir, f))
				require.NoError(t, err)
				assert.Len(t, data, 5000)
			}
		})
	}
}
