package extractor

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanq16/vkdl/internal/utils"
)

const payload = `var playerParams = {"type":"al_video.php","params":[{"url240": "http:\/\/x\/c.mp4","url720": "http:\/\/x\/a.mp4", "url1080": "http:\/\/x\/b.mp4","title": "My Clip!","duration":31}]};`

func page(scripts ...string) []byte {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html><head><title>page</title></head><body>")
	for _, s := range scripts {
		b.WriteString(s)
	}
	b.WriteString("</body></html>")
	return []byte(b.String())
}

func module(body string) string {
	return `<script type="module">` + body + `</script>`
}

func TestExtract(t *testing.T) {
	content := page(
		`<script>var x = "al_video.php";</script>`,
		module(`import "/js/app.js";`),
		module(payload),
	)
	streams, filename, err := NewScriptExtractor().Extract(content)
	require.NoError(t, err)
	assert.Equal(t, map[int]string{
		240:  "http://x/c.mp4",
		720:  "http://x/a.mp4",
		1080: "http://x/b.mp4",
	}, streams)
	assert.Equal(t, "My-Clip.mp4", filename)
}

func TestExtractSpecScenario(t *testing.T) {
	block := `{"al_video.php": 1, "url720": "http:\/\/x\/a.mp4", "url1080": "http:\/\/x\/b.mp4", "title": "My Clip!"}`
	streams, filename, err := NewScriptExtractor().Extract(page(module(block)))
	require.NoError(t, err)
	assert.Equal(t, map[int]string{720: "http://x/a.mp4", 1080: "http://x/b.mp4"}, streams)
	assert.Equal(t, "My-Clip.mp4", filename)
}

func TestExtractFailures(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		kind    error
	}{
		{"no scripts", page(), utils.ErrExtractionAmbiguous},
		{"marker outside module script", page(`<script>` + payload + `</script>`), utils.ErrExtractionAmbiguous},
		{"two blocks", page(module(payload), module(payload)), utils.ErrExtractionAmbiguous},
		{"no title", page(module(`"al_video.php" "url480": "http:\/\/x\/a.mp4"`)), utils.ErrExtractionIncomplete},
		{"no urls", page(module(`"al_video.php" "title": "Clip"`)), utils.ErrExtractionIncomplete},
		{"zero resolution only", page(module(`"al_video.php" "url0": "http:\/\/x\/a.mp4" "title": "Clip"`)), utils.ErrExtractionIncomplete},
		{"unusable title", page(module(`"al_video.php" "url480": "http:\/\/x\/a.mp4" "title": "!!!"`)), utils.ErrExtractionIncomplete},
		{"not html at all", []byte("\x00\x01binary"), utils.ErrExtractionAmbiguous},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			streams, filename, err := NewScriptExtractor().Extract(tt.content)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
			assert.Empty(t, streams)
			assert.NotNil(t, streams)
			assert.Empty(t, filename)
		})
	}
}

func TestExtractDecodesTitle(t *testing.T) {
	block := `"al_video.php" "url360": "http:\/\/x\/a.mp4" "title": "Привет &amp; world"`
	_, filename, err := NewScriptExtractor().Extract(page(module(block)))
	require.NoError(t, err)
	assert.Equal(t, "Привет-world.mp4", filename)
}

func TestExtractCustomMarker(t *testing.T) {
	block := `"player.js" "url360": "http:\/\/x\/a.mp4" "title": "Other"`
	ex := &ScriptExtractor{Marker: "player.js"}
	streams, filename, err := ex.Extract(page(module(block)))
	require.NoError(t, err)
	assert.Len(t, streams, 1)
	assert.Equal(t, "Other.mp4", filename)
}

func TestFetcher(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/video1", func(w http.ResponseWriter, r *http.Request) {
		w.Write(page(module(payload)))
	})
	mux.HandleFunc("/empty", func(w http.ResponseWriter, r *http.Request) {
		w.Write(page())
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client, err := utils.NewHTTPClient(utils.HTTPClientConfig{})
	require.NoError(t, err)
	f := NewFetcher(client, nil)

	vp, err := f.Fetch(context.Background(), srv.URL+"/video1")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/video1", vp.SourceURL)
	assert.Equal(t, "My-Clip.mp4", vp.Filename)
	assert.Equal(t, []int{240, 720, 1080}, vp.Resolutions())

	_, err = f.Fetch(context.Background(), srv.URL+"/empty")
	assert.ErrorIs(t, err, utils.ErrExtractionAmbiguous)

	_, err = f.Fetch(context.Background(), srv.URL+"/missing")
	assert.ErrorIs(t, err, utils.ErrHTTPStatus)
	assert.Equal(t, utils.KindHTTPStatus, utils.KindOf(err))
}

type stubExtractor struct{ calls int }

func (s *stubExtractor) Extract(content []byte) (map[int]string, string, error) {
	s.calls++
	return map[int]string{1: fmt.Sprint(len(content))}, "stub.mp4", nil
}

func TestFetcherUsesGivenExtractor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("12345"))
	}))
	defer srv.Close()

	client, err := utils.NewHTTPClient(utils.HTTPClientConfig{})
	require.NoError(t, err)
	stub := &stubExtractor{}
	vp, err := NewFetcher(client, stub).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, 1, stub.calls)
	assert.Equal(t, map[int]string{1: "5"}, vp.Streams)
}
