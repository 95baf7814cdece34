package extractor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tanq16/vkdl/internal/utils"
	"golang.org/x/net/html"
)

// Extractor recovers stream URLs and an output file name from raw page
// content. A failed extraction returns an empty map and an error matching
// utils.ErrExtractionAmbiguous or utils.ErrExtractionIncomplete.
type Extractor interface {
	Extract(content []byte) (map[int]string, string, error)
}

const DefaultMarker = "al_video.php"

var (
	streamURLRegex = regexp.MustCompile(`"url(\d+)":\s*"([^"]+)"`)
	titleRegex     = regexp.MustCompile(`"title":\s*"([^"]+)"`)
)

// ScriptExtractor scrapes the single module script that carries the video
// player payload. It depends on exact key names in that payload.
type ScriptExtractor struct {
	Marker string
}

func NewScriptExtractor() *ScriptExtractor {
	return &ScriptExtractor{Marker: DefaultMarker}
}

func (e *ScriptExtractor) Extract(content []byte) (map[int]string, string, error) {
	empty := map[int]string{}
	script, err := e.metadataBlock(content)
	if err != nil {
		return empty, "", err
	}

	streams := make(map[int]string)
	for _, m := range streamURLRegex.FindAllStringSubmatch(script, -1) {
		resolution, err := strconv.Atoi(m[1])
		if err != nil || resolution <= 0 {
			continue
		}
		streams[resolution] = unescapeURL(m[2])
	}
	if len(streams) == 0 {
		return empty, "", fmt.Errorf("%w: no stream URLs", utils.ErrExtractionIncomplete)
	}

	title := titleRegex.FindStringSubmatch(script)
	if title == nil {
		return empty, "", fmt.Errorf("%w: no title", utils.ErrExtractionIncomplete)
	}
	name := Sanitize(decodeTitle(title[1]))
	if name == "" {
		return empty, "", fmt.Errorf("%w: title %q has no usable characters", utils.ErrExtractionIncomplete, title[1])
	}
	return streams, name + utils.VideoExtension, nil
}

func (e *ScriptExtractor) metadataBlock(content []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("%w: unparseable page: %v", utils.ErrExtractionAmbiguous, err)
	}
	marker := e.Marker
	if marker == "" {
		marker = DefaultMarker
	}
	var matches []string
	for _, text := range moduleScripts(doc) {
		if strings.Contains(text, marker) {
			matches = append(matches, text)
		}
	}
	if len(matches) != 1 {
		return "", fmt.Errorf("%w: found %d", utils.ErrExtractionAmbiguous, len(matches))
	}
	return matches[0], nil
}

func moduleScripts(n *html.Node) []string {
	var scripts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "script" && attr(n, "type") == "module" {
			var b strings.Builder
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					b.WriteString(c.Data)
				}
			}
			scripts = append(scripts, b.String())
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return scripts
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

func unescapeURL(raw string) string {
	return strings.ReplaceAll(raw, `\/`, "/")
}

// decodeTitle resolves JSON string escapes (\uXXXX, \/) and HTML entities in
// the captured title. An invalid JSON string body is used as-is.
func decodeTitle(raw string) string {
	var decoded string
	if err := json.Unmarshal([]byte(`"`+raw+`"`), &decoded); err != nil {
		decoded = unescapeURL(raw)
	}
	return html.UnescapeString(decoded)
}
