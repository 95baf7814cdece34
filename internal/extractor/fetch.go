package extractor

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/vkdl/internal/utils"
)

const maxPageSize = 32 << 20

// Fetcher downloads a page and runs it through an Extractor.
type Fetcher struct {
	Client    *utils.HTTPClient
	Extractor Extractor
}

func NewFetcher(client *utils.HTTPClient, ex Extractor) *Fetcher {
	if ex == nil {
		ex = NewScriptExtractor()
	}
	return &Fetcher{Client: client, Extractor: ex}
}

func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*utils.VideoPage, error) {
	log.Debug().Str("op", "extractor/fetch").Msgf("Fetching page %s", pageURL)
	resp, err := f.Client.Get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil, fmt.Errorf("%w: error reading page body: %w", utils.ErrTransport, err)
	}
	streams, filename, err := f.Extractor.Extract(body)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("op", "extractor/fetch").Msgf("Found %d stream(s) for %s on %s", len(streams), filename, pageURL)
	return &utils.VideoPage{SourceURL: pageURL, Streams: streams, Filename: filename}, nil
}
