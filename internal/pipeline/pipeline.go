package pipeline

import (
	"context"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tanq16/vkdl/internal/selector"
	"github.com/tanq16/vkdl/internal/utils"
)

type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) (*utils.VideoPage, error)
}

type PageFailure struct {
	URL  string
	Err  error
	Kind utils.ErrorKind
}

// Planner turns page URLs into download jobs, one per page that yields
// a usable stream.
type Planner struct {
	Fetcher   PageFetcher
	Selector  *selector.Selector
	OutputDir string
}

// Plan visits pages in order. A page that cannot be fetched, extracted or
// resolved is skipped with a warning and listed in the returned failures.
// Destination names are made unique within the plan.
func (p *Planner) Plan(ctx context.Context, entries []utils.PageEntry) ([]utils.DownloadJob, []PageFailure) {
	var jobs []utils.DownloadJob
	var failures []PageFailure
	used := make(map[string]bool)

	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			for _, rest := range entries[i:] {
				failures = append(failures, PageFailure{URL: rest.URL, Err: err, Kind: utils.KindOf(err)})
			}
			break
		}
		log.Info().Str("op", "pipeline/plan").Msgf("Getting videos from [%s]", entry.URL)
		job, err := p.planPage(ctx, entry, used)
		if err != nil {
			log.Warn().Str("op", "pipeline/plan").Str("kind", string(utils.KindOf(err))).Err(err).Msgf("Skipping %s: no videos found", entry.URL)
			failures = append(failures, PageFailure{URL: entry.URL, Err: err, Kind: utils.KindOf(err)})
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, failures
}

func (p *Planner) planPage(ctx context.Context, entry utils.PageEntry, used map[string]bool) (utils.DownloadJob, error) {
	page, err := p.Fetcher.Fetch(ctx, entry.URL)
	if err != nil {
		return utils.DownloadJob{}, err
	}
	sel := p.Selector
	if entry.Resolution > 0 {
		sel = selector.New(&selector.PolicySource{Cap: entry.Resolution})
	}
	resolution, err := sel.Select(ctx, page.Resolutions())
	if err != nil {
		return utils.DownloadJob{}, err
	}
	log.Debug().Str("op", "pipeline/plan").Msgf("Using %dp for %s", resolution, page.Filename)
	return utils.DownloadJob{
		ID:       uuid.NewString(),
		Filename: filepath.Join(p.OutputDir, utils.UniqueName(page.Filename, used)),
		URL:      page.Streams[resolution],
		Page:     page.SourceURL,
	}, nil
}
