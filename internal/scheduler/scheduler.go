package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/vkdl/internal/utils"
)

// Downloader performs one job's transfer.
type Downloader interface {
	Download(ctx context.Context, url, outputPath string, progress utils.ProgressSink) (int64, error)
}

// Reporter is the observational side channel for per-job status and progress.
type Reporter interface {
	RegisterJob(label string) int
	SetMessage(id int, message string)
	UpdateProgress(id int, transferred, total int64)
	Complete(id int, message string)
	ReportError(id int, err error)
}

// RunAll drains jobs with a fixed pool of numWorkers workers and blocks until
// every job has a result. Failures never stop other jobs. Results come back in
// completion order, exactly one per job. Once ctx is done, jobs still queued
// are reported as failed without being started.
func RunAll(ctx context.Context, jobs []utils.DownloadJob, numWorkers int, dl Downloader, reporter Reporter) []utils.DownloadResult {
	if len(jobs) == 0 {
		return nil
	}
	if numWorkers <= 0 {
		numWorkers = utils.DefaultWorkers
	}
	numWorkers = min(numWorkers, len(jobs))
	if reporter == nil {
		reporter = nopReporter{}
	}

	jobCh := make(chan utils.DownloadJob, len(jobs))
	for _, job := range jobs {
		jobCh <- job
	}
	close(jobCh)
	resultCh := make(chan utils.DownloadResult, len(jobs))

	log.Debug().Str("op", "scheduler/run").Msgf("Starting %d workers for %d jobs", numWorkers, len(jobs))
	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			processJobs(ctx, workerID, jobCh, resultCh, dl, reporter)
		}(i)
	}
	wg.Wait()
	close(resultCh)

	results := make([]utils.DownloadResult, 0, len(jobs))
	for r := range resultCh {
		results = append(results, r)
	}
	return results
}

func processJobs(ctx context.Context, workerID int, jobCh <-chan utils.DownloadJob, resultCh chan<- utils.DownloadResult, dl Downloader, reporter Reporter) {
	for job := range jobCh {
		resultCh <- runJob(ctx, workerID, job, dl, reporter)
	}
}

func runJob(ctx context.Context, workerID int, job utils.DownloadJob, dl Downloader, reporter Reporter) utils.DownloadResult {
	id := reporter.RegisterJob(job.Filename)
	result := utils.DownloadResult{Job: job}
	if err := ctx.Err(); err != nil {
		result.Err = fmt.Errorf("not started: %w", err)
		result.Kind = utils.KindOf(err)
		reporter.ReportError(id, withPage(job, result.Err))
		return result
	}

	reporter.SetMessage(id, fmt.Sprintf("Downloading %s", job.Filename))
	state := utils.NewProgressState(func(transferred, total int64) {
		reporter.UpdateProgress(id, transferred, total)
	})
	start := time.Now()
	n, err := dl.Download(ctx, job.URL, job.Filename, state)
	result.Bytes = n
	result.Elapsed = time.Since(start)
	if err != nil {
		result.Err = err
		result.Kind = utils.KindOf(err)
		log.Debug().Str("op", "scheduler/worker").Int("worker", workerID).Str("job", job.ID).Str("page", job.Page).Str("kind", string(result.Kind)).Err(err).Msgf("Download failed for %s", job.Filename)
		reporter.ReportError(id, withPage(job, err))
		return result
	}
	log.Debug().Str("op", "scheduler/worker").Int("worker", workerID).Str("job", job.ID).Str("page", job.Page).Msgf("Downloaded %s (%s in %s)", job.Filename, utils.FormatBytes(uint64(n)), result.Elapsed.Round(time.Millisecond))
	reporter.Complete(id, fmt.Sprintf("Downloaded %s (%s)", job.Filename, utils.FormatBytes(uint64(n))))
	return result
}

// withPage ties a reported failure back to the page the stream came from.
func withPage(job utils.DownloadJob, err error) error {
	if job.Page == "" {
		return err
	}
	return fmt.Errorf("%w (page %s, job %s)", err, job.Page, job.ID)
}

type nopReporter struct{}

func (nopReporter) RegisterJob(string) int           { return 0 }
func (nopReporter) SetMessage(int, string)           {}
func (nopReporter) UpdateProgress(int, int64, int64) {}
func (nopReporter) Complete(int, string)             {}
func (nopReporter) ReportError(int, error)           {}
