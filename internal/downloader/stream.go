package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/vkdl/internal/utils"
)

type StreamDownloader struct {
	Client    *utils.HTTPClient
	ChunkSize int
}

func NewStreamDownloader(client *utils.HTTPClient, chunkSize int) *StreamDownloader {
	if chunkSize <= 0 {
		chunkSize = utils.DefaultChunkSize
	}
	return &StreamDownloader{Client: client, ChunkSize: chunkSize}
}

// Download streams url into outputPath. Bytes land in a ".part" file next to
// the destination, which replaces any existing file only once the transfer is
// complete; on failure the partial file is removed. Every chunk is written
// before progress is advanced by its length. The returned count is what was
// received, even on error.
func (d *StreamDownloader) Download(ctx context.Context, url, outputPath string, progress utils.ProgressSink) (int64, error) {
	resp, err := d.Client.Get(ctx, url)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	tempPath := outputPath + utils.PartialExtension
	outFile, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return 0, fmt.Errorf("%w: error creating output file: %w", utils.ErrIOFailure, err)
	}
	written, err := d.copyChunks(ctx, outFile, resp.Body, resp.ContentLength, progress)
	if closeErr := outFile.Close(); closeErr != nil && err == nil {
		err = fmt.Errorf("%w: error closing output file: %w", utils.ErrIOFailure, closeErr)
	}
	if err == nil && resp.ContentLength > 0 && written != resp.ContentLength {
		err = fmt.Errorf("%w: short body, got %d of %d bytes", utils.ErrTransport, written, resp.ContentLength)
	}
	if err == nil {
		if renameErr := os.Rename(tempPath, outputPath); renameErr != nil {
			err = fmt.Errorf("%w: error finalizing output file: %w", utils.ErrIOFailure, renameErr)
		}
	}
	if err != nil {
		if rmErr := os.Remove(tempPath); rmErr != nil && !os.IsNotExist(rmErr) {
			log.Warn().Str("op", "downloader/stream").Err(rmErr).Msgf("Could not remove partial file %s", tempPath)
		}
		log.Debug().Str("op", "downloader/stream").Err(err).Msgf("Stream to %s stopped after %d bytes", outputPath, written)
		return written, err
	}
	log.Debug().Str("op", "downloader/stream").Msgf("Stream complete for %s (%d bytes)", outputPath, written)
	return written, nil
}

func (d *StreamDownloader) copyChunks(ctx context.Context, out *os.File, body io.Reader, total int64, progress utils.ProgressSink) (int64, error) {
	if progress != nil {
		progress.Start(total)
	}
	chunkSize := d.ChunkSize
	if chunkSize <= 0 {
		chunkSize = utils.DefaultChunkSize
	}
	buffer := make([]byte, chunkSize)
	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		n, readErr := body.Read(buffer)
		if n > 0 {
			if _, err := out.Write(buffer[:n]); err != nil {
				return written, fmt.Errorf("%w: error writing to output file: %w", utils.ErrIOFailure, err)
			}
			written += int64(n)
			if progress != nil {
				progress.Advance(int64(n))
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return written, nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return written, ctxErr
			}
			return written, fmt.Errorf("%w: error reading response body: %w", utils.ErrTransport, readErr)
		}
	}
}
