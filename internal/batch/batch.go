// Package batch runs metadata validation over a set of local video files
// with a bounded worker pool. It backs the CLI batch command; the Lambda
// path never uses it because queue records carry one upload each.
package batch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/exercise-tracker/video-ingest/internal/config"
	"github.com/exercise-tracker/video-ingest/internal/videometa"
)

// Result holds the outcome for one file. Exactly one of Metadata and Err is
// set.
type Result struct {
	Path     string
	Metadata *videometa.Metadata
	Err      error
}

// Summary aggregates a finished run.
type Summary struct {
	Total   int
	Valid   int
	Invalid int
	Failed  int
	Results []Result
}

// Extractor produces validated metadata for a local video file.
type Extractor interface {
	Extract(path string) (*videometa.Metadata, error)
}

// Runner validates files concurrently. Unlike the queue-driven path, a
// failing file never stops the others; its error is reported in its Result.
type Runner struct {
	extractor Extractor
	workers   int
}

// NewRunner creates a Runner with the given concurrency. Worker counts
// below 1 are clamped to 1.
func NewRunner(extractor Extractor, workers int) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{extractor: extractor, workers: workers}
}

// Run validates every path and returns a summary. Results keep the input
// order regardless of which worker finished first. A cancelled context
// stops unstarted files; their results carry ctx.Err().
func (r *Runner) Run(ctx context.Context, paths []string) Summary {
	results := make([]Result, len(paths))

	var wg sync.WaitGroup
	sem := make(chan struct{}, r.workers)

	for i, path := range paths {
		wg.Add(1)
		go func(idx int, p string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := ctx.Err(); err != nil {
				results[idx] = Result{Path: p, Err: err}
				return
			}

			meta, err := r.extractor.Extract(p)
			if err != nil {
				log.Warn().Err(err).Str("file", p).Msg("Validation failed")
				results[idx] = Result{Path: p, Err: err}
				return
			}
			results[idx] = Result{Path: p, Metadata: meta}
		}(i, path)
	}
	wg.Wait()

	return summarize(results)
}

func summarize(results []Result) Summary {
	s := Summary{Total: len(results), Results: results}
	for _, res := range results {
		switch {
		case res.Err != nil:
			s.Failed++
		case res.Metadata.Valid:
			s.Valid++
		default:
			s.Invalid++
		}
	}
	return s
}

// DiscoverVideos walks dir and returns the paths whose extension the
// configuration accepts, sorted for stable output. Subdirectories are
// included.
func DiscoverVideos(dir string, cfg config.Config) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if cfg.AcceptsExtension(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// WriteReport marshals results for machine consumption; used by the CLI
// --output flag.
func WriteReport(path string, summary Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return encodeReport(f, summary)
}
