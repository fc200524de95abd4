package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exercise-tracker/video-ingest/internal/config"
	"github.com/exercise-tracker/video-ingest/internal/videometa"
)

// fakeExtractor returns per-path canned results and tracks peak concurrency.
type fakeExtractor struct {
	mu      sync.Mutex
	results map[string]*videometa.Metadata
	errs    map[string]error

	active  atomic.Int32
	maxSeen atomic.Int32
}

func (e *fakeExtractor) Extract(path string) (*videometa.Metadata, error) {
	n := e.active.Add(1)
	defer e.active.Add(-1)
	for {
		max := e.maxSeen.Load()
		if n <= max || e.maxSeen.CompareAndSwap(max, n) {
			break
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err, ok := e.errs[path]; ok {
		return nil, err
	}
	return e.results[path], nil
}

func validMeta(name string) *videometa.Metadata {
	return &videometa.Metadata{Filename: name, DurationSeconds: 30, Valid: true}
}

func invalidMeta(name string) *videometa.Metadata {
	return &videometa.Metadata{Filename: name, Valid: false}
}

func TestRunKeepsInputOrderAndIsolatesFailures(t *testing.T) {
	ex := &fakeExtractor{
		results: map[string]*videometa.Metadata{
			"a.mp4": validMeta("a.mp4"),
			"c.mp4": invalidMeta("c.mp4"),
		},
		errs: map[string]error{
			"b.mp4": errors.New("moov atom not found"),
		},
	}
	runner := NewRunner(ex, 2)

	summary := runner.Run(context.Background(), []string{"a.mp4", "b.mp4", "c.mp4"})

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 1, summary.Valid)
	assert.Equal(t, 1, summary.Invalid)
	assert.Equal(t, 1, summary.Failed)

	// One file failing never suppresses the others, and order is stable.
	require.Len(t, summary.Results, 3)
	assert.Equal(t, "a.mp4", summary.Results[0].Path)
	assert.NoError(t, summary.Results[0].Err)
	assert.Equal(t, "b.mp4", summary.Results[1].Path)
	assert.Error(t, summary.Results[1].Err)
	assert.Equal(t, "c.mp4", summary.Results[2].Path)
	assert.False(t, summary.Results[2].Metadata.Valid)
}

func TestRunBoundsConcurrency(t *testing.T) {
	results := make(map[string]*videometa.Metadata)
	var paths []string
	for i := 0; i < 20; i++ {
		p := filepath.Join("dir", "v"+string(rune('a'+i))+".mp4")
		results[p] = validMeta(p)
		paths = append(paths, p)
	}
	ex := &fakeExtractor{results: results}
	runner := NewRunner(ex, 3)

	summary := runner.Run(context.Background(), paths)

	assert.Equal(t, 20, summary.Valid)
	assert.LessOrEqual(t, ex.maxSeen.Load(), int32(3))
}

func TestRunClampsWorkerCount(t *testing.T) {
	ex := &fakeExtractor{results: map[string]*videometa.Metadata{"a.mp4": validMeta("a.mp4")}}
	runner := NewRunner(ex, 0)

	summary := runner.Run(context.Background(), []string{"a.mp4"})
	assert.Equal(t, 1, summary.Valid)
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ex := &fakeExtractor{results: map[string]*videometa.Metadata{"a.mp4": validMeta("a.mp4")}}
	runner := NewRunner(ex, 2)

	summary := runner.Run(ctx, []string{"a.mp4", "b.mp4"})
	assert.Equal(t, 2, summary.Failed)
	for _, res := range summary.Results {
		assert.ErrorIs(t, res.Err, context.Canceled)
	}
}

func TestDiscoverVideos(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	for _, name := range []string{"one.mp4", "two.MOV", "notes.txt", "nested/three.mp4"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	cfg := config.Default(config.ProfileLocal)
	paths, err := DiscoverVideos(dir, cfg)
	require.NoError(t, err)

	require.Len(t, paths, 3)
	assert.Equal(t, filepath.Join(dir, "nested", "three.mp4"), paths[0])
	assert.Equal(t, filepath.Join(dir, "one.mp4"), paths[1])
	// Extension matching is case-insensitive.
	assert.Equal(t, filepath.Join(dir, "two.MOV"), paths[2])
}

func TestDiscoverVideosMissingDir(t *testing.T) {
	cfg := config.Default(config.ProfileLocal)
	_, err := DiscoverVideos(filepath.Join(t.TempDir(), "nope"), cfg)
	assert.Error(t, err)
}

func TestEncodeReport(t *testing.T) {
	summary := Summary{
		Total: 2, Valid: 1, Failed: 1,
		Results: []Result{
			{Path: "a.mp4", Metadata: validMeta("a.mp4")},
			{Path: "b.mp4", Err: errors.New("boom")},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, encodeReport(&buf, summary))

	var rep struct {
		Total int `json:"total"`
		Files []struct {
			Path  string `json:"path"`
			Error string `json:"error"`
		} `json:"files"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rep))
	assert.Equal(t, 2, rep.Total)
	assert.Equal(t, "boom", rep.Files[1].Error)
}
