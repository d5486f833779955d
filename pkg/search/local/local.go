// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package local is the filesystem search backend. Queries match entry names
// case-insensitively; queries containing glob metacharacters are matched as
// doublestar patterns instead of substrings.
package local

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"github.com/rs/zerolog"
	"github.com/walteh/ferry/pkg/search"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultBatchSize is how many results accumulate before a flush
	DefaultBatchSize = 20
	// DefaultResultCap bounds how many results one request emits. Matches
	// beyond the cap still count toward TotalMatches.
	DefaultResultCap = 100
	// maxSubtreeWalkers bounds how many direct-child subtrees are walked
	// at once for a single request
	maxSubtreeWalkers = 4
)

// 🔧 Options configures the backend
type Options struct {
	BatchSize      int  // Results per flush; DefaultBatchSize when <= 0
	ResultCap      int  // Max emitted results; DefaultResultCap when <= 0
	FollowSymlinks bool // Whether the walk follows symlinks
}

// 🔍 Backend implements search.Provider against the host filesystem
type Backend struct {
	batchSize int
	resultCap int
	follow    bool
}

// 🏭 New creates a backend
func New(opts Options) *Backend {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.ResultCap <= 0 {
		opts.ResultCap = DefaultResultCap
	}
	return &Backend{
		batchSize: opts.BatchSize,
		resultCap: opts.ResultCap,
		follow:    opts.FollowSymlinks,
	}
}

// Search starts one cancellable producer for req. The immediate directory
// is scanned before the recursive walk so shallow hits arrive first.
func (b *Backend) Search(ctx context.Context, req search.Request) (*search.Subscription, error) {
	info, err := os.Stat(req.Path)
	if err != nil {
		return nil, errors.Errorf("search root %s: %w", req.Path, err)
	}
	if !info.IsDir() {
		return nil, errors.Errorf("search root %s is not a directory", req.Path)
	}

	ctx, cancel := context.WithCancel(ctx)
	events := make(chan search.Event, b.batchSize)

	em := &emitter{
		ctx:       ctx,
		events:    events,
		id:        req.ID,
		batchSize: b.batchSize,
		resultCap: b.resultCap,
	}
	match := newMatcher(req.Query)

	go func() {
		defer close(events)
		em.send(search.Started{ID: req.ID, Query: req.Query})

		subdirs := b.scanShallow(ctx, req.Path, match, em)

		// Sibling subtrees are independent, so walk them concurrently;
		// the emitter serializes their results
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(maxSubtreeWalkers)
		for _, dir := range subdirs {
			g.Go(func() error {
				return b.walk(gctx, dir, match, em)
			})
		}
		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			// Walk errors only end the traversal early; whatever was
			// found still gets reported
			zerolog.Ctx(ctx).Debug().Err(err).Uint64("request_id", req.ID).Msg("search walk ended early")
		}

		em.finish()
	}()

	return search.NewSubscription(events, cancel), nil
}

// scanShallow emits matches from the root's direct children and returns
// the child directories for the recursive pass.
func (b *Backend) scanShallow(ctx context.Context, root string, match func(string) bool, em *emitter) []string {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil
	}
	var subdirs []string
	for _, entry := range entries {
		if ctx.Err() != nil {
			return subdirs
		}
		if entry.IsDir() {
			subdirs = append(subdirs, filepath.Join(root, entry.Name()))
		}
		if !match(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		em.add(resultFor(em.id, filepath.Join(root, entry.Name()), entry.Name(), info))
	}
	return subdirs
}

// walk recursively visits everything below root. root itself is skipped:
// it is a direct child of the search root, already covered by the shallow
// pass.
func (b *Backend) walk(ctx context.Context, root string, match func(string) bool, em *emitter) error {
	conf := &fastwalk.Config{Follow: b.follow}

	return fastwalk.Walk(conf, root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Skip unreadable entries, keep walking
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if em.capped() {
			return fs.SkipDir
		}
		if path == root {
			return nil
		}
		if !match(d.Name()) {
			return nil
		}

		info, err := fastwalk.StatDirEntry(path, d)
		if err != nil {
			return nil
		}
		em.add(resultFor(em.id, path, d.Name(), info))
		return nil
	})
}

func resultFor(id uint64, path, name string, info fs.FileInfo) search.Result {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return search.Result{
		ID:       id,
		Path:     filepath.ToSlash(abs),
		Name:     name,
		IsFile:   !info.IsDir(),
		Size:     info.Size(),
		Modified: info.ModTime(),
	}
}

// newMatcher builds the name predicate for a query.
func newMatcher(query string) func(string) bool {
	q := strings.ToLower(query)
	if strings.ContainsAny(q, "*?[{") {
		return func(name string) bool {
			ok, err := doublestar.Match(q, strings.ToLower(name))
			return err == nil && ok
		}
	}
	return func(name string) bool {
		return strings.Contains(strings.ToLower(name), q)
	}
}

// 📤 emitter batches results and enforces the emit cap. fastwalk invokes
// the walk callback from multiple goroutines, so all state sits behind a
// mutex.
type emitter struct {
	ctx       context.Context
	events    chan<- search.Event
	id        uint64
	batchSize int
	resultCap int

	mu    sync.Mutex
	batch []search.Result
	total int
	sent  int
}

// add records a match and flushes a full batch.
func (e *emitter) add(r search.Result) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.total++
	if e.sent+len(e.batch) >= e.resultCap {
		return
	}
	e.batch = append(e.batch, r)
	if len(e.batch) >= e.batchSize {
		e.flushLocked()
	}
}

// capped reports whether the emit budget is spent. Counting continues, the
// walk just stops descending once nothing more can be emitted and matches
// are only needed for the total.
func (e *emitter) capped() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sent >= e.resultCap
}

func (e *emitter) flushLocked() {
	for _, r := range e.batch {
		if !e.send(r) {
			break
		}
		e.sent++
	}
	e.batch = e.batch[:0]
}

// finish flushes the final partial batch and emits the closing event.
func (e *emitter) finish() {
	e.mu.Lock()
	e.flushLocked()
	total, sent := e.total, e.sent
	e.mu.Unlock()

	e.send(search.Finished{
		ID:           e.id,
		TotalMatches: total,
		HasMore:      total > sent,
	})
}

func (e *emitter) send(ev search.Event) bool {
	select {
	case e.events <- ev:
		return true
	case <-e.ctx.Done():
		return false
	}
}
