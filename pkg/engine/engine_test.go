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

package engine_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/ferry/pkg/clipboard"
	"github.com/walteh/ferry/pkg/config"
	"github.com/walteh/ferry/pkg/engine"
	"github.com/walteh/ferry/pkg/notify"
	"github.com/walteh/ferry/pkg/operation"
	"github.com/walteh/ferry/pkg/search"
	"github.com/walteh/ferry/pkg/storage"
)

// 🧪 replayProvider serves a canned event stream for any request
type replayProvider struct {
	results []search.Result
}

func (p *replayProvider) Search(ctx context.Context, req search.Request) (*search.Subscription, error) {
	_, cancel := context.WithCancel(ctx)
	events := make(chan search.Event, len(p.results)+2)
	events <- search.Started{ID: req.ID, Query: req.Query}
	for _, r := range p.results {
		r.ID = req.ID
		events <- r
	}
	events <- search.Finished{ID: req.ID, TotalMatches: len(p.results)}
	close(events)
	return search.NewSubscription(events, cancel), nil
}

func newTestEngine(t *testing.T, opts engine.Options) (*engine.Engine, *storage.BillyProvider, *notify.Collector) {
	t.Helper()

	provider := storage.NewMemory()
	collector := notify.NewCollector()

	opts.Provider = provider
	opts.Sink = collector
	if opts.Settings == nil {
		// Short dismissal keeps tests fast
		settings := config.Default()
		settings.DebounceMs = 10
		opts.Settings = settings
	}
	if opts.Search == nil {
		opts.Search = &replayProvider{}
	}

	eng, err := engine.New(opts)
	require.NoError(t, err)
	t.Cleanup(eng.Close)

	return eng, provider, collector
}

func seed(t *testing.T, provider *storage.BillyProvider, files map[string]string, dirs ...string) {
	t.Helper()
	ctx := context.Background()
	for _, d := range dirs {
		require.NoError(t, provider.Mkdir(ctx, d))
	}
	for path, content := range files {
		require.NoError(t, provider.WriteFile(ctx, path, []byte(content)))
	}
}

func TestCopyPaste(t *testing.T) {
	ctx := context.Background()
	eng, provider, _ := newTestEngine(t, engine.Options{Text: clipboard.NewMemoryText()})
	seed(t, provider, map[string]string{
		"/src/a.txt": "alpha",
		"/src/b.txt": "beta",
	}, "/src", "/dst")

	require.NoError(t, eng.Copy(ctx, "/src", []string{"a.txt", "b.txt"}))

	id, err := eng.Paste(ctx, "/dst")
	require.NoError(t, err)

	op, ok := eng.Operation(id)
	require.True(t, ok)
	assert.Equal(t, operation.KindCopy, op.Kind)
	assert.Equal(t, operation.StatusCompleted, op.Status)
	assert.Equal(t, 2, op.ProcessedItems)

	for _, name := range []string{"a.txt", "b.txt"} {
		exists, err := provider.Exists(ctx, "/dst/"+name)
		require.NoError(t, err)
		assert.True(t, exists, "%s should be pasted", name)
		exists, err = provider.Exists(ctx, "/src/"+name)
		require.NoError(t, err)
		assert.True(t, exists, "%s should survive a copy", name)
	}

	// Copy entries stay on the clipboard for repeated pastes
	assert.NotNil(t, eng.Clipboard(ctx))
}

func TestCutPasteClearsClipboard(t *testing.T) {
	ctx := context.Background()
	eng, provider, _ := newTestEngine(t, engine.Options{Text: clipboard.NewMemoryText()})
	seed(t, provider, map[string]string{"/src/a.txt": "alpha"}, "/src", "/dst")

	require.NoError(t, eng.Cut(ctx, "/src", []string{"a.txt"}))

	id, err := eng.Paste(ctx, "/dst")
	require.NoError(t, err)

	op, ok := eng.Operation(id)
	require.True(t, ok)
	assert.Equal(t, operation.KindMove, op.Kind)
	assert.Equal(t, operation.StatusCompleted, op.Status)

	exists, err := provider.Exists(ctx, "/src/a.txt")
	require.NoError(t, err)
	assert.False(t, exists, "source should be removed after a cut paste")

	content, err := provider.ReadFile(ctx, "/dst/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "alpha", string(content))

	assert.Nil(t, eng.Clipboard(ctx), "clipboard should be cleared after a cut paste")
}

func TestPasteConflictRenames(t *testing.T) {
	ctx := context.Background()
	eng, provider, _ := newTestEngine(t, engine.Options{})
	seed(t, provider, map[string]string{
		"/src/report.txt": "new",
		"/dst/report.txt": "old",
	}, "/src", "/dst")

	require.NoError(t, eng.Copy(ctx, "/src", []string{"report.txt"}))
	_, err := eng.Paste(ctx, "/dst")
	require.NoError(t, err)

	content, err := provider.ReadFile(ctx, "/dst/report.txt")
	require.NoError(t, err)
	assert.Equal(t, "old", string(content), "existing file should be untouched")

	content, err = provider.ReadFile(ctx, "/dst/report (1).txt")
	require.NoError(t, err)
	assert.Equal(t, "new", string(content))
}

func TestPasteEmptyClipboard(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t, engine.Options{})

	_, err := eng.Paste(ctx, "/dst")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clipboard is empty")
}

func TestDeleteAbortsOnFirstFailure(t *testing.T) {
	ctx := context.Background()
	eng, provider, collector := newTestEngine(t, engine.Options{})
	seed(t, provider, map[string]string{
		"/dir/a.txt": "a",
		"/dir/c.txt": "c",
	}, "/dir")

	id, err := eng.Delete(ctx, "/dir", []string{"a.txt", "missing.txt", "c.txt"})
	require.Error(t, err, "the failure propagates in synchronous mode")
	require.NotEmpty(t, id)

	op, ok := eng.Operation(id)
	require.True(t, ok)
	assert.Equal(t, operation.StatusError, op.Status)
	assert.NotEmpty(t, op.Error)

	exists, err := provider.Exists(ctx, "/dir/a.txt")
	require.NoError(t, err)
	assert.False(t, exists, "entries before the failure are gone")

	exists, err = provider.Exists(ctx, "/dir/c.txt")
	require.NoError(t, err)
	assert.True(t, exists, "entries after the failure are untouched")

	var errored []notify.Notification
	for _, n := range collector.All() {
		if n.Status == notify.StatusError {
			errored = append(errored, n)
		}
	}
	require.Len(t, errored, 1, "the failure should surface one error notification")
}

func TestCreateAndRename(t *testing.T) {
	ctx := context.Background()
	eng, provider, _ := newTestEngine(t, engine.Options{})
	seed(t, provider, nil, "/dir")

	require.NoError(t, eng.CreateDir(ctx, "/dir", "nested"))
	require.NoError(t, eng.CreateFile(ctx, "/dir/nested", "notes.txt"))
	require.NoError(t, eng.Rename(ctx, "/dir/nested", "notes.txt", "journal.txt"))

	exists, err := provider.Exists(ctx, "/dir/nested/journal.txt")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = provider.Exists(ctx, "/dir/nested/notes.txt")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestValidationRejectsBeforeProviderCalls(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		op   func(eng *engine.Engine) error
	}{
		{
			name: "create_file_empty_name",
			op: func(eng *engine.Engine) error {
				return eng.CreateFile(ctx, "/dir", "  ")
			},
		},
		{
			name: "create_dir_dotdot",
			op: func(eng *engine.Engine) error {
				return eng.CreateDir(ctx, "/dir", "..")
			},
		},
		{
			name: "rename_path_separator",
			op: func(eng *engine.Engine) error {
				return eng.Rename(ctx, "/dir", "a.txt", "evil/name")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng, provider, collector := newTestEngine(t, engine.Options{})
			seed(t, provider, map[string]string{"/dir/a.txt": "a"}, "/dir")

			err := tt.op(eng)
			require.Error(t, err)
			assert.ErrorIs(t, err, operation.ErrInvalidName)

			require.NotEmpty(t, collector.All())
			assert.Equal(t, notify.StatusError, collector.All()[0].Status)
		})
	}
}

func TestRenameCollisionRejected(t *testing.T) {
	ctx := context.Background()
	eng, provider, _ := newTestEngine(t, engine.Options{})
	seed(t, provider, map[string]string{
		"/dir/a.txt": "a",
		"/dir/b.txt": "b",
	}, "/dir")

	err := eng.Rename(ctx, "/dir", "a.txt", "b.txt")
	require.Error(t, err)

	// Neither file is touched
	content, readErr := provider.ReadFile(ctx, "/dir/b.txt")
	require.NoError(t, readErr)
	assert.Equal(t, "b", string(content))
}

func TestSearchThroughEngine(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t, engine.Options{
		Search: &replayProvider{results: []search.Result{
			{Path: "/dir/invoice.pdf", Name: "invoice.pdf", IsFile: true},
			{Path: "/dir/invoices", Name: "invoices"},
		}},
	})

	eng.Search(ctx, "/dir", "inv")

	require.Eventually(t, func() bool {
		state := eng.SearchState()
		return !state.IsSearching && len(state.Results) == 2
	}, 2*time.Second, 5*time.Millisecond)

	state := eng.SearchState()
	assert.Equal(t, 2, state.TotalMatches)
	assert.False(t, state.HasMore)
	assert.Equal(t, "invoice.pdf", state.Results[0].Name)

	eng.ClearSearch()
	assert.Empty(t, eng.SearchState().Results)
}

func TestAcknowledgeLifecycle(t *testing.T) {
	ctx := context.Background()
	eng, provider, collector := newTestEngine(t, engine.Options{})
	seed(t, provider, map[string]string{"/src/a.txt": "a"}, "/src", "/dst")

	require.NoError(t, eng.Copy(ctx, "/src", []string{"a.txt"}))
	_, err := eng.Paste(ctx, "/dst")
	require.NoError(t, err)
	require.Len(t, eng.Operations(), 1)

	assert.True(t, eng.Acknowledge(ctx))
	assert.Empty(t, eng.Operations())

	var successes []notify.Notification
	for _, n := range collector.All() {
		if n.Status == notify.StatusSuccess {
			successes = append(successes, n)
		}
	}
	require.Len(t, successes, 1)
	assert.Contains(t, successes[0].Message, "1 operation")
}

func TestAsyncPasteReturnsTrackedID(t *testing.T) {
	ctx := context.Background()
	eng, provider, _ := newTestEngine(t, engine.Options{Async: true})
	seed(t, provider, map[string]string{
		"/src/a.txt": "alpha",
		"/src/b.txt": "beta",
	}, "/src", "/dst")

	require.NoError(t, eng.Copy(ctx, "/src", []string{"a.txt", "b.txt"}))

	id, err := eng.Paste(ctx, "/dst")
	require.NoError(t, err)
	require.NotEmpty(t, id, "the id is known before the task runs")

	// The record exists before the background task finishes
	op, ok := eng.Operation(id)
	require.True(t, ok)
	assert.Equal(t, operation.KindCopy, op.Kind)

	require.Eventually(t, func() bool {
		op, ok := eng.Operation(id)
		return ok && op.Status == operation.StatusCompleted
	}, 2*time.Second, 5*time.Millisecond)

	for _, name := range []string{"a.txt", "b.txt"} {
		exists, err := provider.Exists(ctx, "/dst/"+name)
		require.NoError(t, err)
		assert.True(t, exists, "%s should be pasted", name)
	}
}

func TestAsyncRepeatedPastes(t *testing.T) {
	ctx := context.Background()
	eng, provider, _ := newTestEngine(t, engine.Options{Async: true})
	seed(t, provider, map[string]string{"/src/a.txt": "alpha"}, "/src")

	require.NoError(t, eng.Copy(ctx, "/src", []string{"a.txt"}))

	ids := make(map[string]bool)
	for i := 0; i < 10; i++ {
		dst := fmt.Sprintf("/dst-%d", i)
		require.NoError(t, provider.Mkdir(ctx, dst))

		// The id must be usable the moment Paste returns, while the
		// task still runs on its own goroutine
		id, err := eng.Paste(ctx, dst)
		require.NoError(t, err)
		require.NotEmpty(t, id)
		require.False(t, ids[id], "every paste gets its own id")
		ids[id] = true

		require.Eventually(t, func() bool {
			op, ok := eng.Operation(id)
			return ok && op.Status == operation.StatusCompleted
		}, 2*time.Second, 2*time.Millisecond)
	}

	for i := 0; i < 10; i++ {
		exists, err := provider.Exists(ctx, fmt.Sprintf("/dst-%d/a.txt", i))
		require.NoError(t, err)
		assert.True(t, exists)
	}
}

func TestAsyncDeleteFailureSurfacesInTracker(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t, engine.Options{Async: true})

	id, err := eng.Delete(ctx, "/dir", []string{"missing.txt"})
	require.NoError(t, err, "async dispatch itself does not fail")
	require.NotEmpty(t, id)

	require.Eventually(t, func() bool {
		op, ok := eng.Operation(id)
		return ok && op.Status == operation.StatusError
	}, 2*time.Second, 5*time.Millisecond)

	op, _ := eng.Operation(id)
	assert.NotEmpty(t, op.Error)
}

func TestNewRequiresProvider(t *testing.T) {
	_, err := engine.New(engine.Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider is required")
}
