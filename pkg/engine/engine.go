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

// 📦 Package engine wires the file-manager subsystems together: clipboard,
// transfer execution, operation tracking, search, and notifications. One
// Engine instance owns one set of subsystems; nothing here is a singleton.
package engine

import (
	"context"
	"path"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/ferry/pkg/clipboard"
	"github.com/walteh/ferry/pkg/config"
	"github.com/walteh/ferry/pkg/notify"
	"github.com/walteh/ferry/pkg/operation"
	"github.com/walteh/ferry/pkg/search"
	"github.com/walteh/ferry/pkg/search/local"
	"github.com/walteh/ferry/pkg/storage"
)

// 🔧 Options contains the engine's dependencies
type Options struct {
	// Provider is the storage backend (required)
	Provider storage.Provider
	// Text is the system text clipboard; nil disables mirroring
	Text clipboard.TextClipboard
	// Sink receives notifications; nil keeps them in-memory only
	Sink notify.Sink
	// Search serves search requests; nil selects the local backend
	Search search.Provider
	// Settings tunes debounce, dismissal, and search limits; nil uses defaults
	Settings *config.Settings
	// Async runs transfer operations on their own goroutine
	Async bool
	// Logger is used for async task failures; nil uses the nop logger
	Logger *zerolog.Logger
}

// 🎯 Engine is the single orchestrator behind every user-facing operation
type Engine struct {
	provider storage.Provider
	clip     *clipboard.Store
	tracker  *operation.Tracker
	executor *operation.Executor
	runner   *operation.Runner
	center   *notify.Center
	session  *search.Session
	settings *config.Settings
}

// 🏭 New creates a new engine with the given options
func New(opts Options) (*Engine, error) {
	if opts.Provider == nil {
		return nil, errors.New("provider is required")
	}

	settings := opts.Settings
	if settings == nil {
		settings = config.Default()
	}
	if err := config.Validate(context.Background(), settings); err != nil {
		return nil, errors.Errorf("validating settings: %w", err)
	}

	center := notify.NewCenter(opts.Sink, settings.NotifyDismiss())
	tracker := operation.NewTracker(center)
	resolver := operation.NewResolver(opts.Provider, settings.RenameLimit)

	executor, err := operation.New(operation.Options{
		Provider: opts.Provider,
		Resolver: resolver,
		Tracker:  tracker,
	})
	if err != nil {
		return nil, errors.Errorf("creating executor: %w", err)
	}

	backend := opts.Search
	if backend == nil {
		backend = local.New(local.Options{
			BatchSize:      settings.SearchBatchSize,
			ResultCap:      settings.SearchResultCap,
			FollowSymlinks: settings.FollowSymlinks,
		})
	}

	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	isDir := func(ctx context.Context, p string) bool {
		info, err := opts.Provider.Stat(ctx, p)
		return err == nil && info.IsDir
	}

	return &Engine{
		provider: opts.Provider,
		clip:     clipboard.NewStore(opts.Text, isDir),
		tracker:  tracker,
		executor: executor,
		runner:   operation.NewRunner(logger, opts.Async),
		center:   center,
		session:  search.NewSession(backend, "", settings.Debounce()),
		settings: settings,
	}, nil
}

// Copy stores a copy request for the named entries.
func (e *Engine) Copy(ctx context.Context, dir string, names []string) error {
	if len(names) == 0 {
		return errors.New("no files selected")
	}
	e.clip.SetCopy(ctx, names, dir)
	return nil
}

// Cut stores a cut request for the named entries.
func (e *Engine) Cut(ctx context.Context, dir string, names []string) error {
	if len(names) == 0 {
		return errors.New("no files selected")
	}
	e.clip.SetCut(ctx, names, dir)
	return nil
}

// 🚚 Paste transfers the pending clipboard entry into dstDir. A cut entry is
// moved and the clipboard slot cleared on success; a copy entry survives so
// it can be pasted again. The record is begun before the task is dispatched,
// so the returned id is valid in async mode too; there the error surfaces
// through the tracker instead of the return value.
func (e *Engine) Paste(ctx context.Context, dstDir string) (string, error) {
	entry := e.clip.Current(ctx)
	if entry == nil {
		return "", errors.New("clipboard is empty")
	}

	kind := operation.KindCopy
	if entry.Mode == clipboard.ModeCut {
		kind = operation.KindMove
	}

	id := e.tracker.Begin(kind, len(entry.Files))
	task := operation.TaskFunc(func(ctx context.Context) error {
		err := e.executor.Execute(ctx, id, kind, entry.SourceDir, entry.Files, dstDir)
		if err == nil && kind == operation.KindMove {
			e.clip.Clear()
		}
		return err
	})

	return id, e.runner.Run(ctx, task)
}

// 🗑️ Delete removes the named entries from dir. Directories are removed
// recursively. The returned id is valid in async mode too.
func (e *Engine) Delete(ctx context.Context, dir string, names []string) (string, error) {
	if len(names) == 0 {
		return "", errors.New("no files selected")
	}

	id := e.tracker.Begin(operation.KindDelete, len(names))
	task := operation.TaskFunc(func(ctx context.Context) error {
		return e.executor.ExecuteDelete(ctx, id, dir, names)
	})

	return id, e.runner.Run(ctx, task)
}

// CreateFile creates an empty file named name inside dir.
func (e *Engine) CreateFile(ctx context.Context, dir, name string) error {
	if err := e.validateTarget(ctx, dir, name); err != nil {
		return err
	}
	if err := e.provider.WriteEmptyFile(ctx, path.Join(dir, name)); err != nil {
		e.publishError(ctx, "Create failed", err.Error())
		return errors.Errorf("creating file %q: %w", name, err)
	}
	return nil
}

// CreateDir creates a directory named name inside dir.
func (e *Engine) CreateDir(ctx context.Context, dir, name string) error {
	if err := e.validateTarget(ctx, dir, name); err != nil {
		return err
	}
	if err := e.provider.Mkdir(ctx, path.Join(dir, name)); err != nil {
		e.publishError(ctx, "Create failed", err.Error())
		return errors.Errorf("creating directory %q: %w", name, err)
	}
	return nil
}

// ✏️ Rename renames oldName to newName inside dir. The new name must be a
// valid entry name and must not collide with an existing sibling.
func (e *Engine) Rename(ctx context.Context, dir, oldName, newName string) error {
	if err := e.validateTarget(ctx, dir, newName); err != nil {
		return err
	}
	if err := e.provider.Rename(ctx, path.Join(dir, oldName), path.Join(dir, newName)); err != nil {
		e.publishError(ctx, "Rename failed", err.Error())
		return errors.Errorf("renaming %q to %q: %w", oldName, newName, err)
	}
	return nil
}

// 🔍 Search scopes the session to dir and submits query. Submissions are
// debounced; results accumulate in SearchState().
func (e *Engine) Search(ctx context.Context, dir, query string) {
	e.session.SetPath(dir)
	e.session.Query(ctx, query)
}

// ClearSearch resets the search session immediately.
func (e *Engine) ClearSearch() {
	e.session.Clear()
}

// Acknowledge clears finished operations. Returns false while any operation
// is still running.
func (e *Engine) Acknowledge(ctx context.Context) bool {
	return e.tracker.Acknowledge(ctx)
}

// CancelOperation requests cancellation of a running operation.
func (e *Engine) CancelOperation(ctx context.Context, id string) {
	e.tracker.Cancel(ctx, id)
}

// Close releases the search session's resources.
func (e *Engine) Close() {
	e.session.Close()
}

// 📊 Read-only views

// Operations returns the tracked operations in creation order.
func (e *Engine) Operations() []operation.Operation {
	return e.tracker.Operations()
}

// Operation returns one tracked operation by id.
func (e *Engine) Operation(id string) (operation.Operation, bool) {
	return e.tracker.Get(id)
}

// Clipboard returns the pending clipboard entry, if any.
func (e *Engine) Clipboard(ctx context.Context) *clipboard.Entry {
	return e.clip.Current(ctx)
}

// SearchState returns a snapshot of the search session.
func (e *Engine) SearchState() search.SessionState {
	return e.session.State()
}

// SearchRequestID returns the id of the newest search request, zero when
// none has been issued yet. Debounced queries get an id only once the
// quiet period elapses.
func (e *Engine) SearchRequestID() uint64 {
	return e.session.CurrentID()
}

// Notifications returns the not-yet-dismissed notifications.
func (e *Engine) Notifications() []notify.Notification {
	return e.center.Active()
}

// validateTarget rejects invalid names and existing siblings before any
// mutating provider call.
func (e *Engine) validateTarget(ctx context.Context, dir, name string) error {
	if err := operation.ValidateName(name); err != nil {
		e.publishError(ctx, "Invalid name", err.Error())
		return err
	}

	exists, err := e.provider.Exists(ctx, path.Join(dir, name))
	if err != nil {
		return errors.Errorf("checking %q: %w", name, err)
	}
	if exists {
		e.publishError(ctx, "Already exists", name+" already exists")
		return errors.Errorf("%q already exists: %w", name, operation.ErrInvalidName)
	}
	return nil
}

func (e *Engine) publishError(ctx context.Context, title, message string) {
	e.center.Publish(ctx, notify.Notification{
		Status:  notify.StatusError,
		Title:   title,
		Message: message,
	})
}
