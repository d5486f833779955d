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

package operation

import (
	"context"
	"path"

	"github.com/rs/zerolog"
	"github.com/walteh/ferry/pkg/storage"
	"gitlab.com/tozd/go/errors"
)

// 🔧 Options contains the executor's dependencies
type Options struct {
	// Provider is the storage backend operations run against
	Provider storage.Provider
	// Resolver derives unique destination names
	Resolver *Resolver
	// Tracker records operation progress
	Tracker *Tracker
}

// 🏃 Executor performs transfer operations as a strictly sequential loop
// over the entry list. Items are never processed in parallel: progress
// accounting stays exact and provider I/O concurrency stays bounded.
type Executor struct {
	provider storage.Provider
	resolver *Resolver
	tracker  *Tracker
}

// 🏭 New creates a new executor with the given options
func New(opts Options) (*Executor, error) {
	if opts.Provider == nil {
		return nil, errors.New("provider is required")
	}
	if opts.Resolver == nil {
		return nil, errors.New("resolver is required")
	}
	if opts.Tracker == nil {
		return nil, errors.New("tracker is required")
	}
	return &Executor{
		provider: opts.Provider,
		resolver: opts.Resolver,
		tracker:  opts.Tracker,
	}, nil
}

// Copy transfers the named entries from srcDir to dstDir.
func (e *Executor) Copy(ctx context.Context, srcDir string, names []string, dstDir string) (string, error) {
	id := e.tracker.Begin(KindCopy, len(names))
	return id, e.Execute(ctx, id, KindCopy, srcDir, names, dstDir)
}

// Move transfers the named entries and deletes each source only after its
// destination copy verifiably succeeded.
func (e *Executor) Move(ctx context.Context, srcDir string, names []string, dstDir string) (string, error) {
	id := e.tracker.Begin(KindMove, len(names))
	return id, e.Execute(ctx, id, KindMove, srcDir, names, dstDir)
}

// Execute runs an already-begun copy or move operation under its tracker
// id. Beginning the record is the caller's job, so the id is known before
// the work is dispatched to another goroutine. A failure at any step aborts
// the remaining sequence: already processed items stay committed, no
// rollback is attempted.
func (e *Executor) Execute(ctx context.Context, id string, kind Kind, srcDir string, names []string, dstDir string) error {
	if kind != KindCopy && kind != KindMove {
		return errors.Errorf("kind %s is not a transfer", kind)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	e.tracker.Bind(id, cancel)

	logger := zerolog.Ctx(ctx)
	for i, name := range names {
		if err := ctx.Err(); err != nil {
			e.tracker.Fail(ctx, id, "operation cancelled")
			return errors.Errorf("transfer cancelled: %w", err)
		}

		e.tracker.Advance(id, i, name)
		logger.Debug().Str("operation", id).Str("file", name).Msg("transferring entry")

		dstName, err := e.resolver.Resolve(ctx, dstDir, name)
		if err != nil {
			err = errors.Errorf("resolving destination for %s: %w", name, err)
			e.tracker.Fail(ctx, id, err.Error())
			return err
		}

		src := path.Join(srcDir, name)
		dst := path.Join(dstDir, dstName)
		if err := e.copyEntry(ctx, src, dst); err != nil {
			err = errors.Errorf("copying %s: %w", name, err)
			e.tracker.Fail(ctx, id, err.Error())
			return err
		}

		if kind == KindMove {
			if err := e.removeVerified(ctx, src, dst); err != nil {
				err = errors.Errorf("removing source %s: %w", name, err)
				e.tracker.Fail(ctx, id, err.Error())
				return err
			}
		}
	}

	e.tracker.Complete(id)
	return nil
}

// Delete recursively removes the named entries in sequence, aborting on the
// first failure.
func (e *Executor) Delete(ctx context.Context, dir string, names []string) (string, error) {
	id := e.tracker.Begin(KindDelete, len(names))
	return id, e.ExecuteDelete(ctx, id, dir, names)
}

// ExecuteDelete runs an already-begun delete operation under its tracker id.
func (e *Executor) ExecuteDelete(ctx context.Context, id string, dir string, names []string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	e.tracker.Bind(id, cancel)

	for i, name := range names {
		if err := ctx.Err(); err != nil {
			e.tracker.Fail(ctx, id, "operation cancelled")
			return errors.Errorf("delete cancelled: %w", err)
		}

		e.tracker.Advance(id, i, name)

		target := path.Join(dir, name)
		info, err := e.provider.Stat(ctx, target)
		if err != nil {
			err = errors.Errorf("deleting %s: %w", name, err)
			e.tracker.Fail(ctx, id, err.Error())
			return err
		}
		if err := e.provider.Remove(ctx, target, info.IsDir); err != nil {
			err = errors.Errorf("deleting %s: %w", name, err)
			e.tracker.Fail(ctx, id, err.Error())
			return err
		}
	}

	e.tracker.Complete(id)
	return nil
}

// copyEntry copies a file, or a directory tree depth-first.
func (e *Executor) copyEntry(ctx context.Context, src, dst string) error {
	info, err := e.provider.Stat(ctx, src)
	if err != nil {
		return errors.Errorf("reading source: %w", err)
	}

	if !info.IsDir {
		return e.provider.CopyFile(ctx, src, dst)
	}

	if err := e.provider.Mkdir(ctx, dst); err != nil {
		return errors.Errorf("creating destination directory: %w", err)
	}
	children, err := e.provider.ReadDir(ctx, src)
	if err != nil {
		return errors.Errorf("listing source directory: %w", err)
	}
	for _, child := range children {
		if err := ctx.Err(); err != nil {
			return errors.Errorf("copy cancelled: %w", err)
		}
		if err := e.copyEntry(ctx, path.Join(src, child.Name), path.Join(dst, child.Name)); err != nil {
			return err
		}
	}
	return nil
}

// removeVerified deletes the source of a move, but only once the
// destination is confirmed present.
func (e *Executor) removeVerified(ctx context.Context, src, dst string) error {
	ok, err := e.provider.Exists(ctx, dst)
	if err != nil {
		return errors.Errorf("verifying destination: %w", err)
	}
	if !ok {
		return errors.New("destination missing after copy")
	}

	info, err := e.provider.Stat(ctx, src)
	if err != nil {
		return errors.Errorf("reading source: %w", err)
	}
	return e.provider.Remove(ctx, src, info.IsDir)
}
