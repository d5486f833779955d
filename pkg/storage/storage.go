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

// Package storage defines the filesystem contract the transfer engine runs
// against, plus a go-billy backed implementation of it.
package storage

import (
	"context"
	"time"

	"gitlab.com/tozd/go/errors"
)

// ❌ ErrNotFound is returned by Stat when the path does not exist
var ErrNotFound = errors.New("path not found")

// 📄 Entry is a single directory entry
type Entry struct {
	Name  string // Base name of the entry
	IsDir bool   // Whether the entry is a directory
}

// 📊 Info contains metadata about a single path
type Info struct {
	Size    int64     // Size in bytes (0 for directories)
	ModTime time.Time // Last modification time
	Created time.Time // Creation time, or ModTime when the backend cannot supply it
	IsDir   bool      // Whether the path is a directory
}

// 💾 Provider is the set of filesystem capabilities the engine consumes.
// Implementations must be safe for use from multiple goroutines.
type Provider interface {
	// ReadDir lists the entries of a directory
	ReadDir(ctx context.Context, path string) ([]Entry, error)
	// Stat returns metadata for a path, or ErrNotFound
	Stat(ctx context.Context, path string) (Info, error)
	// Exists reports whether a path exists
	Exists(ctx context.Context, path string) (bool, error)
	// CopyFile copies a single regular file from src to dst
	CopyFile(ctx context.Context, src, dst string) error
	// Remove deletes a path; recursive is required for non-empty directories
	Remove(ctx context.Context, path string, recursive bool) error
	// Mkdir creates a directory (and any missing parents)
	Mkdir(ctx context.Context, path string) error
	// WriteEmptyFile creates an empty regular file
	WriteEmptyFile(ctx context.Context, path string) error
	// Rename moves a path within the same provider
	Rename(ctx context.Context, src, dst string) error
}
