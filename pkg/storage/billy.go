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

package storage

import (
	"context"
	"io"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"gitlab.com/tozd/go/errors"
)

// 🔧 BillyProvider implements Provider on top of a billy.Filesystem
type BillyProvider struct {
	fs billy.Filesystem
}

// 🏭 NewOS creates a provider rooted at the host filesystem
func NewOS(root string) *BillyProvider {
	return &BillyProvider{fs: osfs.New(root)}
}

// 🏭 NewMemory creates an in-memory provider, used mainly by tests
func NewMemory() *BillyProvider {
	return &BillyProvider{fs: memfs.New()}
}

// 🏭 NewBilly wraps an existing billy filesystem
func NewBilly(fs billy.Filesystem) *BillyProvider {
	return &BillyProvider{fs: fs}
}

func (p *BillyProvider) ReadDir(ctx context.Context, path string) ([]Entry, error) {
	infos, err := p.fs.ReadDir(path)
	if err != nil {
		return nil, errors.Errorf("reading directory %s: %w", path, err)
	}

	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, Entry{
			Name:  info.Name(),
			IsDir: info.IsDir(),
		})
	}
	return entries, nil
}

func (p *BillyProvider) Stat(ctx context.Context, path string) (Info, error) {
	info, err := p.fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Info{}, errors.Errorf("stat %s: %w", path, ErrNotFound)
		}
		return Info{}, errors.Errorf("stat %s: %w", path, err)
	}

	return Info{
		Size:    info.Size(),
		ModTime: info.ModTime(),
		// billy does not expose birth time
		Created: info.ModTime(),
		IsDir:   info.IsDir(),
	}, nil
}

func (p *BillyProvider) Exists(ctx context.Context, path string) (bool, error) {
	_, err := p.fs.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Errorf("checking existence of %s: %w", path, err)
}

func (p *BillyProvider) CopyFile(ctx context.Context, src, dst string) error {
	srcFile, err := p.fs.Open(src)
	if err != nil {
		return errors.Errorf("opening source file: %w", err)
	}
	defer srcFile.Close()

	dstFile, err := p.fs.Create(dst)
	if err != nil {
		return errors.Errorf("creating destination file: %w", err)
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return errors.Errorf("copying file content: %w", err)
	}
	return nil
}

func (p *BillyProvider) Remove(ctx context.Context, path string, recursive bool) error {
	if recursive {
		if err := util.RemoveAll(p.fs, path); err != nil {
			return errors.Errorf("removing %s recursively: %w", path, err)
		}
		return nil
	}
	if err := p.fs.Remove(path); err != nil {
		return errors.Errorf("removing %s: %w", path, err)
	}
	return nil
}

func (p *BillyProvider) Mkdir(ctx context.Context, path string) error {
	if err := p.fs.MkdirAll(path, 0755); err != nil {
		return errors.Errorf("creating directory %s: %w", path, err)
	}
	return nil
}

func (p *BillyProvider) WriteEmptyFile(ctx context.Context, path string) error {
	f, err := p.fs.Create(path)
	if err != nil {
		return errors.Errorf("creating file %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return errors.Errorf("closing file %s: %w", path, err)
	}
	return nil
}

func (p *BillyProvider) Rename(ctx context.Context, src, dst string) error {
	if err := p.fs.Rename(src, dst); err != nil {
		return errors.Errorf("renaming %s to %s: %w", src, dst, err)
	}
	return nil
}

// WriteFile is a test/CLI convenience not part of the Provider contract.
func (p *BillyProvider) WriteFile(ctx context.Context, path string, content []byte) error {
	if err := util.WriteFile(p.fs, path, content, 0644); err != nil {
		return errors.Errorf("writing file %s: %w", path, err)
	}
	return nil
}

// ReadFile is a test/CLI convenience not part of the Provider contract.
func (p *BillyProvider) ReadFile(ctx context.Context, path string) ([]byte, error) {
	content, err := util.ReadFile(p.fs, path)
	if err != nil {
		return nil, errors.Errorf("reading file %s: %w", path, err)
	}
	return content, nil
}
