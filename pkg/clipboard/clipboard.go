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

// Package clipboard holds the single pending transfer request (copy or cut)
// and mirrors it into the system text clipboard so a paste can be
// reconstructed across process boundaries.
package clipboard

import (
	"context"
	"encoding/json"
	"path"
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 📋 Mode describes what a paste should do with the source entries
type Mode string

const (
	ModeCopy Mode = "copy"
	ModeCut  Mode = "cut"
)

// 📋 Entry is the single pending transfer request
type Entry struct {
	Mode      Mode     // copy or cut
	Files     []string // Entry names, in selection order
	SourceDir string   // Directory the names are relative to
}

// 📠 TextClipboard is the system text clipboard used as a fallback
// serialization channel for the in-memory entry.
type TextClipboard interface {
	Write(text string) error
	Read() (string, error)
}

// 🗃️ Store owns the single clipboard slot. At most one entry exists at a
// time; each set overwrites any prior entry.
type Store struct {
	mu    sync.Mutex
	entry *Entry

	text  TextClipboard
	isDir func(ctx context.Context, path string) bool
}

// 🏭 NewStore creates a clipboard store. text may be nil when no system
// clipboard is available; isDir is consulted only to annotate the mirrored
// payload and may be nil.
func NewStore(text TextClipboard, isDir func(ctx context.Context, path string) bool) *Store {
	return &Store{text: text, isDir: isDir}
}

// SetCopy replaces the slot with a copy request.
func (s *Store) SetCopy(ctx context.Context, files []string, sourceDir string) {
	s.set(ctx, ModeCopy, files, sourceDir)
}

// SetCut replaces the slot with a cut request.
func (s *Store) SetCut(ctx context.Context, files []string, sourceDir string) {
	s.set(ctx, ModeCut, files, sourceDir)
}

func (s *Store) set(ctx context.Context, mode Mode, files []string, sourceDir string) {
	entry := &Entry{
		Mode:      mode,
		Files:     append([]string(nil), files...),
		SourceDir: sourceDir,
	}

	s.mu.Lock()
	s.entry = entry
	s.mu.Unlock()

	s.mirror(ctx, entry)
}

// Clear empties the slot and blanks the mirrored payload so a consumed cut
// cannot be reconstructed from the system clipboard.
func (s *Store) Clear() {
	s.mu.Lock()
	s.entry = nil
	s.mu.Unlock()

	if s.text != nil {
		_ = s.text.Write("")
	}
}

// Current returns the pending entry, preferring the in-memory slot. When the
// slot is empty it attempts to reconstruct an entry from the system text
// clipboard. Returns nil when neither yields one.
func (s *Store) Current(ctx context.Context) *Entry {
	s.mu.Lock()
	entry := s.entry
	s.mu.Unlock()

	if entry != nil {
		copied := *entry
		copied.Files = append([]string(nil), entry.Files...)
		return &copied
	}
	return s.fromText(ctx)
}

// 📦 payload is the JSON shape written to the text clipboard
type payload struct {
	Action string        `json:"action"`
	Files  []payloadFile `json:"files"`
}

type payloadFile struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	IsDirectory bool   `json:"isDirectory"`
}

// mirror writes the entry to the system text clipboard. Best effort: a
// failed mirror never fails the set.
func (s *Store) mirror(ctx context.Context, entry *Entry) {
	if s.text == nil {
		return
	}

	p := payload{Action: string(entry.Mode)}
	for _, name := range entry.Files {
		full := path.Join(entry.SourceDir, name)
		isDir := false
		if s.isDir != nil {
			isDir = s.isDir(ctx, full)
		}
		p.Files = append(p.Files, payloadFile{
			Name:        name,
			Path:        full,
			IsDirectory: isDir,
		})
	}

	data, err := json.Marshal(p)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("encoding clipboard mirror")
		return
	}
	if err := s.text.Write(string(data)); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("writing system clipboard")
	}
}

// fromText reconstructs an entry from the mirrored JSON, if present.
func (s *Store) fromText(ctx context.Context) *Entry {
	if s.text == nil {
		return nil
	}

	text, err := s.text.Read()
	if err != nil || text == "" {
		return nil
	}

	p, err := decodePayload(text)
	if err != nil {
		// Not our payload, the user copied something else
		return nil
	}

	entry := &Entry{
		Mode:      Mode(p.Action),
		SourceDir: path.Dir(p.Files[0].Path),
	}
	for _, f := range p.Files {
		entry.Files = append(entry.Files, f.Name)
	}
	return entry
}

func decodePayload(text string) (*payload, error) {
	var p payload
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		return nil, errors.Errorf("parsing clipboard payload: %w", err)
	}
	if p.Action != string(ModeCopy) && p.Action != string(ModeCut) {
		return nil, errors.Errorf("unknown clipboard action %q", p.Action)
	}
	if len(p.Files) == 0 {
		return nil, errors.New("clipboard payload has no files")
	}
	return &p, nil
}
