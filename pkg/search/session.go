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

package search

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultDebounce is how long input must stay quiet before a request is
// issued.
const DefaultDebounce = 300 * time.Millisecond

// 📊 SessionState is the aggregated view of the current request. It is
// rebuilt fresh for each new request id and mutated only by events tagged
// with that id.
type SessionState struct {
	Results      []Result // Arrival order
	TotalMatches int
	HasMore      bool
	IsSearching  bool
}

// 🔍 Session debounces queries, allocates request ids, and folds the
// provider's event stream into a SessionState. Superseding a request
// cancels the previous subscription outright; stale-id filtering remains as
// a second line of defense for events already in flight.
type Session struct {
	provider Provider
	debounce time.Duration

	mu        sync.Mutex
	path      string
	timer     *time.Timer
	nextID    uint64
	currentID uint64
	state     SessionState
	sub       *Subscription
}

// 🏭 NewSession creates a session rooted at path. debounce <= 0 uses the
// default.
func NewSession(provider Provider, path string, debounce time.Duration) *Session {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Session{
		provider: provider,
		debounce: debounce,
		path:     path,
	}
}

// SetPath changes the directory subsequent requests search under.
func (s *Session) SetPath(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.path = path
}

// Query records a keystroke. The debounce timer restarts on every call, so
// only the last query within the window is ever sent to the provider. An
// empty query clears the session immediately, without waiting for the
// debounce.
func (s *Session) Query(ctx context.Context, query string) {
	if query == "" {
		s.Clear()
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		s.start(ctx, query)
	})
}

// Clear resets the session to idle with empty results and tears down any
// active subscription.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.teardownLocked()
	// Bump the id so in-flight events of the cancelled request are stale
	s.nextID++
	s.currentID = s.nextID
	s.state = SessionState{}
}

// Close releases the session's resources.
func (s *Session) Close() {
	s.Clear()
}

// State returns a snapshot of the aggregated state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state
	snapshot.Results = append([]Result(nil), s.state.Results...)
	return snapshot
}

// CurrentID returns the id of the most recent request.
func (s *Session) CurrentID() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentID
}

// start issues a request for query. Called from the debounce timer.
func (s *Session) start(ctx context.Context, query string) {
	s.mu.Lock()

	s.teardownLocked()
	s.nextID++
	id := s.nextID
	s.currentID = id
	s.state = SessionState{IsSearching: true}

	req := Request{ID: id, Path: s.path, Query: query}
	s.mu.Unlock()

	sub, err := s.provider.Search(ctx, req)
	if err != nil {
		// Search failures are logged, never surfaced as a user-visible error
		zerolog.Ctx(ctx).Error().Err(err).Uint64("request_id", id).Str("query", query).Msg("starting search")
		s.mu.Lock()
		if s.currentID == id {
			s.state.IsSearching = false
		}
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	if s.currentID != id {
		// Superseded while the provider was starting up
		s.mu.Unlock()
		sub.Cancel()
		return
	}
	s.sub = sub
	s.mu.Unlock()

	go s.consume(ctx, sub, id)
}

// consume folds one subscription's events into the state.
func (s *Session) consume(ctx context.Context, sub *Subscription, id uint64) {
	logger := zerolog.Ctx(ctx)
	for event := range sub.Events() {
		s.mu.Lock()
		if event.RequestID() != s.currentID {
			s.mu.Unlock()
			logger.Debug().Uint64("request_id", event.RequestID()).Msg("dropping stale search event")
			continue
		}

		switch e := event.(type) {
		case Started:
			logger.Debug().Uint64("request_id", e.ID).Str("query", e.Query).Msg("search started")
		case Result:
			s.state.Results = append(s.state.Results, e)
		case Finished:
			s.state.TotalMatches = e.TotalMatches
			s.state.HasMore = e.HasMore
			s.state.IsSearching = false
		}
		s.mu.Unlock()
	}

	// Stream ended without a Finished event (provider failure or teardown):
	// stop reporting as searching, log only
	s.mu.Lock()
	if s.currentID == id && s.state.IsSearching {
		s.state.IsSearching = false
		logger.Debug().Uint64("request_id", id).Msg("search stream ended early")
	}
	s.mu.Unlock()
}

// teardownLocked cancels the active subscription. Caller holds s.mu.
func (s *Session) teardownLocked() {
	if s.sub != nil {
		s.sub.Cancel()
		s.sub = nil
	}
}
