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
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

// 🧪 scriptedSub lets a test feed events into a session by hand. Cancel only
// flags the producer: events already "in flight" can still be emitted, which
// is exactly the case stale-id filtering exists for.
type scriptedSub struct {
	ch        chan Event
	cancelled atomic.Bool
	closeOnce sync.Once
}

func (s *scriptedSub) emit(e Event) {
	s.ch <- e
}

func (s *scriptedSub) close() {
	s.closeOnce.Do(func() { close(s.ch) })
}

// 🧪 fakeProvider records requests and hands out scripted subscriptions
type fakeProvider struct {
	mu       sync.Mutex
	attempts atomic.Int32
	reqs     []Request
	subs     []*scriptedSub
	err      error
}

func (f *fakeProvider) Search(ctx context.Context, req Request) (*Subscription, error) {
	f.attempts.Add(1)

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}

	sub := &scriptedSub{ch: make(chan Event, 16)}
	f.reqs = append(f.reqs, req)
	f.subs = append(f.subs, sub)
	return NewSubscription(sub.ch, func() { sub.cancelled.Store(true) }), nil
}

func (f *fakeProvider) requests() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Request(nil), f.reqs...)
}

func (f *fakeProvider) sub(i int) *scriptedSub {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subs[i]
}

func (f *fakeProvider) closeAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.subs {
		s.close()
	}
}

func TestSessionDebounceCoalescesKeystrokes(t *testing.T) {
	ctx := context.Background()
	provider := &fakeProvider{}
	session := NewSession(provider, "/home", 40*time.Millisecond)
	defer provider.closeAll()
	defer session.Close()

	// Three keystrokes inside one debounce window
	session.Query(ctx, "i")
	time.Sleep(5 * time.Millisecond)
	session.Query(ctx, "in")
	time.Sleep(5 * time.Millisecond)
	session.Query(ctx, "inv")

	require.Eventually(t, func() bool {
		return len(provider.requests()) == 1
	}, time.Second, 5*time.Millisecond)

	// Give a second window a chance to fire spuriously
	time.Sleep(80 * time.Millisecond)

	reqs := provider.requests()
	require.Len(t, reqs, 1, "only the final keystroke should issue a request")
	assert.Equal(t, "inv", reqs[0].Query)
	assert.Equal(t, "/home", reqs[0].Path)
}

func TestSessionAggregatesStream(t *testing.T) {
	ctx := context.Background()
	provider := &fakeProvider{}
	session := NewSession(provider, "/docs", 5*time.Millisecond)
	defer provider.closeAll()
	defer session.Close()

	session.Query(ctx, "invoice")
	require.Eventually(t, func() bool {
		return len(provider.requests()) == 1
	}, time.Second, time.Millisecond)

	id := provider.requests()[0].ID
	sub := provider.sub(0)
	sub.emit(Started{ID: id, Query: "invoice"})
	sub.emit(Result{ID: id, Path: "/docs/invoice-1.pdf", Name: "invoice-1.pdf", IsFile: true})
	sub.emit(Result{ID: id, Path: "/docs/invoice-2.pdf", Name: "invoice-2.pdf", IsFile: true})
	sub.emit(Result{ID: id, Path: "/docs/old/invoice.pdf", Name: "invoice.pdf", IsFile: true})
	sub.emit(Finished{ID: id, TotalMatches: 3, HasMore: false})
	sub.close()

	require.Eventually(t, func() bool {
		return !session.State().IsSearching
	}, time.Second, time.Millisecond)

	state := session.State()
	assert.Len(t, state.Results, 3)
	assert.Equal(t, 3, state.TotalMatches)
	assert.False(t, state.HasMore)
	// Arrival order is preserved
	assert.Equal(t, "invoice-1.pdf", state.Results[0].Name)
	assert.Equal(t, "/docs/old/invoice.pdf", state.Results[2].Path)
}

func TestSessionDropsStaleResults(t *testing.T) {
	ctx := context.Background()
	provider := &fakeProvider{}
	session := NewSession(provider, "/", 5*time.Millisecond)
	defer provider.closeAll()
	defer session.Close()

	session.Query(ctx, "abc")
	require.Eventually(t, func() bool {
		return len(provider.requests()) == 1
	}, time.Second, time.Millisecond)
	firstID := provider.requests()[0].ID

	// Supersede before the first request finishes
	session.Query(ctx, "abcd")
	require.Eventually(t, func() bool {
		return len(provider.requests()) == 2
	}, time.Second, time.Millisecond)
	secondID := provider.requests()[1].ID
	assert.Greater(t, secondID, firstID, "request ids must be monotonic")

	// The superseded producer is told to stop
	require.Eventually(t, func() bool {
		return provider.sub(0).cancelled.Load()
	}, time.Second, time.Millisecond)

	// A laggard result from the old request arrives anyway
	provider.sub(0).emit(Result{ID: firstID, Path: "/stale.txt", Name: "stale.txt", IsFile: true})

	second := provider.sub(1)
	second.emit(Result{ID: secondID, Path: "/abcd.txt", Name: "abcd.txt", IsFile: true})
	second.emit(Finished{ID: secondID, TotalMatches: 1, HasMore: false})
	second.close()

	require.Eventually(t, func() bool {
		return !session.State().IsSearching
	}, time.Second, time.Millisecond)

	state := session.State()
	require.Len(t, state.Results, 1)
	assert.Equal(t, "abcd.txt", state.Results[0].Name, "stale result must never appear")
}

func TestSessionClearResetsImmediately(t *testing.T) {
	ctx := context.Background()
	provider := &fakeProvider{}
	session := NewSession(provider, "/", 5*time.Millisecond)
	defer provider.closeAll()
	defer session.Close()

	session.Query(ctx, "abc")
	require.Eventually(t, func() bool {
		return len(provider.requests()) == 1
	}, time.Second, time.Millisecond)

	id := provider.requests()[0].ID
	provider.sub(0).emit(Result{ID: id, Path: "/a.txt", Name: "a.txt", IsFile: true})
	require.Eventually(t, func() bool {
		return len(session.State().Results) == 1
	}, time.Second, time.Millisecond)

	// Empty query clears without waiting for the debounce
	session.Query(ctx, "")

	state := session.State()
	assert.Empty(t, state.Results)
	assert.False(t, state.IsSearching)
	assert.True(t, provider.sub(0).cancelled.Load(), "clearing must cancel the active stream")

	time.Sleep(20 * time.Millisecond)
	assert.Len(t, provider.requests(), 1, "clearing must not issue a request")
}

func TestSessionProviderFailure(t *testing.T) {
	ctx := context.Background()
	provider := &fakeProvider{err: errors.New("index unavailable")}
	session := NewSession(provider, "/", 5*time.Millisecond)
	defer session.Close()

	session.Query(ctx, "abc")

	// The failure terminates isSearching without surfacing an error
	require.Eventually(t, func() bool {
		return provider.attempts.Load() == 1 && !session.State().IsSearching
	}, time.Second, time.Millisecond)
	assert.Empty(t, session.State().Results)
}
