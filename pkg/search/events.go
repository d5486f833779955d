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

// Package search implements the incremental search session: debounced
// queries, monotonic request ids, and aggregation of a streamed event
// sequence from a search provider.
package search

import (
	"context"
	"time"
)

// 🔍 Request identifies one search issued to a provider. Ids are allocated
// monotonically; the request with the highest id is the current one.
type Request struct {
	ID    uint64 // Monotonic request id
	Path  string // Directory to search under
	Query string // User query
}

// 📨 Event is one element of a provider's streamed response. Every event
// carries the id of the request that produced it.
type Event interface {
	RequestID() uint64
}

// 🟢 Started signals the provider accepted the request
type Started struct {
	ID    uint64
	Query string
}

func (e Started) RequestID() uint64 { return e.ID }

// 📄 Result is a single match
type Result struct {
	ID       uint64
	Path     string    // Absolute, slash-normalized path
	Name     string    // Base name of the match
	IsFile   bool      // False for directories
	Size     int64     // Size in bytes
	Modified time.Time // Last modification time
}

func (e Result) RequestID() uint64 { return e.ID }

// 🏁 Finished signals the end of the stream for one request
type Finished struct {
	ID           uint64
	TotalMatches int  // All matches found, including any beyond the emit cap
	HasMore      bool // Whether matches beyond the emitted results exist
}

func (e Finished) RequestID() uint64 { return e.ID }

// 📡 Subscription is one cancellable event stream scoped to a single
// request id. Cancelling it tells the provider to stop producing; the
// events channel is closed once the producer winds down.
type Subscription struct {
	events <-chan Event
	cancel context.CancelFunc
}

// 🏭 NewSubscription pairs an event channel with the producer's cancel
// function. Providers call this; consumers only read.
func NewSubscription(events <-chan Event, cancel context.CancelFunc) *Subscription {
	return &Subscription{events: events, cancel: cancel}
}

// Events returns the stream. It is closed when the producer finishes or is
// cancelled.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Cancel stops the producer. Safe to call more than once.
func (s *Subscription) Cancel() {
	if s.cancel != nil {
		s.cancel()
	}
}

// 🔌 Provider produces search results. Each call starts one independent,
// cancellable producer for the given request.
type Provider interface {
	Search(ctx context.Context, req Request) (*Subscription, error)
}
