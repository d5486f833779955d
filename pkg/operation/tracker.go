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
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/walteh/ferry/pkg/notify"
)

// 📈 Tracker owns the live list of operation records. All mutation goes
// through it, serialized by a mutex so executors may run on their own
// goroutines.
type Tracker struct {
	center *notify.Center

	mu      sync.Mutex
	ops     map[string]*Operation
	order   []string
	cancels map[string]context.CancelFunc
}

// 🏭 NewTracker creates a tracker. center may be nil; no notifications are
// emitted then.
func NewTracker(center *notify.Center) *Tracker {
	return &Tracker{
		center:  center,
		ops:     make(map[string]*Operation),
		cancels: make(map[string]context.CancelFunc),
	}
}

// Begin creates a record in pending state and returns its id.
func (t *Tracker) Begin(kind Kind, totalItems int) string {
	id := uuid.NewString()

	t.mu.Lock()
	defer t.mu.Unlock()

	t.ops[id] = &Operation{
		ID:         id,
		Kind:       kind,
		Status:     StatusPending,
		TotalItems: totalItems,
	}
	t.order = append(t.order, id)
	return id
}

// Bind associates a cancellation function with an operation so Cancel can
// tear down the in-flight executor context.
func (t *Tracker) Bind(id string, cancel context.CancelFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancels[id] = cancel
}

// Advance moves an operation to in_progress and records its position.
// processedItems never exceeds TotalItems and never decreases.
func (t *Tracker) Advance(id string, processedItems int, currentFile string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	op, ok := t.ops[id]
	if !ok || op.Status.Terminal() {
		return
	}

	op.Status = StatusInProgress
	op.CurrentFile = currentFile
	if processedItems > op.TotalItems {
		processedItems = op.TotalItems
	}
	if processedItems > op.ProcessedItems {
		op.ProcessedItems = processedItems
	}
}

// Complete marks an operation finished. All items are committed at this
// point, so the processed count snaps to the total.
func (t *Tracker) Complete(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	op, ok := t.ops[id]
	if !ok || op.Status.Terminal() {
		return
	}
	op.Status = StatusCompleted
	op.ProcessedItems = op.TotalItems
	op.CurrentFile = ""
}

// Fail sets the terminal error state and surfaces a notification. Items
// already processed stay committed.
func (t *Tracker) Fail(ctx context.Context, id string, message string) {
	t.mu.Lock()
	op, ok := t.ops[id]
	if !ok || op.Status.Terminal() {
		t.mu.Unlock()
		return
	}
	op.Status = StatusError
	op.Error = message
	kind := op.Kind
	t.mu.Unlock()

	zerolog.Ctx(ctx).Error().Str("operation", id).Str("kind", string(kind)).Msg(message)
	if t.center != nil {
		t.center.Publish(ctx, notify.Notification{
			Status:  notify.StatusError,
			Title:   fmt.Sprintf("%s failed", kind),
			Message: message,
		})
	}
}

// Cancel requests cancellation. The bound context is torn down so the
// executor stops at its next checkpoint; a provider call already in flight
// runs to completion.
func (t *Tracker) Cancel(ctx context.Context, id string) {
	t.mu.Lock()
	cancel := t.cancels[id]
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	t.Fail(ctx, id, "operation cancelled")
}

// Acknowledge clears all terminal records. It is the only path that removes
// records, and it declines while any operation is still pending or running.
// When at least one cleared record completed, a success notification
// summarizing the count is emitted.
func (t *Tracker) Acknowledge(ctx context.Context) bool {
	t.mu.Lock()
	for _, op := range t.ops {
		if !op.Status.Terminal() {
			t.mu.Unlock()
			return false
		}
	}

	completed := 0
	for id, op := range t.ops {
		if op.Status == StatusCompleted {
			completed++
		}
		delete(t.ops, id)
		delete(t.cancels, id)
	}
	t.order = t.order[:0]
	t.mu.Unlock()

	if completed > 0 && t.center != nil {
		message := fmt.Sprintf("%d operation completed", completed)
		if completed > 1 {
			message = fmt.Sprintf("%d operations completed", completed)
		}
		t.center.Publish(ctx, notify.Notification{
			Status:  notify.StatusSuccess,
			Title:   "transfer complete",
			Message: message,
		})
	}
	return true
}

// Get returns a snapshot of one operation.
func (t *Tracker) Get(id string) (Operation, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	op, ok := t.ops[id]
	if !ok {
		return Operation{}, false
	}
	return *op, true
}

// Operations returns snapshots of all records in creation order.
func (t *Tracker) Operations() []Operation {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Operation, 0, len(t.order))
	for _, id := range t.order {
		if op, ok := t.ops[id]; ok {
			out = append(out, *op)
		}
	}
	return out
}
