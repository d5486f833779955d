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

// Package notify delivers transient user-facing notifications. Failures in
// the engine always surface as a notification, never as a blocking state.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
)

// 🚦 Status is the severity of a notification
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	StatusInfo    Status = "info"
	StatusWarning Status = "warning"
)

// 📢 Notification is a transient user-facing message
type Notification struct {
	Status  Status
	Title   string
	Message string
}

// 📬 Sink receives notifications as they are published
type Sink interface {
	Notify(ctx context.Context, n Notification)
}

// DefaultDismissAfter is how long a published notification stays active.
const DefaultDismissAfter = 3000 * time.Millisecond

// 🕰️ Center fans notifications out to a sink and keeps them listed as
// active until the dismiss interval elapses.
type Center struct {
	sink    Sink
	dismiss time.Duration

	mu     sync.Mutex
	nextID uint64
	active map[uint64]Notification
}

// 🏭 NewCenter creates a notification center. dismiss <= 0 uses the default.
func NewCenter(sink Sink, dismiss time.Duration) *Center {
	if dismiss <= 0 {
		dismiss = DefaultDismissAfter
	}
	return &Center{
		sink:    sink,
		dismiss: dismiss,
		active:  make(map[uint64]Notification),
	}
}

// Publish delivers a notification and schedules its dismissal.
func (c *Center) Publish(ctx context.Context, n Notification) {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.active[id] = n
	c.mu.Unlock()

	if c.sink != nil {
		c.sink.Notify(ctx, n)
	}

	time.AfterFunc(c.dismiss, func() {
		c.mu.Lock()
		delete(c.active, id)
		c.mu.Unlock()
	})
}

// Active returns the not-yet-dismissed notifications.
func (c *Center) Active() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Notification, 0, len(c.active))
	for _, n := range c.active {
		out = append(out, n)
	}
	return out
}

// 🖥️ ConsoleSink prints notifications with pterm prefix printers and echoes
// them to zerolog for debugging.
type ConsoleSink struct{}

func NewConsoleSink() *ConsoleSink {
	return &ConsoleSink{}
}

func (s *ConsoleSink) Notify(ctx context.Context, n Notification) {
	msg := n.Title
	if n.Message != "" {
		msg += ": " + n.Message
	}

	var printer *pterm.PrefixPrinter
	switch n.Status {
	case StatusSuccess:
		printer = &pterm.Success
	case StatusError:
		printer = &pterm.Error
	case StatusWarning:
		printer = &pterm.Warning
	default:
		printer = &pterm.Info
	}
	printer.Println(msg)

	logger := zerolog.Ctx(ctx)
	switch n.Status {
	case StatusError:
		logger.Error().Str("title", n.Title).Msg(n.Message)
	case StatusWarning:
		logger.Warn().Str("title", n.Title).Msg(n.Message)
	default:
		logger.Info().Str("title", n.Title).Msg(n.Message)
	}
}

// 🧪 Collector is a Sink that records notifications, used by tests.
type Collector struct {
	mu    sync.Mutex
	notes []Notification
}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) Notify(ctx context.Context, n Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notes = append(c.notes, n)
}

func (c *Collector) All() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Notification(nil), c.notes...)
}
