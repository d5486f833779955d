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

// Package config loads engine settings from .ferry configuration files.
// JSON, YAML and HCL are supported, selected by file extension.
package config

import (
	"context"
	"time"

	"gitlab.com/tozd/go/errors"
)

// 🔧 Settings tunes the transfer and search engine
type Settings struct {
	// DebounceMs is how long search input must stay quiet before a
	// request is issued, in milliseconds.
	DebounceMs int `json:"debounce_ms" yaml:"debounce_ms" hcl:"debounce_ms,optional"`

	// NotifyDismissMs is how long a notification stays active, in
	// milliseconds.
	NotifyDismissMs int `json:"notify_dismiss_ms" yaml:"notify_dismiss_ms" hcl:"notify_dismiss_ms,optional"`

	// RenameLimit bounds how many alternative names conflict resolution
	// tries before giving up.
	RenameLimit int `json:"rename_limit" yaml:"rename_limit" hcl:"rename_limit,optional"`

	// SearchBatchSize is how many search results accumulate before a flush.
	SearchBatchSize int `json:"search_batch_size" yaml:"search_batch_size" hcl:"search_batch_size,optional"`

	// SearchResultCap bounds how many results one search request emits.
	SearchResultCap int `json:"search_result_cap" yaml:"search_result_cap" hcl:"search_result_cap,optional"`

	// FollowSymlinks controls whether the search walk follows symlinks.
	FollowSymlinks bool `json:"follow_symlinks" yaml:"follow_symlinks" hcl:"follow_symlinks,optional"`
}

// 🏭 Default returns the settings used when no config file is present
func Default() *Settings {
	return &Settings{
		DebounceMs:      300,
		NotifyDismissMs: 3000,
		RenameLimit:     1000,
		SearchBatchSize: 20,
		SearchResultCap: 100,
		FollowSymlinks:  true,
	}
}

// Debounce returns the debounce window as a duration.
func (s *Settings) Debounce() time.Duration {
	return time.Duration(s.DebounceMs) * time.Millisecond
}

// NotifyDismiss returns the notification lifetime as a duration.
func (s *Settings) NotifyDismiss() time.Duration {
	return time.Duration(s.NotifyDismissMs) * time.Millisecond
}

// ✅ Validate checks the settings make sense
func Validate(ctx context.Context, s *Settings) error {
	if s.DebounceMs < 0 {
		return errors.Errorf("debounce_ms must not be negative, got %d", s.DebounceMs)
	}
	if s.NotifyDismissMs < 0 {
		return errors.Errorf("notify_dismiss_ms must not be negative, got %d", s.NotifyDismissMs)
	}
	if s.RenameLimit < 1 {
		return errors.Errorf("rename_limit must be at least 1, got %d", s.RenameLimit)
	}
	if s.SearchBatchSize < 1 {
		return errors.Errorf("search_batch_size must be at least 1, got %d", s.SearchBatchSize)
	}
	if s.SearchResultCap < 1 {
		return errors.Errorf("search_result_cap must be at least 1, got %d", s.SearchResultCap)
	}
	return nil
}
