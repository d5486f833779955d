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

	"github.com/rs/zerolog"
)

// 🧩 Task is a unit of work the runner can execute
type Task interface {
	Execute(ctx context.Context) error
}

// 🧩 TaskFunc adapts a function to the Task interface
type TaskFunc func(ctx context.Context) error

func (f TaskFunc) Execute(ctx context.Context) error {
	return f(ctx)
}

// 🏃 Runner executes tasks either inline or on their own goroutine. Async
// failures are not returned: the task is expected to have recorded them in
// the tracker already, so the runner only logs.
type Runner struct {
	logger *zerolog.Logger
	async  bool
}

// 🏗️ NewRunner creates a new runner
func NewRunner(logger *zerolog.Logger, async bool) *Runner {
	return &Runner{
		logger: logger,
		async:  async,
	}
}

// 🏃 Run executes a task
func (r *Runner) Run(ctx context.Context, t Task) error {
	if !r.async {
		return t.Execute(ctx)
	}

	go func() {
		if err := t.Execute(ctx); err != nil {
			r.logger.Debug().Err(err).Msg("async task failed")
		}
	}()
	return nil
}
