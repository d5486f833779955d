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

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/ferry/pkg/engine"
	"github.com/walteh/ferry/pkg/log"
	"github.com/walteh/ferry/pkg/operation"
)

// splitSources resolves source paths to one shared directory plus entry
// names. Transfers run per directory, so mixed-directory selections are
// rejected up front.
func splitSources(paths []string) (string, []string, error) {
	var dir string
	names := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return "", nil, errors.Errorf("resolving %q: %w", p, err)
		}
		abs = filepath.ToSlash(abs)
		d := filepath.ToSlash(filepath.Dir(abs))
		if dir == "" {
			dir = d
		} else if d != dir {
			return "", nil, errors.New("all sources must be in the same directory")
		}
		names = append(names, filepath.Base(abs))
	}
	return dir, names, nil
}

func absSlash(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", errors.Errorf("resolving %q: %w", p, err)
	}
	return filepath.ToSlash(abs), nil
}

// newConsoleLogger creates the user-facing console logger
func newConsoleLogger() *log.Logger {
	level := zerolog.WarnLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return log.New(os.Stdout, level)
}

// reportOperation prints the terminal state of a tracked operation
func reportOperation(ui *log.Logger, eng *engine.Engine, id string, names []string) error {
	op, ok := eng.Operation(id)
	if !ok {
		return errors.Errorf("operation %s not found", id)
	}

	// Entries past the failure were never attempted and are not reported
	for i, name := range names {
		failed := op.Status == operation.StatusError && i == op.ProcessedItems
		if i > op.ProcessedItems || (i == op.ProcessedItems && !failed) {
			break
		}
		ui.LogFileEvent(context.Background(), log.FileEvent{
			Name:      name,
			Kind:      string(op.Kind),
			IsRemoved: op.Kind == operation.KindDelete && !failed,
			Failed:    failed,
		})
	}

	if op.Status == operation.StatusError {
		return errors.Errorf("%s failed: %s", op.Kind, op.Error)
	}
	ui.Successf("%s: %d item(s)", op.Kind, op.ProcessedItems)
	return nil
}

// runTransfer stages src entries on the clipboard and pastes them into dst
func runTransfer(ctx context.Context, cut bool, args []string) error {
	eng, err := newEngine(ctx)
	if err != nil {
		return err
	}
	defer eng.Close()

	srcDir, names, err := splitSources(args[:len(args)-1])
	if err != nil {
		return err
	}
	dstDir, err := absSlash(args[len(args)-1])
	if err != nil {
		return err
	}

	if cut {
		err = eng.Cut(ctx, srcDir, names)
	} else {
		err = eng.Copy(ctx, srcDir, names)
	}
	if err != nil {
		return err
	}

	id, err := eng.Paste(ctx, dstDir)
	if err != nil {
		return err
	}
	return reportOperation(newConsoleLogger(), eng, id, names)
}

// newCopyCmd creates the copy command
func newCopyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "copy SOURCE... DEST",
		Short: "Copy files or directories into DEST",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransfer(cmd.Context(), false, args)
		},
	}
}

// newMoveCmd creates the move command
func newMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move SOURCE... DEST",
		Short: "Move files or directories into DEST",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransfer(cmd.Context(), true, args)
		},
	}
}

// newDeleteCmd creates the delete command
func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete PATH...",
		Short: "Delete files or directories",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eng, err := newEngine(ctx)
			if err != nil {
				return err
			}
			defer eng.Close()

			dir, names, err := splitSources(args)
			if err != nil {
				return err
			}
			id, err := eng.Delete(ctx, dir, names)
			if err != nil {
				return err
			}
			return reportOperation(newConsoleLogger(), eng, id, names)
		},
	}
}

// newMkdirCmd creates the mkdir command
func newMkdirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir PATH",
		Short: "Create a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eng, err := newEngine(ctx)
			if err != nil {
				return err
			}
			defer eng.Close()

			abs, err := absSlash(args[0])
			if err != nil {
				return err
			}
			return eng.CreateDir(ctx, filepath.ToSlash(filepath.Dir(abs)), filepath.Base(abs))
		},
	}
}

// newTouchCmd creates the touch command
func newTouchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "touch PATH",
		Short: "Create an empty file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eng, err := newEngine(ctx)
			if err != nil {
				return err
			}
			defer eng.Close()

			abs, err := absSlash(args[0])
			if err != nil {
				return err
			}
			return eng.CreateFile(ctx, filepath.ToSlash(filepath.Dir(abs)), filepath.Base(abs))
		},
	}
}

// newRenameCmd creates the rename command
func newRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename PATH NEWNAME",
		Short: "Rename an entry in place",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eng, err := newEngine(ctx)
			if err != nil {
				return err
			}
			defer eng.Close()

			abs, err := absSlash(args[0])
			if err != nil {
				return err
			}
			return eng.Rename(ctx, filepath.ToSlash(filepath.Dir(abs)), filepath.Base(abs), args[1])
		},
	}
}

// newSearchCmd creates the search command
func newSearchCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "search DIR QUERY",
		Short: "Search for entries by name under DIR",
		Long: `Search matches entry names case-insensitively. A query containing
glob meta characters (*, ?, [, {) is matched as a glob pattern instead.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eng, err := newEngine(ctx)
			if err != nil {
				return err
			}
			defer eng.Close()

			dir, err := absSlash(args[0])
			if err != nil {
				return err
			}

			eng.Search(ctx, dir, args[1])

			// The request gets an id once the debounce window elapses;
			// after that, wait for the stream to finish.
			deadline := time.Now().Add(timeout)
			for time.Now().Before(deadline) && eng.SearchRequestID() == 0 {
				time.Sleep(25 * time.Millisecond)
			}
			for time.Now().Before(deadline) && eng.SearchState().IsSearching {
				time.Sleep(25 * time.Millisecond)
			}

			state := eng.SearchState()
			for _, r := range state.Results {
				marker := "f"
				if !r.IsFile {
					marker = "d"
				}
				fmt.Printf("%s %s\n", marker, r.Path)
			}
			fmt.Printf("%d match(es)", state.TotalMatches)
			if state.HasMore {
				fmt.Printf(" (truncated)")
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "maximum time to wait for results")
	return cmd
}
