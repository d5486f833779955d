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
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/ferry/pkg/config"
	"github.com/walteh/ferry/pkg/engine"
	"github.com/walteh/ferry/pkg/notify"
	"github.com/walteh/ferry/pkg/storage"
)

var (
	// Flags
	configFile string
	debug      bool
)

// newRootCmd creates the ferry root command
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ferry",
		Short:         "File transfer and search from the command line",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging()
		},
	}

	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", ".ferry.hcl", "config file path")
	cmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")

	cmd.AddCommand(
		newCopyCmd(),
		newMoveCmd(),
		newDeleteCmd(),
		newMkdirCmd(),
		newTouchCmd(),
		newRenameCmd(),
		newSearchCmd(),
	)

	return cmd
}

// setupLogging configures zerolog based on flags
func setupLogging() {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &log
}

// newEngine builds an engine over the host filesystem
func newEngine(ctx context.Context) (*engine.Engine, error) {
	settings := config.Default()
	if _, err := os.Stat(configFile); err == nil {
		loaded, err := config.Load(ctx, configFile)
		if err != nil {
			return nil, errors.Errorf("loading config: %w", err)
		}
		settings = loaded
	}

	return engine.New(engine.Options{
		Provider: storage.NewOS("/"),
		Text:     newSystemText(),
		Sink:     notify.NewConsoleSink(),
		Settings: settings,
	})
}
