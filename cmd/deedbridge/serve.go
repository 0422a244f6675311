// Copyright 2026 Blink Labs Software
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
	"errors"
	"fmt"
	"os"

	"github.com/blinklabs-io/deedbridge/internal/config"
	"github.com/blinklabs-io/deedbridge/internal/node"
	"github.com/blinklabs-io/deedbridge/internal/version"
	"github.com/spf13/cobra"
)

func serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the engine and its HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.FromContext(cmd.Context())
			if cfg == nil {
				return errors.New("no config found in context")
			}
			if dev, _ := cmd.Flags().GetBool("dev"); dev {
				cfg.RunMode = config.RunModeDev
			}
			debug, _ := cmd.Flags().GetBool("debug")
			logger := newLogger(os.Stdout, debug)
			if err := tuneRuntime(logger); err != nil {
				return fmt.Errorf("failed to set GOMAXPROCS: %w", err)
			}
			logger.Info(
				"starting",
				"component", programName,
				"version", version.GetVersionString(),
				"run_mode", string(cfg.RunMode),
			)
			if err := node.Run(cfg, logger); err != nil {
				logger.Error(err.Error(), "component", programName)
				return err
			}
			return nil
		},
	}
	cmd.Flags().Bool("dev", false, "run an in-process relayer against an in-memory secondary ledger")
	return cmd
}
