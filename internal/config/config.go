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

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "deedbridge.config"

const (
	DefaultShutdownTimeout  = "30s"
	DefaultStalenessWindow  = "1h"
	DefaultMaxPriceMovement = "0.5"
	DefaultRetryCooldown    = "5m"
	DefaultVotingPeriod     = "168h"
	DefaultOracleAsset      = "SBTC"
	// envPrefix is prepended to every environment variable name
	envPrefix = "deedbridge"
)

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

// RunMode represents the operational mode of the engine
type RunMode string

const (
	RunModeServe RunMode = "serve" // Serve the API against an external relayer (default)
	RunModeDev   RunMode = "dev"   // In-process relayer and secondary ledger
)

// Valid returns true if the RunMode is a known valid mode
func (m RunMode) Valid() bool {
	switch m {
	case RunModeServe, RunModeDev, "":
		return true
	default:
		return false
	}
}

// tempConfig allows the settings to be nested under a top-level "config" key
type tempConfig struct {
	Config *yaml.Node `yaml:"config,omitempty"`
}

type Config struct {
	DatabasePath              string  `yaml:"databasePath"              split_words:"true"`
	BindAddr                  string  `yaml:"bindAddr"                  split_words:"true"`
	MetricsPort               uint    `yaml:"metricsPort"               split_words:"true"`
	ApiListenAddress          string  `yaml:"apiListenAddress"          split_words:"true"`
	PlatformAddress           string  `yaml:"platformAddress"           split_words:"true"`
	RelayerAddress            string  `yaml:"relayerAddress"            split_words:"true"`
	OracleAddress             string  `yaml:"oracleAddress"             split_words:"true"`
	OracleAsset               string  `yaml:"oracleAsset"               split_words:"true"`
	StalenessWindow           string  `yaml:"stalenessWindow"           split_words:"true"`
	MaxPriceMovement          string  `yaml:"maxPriceMovement"          split_words:"true"`
	RetryCooldown             string  `yaml:"retryCooldown"             split_words:"true"`
	RefreshInitiatedAtOnRetry bool    `yaml:"refreshInitiatedAtOnRetry" split_words:"true"`
	VotingPeriod              string  `yaml:"votingPeriod"              split_words:"true"`
	ForeignAssetDecimals      int32   `yaml:"foreignAssetDecimals"      split_words:"true"`
	RunMode                   RunMode `yaml:"runMode"                   split_words:"true"`
	ShutdownTimeout           string  `yaml:"shutdownTimeout"           split_words:"true"`
	Tracing                   bool    `yaml:"tracing"`
	TracingStdout             bool    `yaml:"tracingStdout"             split_words:"true"`
}

func defaultConfig() *Config {
	return &Config{
		DatabasePath:         ".deedbridge",
		BindAddr:             "0.0.0.0",
		MetricsPort:          12799,
		ApiListenAddress:     ":8080",
		OracleAsset:          DefaultOracleAsset,
		StalenessWindow:      DefaultStalenessWindow,
		MaxPriceMovement:     DefaultMaxPriceMovement,
		RetryCooldown:        DefaultRetryCooldown,
		VotingPeriod:         DefaultVotingPeriod,
		ForeignAssetDecimals: 8,
		RunMode:              RunModeServe,
		ShutdownTimeout:      DefaultShutdownTimeout,
	}
}

var globalConfig = defaultConfig()

func LoadConfig(configFile string) (*Config, error) {
	// Load config file as YAML if provided
	if configFile == "" {
		// Check for config file in this path: ~/.deedbridge/deedbridge.yaml
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".deedbridge", "deedbridge.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}

		// Try to check for /etc/deedbridge/deedbridge.yaml if still not found
		if configFile == "" {
			systemPath := "/etc/deedbridge/deedbridge.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				configFile = systemPath
			}
		}
	}

	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		var tempCfg tempConfig
		if err := yaml.Unmarshal(buf, &tempCfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
		if tempCfg.Config != nil {
			// Overlay config values onto existing defaults
			if err := tempCfg.Config.Decode(globalConfig); err != nil {
				return nil, fmt.Errorf("error parsing config section: %w", err)
			}
		} else {
			if err := yaml.Unmarshal(buf, globalConfig); err != nil {
				return nil, fmt.Errorf("error parsing config file: %w", err)
			}
		}
	}
	// Process environment variables
	if err := envconfig.Process(envPrefix, globalConfig); err != nil {
		return nil, fmt.Errorf("error processing environment: %+w", err)
	}

	// Validate and default RunMode
	if !globalConfig.RunMode.Valid() {
		return nil, fmt.Errorf(
			"invalid runMode: %q (must be 'serve' or 'dev')",
			globalConfig.RunMode,
		)
	}
	if globalConfig.RunMode == "" {
		globalConfig.RunMode = RunModeServe
	}
	return globalConfig, nil
}

func GetConfig() *Config {
	return globalConfig
}
