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
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/blinklabs-io/deedbridge/internal/config"
	"github.com/blinklabs-io/deedbridge/internal/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootPrintsEffectiveConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deedbridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`config:
  apiListenAddress: ":9090"
  oracleAsset: XBTC
  runMode: dev
  votingPeriod: 72h
`), 0o600))

	out, err := runRoot(t, "--config", path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "# "+programName+" "))
	assert.Contains(t, out, "run mode dev")

	var printed struct {
		Config config.Config `yaml:"config"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &printed))
	assert.Equal(t, ":9090", printed.Config.ApiListenAddress)
	assert.Equal(t, "XBTC", printed.Config.OracleAsset)
	assert.Equal(t, config.RunModeDev, printed.Config.RunMode)
	assert.Equal(t, "72h", printed.Config.VotingPeriod)
	// Unset keys keep their defaults
	assert.Equal(t, config.DefaultStalenessWindow, printed.Config.StalenessWindow)

	// The printed form loads back as a config file
	saved := filepath.Join(dir, "saved.yaml")
	require.NoError(t, os.WriteFile(saved, []byte(out), 0o600))
	cfg, err := config.LoadConfig(saved)
	require.NoError(t, err)
	assert.Equal(t, printed.Config, *cfg)
}

func TestRootRejectsArgs(t *testing.T) {
	_, err := runRoot(t, "bogus")
	require.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := runRoot(t, "version")
	require.NoError(t, err)
	assert.Equal(t, programName+" "+version.GetVersionString()+"\n", out)
}

func TestNewLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	var buf bytes.Buffer
	logger := newLogger(&buf, false)
	logger.Debug("hidden")
	logger.Info("shown", "component", programName)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	buf.Reset()
	logger = newLogger(&buf, true)
	logger.Debug("visible")
	assert.Contains(t, buf.String(), `"msg":"visible"`)
	assert.Contains(t, buf.String(), `"source"`)
}
