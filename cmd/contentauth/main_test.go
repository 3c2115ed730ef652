package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/CliForge/contentsdk/pkg/auth"
	"github.com/CliForge/contentsdk/pkg/auth/types"
	"github.com/CliForge/contentsdk/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestInitCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	_, err := runCmd(t, "init", "--config", path, "--client-id", "my-client", "--mode", "anonymous", "--storage", "memory", "--enterprise-id", "42")
	require.NoError(t, err)

	cfg, err := config.NewLoader("", path).Load()
	require.NoError(t, err)
	assert.Equal(t, "my-client", cfg.Auth.ClientID)
	assert.Equal(t, "42", cfg.Auth.EnterpriseID)
	assert.Equal(t, auth.ModeAnonymous, cfg.Session.Mode)
	assert.Equal(t, types.StorageTypeMemory, cfg.Storage.Type)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestInitCmd_RefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("auth:\n  client_id: old\n"), 0600))

	_, err := runCmd(t, "init", "--config", path, "--client-id", "new")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = runCmd(t, "init", "--config", path, "--client-id", "new", "--force")
	require.NoError(t, err)
}

func TestInitCmd_InvalidMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	_, err := runCmd(t, "init", "--config", path, "--client-id", "c", "--mode", "magic")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session.mode")

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestTokenCmd_BasicSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
auth:
  client_id: my-client
session:
  mode: basic
  developer_token: developer-token-value
storage:
  type: memory
`), 0600))

	out, err := runCmd(t, "token", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, "developer-token-value\n", out)

	out, err = runCmd(t, "token", "--config", path, "--masked")
	require.NoError(t, err)
	assert.NotContains(t, out, "developer-token-value")
}

func TestTokenCmd_MissingConfig(t *testing.T) {
	_, err := runCmd(t, "token", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
