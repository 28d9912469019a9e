package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "runnerd.conf")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadValidConfig(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
# rule root
plan.rule_dir = /etc/runnerd/plans
plan.rule_log = /var/log/runnerd
host.grpc.address = 0.0.0.0:7070
hermes.enable = no
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/etc/runnerd/plans", cfg.PlanRuleDir)
	require.Equal(t, "/var/log/runnerd", cfg.PlanRuleLog)
	require.Equal(t, "0.0.0.0:7070", cfg.HostGRPCAddress)
	require.False(t, cfg.HermesEnable)
}

func TestLoadMissingFileReturnsConfigError(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "absent.conf"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "config error")
}

func TestLoadRejectsMalformedLine(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "this line has no separator\nplan.rule_dir = /x\nplan.rule_log = /y\nhost.grpc.address = 0.0.0.0:7070\n")
	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "malformed configuration line")
}

func TestLoadRequiresHermesFieldsWhenEnabled(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
plan.rule_dir = /etc/runnerd/plans
plan.rule_log = /var/log/runnerd
host.grpc.address = 0.0.0.0:7070
hermes.enable = yes
`)

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadAcceptsFullHermesTLSConfig(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
plan.rule_dir = /etc/runnerd/plans
plan.rule_log = /var/log/runnerd
host.grpc.address = 0.0.0.0:7070
hermes.enable = yes
hermes.grpc.address = hermes.internal:6380
hermes.table = runs
hermes.grpc.tls = yes
hermes.grpc.tls.ca_cert = /etc/runnerd/ca.pem
hermes.grpc.tls.domain = hermes.internal
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.True(t, cfg.HermesEnable)
	require.True(t, cfg.HermesTLS)
	require.Equal(t, "runs", cfg.HermesTable)
}

func TestLoadRejectsInvalidYesNo(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
plan.rule_dir = /etc/runnerd/plans
plan.rule_log = /var/log/runnerd
host.grpc.address = 0.0.0.0:7070
hermes.enable = maybe
`)

	_, err := Load(path)
	require.Error(t, err)
}
