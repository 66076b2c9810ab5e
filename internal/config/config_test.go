package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.StringP(KeyRPC, "r", "", "")
	flags.StringP(KeyPrivateKey, "k", "", "")
	flags.String(KeyKeystore, "", "")
	flags.String(KeyKeystorePassword, "", "")
	flags.StringP(KeyProject, "p", ".", "")
	flags.String(KeyArtifacts, "artifacts", "")
	flags.String(KeyCompile, "", "")
	flags.Duration(KeyTimeout, 0, "")
	flags.BoolP(KeyInteractive, "i", false, "")
	flags.BoolP(KeyVerbose, "v", false, "")
	flags.Bool(KeyNoColor, false, "")
	return flags
}

func clearEnv(t *testing.T) {
	for _, env := range envNames {
		t.Setenv(env, "")
		os.Unsetenv(env)
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("ETH_RPC_URL", "http://127.0.0.1:8545")
	t.Setenv("PRIVATE_KEY", " 0xabc ")
	t.Setenv("DEPLOY_TIMEOUT", "90s")
	t.Setenv("COMPILE_COMMAND", "npx hardhat compile")

	v, err := NewViper(newFlags())
	require.NoError(t, err)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8545", cfg.RPCURL)
	assert.Equal(t, "0xabc", cfg.PrivateKey)
	assert.Equal(t, 90*time.Second, cfg.Timeout)
	assert.Equal(t, "npx hardhat compile", cfg.CompileCommand)
	assert.Equal(t, ".", cfg.ProjectRoot)
	assert.Equal(t, "artifacts", cfg.ArtifactsDir)
	assert.NoError(t, cfg.Validate())
}

func TestFlagsOverrideEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("ETH_RPC_URL", "http://env:8545")
	t.Setenv("ARTIFACTS_DIR", "out")

	flags := newFlags()
	require.NoError(t, flags.Parse([]string{"-r", "http://flag:8545", "--timeout", "2m", "-v", "--keystore", "key.json"}))

	v, err := NewViper(flags)
	require.NoError(t, err)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "http://flag:8545", cfg.RPCURL)
	assert.Equal(t, "out", cfg.ArtifactsDir)
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "key.json", cfg.KeystorePath)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	assert.ErrorContains(t, cfg.Validate(), "RPC endpoint is required")

	cfg.RPCURL = "http://localhost:8545"
	assert.ErrorContains(t, cfg.Validate(), "private key is required")

	cfg.Interactive = true
	assert.NoError(t, cfg.Validate())
}

func TestInvalidTimeout(t *testing.T) {
	clearEnv(t)
	t.Setenv("DEPLOY_TIMEOUT", "soon")

	v, err := NewViper(newFlags())
	require.NoError(t, err)

	_, err = Load(v)
	assert.ErrorContains(t, err, "invalid timeout")
}

func TestArtifactsPath(t *testing.T) {
	cfg := &Config{ProjectRoot: "/work/catdao", ArtifactsDir: "artifacts"}
	assert.Equal(t, filepath.Join("/work/catdao", "artifacts"), cfg.ArtifactsPath())

	cfg.ArtifactsDir = "/tmp/out"
	assert.Equal(t, "/tmp/out", cfg.ArtifactsPath())
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("ETH_RPC_URL=http://dotenv:8545\nPRIVATE_KEY=0x01\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.local"), []byte("KEYSTORE_FILE=local.json\n"), 0o644))
	t.Setenv("PRIVATE_KEY", "0x02")

	log, _ := test.NewNullLogger()
	LoadDotEnv(dir, log)
	t.Cleanup(func() {
		os.Unsetenv("ETH_RPC_URL")
		os.Unsetenv("KEYSTORE_FILE")
	})

	v, err := NewViper(newFlags())
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "http://dotenv:8545", cfg.RPCURL)
	assert.Equal(t, "0x02", cfg.PrivateKey, "existing env vars are not overridden")
	assert.Equal(t, "local.json", cfg.KeystorePath)
}
