package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Setting keys. They match the command line flag names.
const (
	KeyRPC              = "rpc"
	KeyPrivateKey       = "private-key"
	KeyKeystore         = "keystore"
	KeyKeystorePassword = "keystore-password"
	KeyProject          = "project"
	KeyArtifacts        = "artifacts"
	KeyCompile          = "compile"
	KeyTimeout          = "timeout"
	KeyInteractive      = "interactive"
	KeyVerbose          = "verbose"
	KeyNoColor          = "no-color"
)

// envNames maps setting keys to the environment variables they are read from.
var envNames = map[string]string{
	KeyRPC:              "ETH_RPC_URL",
	KeyPrivateKey:       "PRIVATE_KEY",
	KeyKeystore:         "KEYSTORE_FILE",
	KeyKeystorePassword: "KEYSTORE_PASSWORD",
	KeyProject:          "PROJECT_ROOT",
	KeyArtifacts:        "ARTIFACTS_DIR",
	KeyCompile:          "COMPILE_COMMAND",
	KeyTimeout:          "DEPLOY_TIMEOUT",
}

// Config holds the runtime settings of a deployment.
type Config struct {
	RPCURL           string
	PrivateKey       string
	KeystorePath     string
	KeystorePassword string
	ProjectRoot      string
	ArtifactsDir     string
	CompileCommand   string
	Timeout          time.Duration
	Interactive      bool
	Verbose          bool
	NoColor          bool
}

// NewViper binds the given flags and their environment variables.
// Flags set on the command line take precedence over the environment.
func NewViper(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()

	v.SetDefault(KeyProject, ".")
	v.SetDefault(KeyArtifacts, "artifacts")

	for key, env := range envNames {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}

	var bindErr error
	flags.VisitAll(func(f *pflag.Flag) {
		if err := v.BindPFlag(f.Name, f); err != nil {
			bindErr = errors.Join(bindErr, err)
		}
	})
	if bindErr != nil {
		return nil, bindErr
	}

	return v, nil
}

// LoadDotEnv loads .env and .env.local from the project root. Variables that
// are already set in the environment are kept.
func LoadDotEnv(projectRoot string, log logrus.FieldLogger) {
	for _, name := range []string{".env", ".env.local"} {
		envFile := filepath.Join(projectRoot, name)
		if _, err := os.Stat(envFile); err != nil {
			continue
		}
		if err := godotenv.Load(envFile); err != nil {
			log.WithError(err).WithField("file", envFile).Warn("Failed to load env file")
			continue
		}
		log.WithField("file", envFile).Debug("Loaded env file")
	}
}

// Load reads the settings from v.
func Load(v *viper.Viper) (*Config, error) {
	timeout, err := parseTimeout(v.GetString(KeyTimeout))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		RPCURL:           strings.TrimSpace(v.GetString(KeyRPC)),
		PrivateKey:       strings.TrimSpace(v.GetString(KeyPrivateKey)),
		KeystorePath:     v.GetString(KeyKeystore),
		KeystorePassword: v.GetString(KeyKeystorePassword),
		ProjectRoot:      v.GetString(KeyProject),
		ArtifactsDir:     v.GetString(KeyArtifacts),
		CompileCommand:   strings.TrimSpace(v.GetString(KeyCompile)),
		Timeout:          timeout,
		Interactive:      v.GetBool(KeyInteractive),
		Verbose:          v.GetBool(KeyVerbose),
		NoColor:          v.GetBool(KeyNoColor),
	}
	if cfg.ProjectRoot == "" {
		cfg.ProjectRoot = "."
	}
	if cfg.ArtifactsDir == "" {
		cfg.ArtifactsDir = "artifacts"
	}
	return cfg, nil
}

func parseTimeout(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid timeout %q: must not be negative", s)
	}
	return d, nil
}

// ArtifactsPath returns the artifacts directory, resolved against the project root.
func (c *Config) ArtifactsPath() string {
	if filepath.IsAbs(c.ArtifactsDir) {
		return c.ArtifactsDir
	}
	return filepath.Join(c.ProjectRoot, c.ArtifactsDir)
}

// Validate checks that every required setting is present. In interactive
// mode missing values are prompted for instead.
func (c *Config) Validate() error {
	if c.Interactive {
		return nil
	}
	if c.RPCURL == "" {
		return fmt.Errorf("RPC endpoint is required (use --rpc, -r, or ETH_RPC_URL env var)")
	}
	if c.PrivateKey == "" && c.KeystorePath == "" {
		return fmt.Errorf("private key is required (use --private-key, -k, --keystore, or PRIVATE_KEY env var)")
	}
	return nil
}
