package cmd

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pk910/catdao-contracts/deploy-cli/internal/config"
)

var (
	log = logrus.New()

	// Parsed settings (set during PreRun)
	cfg *config.Config
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "catdao-deploy",
		Short: "Deploy the CatDAO contract",
		Long: `Deploys the CatDAOContract from the project's compilation artifacts.

The signing account, RPC endpoint and artifact location are taken from flags,
environment variables or a .env file in the project root. On success the
deploying account and the new contract address are printed to stdout.

Hardhat (artifacts/) and Foundry (out/) artifact layouts are supported.`,
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		PersistentPreRunE: persistentPreRun,
		RunE:              runDeploy,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringP(config.KeyRPC, "r", "", "Ethereum RPC endpoint URL (env ETH_RPC_URL)")
	flags.StringP(config.KeyPrivateKey, "k", "", "Private key for signing the deployment (hex format, env PRIVATE_KEY)")
	flags.String(config.KeyKeystore, "", "Encrypted JSON keystore file to sign with (env KEYSTORE_FILE)")
	flags.String(config.KeyKeystorePassword, "", "Keystore password (env KEYSTORE_PASSWORD)")
	flags.StringP(config.KeyProject, "p", ".", "Project root containing .env and the artifacts directory (env PROJECT_ROOT)")
	flags.String(config.KeyArtifacts, "artifacts", "Artifacts directory relative to the project root (env ARTIFACTS_DIR)")
	flags.String(config.KeyCompile, "", "Command compiling the contracts before deployment, e.g. \"npx hardhat compile\" (env COMPILE_COMMAND)")
	flags.Duration(config.KeyTimeout, 0, "Give up after this duration, 0 waits indefinitely (env DEPLOY_TIMEOUT)")
	flags.BoolP(config.KeyInteractive, "i", false, "Prompt for missing required values and confirm before deploying")
	flags.BoolP(config.KeyVerbose, "v", false, "Enable verbose logging")
	flags.Bool(config.KeyNoColor, false, "Disable colored output")

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func persistentPreRun(cmd *cobra.Command, args []string) error {
	v, err := config.NewViper(cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}

	// Configure logging
	verbose := v.GetBool(config.KeyVerbose)
	noColor := v.GetBool(config.KeyNoColor)
	if noColor {
		disableColors()
	}
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}
	log.SetOutput(cmd.ErrOrStderr())
	log.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		DisableColors:    noColor,
	})

	// .env values only fill variables that are not set yet
	config.LoadDotEnv(v.GetString(config.KeyProject), log)

	cfg, err = config.Load(v)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if cfg.Interactive {
		if err := promptMissing(cfg); err != nil {
			return err
		}
	}

	return nil
}

// promptMissing asks for the RPC endpoint and signer key when they are not configured.
func promptMissing(cfg *config.Config) error {
	var err error

	if cfg.RPCURL == "" {
		cfg.RPCURL, err = promptText("RPC endpoint URL", "", func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("RPC URL cannot be empty")
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to read RPC URL: %w", err)
		}
	}

	if cfg.PrivateKey == "" && cfg.KeystorePath == "" {
		cfg.PrivateKey, err = promptPrivateKey("Private key (hex)")
		if err != nil {
			return fmt.Errorf("failed to read private key: %w", err)
		}
	}

	return nil
}
