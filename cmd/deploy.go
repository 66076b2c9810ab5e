package cmd

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/spf13/cobra"

	"github.com/pk910/catdao-contracts/deploy-cli/internal/artifacts"
	"github.com/pk910/catdao-contracts/deploy-cli/internal/deployer"
	"github.com/pk910/catdao-contracts/deploy-cli/internal/signer"
)

var errDeployCancelled = errors.New("deployment cancelled")

func runDeploy(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	if cfg.CompileCommand != "" {
		if err := artifacts.Compile(ctx, cfg.ProjectRoot, cfg.CompileCommand, log); err != nil {
			return err
		}
	}

	// Connect to Ethereum
	ethClient, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("failed to connect to RPC: %w", err)
	}
	defer ethClient.Close()
	log.WithField("rpc", cfg.RPCURL).Debug("Connected to RPC endpoint")

	d := &deployer.Deployer{
		Backend:   ethClient,
		Signers:   signerSource(),
		Factories: artifacts.NewStore(cfg.ArtifactsPath(), log),
		Out:       cmd.OutOrStdout(),
		Log:       log,
	}
	if cfg.Interactive {
		d.Confirm = confirmDeployment
	}

	_, err = d.Run(ctx)
	return err
}

// signerSource builds the signer provider from the loaded settings.
func signerSource() *signer.Source {
	return &signer.Source{
		PrivateKey:   cfg.PrivateKey,
		KeystorePath: cfg.KeystorePath,
		Password: func() (string, error) {
			if cfg.KeystorePassword != "" || !cfg.Interactive {
				return cfg.KeystorePassword, nil
			}
			return promptPassword("Keystore password")
		},
	}
}

func confirmDeployment(from common.Address, chainID *big.Int, factory *artifacts.Factory) error {
	label := fmt.Sprintf("Deploy %s from %s on chain %s", factory.FullyQualifiedName(), from.Hex(), chainID.String())
	ok, err := promptConfirm(label)
	if err != nil {
		return err
	}
	if !ok {
		return errDeployCancelled
	}
	return nil
}
