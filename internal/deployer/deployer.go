package deployer

import (
	"context"
	"fmt"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/pk910/catdao-contracts/deploy-cli/internal/artifacts"
	"github.com/pk910/catdao-contracts/deploy-cli/internal/signer"
)

// ContractName is the contract this tool deploys.
const ContractName = "CatDAOContract"

// Backend is the chain connection deployments are submitted through.
// *ethclient.Client satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	ethereum.ChainIDReader
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// SignerProvider supplies the account that pays for the deployment.
type SignerProvider interface {
	Signer(ctx context.Context) (*signer.Signer, error)
}

// FactoryResolver looks up a compiled contract by name.
type FactoryResolver interface {
	Factory(ctx context.Context, name string) (*artifacts.Factory, error)
}

// Deployment is the outcome of a confirmed deployment.
type Deployment struct {
	Deployer common.Address
	Contract common.Address
	TxHash   common.Hash
}

// Deployer performs a single contract deployment.
type Deployer struct {
	Backend   Backend
	Signers   SignerProvider
	Factories FactoryResolver
	Out       io.Writer
	Log       logrus.FieldLogger

	// Confirm, if set, is asked before the transaction is submitted.
	// Returning an error aborts the deployment.
	Confirm func(signer common.Address, chainID *big.Int, factory *artifacts.Factory) error

	contract string
}

// Run deploys the contract once and writes the deployer and contract
// address to Out. Nothing is written unless the deployment is confirmed.
func (d *Deployer) Run(ctx context.Context) (*Deployment, error) {
	name := d.contract
	if name == "" {
		name = ContractName
	}

	account, err := d.Signers.Signer(ctx)
	if err != nil {
		return nil, err
	}
	log := d.Log.WithField("account", account.Address.Hex())
	log.Info("Deploying contracts with account")

	chainID, err := d.Backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}

	if balance, err := d.Backend.BalanceAt(ctx, account.Address, nil); err != nil {
		log.WithError(err).Debug("Failed to get account balance")
	} else {
		log.WithField("balance", balance.String()).Debug("Account balance")
	}

	factory, err := d.Factories.Factory(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get contract factory: %w", err)
	}
	log.WithField("contract", factory.FullyQualifiedName()).Debug("Resolved contract factory")

	if d.Confirm != nil {
		if err := d.Confirm(account.Address, chainID, factory); err != nil {
			return nil, err
		}
	}

	opts, err := account.TransactOpts(ctx, chainID)
	if err != nil {
		return nil, err
	}

	_, tx, _, err := bind.DeployContract(opts, factory.ABI, factory.Bytecode, d.Backend)
	if err != nil {
		return nil, fmt.Errorf("failed to deploy %s: %w", factory.Name, err)
	}
	log.WithField("txHash", tx.Hash().Hex()).Info("Transaction sent, waiting for confirmation...")

	address, err := bind.WaitDeployed(ctx, d.Backend, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to wait for deployment: %w", err)
	}

	result := &Deployment{
		Deployer: account.Address,
		Contract: address,
		TxHash:   tx.Hash(),
	}

	fmt.Fprintf(d.Out, "Deploying contracts with the account: %s\n", result.Deployer.Hex())
	fmt.Fprintf(d.Out, "CatDAO Contract Address: %s\n", result.Contract.Hex())

	return result, nil
}
