package deployer

import (
	"bytes"
	"context"

	"github.com/avast/retry-go/v4"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	log "github.com/xlab/suplog"

	"github.com/InjectiveLabs/contract-deployer/sol"
)

type ContractDeployOpts struct {
	// From selects one of the managed accounts, zero address means the first one.
	From         common.Address
	SolSource    string
	ContractName string
}

// AbiMethodInputMapperFunc maps user input onto the constructor arguments.
type AbiMethodInputMapperFunc func(args abi.Arguments) ([]interface{}, error)

func (d *deployer) Deploy(
	ctx context.Context,
	deployOpts ContractDeployOpts,
	constructorInputMapper AbiMethodInputMapperFunc,
) (*DeploymentResult, error) {
	r := d.newRun(deployOpts.ContractName)

	contract, err := d.compile(r, deployOpts.SolSource, deployOpts.ContractName)
	if err != nil {
		return nil, err
	}

	if err := r.enter(StageAccountResolving); err != nil {
		return nil, r.fail(newError(ErrUnexpected, err))
	}

	network, err := d.Network()
	if err != nil {
		if errors.Is(err, ErrNoWallet) {
			return nil, r.fail(newError(ErrNoAccount, err))
		}

		return nil, r.fail(classifyError(err, ErrNetwork))
	}

	from, err := d.resolveSender(ctx, network, deployOpts.From)
	if err != nil {
		r.logger.WithError(err).Errorln("failed to resolve signing account")
		return nil, r.fail(err)
	}

	r.logger.WithField("from", from.Hex()).Infoln("attempting to deploy from account")

	if err := r.enter(StageSubmitting); err != nil {
		return nil, r.fail(newError(ErrUnexpected, err))
	}

	constructorArgs, err := mapConstructorArgs(contract, constructorInputMapper)
	if err != nil {
		return nil, r.fail(newError(ErrSubmission, err))
	}

	txCtx, cancelFn := context.WithTimeout(ctx, d.options.TxTimeout)
	defer cancelFn()

	result, err := network.DeployContract(txCtx, DeployRequest{
		Contract:        contract,
		ConstructorArgs: constructorArgs,
		GasLimit:        d.options.GasLimit,
		From:            from,
		OnSubmit: func(txHash common.Hash) {
			r.logger.WithField("txHash", txHash.Hex()).Infoln("awaiting contract deployment")
			if err := r.enter(StageConfirming); err != nil {
				r.logger.WithError(err).Warningln("unexpected submission notice")
			}
		},
	})
	if err != nil {
		r.logger.WithError(err).Errorln("failed to deploy contract")
		return nil, r.fail(classifyError(err, ErrUnexpected))
	} else if result == nil {
		return nil, r.fail(newError(ErrUnexpected, errors.New("network returned no deployment result")))
	}

	if r.stage == StageSubmitting {
		// the network confirmed without a separate submission notice
		if err := r.enter(StageConfirming); err != nil {
			return nil, r.fail(newError(ErrUnexpected, err))
		}
	}

	if len(result.ContractName) == 0 {
		result.ContractName = contract.Name
	}

	if err := r.enter(StageDeployed); err != nil {
		return nil, r.fail(newError(ErrUnexpected, err))
	}

	r.logger.WithFields(log.Fields{
		"address": result.ContractAddress.Hex(),
		"txHash":  result.TxHash.Hex(),
	}).Infoln("contract deployed")

	if len(d.options.RecordsFile) > 0 {
		if err := NewRecordStore(d.options.RecordsFile).Append(NewDeploymentRecord(result)); err != nil {
			r.logger.WithError(err).Warningln("failed to record deployment")
		}
	}

	return result, nil
}

// resolveSender lists the managed accounts, retrying network failures only,
// and picks the sender.
func (d *deployer) resolveSender(ctx context.Context, network Network, from common.Address) (common.Address, error) {
	accounts, err := retry.DoWithData(
		func() ([]common.Address, error) {
			accounts, err := network.ListAccounts(ctx)
			if err != nil {
				return nil, classifyError(err, ErrNoAccount)
			}

			return accounts, nil
		},
		retry.Context(ctx),
		retry.Attempts(d.options.NetworkRetries),
		retry.Delay(d.options.NetworkRetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, ErrNetwork)
		}),
		retry.OnRetry(func(n uint, err error) {
			log.WithField("attempt", n+1).WithError(err).Warningln("failed to list accounts, retrying")
		}),
	)
	if err != nil {
		return common.Address{}, classifyError(err, ErrNoAccount)
	}

	if len(accounts) == 0 {
		return common.Address{}, newError(ErrNoAccount, errors.New("wallet provider returned no accounts"))
	} else if from == (common.Address{}) {
		return accounts[0], nil
	}

	for _, account := range accounts {
		if bytes.Equal(account.Bytes(), from.Bytes()) {
			return account, nil
		}
	}

	err = errors.Errorf("account %s is not managed by the wallet provider", from.Hex())
	return common.Address{}, newError(ErrNoAccount, err)
}

func mapConstructorArgs(contract *sol.Contract, mapper AbiMethodInputMapperFunc) ([]interface{}, error) {
	parsedABI, err := abi.JSON(bytes.NewReader(contract.ABI))
	if err != nil {
		err = errors.Wrapf(err, "failed to parse ABI of %s", contract.Name)
		return nil, err
	}

	inputs := parsedABI.Constructor.Inputs
	if mapper == nil {
		if len(inputs) > 0 {
			return nil, errors.Errorf("constructor of %s expects %d arguments, none provided", contract.Name, len(inputs))
		}

		return nil, nil
	}

	args, err := mapper(inputs)
	if err != nil {
		err = errors.Wrap(err, "failed to map constructor arguments")
		return nil, err
	} else if len(args) != len(inputs) {
		return nil, errors.Errorf("constructor of %s expects %d arguments, got %d", contract.Name, len(inputs), len(args))
	}

	return args, nil
}
