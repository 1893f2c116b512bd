package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/accounts/abi"
	cli "github.com/jawher/mow.cli"
	log "github.com/xlab/suplog"

	"github.com/InjectiveLabs/contract-deployer/deployer"
)

func onDeploy(cmd *cli.Cmd) {
	contractArgs := cmd.StringsArg("ARGS", []string{}, "Contract constructor's arguments. Will be ABI-encoded.")

	cmd.Spec = "[ARGS...]"

	cmd.Action = func() {
		provider, err := initWalletProvider()
		if err != nil {
			log.WithError(err).Fatalln("failed to init wallet provider")
		}

		sender, err := fromAddress()
		if err != nil {
			log.Fatalln(err)
		}

		gasPriceValue, err := parseGasPrice(*gasPrice)
		if err != nil {
			log.Fatalln(err)
		}

		opts := append(compilerOptions(),
			deployer.OptionRPCTimeout(duration(*rpcTimeout, defaultRPCTimeout)),
			deployer.OptionTxTimeout(duration(*txTimeout, defaultTxTimeout)),
			deployer.OptionEVMRPCEndpoint(*evmEndpoint),
			deployer.OptionGasPrice(gasPriceValue),
			deployer.OptionGasLimit(uint64(*gasLimit)),
			deployer.OptionRecordsFile(*recordsFile),
			deployer.OptionNetworkRetries(uint(*networkRetries), defaultNetworkRetryDelay),
			deployer.OptionWallet(provider),
		)

		d, err := deployer.New(opts...)
		if err != nil {
			log.WithError(err).Fatalln("failed to init deployer")
		}

		args := *contractArgs
		if len(args) == 0 {
			args = configArgs
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		result, err := d.Deploy(
			ctx,
			deployer.ContractDeployOpts{
				From:         sender,
				SolSource:    *solSource,
				ContractName: *contractName,
			},
			func(inputs abi.Arguments) ([]interface{}, error) {
				return mapStringArgs(inputs, args)
			},
		)
		if err != nil {
			log.Fatalln(err)
		}

		fmt.Println(result.ContractAddress.Hex())
	}
}
