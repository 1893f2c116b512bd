package main

import (
	"context"
	"fmt"

	cli "github.com/jawher/mow.cli"
	log "github.com/xlab/suplog"

	"github.com/InjectiveLabs/contract-deployer/deployer"
	"github.com/InjectiveLabs/contract-deployer/sol"
)

func onBuild(cmd *cli.Cmd) {
	standardJSON := cmd.BoolOpt("j standard-json", false, "Output standard JSON for use in --standard-json of solc, also Etherscan verification")
	clearCache := cmd.BoolOpt("clear-cache", false, "Remove all build cache entries before building.")

	cmd.Action = func() {
		d, err := deployer.New(compilerOptions()...)
		if err != nil {
			log.WithError(err).Fatalln("failed to init deployer")
		}

		if *clearCache {
			if err := d.ClearBuildCache(); err != nil {
				log.WithError(err).Warningln("failed to clear build cache")
			}
		}

		contract, err := d.Build(
			context.Background(),
			*solSource,
			*contractName,
		)
		if err != nil {
			log.Fatalln(err)
		}

		if *standardJSON {
			paths := contract.AllPaths
			if len(paths) == 0 {
				paths = []string{*solSource}
			}

			out, err := sol.CollectStandardJSON(
				paths,
				*optimizeRuns,
				sol.EVMVersion(*evmVersion),
			)
			if err != nil {
				log.Fatalln(err)
			}

			fmt.Println(string(out))
			return
		}

		fmt.Println(contract.Bin)
	}
}
