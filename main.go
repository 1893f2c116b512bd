package main

import (
	"fmt"
	"os"

	cli "github.com/jawher/mow.cli"
	log "github.com/xlab/suplog"
)

var app = cli.App("contract-deployer", "Compiles a Solidity contract and deploys it on an EVM chain. Requires solc 0.6+")

func main() {
	app.Before = func() {
		if len(*configPath) > 0 {
			cfg, err := loadConfigFile(*configPath)
			if err != nil {
				log.WithError(err).Fatalln("failed to load config profile")
			}

			applyFileConfig(cfg)
		}

		log.DefaultLogger.SetLevel(logLevelFromString(*logLevel))

		if err := validateOptions(); err != nil {
			log.WithError(err).Fatalln("invalid options")
		}
	}

	app.Action = func() {
		fmt.Println("You should use either build, deploy or history command. See --help for more info.")
	}

	app.Command("build", "Builds given contract and prints its bytecode. Optional step.", onBuild)
	app.Command("deploy", "Deploys given contract on the EVM chain and prints its address.", onDeploy)
	app.Command("history", "Lists deployments kept in the records file.", onHistory)

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
