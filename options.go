package main

import (
	"math/big"
	"time"

	"github.com/hashicorp/go-multierror"
	cli "github.com/jawher/mow.cli"
	"github.com/pkg/errors"
	log "github.com/xlab/suplog"

	"github.com/InjectiveLabs/contract-deployer/deployer"
	"github.com/InjectiveLabs/contract-deployer/sol"
)

const (
	defaultRPCTimeout = 10 * time.Second
	defaultTxTimeout  = 5 * time.Minute
	defaultGasLimit   = 1000000

	defaultNetworkRetryDelay = time.Second
)

var (
	configPath = app.String(cli.StringOpt{
		Name:   "config",
		Desc:   "Path to a TOML profile, its values apply to options not set by flag or env.",
		EnvVar: "DEPLOYER_CONFIG",
		Value:  "",
	})

	logLevelSet bool
	logLevel    = app.String(cli.StringOpt{
		Name:      "l log-level",
		Desc:      "Available levels: error, warn, info, debug.",
		EnvVar:    "DEPLOYER_LOG_LEVEL",
		Value:     "info",
		SetByUser: &logLevelSet,
	})

	solcPathSet bool
	solcPath    = app.String(cli.StringOpt{
		Name:      "solc-path",
		Desc:      "Set path solc executable. Found using 'which' otherwise",
		EnvVar:    "DEPLOYER_SOLC_PATH",
		Value:     "",
		SetByUser: &solcPathSet,
	})

	solAllowedPathsSet bool
	solAllowedPaths    = app.Strings(cli.StringsOpt{
		Name:      "allow-paths",
		Desc:      "Comma-separated list of paths solc may import from.",
		EnvVar:    "DEPLOYER_SOLC_ALLOW_PATHS",
		Value:     []string{},
		SetByUser: &solAllowedPathsSet,
	})

	contractNameSet bool
	contractName    = app.String(cli.StringOpt{
		Name:      "N name",
		Desc:      "Specify contract name to use.",
		EnvVar:    "DEPLOYER_CONTRACT_NAME",
		Value:     "Fund",
		SetByUser: &contractNameSet,
	})

	solSourceSet bool
	solSource    = app.String(cli.StringOpt{
		Name:      "S source",
		Desc:      "Set path for .sol source file of the contract.",
		EnvVar:    "DEPLOYER_SOL_SOURCE_FILE",
		Value:     "contracts/Fund.sol",
		SetByUser: &solSourceSet,
	})

	evmEndpointSet bool
	evmEndpoint    = app.String(cli.StringOpt{
		Name:      "E endpoint",
		Desc:      "Specify the JSON-RPC endpoint for accessing Ethereum node",
		EnvVar:    "DEPLOYER_RPC_URI",
		Value:     "http://localhost:8545",
		SetByUser: &evmEndpointSet,
	})

	gasPriceSet bool
	gasPrice    = app.String(cli.StringOpt{
		Name:      "G gas-price",
		Desc:      "Override suggested gas price with this option (wei).",
		EnvVar:    "DEPLOYER_TX_GAS_PRICE",
		Value:     "",
		SetByUser: &gasPriceSet,
	})

	gasLimitSet bool
	gasLimit    = app.Int(cli.IntOpt{
		Name:      "L gas-limit",
		Desc:      "Set the maximum gas for tx. Gas is never estimated.",
		EnvVar:    "DEPLOYER_TX_GAS_LIMIT",
		Value:     defaultGasLimit,
		SetByUser: &gasLimitSet,
	})

	rpcTimeoutSet bool
	rpcTimeout    = app.String(cli.StringOpt{
		Name:      "rpc-timeout",
		Desc:      "Timeout for dialing the RPC endpoint.",
		EnvVar:    "DEPLOYER_RPC_TIMEOUT",
		Value:     "10s",
		SetByUser: &rpcTimeoutSet,
	})

	txTimeoutSet bool
	txTimeout    = app.String(cli.StringOpt{
		Name:      "tx-timeout",
		Desc:      "Timeout for submitting and confirming the deployment tx.",
		EnvVar:    "DEPLOYER_TX_TIMEOUT",
		Value:     "5m",
		SetByUser: &txTimeoutSet,
	})

	optimizeRunsSet bool
	optimizeRuns    = app.Int(cli.IntOpt{
		Name:      "optimize-runs",
		Desc:      "Number of solc optimizer runs, 0 disables the optimizer.",
		EnvVar:    "DEPLOYER_OPTIMIZE_RUNS",
		Value:     1,
		SetByUser: &optimizeRunsSet,
	})

	evmVersionSet bool
	evmVersion    = app.String(cli.StringOpt{
		Name:      "evm-version",
		Desc:      "Target EVM version for solc, compiler default if empty.",
		EnvVar:    "DEPLOYER_EVM_VERSION",
		Value:     "",
		SetByUser: &evmVersionSet,
	})

	buildCacheDirSet bool
	buildCacheDir    = app.String(cli.StringOpt{
		Name:      "cache-dir",
		Desc:      "Set cache dir for build artifacts. Caching is off if empty.",
		EnvVar:    "DEPLOYER_CACHE_DIR",
		Value:     "",
		SetByUser: &buildCacheDirSet,
	})

	noCache = app.Bool(cli.BoolOpt{
		Name:   "no-cache",
		Desc:   "Disables build cache completely.",
		EnvVar: "DEPLOYER_DISABLE_CACHE",
		Value:  false,
	})

	recordsFileSet bool
	recordsFile    = app.String(cli.StringOpt{
		Name:      "records",
		Desc:      "JSON file to append deployment records to. Off if empty.",
		EnvVar:    "DEPLOYER_RECORDS_FILE",
		Value:     "",
		SetByUser: &recordsFileSet,
	})

	networkRetriesSet bool
	networkRetries    = app.Int(cli.IntOpt{
		Name:      "retries",
		Desc:      "Attempts for listing accounts when the network fails. Submission is never retried.",
		EnvVar:    "DEPLOYER_NETWORK_RETRIES",
		Value:     1,
		SetByUser: &networkRetriesSet,
	})
)

var evmVersions = map[sol.EVMVersion]struct{}{
	sol.EVMVersionDefault:          {},
	sol.EVMVersionTangerineWhistle: {},
	sol.EVMVersionSpuriousDragon:   {},
	sol.EVMVersionByzantium:        {},
	sol.EVMVersionConstantinople:   {},
	sol.EVMVersionPetersburg:       {},
	sol.EVMVersionIstanbul:         {},
	sol.EVMVersionBerlin:           {},
	sol.EVMVersionLondon:           {},
	sol.EVMVersionParis:            {},
	sol.EVMVersionShanghai:         {},
}

// validateOptions reports every malformed global option at once.
func validateOptions() error {
	var result *multierror.Error

	if *gasLimit < 21000 {
		result = multierror.Append(result, errors.Errorf("gas limit %d is below 21000", *gasLimit))
	}
	if *optimizeRuns < 0 {
		result = multierror.Append(result, errors.Errorf("optimizer runs can't be negative: %d", *optimizeRuns))
	}
	if *networkRetries < 1 {
		result = multierror.Append(result, errors.Errorf("at least one network attempt required, got %d", *networkRetries))
	}
	if _, err := parseGasPrice(*gasPrice); err != nil {
		result = multierror.Append(result, err)
	}
	if _, err := time.ParseDuration(*rpcTimeout); err != nil {
		result = multierror.Append(result, errors.Wrap(err, "invalid rpc-timeout"))
	}
	if _, err := time.ParseDuration(*txTimeout); err != nil {
		result = multierror.Append(result, errors.Wrap(err, "invalid tx-timeout"))
	}
	if _, ok := evmVersions[sol.EVMVersion(*evmVersion)]; !ok {
		result = multierror.Append(result, errors.Errorf("unsupported EVM version: %s", *evmVersion))
	}

	return result.ErrorOrNil()
}

// compilerOptions are shared by every command that compiles.
func compilerOptions() []deployer.Option {
	opts := []deployer.Option{
		deployer.OptionOptimizeRuns(*optimizeRuns),
		deployer.OptionEVMVersion(sol.EVMVersion(*evmVersion)),
		deployer.OptionNoCache(*noCache),
		deployer.OptionBuildCacheDir(*buildCacheDir),
		deployer.OptionSolcAllowedPaths(*solAllowedPaths),
	}

	if solcPathSet || len(*solcPath) > 0 {
		opts = append(opts, deployer.OptionSolcPath(*solcPath))
	}

	return opts
}

func parseGasPrice(s string) (*big.Int, error) {
	if len(s) == 0 {
		return nil, nil
	}

	price, ok := new(big.Int).SetString(s, 10)
	if !ok || price.Sign() < 0 {
		return nil, errors.Errorf("invalid gas price: %s", s)
	}

	return price, nil
}

func duration(s string, defaults time.Duration) time.Duration {
	dur, err := time.ParseDuration(s)
	if err != nil {
		return defaults
	}

	return dur
}

func logLevelFromString(s string) log.Level {
	switch s {
	case "1", "error":
		return log.ErrorLevel
	case "2", "warn":
		return log.WarnLevel
	case "3", "info":
		return log.InfoLevel
	case "4", "debug":
		return log.DebugLevel
	default:
		return log.FatalLevel
	}
}
