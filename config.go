package main

import (
	"bytes"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// fileConfig is the TOML profile loaded with --config. Flags and env vars
// always win over values from the file.
type fileConfig struct {
	Source       string   `toml:"source"`
	Name         string   `toml:"name"`
	Endpoint     string   `toml:"endpoint"`
	GasLimit     *int     `toml:"gas_limit"`
	GasPrice     string   `toml:"gas_price"`
	RPCTimeout   string   `toml:"rpc_timeout"`
	TxTimeout    string   `toml:"tx_timeout"`
	OptimizeRuns *int     `toml:"optimize_runs"`
	EVMVersion   string   `toml:"evm_version"`
	CacheDir     string   `toml:"cache_dir"`
	Records      string   `toml:"records"`
	SolcPath     string   `toml:"solc_path"`
	AllowPaths   []string `toml:"allow_paths"`
	Retries      *int     `toml:"retries"`
	LogLevel     string   `toml:"log_level"`

	// Args are constructor arguments used when none are given on the command line.
	Args []string `toml:"args"`

	Wallet walletConfig `toml:"wallet"`
}

type walletConfig struct {
	From        string `toml:"from"`
	KeystoreDir string `toml:"keystore_dir"`
	HDPath      string `toml:"hd_path"`
	HDIndex     *int   `toml:"hd_index"`
	HDCount     *int   `toml:"hd_count"`
	Signer      string `toml:"signer"`
}

// configArgs holds constructor args from the profile, if any.
var configArgs []string

func loadConfigFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		err = errors.Wrap(err, "failed to read config file")
		return nil, err
	}

	cfg := new(fileConfig)
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			err = errors.Wrapf(err, "%s:%d:%d", path, row, col)
		} else {
			err = errors.Wrapf(err, "failed to parse %s", path)
		}

		return nil, err
	}

	return cfg, nil
}

// applyFileConfig fills options that were not set by flag or env var.
func applyFileConfig(cfg *fileConfig) {
	setString(solSource, solSourceSet, cfg.Source)
	setString(contractName, contractNameSet, cfg.Name)
	setString(evmEndpoint, evmEndpointSet, cfg.Endpoint)
	setInt(gasLimit, gasLimitSet, cfg.GasLimit)
	setString(gasPrice, gasPriceSet, cfg.GasPrice)
	setString(rpcTimeout, rpcTimeoutSet, cfg.RPCTimeout)
	setString(txTimeout, txTimeoutSet, cfg.TxTimeout)
	setInt(optimizeRuns, optimizeRunsSet, cfg.OptimizeRuns)
	setString(evmVersion, evmVersionSet, cfg.EVMVersion)
	setString(buildCacheDir, buildCacheDirSet, cfg.CacheDir)
	setString(recordsFile, recordsFileSet, cfg.Records)
	setString(solcPath, solcPathSet, cfg.SolcPath)
	setInt(networkRetries, networkRetriesSet, cfg.Retries)
	setString(logLevel, logLevelSet, cfg.LogLevel)

	if !solAllowedPathsSet && len(cfg.AllowPaths) > 0 {
		*solAllowedPaths = cfg.AllowPaths
	}

	setString(from, fromSet, cfg.Wallet.From)
	setString(keystoreDir, keystoreDirSet, cfg.Wallet.KeystoreDir)
	setString(hdPath, hdPathSet, cfg.Wallet.HDPath)
	setInt(hdIndex, hdIndexSet, cfg.Wallet.HDIndex)
	setInt(hdCount, hdCountSet, cfg.Wallet.HDCount)
	setString(signerType, signerTypeSet, cfg.Wallet.Signer)

	configArgs = cfg.Args
}

func setString(dst *string, setByUser bool, value string) {
	if !setByUser && len(value) > 0 {
		*dst = value
	}
}

func setInt(dst *int, setByUser bool, value *int) {
	if !setByUser && value != nil {
		*dst = *value
	}
}
