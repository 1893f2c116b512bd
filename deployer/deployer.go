package deployer

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/xlab/suplog"

	"github.com/InjectiveLabs/contract-deployer/sol"
	"github.com/InjectiveLabs/contract-deployer/wallet"
)

var (
	ErrCompilerNotFound = errors.New("unable to locate Solidity compiler")
	ErrNoWallet         = errors.New("no wallet provider configured")
)

type Option func(o *options) error

func New(opts ...Option) (Deployer, error) {
	d := &deployer{
		options: defaultOptions(),
	}

	for _, o := range opts {
		if err := o(d.options); err != nil {
			err = errors.Wrap(err, "error in deployer option")
			return nil, err
		}
	}

	if d.options.Compiler != nil {
		d.compiler = d.options.Compiler
	} else if d.options.SolcPathSet {
		solc, err := sol.NewSolCompiler(d.options.SolcPath)
		if err != nil {
			log.WithField("path", d.options.SolcPath).WithError(err).Errorln("failed to find solc compiler at path")
			return nil, ErrCompilerNotFound
		}

		d.compiler = solc
	} else {
		solcPathFound, err := sol.WhichSolc()
		if err != nil {
			log.WithError(err).Errorln("failed to find solc compiler")
			return nil, ErrCompilerNotFound
		}

		solc, err := sol.NewSolCompiler(solcPathFound)
		if err != nil {
			log.WithField("path", solcPathFound).WithError(err).Errorln("failed to find solc compiler at path")
			return nil, ErrCompilerNotFound
		}

		d.compiler = solc
	}

	if len(d.options.SolcAllowedPaths) > 0 {
		d.compiler.SetAllowPaths(d.options.SolcAllowedPaths)
	}
	if len(d.options.EVMVersion) > 0 {
		d.compiler.SetEVMVersion(d.options.EVMVersion)
	}

	return d, nil
}

type Deployer interface {
	// Build compiles the source and returns the named contract.
	Build(
		ctx context.Context,
		solSource string,
		contractName string,
	) (*sol.Contract, error)

	// Deploy compiles the source and deploys the named contract, blocking until
	// the creation transaction is confirmed or the tx timeout elapses.
	Deploy(
		ctx context.Context,
		deployOpts ContractDeployOpts,
		constructorInputMapper AbiMethodInputMapperFunc,
	) (*DeploymentResult, error)

	// History lists the recorded deployments, optionally of one contract only.
	History(contractName string) ([]DeploymentRecord, error)

	ClearBuildCache() error
	Backend() (*Client, error)
	Network() (Network, error)
}

type deployer struct {
	options  *options
	compiler sol.Compiler

	initClientOnce sync.Once
	client         *Client
}

type options struct {
	RPCTimeout time.Duration
	TxTimeout  time.Duration

	EVMRPCEndpoint   string
	GasPrice         *big.Int
	GasLimit         uint64
	OptimizeRuns     int
	EVMVersion       sol.EVMVersion
	NoCache          bool
	BuildCacheDir    string
	RecordsFile      string
	SolcPath         string
	SolcPathSet      bool
	SolcAllowedPaths []string

	NetworkRetries    uint
	NetworkRetryDelay time.Duration

	Compiler      sol.Compiler
	Wallet        wallet.Provider
	Network       Network
	StageObserver func(stage Stage)
}

func defaultOptions() *options {
	return &options{
		RPCTimeout: 10 * time.Second,
		TxTimeout:  5 * time.Minute,

		GasLimit:     1000000,
		OptimizeRuns: 1,
		NoCache:      false,

		NetworkRetries:    1,
		NetworkRetryDelay: time.Second,
	}
}

func OptionRPCTimeout(dur time.Duration) Option {
	return func(o *options) error {
		if dur > time.Millisecond {
			o.RPCTimeout = dur
		}

		return nil
	}
}

// OptionTxTimeout bounds the submission and confirmation wait of a deployment.
func OptionTxTimeout(dur time.Duration) Option {
	return func(o *options) error {
		if dur > time.Millisecond {
			o.TxTimeout = dur
		}

		return nil
	}
}

func OptionEVMRPCEndpoint(endpoint string) Option {
	return func(o *options) error {
		if len(endpoint) == 0 {
			return errors.New("empty EVM RPC endpoint provided")
		}

		o.EVMRPCEndpoint = endpoint
		return nil
	}
}

// OptionGasPrice fixes the gas price, nil means the node's suggestion is used.
func OptionGasPrice(price *big.Int) Option {
	return func(o *options) error {
		if price != nil && price.Sign() < 0 {
			return errors.New("negative gas price")
		}

		o.GasPrice = price
		return nil
	}
}

func OptionGasLimit(gasLimit uint64) Option {
	return func(o *options) error {
		if gasLimit < 21000 {
			return errors.New("gas limit too low")
		}

		o.GasLimit = gasLimit
		return nil
	}
}

// OptionOptimizeRuns sets solc optimizer runs, zero disables the optimizer.
func OptionOptimizeRuns(runs int) Option {
	return func(o *options) error {
		if runs < 0 {
			return errors.New("negative optimizer runs")
		}

		o.OptimizeRuns = runs
		return nil
	}
}

func OptionEVMVersion(version sol.EVMVersion) Option {
	return func(o *options) error {
		o.EVMVersion = version
		return nil
	}
}

func OptionNoCache(noCache bool) Option {
	return func(o *options) error {
		o.NoCache = noCache
		return nil
	}
}

// OptionBuildCacheDir enables the build cache. Empty dir leaves it disabled.
func OptionBuildCacheDir(dir string) Option {
	return func(o *options) error {
		o.BuildCacheDir = dir
		return nil
	}
}

// OptionRecordsFile enables appending every successful deployment to the file.
func OptionRecordsFile(path string) Option {
	return func(o *options) error {
		o.RecordsFile = path
		return nil
	}
}

func OptionSolcPath(dir string) Option {
	return func(o *options) error {
		if len(dir) == 0 {
			o.SolcPathSet = false
		} else {
			o.SolcPathSet = true
		}

		o.SolcPath = dir
		return nil
	}
}

func OptionSolcAllowedPaths(paths []string) Option {
	return func(o *options) error {
		o.SolcAllowedPaths = paths
		return nil
	}
}

// OptionNetworkRetries sets how many attempts account resolution gets when
// it fails with a network error. One attempt means no retries.
func OptionNetworkRetries(attempts uint, delay time.Duration) Option {
	return func(o *options) error {
		if attempts == 0 {
			return errors.New("at least one attempt required")
		}

		o.NetworkRetries = attempts
		if delay > 0 {
			o.NetworkRetryDelay = delay
		}

		return nil
	}
}

func OptionCompiler(compiler sol.Compiler) Option {
	return func(o *options) error {
		if compiler == nil {
			return errors.New("nil compiler provided")
		}

		o.Compiler = compiler
		return nil
	}
}

// OptionWallet sets the signing accounts used together with the RPC endpoint.
func OptionWallet(provider wallet.Provider) Option {
	return func(o *options) error {
		if provider == nil {
			return ErrNoWallet
		}

		o.Wallet = provider
		return nil
	}
}

// OptionNetwork replaces the endpoint and wallet based network entirely.
func OptionNetwork(network Network) Option {
	return func(o *options) error {
		if network == nil {
			return errors.New("nil network provided")
		}

		o.Network = network
		return nil
	}
}

// OptionStageObserver is notified about every stage a run enters.
func OptionStageObserver(fn func(stage Stage)) Option {
	return func(o *options) error {
		o.StageObserver = fn
		return nil
	}
}

func (d *deployer) Network() (Network, error) {
	if d.options.Network != nil {
		return d.options.Network, nil
	}

	if d.options.Wallet == nil {
		return nil, ErrNoWallet
	}

	client, err := d.Backend()
	if err != nil {
		return nil, err
	}

	return NewNetwork(client, d.options.Wallet, d.options.GasPrice), nil
}
