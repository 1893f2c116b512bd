package deployer

import (
	"context"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/xlab/suplog"

	"github.com/InjectiveLabs/contract-deployer/sol"
)

func (d *deployer) Build(
	ctx context.Context,
	solSource string,
	contractName string,
) (*sol.Contract, error) {
	r := d.newRun(contractName)
	return d.compile(r, solSource, contractName)
}

// compile drives a run through compiling into compiled.
func (d *deployer) compile(r *run, solSource, contractName string) (*sol.Contract, error) {
	if err := r.enter(StageCompiling); err != nil {
		return nil, r.fail(newError(ErrUnexpected, err))
	}

	solSourceFullPath, err := filepath.Abs(solSource)
	if err != nil {
		err = &sol.SourceError{Path: solSource, Err: err}
		return nil, r.fail(err)
	}

	contract, err := d.getCompiledContract(contractName, solSourceFullPath)
	if err != nil {
		r.logger.WithError(err).Errorln("contract compilation failed")
		return nil, r.fail(classifyCompileError(err))
	}

	if err := r.enter(StageCompiled); err != nil {
		return nil, r.fail(newError(ErrUnexpected, err))
	}

	return contract, nil
}

func (d *deployer) buildSettings() BuildSettings {
	return BuildSettings{
		CompilerVersion: d.compiler.Version(),
		OptimizeRuns:    d.options.OptimizeRuns,
		EVMVersion:      d.options.EVMVersion,
	}
}

func (d *deployer) cacheEnabled() bool {
	return !d.options.NoCache && len(d.options.BuildCacheDir) > 0
}

func (d *deployer) getCompiledContract(contractName, solFullPath string) (*sol.Contract, error) {
	var cache BuildCache
	cacheLog := log.WithField("cache_dir", d.options.BuildCacheDir)

	if d.cacheEnabled() {
		var err error
		if cache, err = NewBuildCache(d.options.BuildCacheDir); err != nil {
			cacheLog.WithError(err).Warningln("failed to use build cache dir")
		}
	}

	if cache != nil {
		contract, err := cache.LoadContract(solFullPath, contractName, d.buildSettings())
		switch {
		case err == nil:
			cacheLog.WithField("contract", contractName).Debugln("using cached build")
			return contract, nil
		case errors.Is(err, ErrNoCache):
		default:
			cacheLog.WithError(err).Warningln("ignoring unusable build cache entry")
		}
	}

	contracts, err := d.compiler.Compile(filepath.Dir(solFullPath), filepath.Base(solFullPath), d.options.OptimizeRuns)
	if err != nil {
		return nil, err
	}

	contract, err := sol.LookupContract(contracts, contractName)
	if err != nil {
		return nil, err
	}

	if cache != nil {
		if err := cache.StoreContract(solFullPath, d.buildSettings(), contract); err != nil {
			cacheLog.WithError(err).Warningln("failed to store contract code in build cache")
		}
	}

	return contract, nil
}

// ClearBuildCache removes every entry of the configured build cache dir.
func (d *deployer) ClearBuildCache() error {
	if len(d.options.BuildCacheDir) == 0 {
		return nil
	}

	cache, err := NewBuildCache(d.options.BuildCacheDir)
	if err != nil {
		return err
	}

	return cache.Clear()
}
