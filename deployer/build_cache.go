package deployer

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	log "github.com/xlab/suplog"

	"github.com/InjectiveLabs/contract-deployer/sol"
)

var ErrNoCache = errors.New("no cached version")

type BuildCache interface {
	StoreContract(absSolPath string, settings BuildSettings, contract *sol.Contract) error
	LoadContract(absSolPath, contractName string, settings BuildSettings) (contract *sol.Contract, err error)
	Clear() error
}

// BuildSettings are the compiler inputs besides the source that change the output.
type BuildSettings struct {
	CompilerVersion string
	OptimizeRuns    int
	EVMVersion      sol.EVMVersion
}

type BuildCacheEntry struct {
	Timestamp       time.Time       `json:"timestamp"`
	CodeHash        string          `json:"codeHash"`
	AllPaths        []string        `json:"allPaths"`
	ContractName    string          `json:"contractName"`
	CompilerVersion string          `json:"compilerVersion"`
	OptimizeRuns    int             `json:"optimizeRuns"`
	EVMVersion      sol.EVMVersion  `json:"evmVersion,omitempty"`
	ABI             json.RawMessage `json:"abi"`
	Bin             string          `json:"bin"`
}

type buildCache struct {
	prefix string
}

func NewBuildCache(prefix string) (BuildCache, error) {
	if err := os.MkdirAll(prefix, 0755); err != nil {
		err = errors.Wrap(err, "failed to prepare build cache dir")
		return nil, err
	}

	c := &buildCache{
		prefix: prefix,
	}

	return c, nil
}

func (b *buildCache) StoreContract(absSolPath string, settings BuildSettings, contract *sol.Contract) error {
	hash, err := buildHash(absSolPath, settings)
	if err != nil {
		err = errors.Wrap(err, "failed to hash source")
		return err
	}

	entry := &BuildCacheEntry{
		Timestamp:       time.Now().UTC(),
		CodeHash:        hash,
		AllPaths:        contract.AllPaths,
		ContractName:    contract.Name,
		CompilerVersion: contract.CompilerVersion,
		OptimizeRuns:    settings.OptimizeRuns,
		EVMVersion:      settings.EVMVersion,
		ABI:             json.RawMessage(contract.ABI),
		Bin:             contract.Bin,
	}

	entryContents, err := json.MarshalIndent(entry, "", "\t")
	if err != nil {
		err = errors.Wrap(err, "failed to marshal cache entry")
		return err
	}

	err = ioutil.WriteFile(filepath.Join(b.prefix, entryFileName(contract.Name, hash)), entryContents, 0644)
	if err != nil {
		err = errors.Wrap(err, "failed write cache entry file")
		return err
	}

	return nil
}

func (b *buildCache) LoadContract(absSolPath, contractName string, settings BuildSettings) (contract *sol.Contract, err error) {
	hash, err := buildHash(absSolPath, settings)
	if err != nil {
		err = errors.Wrap(err, "failed to hash source")
		return nil, err
	}

	entryContents, err := ioutil.ReadFile(filepath.Join(b.prefix, entryFileName(contractName, hash)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoCache
		}

		err = errors.Wrap(err, "failed read cache entry file")
		return nil, err
	}

	var entry BuildCacheEntry
	if err := json.Unmarshal(entryContents, &entry); err != nil {
		err = errors.Wrap(err, "failed to unmarshal cache entry")
		return nil, err
	} else if entry.ContractName != contractName {
		err = errors.Errorf("cache entry contract name mismatch: %s", entry.ContractName)
		return nil, err
	} else if len(entry.Bin) == 0 || len(entry.ABI) == 0 {
		err = errors.New("cache entry has no bytecode or ABI")
		return nil, err
	}

	contract = &sol.Contract{
		SourcePath:      absSolPath,
		AllPaths:        entry.AllPaths,
		Name:            entry.ContractName,
		CompilerVersion: entry.CompilerVersion,
		ABI:             []byte(entry.ABI),
		Bin:             entry.Bin,
	}

	return contract, nil
}

func (b *buildCache) Clear() error {
	return filepath.Walk(b.prefix, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		} else if path == b.prefix {
			return nil
		} else if info.IsDir() {
			return nil
		}

		if filepath.Ext(info.Name()) == ".json" {
			if err := os.Remove(path); err != nil {
				log.WithError(err).Warningln("failed to cleanup", path)
			}
		}

		return nil
	})
}

func entryFileName(contractName, hash string) string {
	return fmt.Sprintf("sol_%s_%s.json", strings.ToLower(contractName), hash)
}

// buildHash is keccak256 over the source contents and the compiler settings.
func buildHash(path string, settings BuildSettings) (string, error) {
	contents, err := ioutil.ReadFile(path)
	if err != nil {
		err = errors.Wrap(err, "failed to read .sol file")
		return "", err
	}

	settingsLine := fmt.Sprintf("\n%s;%d;%s", settings.CompilerVersion, settings.OptimizeRuns, settings.EVMVersion)
	hashBytes := crypto.Keccak256(contents, []byte(settingsLine))
	return hex.EncodeToString(hashBytes), nil
}
