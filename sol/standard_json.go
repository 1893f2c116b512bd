package sol

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

type EVMVersion string

const (
	EVMVersionDefault          EVMVersion = ""
	EVMVersionTangerineWhistle EVMVersion = "tangerineWhistle"
	EVMVersionSpuriousDragon   EVMVersion = "spuriousDragon"
	EVMVersionByzantium        EVMVersion = "byzantium"
	EVMVersionConstantinople   EVMVersion = "constantinople"
	EVMVersionPetersburg       EVMVersion = "petersburg"
	EVMVersionIstanbul         EVMVersion = "istanbul"
	EVMVersionBerlin           EVMVersion = "berlin"
	EVMVersionLondon           EVMVersion = "london"
	EVMVersionParis            EVMVersion = "paris"
	EVMVersionShanghai         EVMVersion = "shanghai"
)

type ContractContent struct {
	Keccak256 string `json:"keccak256"`
	Content   string `json:"content"`
}

type OptimizerSettings struct {
	Enabled bool `json:"enabled"`
	Runs    int  `json:"runs"`
}

type StandardJSONSettings struct {
	Remappings      []string                       `json:"remappings"`
	Optimizer       OptimizerSettings              `json:"optimizer"`
	EvmVersion      EVMVersion                     `json:"evmVersion,omitempty"`
	OutputSelection map[string]map[string][]string `json:"outputSelection,omitempty"`
}

type StandardJSONInput struct {
	Language string                     `json:"language"`
	Sources  map[string]ContractContent `json:"sources"`
	Settings StandardJSONSettings       `json:"settings"`
}

// NewStandardJSONInput prepares an input with no sources. Optimizer is enabled
// when optimizerRuns is positive.
func NewStandardJSONInput(optimizerRuns int, evmVersion EVMVersion) *StandardJSONInput {
	input := &StandardJSONInput{
		Language: "Solidity",
		Sources:  make(map[string]ContractContent),
	}

	input.Settings.Remappings = make([]string, 0)
	input.Settings.Optimizer.Enabled = optimizerRuns > 0
	input.Settings.Optimizer.Runs = optimizerRuns
	input.Settings.EvmVersion = evmVersion

	return input
}

func (in *StandardJSONInput) AddSource(path string, content []byte) {
	in.Sources[path] = ContractContent{
		Keccak256: crypto.Keccak256Hash(content).Hex(),
		Content:   string(content),
	}
}

// CollectStandardJSON reads all given paths into a standard JSON input, suitable for
// solc --standard-json and for block explorer verification.
func CollectStandardJSON(
	paths []string,
	optimizerRuns int,
	evmVersion EVMVersion,
) ([]byte, error) {
	cwd, err := os.Getwd()
	if err != nil {
		err = errors.Wrap(err, "unable to get current workdir")
		return nil, err
	}

	input := NewStandardJSONInput(optimizerRuns, evmVersion)

	for _, srcPath := range paths {
		solContent, err := os.ReadFile(srcPath)
		if err != nil {
			err = &SourceError{Path: srcPath, Err: err}
			return nil, err
		}

		input.AddSource(strings.Replace(srcPath, cwd, ".", 1), solContent)
	}

	return json.MarshalIndent(input, "", "\t")
}
