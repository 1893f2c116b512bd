package sol

import (
	"encoding/json"
	"path/filepath"
	"sort"

	"github.com/itchyny/gojq"
	"github.com/pkg/errors"
	log "github.com/xlab/suplog"
)

// flattens contracts.<source>.<name> into one object per contract
var outputContractsQuery, _ = gojq.Parse(`.contracts // {} | to_entries[] | .key as $source | .value | to_entries[] | {
	source: $source,
	name: .key,
	abi: (.value.abi // []),
	bin: (.value.evm.bytecode.object // "")
}`)

type solcError struct {
	Severity         string `json:"severity"`
	Type             string `json:"type"`
	Message          string `json:"message"`
	FormattedMessage string `json:"formattedMessage"`
}

type solcSource struct {
	ID int `json:"id"`
}

type standardJSONOutput struct {
	Errors  []solcError           `json:"errors"`
	Sources map[string]solcSource `json:"sources"`
}

func parseStandardJSONOutput(out []byte, prefix, path, version string) (map[string]*Contract, error) {
	var result standardJSONOutput
	if err := json.Unmarshal(out, &result); err != nil {
		err = errors.Wrap(err, "solc: failed to unmarshal standard JSON output")
		return nil, err
	}

	sourceLog := log.WithField("source", path)

	var diagnostics []Diagnostic
	for _, e := range result.Errors {
		msg := e.FormattedMessage
		if len(msg) == 0 {
			msg = e.Message
		}

		if e.Severity != "error" {
			sourceLog.WithField("type", e.Type).Warningln(msg)
			continue
		}

		diagnostics = append(diagnostics, Diagnostic{
			Severity: e.Severity,
			Type:     e.Type,
			Message:  msg,
		})
	}

	if len(diagnostics) > 0 {
		return nil, newCompilationError(path, diagnostics)
	}

	allPaths := sortedSourcePaths(result.Sources, prefix)

	var doc interface{}
	if err := json.Unmarshal(out, &doc); err != nil {
		err = errors.Wrap(err, "solc: failed to unmarshal standard JSON output")
		return nil, err
	}

	contracts := make(map[string]*Contract)

	iter := outputContractsQuery.Run(doc)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		} else if err, ok := v.(error); ok {
			err = errors.Wrap(err, "solc: failed to query compiled contracts")
			return nil, err
		}

		entry, ok := v.(map[string]interface{})
		if !ok {
			continue
		}

		name, _ := entry["name"].(string)
		sourcePath, _ := entry["source"].(string)
		bin, _ := entry["bin"].(string)

		abiJSON, err := json.Marshal(entry["abi"])
		if err != nil {
			err = errors.Wrapf(err, "solc: failed to encode ABI of %s", name)
			return nil, err
		}

		// contracts from imported files may shadow by name, the compiled file wins
		if existing, ok := contracts[name]; ok && existing.SourcePath == path {
			continue
		}

		contracts[name] = &Contract{
			Name:            name,
			SourcePath:      sourcePath,
			AllPaths:        allPaths,
			CompilerVersion: version,

			ABI: abiJSON,
			Bin: bin,
		}
	}

	for name := range contracts {
		sourceLog.Debugln("found", name, "contract")
	}

	return contracts, nil
}

func sortedSourcePaths(sources map[string]solcSource, prefix string) []string {
	paths := make([]string, 0, len(sources))
	for p := range sources {
		paths = append(paths, p)
	}

	sort.Slice(paths, func(i, j int) bool {
		return sources[paths[i]].ID < sources[paths[j]].ID
	})

	for i, p := range paths {
		if !filepath.IsAbs(p) {
			paths[i] = filepath.Join(prefix, p)
		}
	}

	return paths
}

func sortedStrings(s []string) []string {
	sort.Strings(s)
	return s
}
