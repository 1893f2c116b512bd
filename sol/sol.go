// Package sol provides a convenient interface for calling the 'solc' Solidity Compiler from Go.
package sol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	log "github.com/xlab/suplog"
)

// Contract is a compiled artifact of a single contract.
type Contract struct {
	Name            string
	SourcePath      string
	AllPaths        []string
	CompilerVersion string

	ABI []byte
	Bin string
}

type Compiler interface {
	SetAllowPaths(paths []string) Compiler
	SetEVMVersion(version EVMVersion) Compiler
	Version() string
	Compile(prefix, path string, optimize int) (map[string]*Contract, error)
}

func NewSolCompiler(solcPath string) (Compiler, error) {
	s := &solCompiler{
		solcPath: solcPath,
	}
	if err := s.verify(); err != nil {
		return nil, err
	}
	return s, nil
}

type solCompiler struct {
	solcPath   string
	version    string
	allowPaths []string
	evmVersion EVMVersion
}

func (s *solCompiler) verify() error {
	out, err := exec.Command(s.solcPath, "--version").CombinedOutput()
	if err != nil {
		err = fmt.Errorf("solc verify: failed to exec solc: %v", err)
		return err
	}
	hasPrefix := strings.HasPrefix(string(out), "solc, the solidity compiler")
	if !hasPrefix {
		err := fmt.Errorf("solc verify: executable output was unexpected (output: %s)", out)
		return err
	}

	for _, line := range strings.Split(string(out), "\n") {
		if strings.HasPrefix(line, "Version:") {
			s.version = strings.TrimSpace(strings.TrimPrefix(line, "Version:"))
			break
		}
	}

	return nil
}

func (s *solCompiler) SetAllowPaths(paths []string) Compiler {
	s.allowPaths = paths
	return s
}

func (s *solCompiler) SetEVMVersion(version EVMVersion) Compiler {
	s.evmVersion = version
	return s
}

func (s *solCompiler) Version() string {
	return s.version
}

// Compile runs solc in standard JSON mode over prefix/path. Contracts are keyed by name.
// Compiler diagnostics with error severity are returned as *CompilationError.
func (s *solCompiler) Compile(prefix, path string, optimize int) (map[string]*Contract, error) {
	fullPath := filepath.Join(prefix, path)

	source, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, &SourceError{Path: fullPath, Err: err}
	}

	input := NewStandardJSONInput(optimize, s.evmVersion)
	input.Settings.OutputSelection = map[string]map[string][]string{
		"*": {
			"*": {"abi", "evm.bytecode.object"},
		},
	}
	input.AddSource(path, source)

	inputJSON, err := json.Marshal(input)
	if err != nil {
		err = errors.Wrap(err, "solc: failed to marshal standard JSON input")
		return nil, err
	}

	args := []string{s.solcPath}
	if len(s.allowPaths) > 0 {
		args = append(args, "--allow-paths", strings.Join(s.allowPaths, ","))
	}
	args = append(args, "--standard-json")

	errOut := new(bytes.Buffer)
	cmd := exec.Cmd{
		Path:   s.solcPath,
		Args:   args,
		Dir:    prefix,
		Stdin:  bytes.NewReader(inputJSON),
		Stderr: errOut,
	}

	log.WithField("source", fullPath).Infoln("Running solc compiler:", cmd.String())

	out, err := cmd.Output()
	if err != nil {
		err = fmt.Errorf("solc: failed to compile contract: %v: %s", err, strings.TrimSpace(errOut.String()))
		return nil, err
	}

	return parseStandardJSONOutput(out, prefix, path, s.version)
}

func WhichSolc() (string, error) {
	out, err := exec.Command("which", "solc").Output()
	if err != nil {
		return "", errors.New("solc executable file not found in $PATH")
	}
	return string(bytes.TrimSpace(out)), nil
}
