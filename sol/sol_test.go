package sol

import (
	"io/ioutil"
	"os"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

const fundSource = `pragma solidity >=0.7.0 <0.9.0;

contract Fund {
    address public manager;
    address payable public beneficiary;
    mapping(address => uint256) public contributions;

    event Contributed(address indexed from, uint256 amount);

    constructor(address payable _beneficiary) {
        manager = msg.sender;
        beneficiary = _beneficiary;
    }

    function contribute() public payable {
        contributions[msg.sender] += msg.value;
        emit Contributed(msg.sender, msg.value);
    }

    function total() public view returns (uint256) {
        return address(this).balance;
    }
}`

func TestWhichSolc(t *testing.T) {
	assert := assert.New(t)
	path, err := WhichSolc()
	if err != nil {
		t.Skip("solc is not installed")
	}
	assert.NotEmpty(path)
}

func TestCompile(t *testing.T) {
	assert := assert.New(t)
	c := requireSolc(t)

	prepare(fundSource)
	defer cleanup()

	contracts, err := c.Compile("", "test.sol", 200)
	if !assert.NoError(err) {
		return
	}

	contract, err := LookupContract(contracts, "Fund")
	if !assert.NoError(err) {
		return
	}
	assert.NotEmpty(contract.CompilerVersion)
	assert.NotEmpty(contract.Bin)
	assert.Equal("Fund", contract.Name)
	assert.Equal("test.sol", contract.SourcePath)
	assert.Contains(contract.AllPaths, "test.sol")

	parsedABI, err := abi.JSON(strings.NewReader(string(contract.ABI)))
	if !assert.NoError(err) {
		return
	}
	assert.Len(parsedABI.Constructor.Inputs, 1)
	assert.Equal(abi.AddressTy, parsedABI.Constructor.Inputs[0].Type.T)
	for _, method := range []string{"manager", "beneficiary", "contributions", "contribute", "total"} {
		assert.Contains(parsedABI.Methods, method)
	}
	assert.Contains(parsedABI.Events, "Contributed")

	_, err = LookupContract(contracts, "Missing")
	assert.True(errors.Is(err, ErrContractNotFound))
}

func TestCompileInvalidSource(t *testing.T) {
	assert := assert.New(t)
	c := requireSolc(t)

	prepare(`pragma solidity >=0.7.0 <0.9.0;

contract Fund {
    function broken() public {
        uint256 x = ;
    }
}`)
	defer cleanup()

	_, err := c.Compile("", "test.sol", 0)
	if !assert.Error(err) {
		return
	}
	assert.True(errors.Is(err, ErrCompilation))

	var compilationErr *CompilationError
	if assert.True(errors.As(err, &compilationErr)) {
		assert.NotEmpty(compilationErr.Diagnostics)
		assert.Equal("ParserError", compilationErr.Diagnostics[0].Type)
	}
}

func TestCompileMissingSource(t *testing.T) {
	assert := assert.New(t)

	c := &solCompiler{solcPath: "/nonexistent/solc"}
	_, err := c.Compile(os.TempDir(), "definitely_missing_contract.sol", 0)
	assert.True(errors.Is(err, ErrSourceUnreadable))
	assert.True(errors.Is(err, os.ErrNotExist))
}

func requireSolc(t *testing.T) Compiler {
	solcPath, err := WhichSolc()
	if err != nil {
		t.Skip("solc is not installed")
	}
	c, err := NewSolCompiler(solcPath)
	orPanic(err)
	return c
}

func cleanup() {
	os.Remove("test.sol")
}

func prepare(sol string) {
	err := ioutil.WriteFile("test.sol", []byte(sol), 0644)
	orPanic(err)
}

func orPanic(err error) {
	if err != nil {
		panic(err)
	}
}
