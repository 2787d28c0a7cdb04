package chain

import (
	"bytes"
	_ "embed"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const (
	methodDonate          = "donateToCampaign"
	methodVerify          = "verifyCampaign"
	methodVerifiedCreator = "isVerifiedCreator"
)

//go:embed blockfund.abi.json
var contractABI []byte

// Contract packs and decodes calls to the donation contract.
type Contract struct {
	Address common.Address
	abi     abi.ABI
}

// NewContract parses the embedded ABI for the contract deployed at address.
func NewContract(address string) (*Contract, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("chain: invalid contract address %q", address)
	}
	parsed, err := abi.JSON(bytes.NewReader(contractABI))
	if err != nil {
		return nil, fmt.Errorf("chain: parse abi: %w", err)
	}
	return &Contract{Address: common.HexToAddress(address), abi: parsed}, nil
}

// PackDonate returns the calldata for donateToCampaign(index).
func (c *Contract) PackDonate(index int64) ([]byte, error) {
	return c.abi.Pack(methodDonate, big.NewInt(index))
}

// PackVerify returns the calldata for verifyCampaign(index).
func (c *Contract) PackVerify(index int64) ([]byte, error) {
	return c.abi.Pack(methodVerify, big.NewInt(index))
}

// DecodeDonate extracts the campaign index from donateToCampaign calldata.
func (c *Contract) DecodeDonate(data []byte) (int64, error) {
	if len(data) < 4 {
		return 0, fmt.Errorf("%w: calldata too short", ErrMismatch)
	}
	method, err := c.abi.MethodById(data[:4])
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMismatch, err)
	}
	if method.Name != methodDonate {
		return 0, fmt.Errorf("%w: called %s", ErrMismatch, method.Name)
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMismatch, err)
	}
	id, ok := args[0].(*big.Int)
	if !ok || !id.IsInt64() {
		return 0, fmt.Errorf("%w: campaign index out of range", ErrMismatch)
	}
	return id.Int64(), nil
}

func (c *Contract) packVerifiedCreator(account common.Address) ([]byte, error) {
	return c.abi.Pack(methodVerifiedCreator, account)
}

func (c *Contract) unpackVerifiedCreator(out []byte) (bool, error) {
	values, err := c.abi.Unpack(methodVerifiedCreator, out)
	if err != nil {
		return false, err
	}
	if len(values) != 1 {
		return false, fmt.Errorf("chain: unexpected %s output", methodVerifiedCreator)
	}
	verified, ok := values[0].(bool)
	if !ok {
		return false, fmt.Errorf("chain: unexpected %s output type %T", methodVerifiedCreator, values[0])
	}
	return verified, nil
}
