package chain

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	// ErrPending means the transaction is not mined yet.
	ErrPending = errors.New("chain: transaction pending")
	// ErrMismatch means the transaction is not the donation it claims to be.
	ErrMismatch = errors.New("chain: transaction does not match donation")
	// ErrInvalidSignature means a wallet signature did not recover to the claimed address.
	ErrInvalidSignature = errors.New("chain: invalid signature")
	// ErrRPC wraps failures talking to the node.
	ErrRPC = errors.New("chain: rpc failure")
)

// Backend is the subset of the JSON-RPC client used here. *ethclient.Client
// satisfies it.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error)
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Client reads chain state and checks donation transactions.
type Client struct {
	backend  Backend
	contract *Contract
	chainID  *big.Int
	signer   types.Signer
	logger   zerolog.Logger
	close    func()
}

// Dial connects to rpcURL and refuses to continue if the node serves a
// different chain.
func Dial(ctx context.Context, rpcURL string, chainID int64, contractAddress string, logger zerolog.Logger) (*Client, error) {
	ec, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("chain: dial: %w", err)
	}
	remote, err := ec.ChainID(ctx)
	if err != nil {
		ec.Close()
		return nil, fmt.Errorf("chain: chain id: %w", err)
	}
	if remote.Int64() != chainID {
		ec.Close()
		return nil, fmt.Errorf("chain: node serves chain %s, want %d", remote, chainID)
	}
	client, err := NewClient(ec, chainID, contractAddress, logger)
	if err != nil {
		ec.Close()
		return nil, err
	}
	client.close = ec.Close
	return client, nil
}

// NewClient wraps an existing backend.
func NewClient(backend Backend, chainID int64, contractAddress string, logger zerolog.Logger) (*Client, error) {
	contract, err := NewContract(contractAddress)
	if err != nil {
		return nil, err
	}
	id := big.NewInt(chainID)
	return &Client{
		backend:  backend,
		contract: contract,
		chainID:  id,
		signer:   types.LatestSignerForChainID(id),
		logger:   logger.With().Str("component", "chain").Logger(),
	}, nil
}

func (c *Client) Close() {
	if c.close != nil {
		c.close()
	}
}

func (c *Client) ChainID() int64 {
	return c.chainID.Int64()
}

func (c *Client) Contract() *Contract {
	return c.contract
}

// Balance returns the latest balance of address in ether.
func (c *Client) Balance(ctx context.Context, address string) (decimal.Decimal, error) {
	if !common.IsHexAddress(address) {
		return decimal.Zero, fmt.Errorf("chain: invalid address %q", address)
	}
	wei, err := c.backend.BalanceAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: balance: %v", ErrRPC, err)
	}
	return FromWei(wei), nil
}

// IsVerifiedCreator calls the contract's isVerifiedCreator view.
func (c *Client) IsVerifiedCreator(ctx context.Context, address string) (bool, error) {
	if !common.IsHexAddress(address) {
		return false, fmt.Errorf("chain: invalid address %q", address)
	}
	data, err := c.contract.packVerifiedCreator(common.HexToAddress(address))
	if err != nil {
		return false, err
	}
	to := c.contract.Address
	out, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return false, fmt.Errorf("%w: call %s: %v", ErrRPC, methodVerifiedCreator, err)
	}
	return c.contract.unpackVerifiedCreator(out)
}

// DonationExpectation describes the transfer a donor claims to have sent.
type DonationExpectation struct {
	ChainIndex int64
	Wei        *big.Int
	From       string
}

// VerifyDonation checks that txHash is a successful donateToCampaign call
// matching want. It returns ErrPending while the transaction or its receipt is
// unavailable and wraps ErrMismatch for any disagreement.
func (c *Client) VerifyDonation(ctx context.Context, txHash string, want DonationExpectation) error {
	hash, err := ParseTxHash(txHash)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMismatch, err)
	}
	tx, isPending, err := c.backend.TransactionByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return ErrPending
		}
		return fmt.Errorf("%w: transaction: %v", ErrRPC, err)
	}
	if isPending {
		return ErrPending
	}

	if tx.To() == nil || *tx.To() != c.contract.Address {
		return fmt.Errorf("%w: wrong recipient", ErrMismatch)
	}
	index, err := c.contract.DecodeDonate(tx.Data())
	if err != nil {
		return err
	}
	if index != want.ChainIndex {
		return fmt.Errorf("%w: campaign %d, want %d", ErrMismatch, index, want.ChainIndex)
	}
	if want.Wei == nil || tx.Value().Cmp(want.Wei) != 0 {
		return fmt.Errorf("%w: value %s, want %v", ErrMismatch, tx.Value(), want.Wei)
	}
	sender, err := types.Sender(c.signer, tx)
	if err != nil {
		return fmt.Errorf("%w: sender: %v", ErrMismatch, err)
	}
	if !common.IsHexAddress(want.From) || sender != common.HexToAddress(want.From) {
		return fmt.Errorf("%w: sent by %s", ErrMismatch, sender.Hex())
	}

	receipt, err := c.backend.TransactionReceipt(ctx, hash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return ErrPending
		}
		return fmt.Errorf("%w: receipt: %v", ErrRPC, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("%w: transaction reverted", ErrMismatch)
	}
	c.logger.Debug().Str("tx", hash.Hex()).Int64("campaign", index).Msg("donation verified")
	return nil
}

// ParseTxHash validates a 0x-prefixed 32 byte hash.
func ParseTxHash(raw string) (common.Hash, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) != 2+2*common.HashLength || !strings.HasPrefix(raw, "0x") {
		return common.Hash{}, fmt.Errorf("invalid transaction hash %q", raw)
	}
	if _, err := hex.DecodeString(raw[2:]); err != nil {
		return common.Hash{}, fmt.Errorf("invalid transaction hash %q", raw)
	}
	return common.HexToHash(raw), nil
}
