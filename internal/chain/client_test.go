package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	testChainID  = 17000
	testContract = "0x2beb05b5316937a8878c85a444bb69e489507bf5"
)

type fakeBackend struct {
	txs        map[common.Hash]*types.Transaction
	pending    map[common.Hash]bool
	receipts   map[common.Hash]*types.Receipt
	balance    *big.Int
	callResult []byte
	lastCall   ethereum.CallMsg
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		txs:      map[common.Hash]*types.Transaction{},
		pending:  map[common.Hash]bool{},
		receipts: map[common.Hash]*types.Receipt{},
	}
}

func (f *fakeBackend) ChainID(context.Context) (*big.Int, error) {
	return big.NewInt(testChainID), nil
}

func (f *fakeBackend) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	return f.balance, nil
}

func (f *fakeBackend) TransactionByHash(_ context.Context, hash common.Hash) (*types.Transaction, bool, error) {
	tx, ok := f.txs[hash]
	if !ok {
		return nil, false, ethereum.NotFound
	}
	return tx, f.pending[hash], nil
}

func (f *fakeBackend) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	r, ok := f.receipts[hash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return r, nil
}

func (f *fakeBackend) CallContract(_ context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.lastCall = call
	return f.callResult, nil
}

func newTestClient(t *testing.T, backend Backend) *Client {
	t.Helper()
	c, err := NewClient(backend, testChainID, testContract, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func signDonation(t *testing.T, c *Client, key *ecdsa.PrivateKey, to common.Address, index int64, wei *big.Int) *types.Transaction {
	t.Helper()
	data, err := c.Contract().PackDonate(index)
	if err != nil {
		t.Fatalf("PackDonate: %v", err)
	}
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   big.NewInt(testChainID),
		Nonce:     1,
		GasTipCap: big.NewInt(1),
		GasFeeCap: big.NewInt(2),
		Gas:       100000,
		To:        &to,
		Value:     wei,
		Data:      data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(big.NewInt(testChainID)), key)
	if err != nil {
		t.Fatalf("SignTx: %v", err)
	}
	return signed
}

func TestVerifyDonation(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	donor := crypto.PubkeyToAddress(key.PublicKey).Hex()
	wei := ToWei(decimal.RequireFromString("0.25"))
	contract := common.HexToAddress(testContract)

	cases := []struct {
		name    string
		to      common.Address
		index   int64
		value   *big.Int
		from    string
		pending bool
		receipt *types.Receipt
		want    error
	}{
		{name: "confirmed", to: contract, index: 3, value: wei, from: donor, receipt: &types.Receipt{Status: types.ReceiptStatusSuccessful}},
		{name: "mempool", to: contract, index: 3, value: wei, from: donor, pending: true, want: ErrPending},
		{name: "no receipt yet", to: contract, index: 3, value: wei, from: donor, want: ErrPending},
		{name: "reverted", to: contract, index: 3, value: wei, from: donor, receipt: &types.Receipt{Status: types.ReceiptStatusFailed}, want: ErrMismatch},
		{name: "wrong contract", to: common.HexToAddress("0x0000000000000000000000000000000000000001"), index: 3, value: wei, from: donor, want: ErrMismatch},
		{name: "wrong campaign", to: contract, index: 4, value: wei, from: donor, want: ErrMismatch},
		{name: "wrong value", to: contract, index: 3, value: big.NewInt(1), from: donor, want: ErrMismatch},
		{name: "wrong sender", to: contract, index: 3, value: wei, from: "0x00000000000000000000000000000000000000aa", want: ErrMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			backend := newFakeBackend()
			c := newTestClient(t, backend)
			tx := signDonation(t, c, key, tc.to, tc.index, tc.value)
			backend.txs[tx.Hash()] = tx
			backend.pending[tx.Hash()] = tc.pending
			if tc.receipt != nil {
				backend.receipts[tx.Hash()] = tc.receipt
			}

			err := c.VerifyDonation(context.Background(), tx.Hash().Hex(), DonationExpectation{
				ChainIndex: 3,
				Wei:        wei,
				From:       tc.from,
			})
			if tc.want == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestVerifyDonationUnknownHashIsPending(t *testing.T) {
	c := newTestClient(t, newFakeBackend())
	hash := "0x00000000000000000000000000000000000000000000000000000000000000cd"

	err := c.VerifyDonation(context.Background(), hash, DonationExpectation{ChainIndex: 1, Wei: big.NewInt(1)})
	if !errors.Is(err, ErrPending) {
		t.Fatalf("expected ErrPending, got %v", err)
	}
}

func TestParseTxHash(t *testing.T) {
	if _, err := ParseTxHash("0x1234"); err == nil {
		t.Fatalf("expected short hash to be rejected")
	}
	if _, err := ParseTxHash("0x" + "zz" + "00000000000000000000000000000000000000000000000000000000000000"); err == nil {
		t.Fatalf("expected non-hex hash to be rejected")
	}
	valid := "0x00000000000000000000000000000000000000000000000000000000000000ff"
	h, err := ParseTxHash(valid)
	if err != nil || h.Hex() != valid {
		t.Fatalf("ParseTxHash(%s) = %s, %v", valid, h.Hex(), err)
	}
}

func TestBalance(t *testing.T) {
	backend := newFakeBackend()
	backend.balance = ToWei(decimal.RequireFromString("1.5"))
	c := newTestClient(t, backend)

	got, err := c.Balance(context.Background(), "0x00000000000000000000000000000000000000aa")
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if !got.Equal(decimal.RequireFromString("1.5")) {
		t.Fatalf("balance = %s", got)
	}
	if _, err := c.Balance(context.Background(), "nope"); err == nil {
		t.Fatalf("expected invalid address error")
	}
}

func TestIsVerifiedCreator(t *testing.T) {
	backend := newFakeBackend()
	c := newTestClient(t, backend)
	out, err := c.contract.abi.Methods[methodVerifiedCreator].Outputs.Pack(true)
	if err != nil {
		t.Fatalf("pack output: %v", err)
	}
	backend.callResult = out

	ok, err := c.IsVerifiedCreator(context.Background(), "0x00000000000000000000000000000000000000aa")
	if err != nil || !ok {
		t.Fatalf("IsVerifiedCreator = %v, %v", ok, err)
	}
	if backend.lastCall.To == nil || *backend.lastCall.To != c.contract.Address {
		t.Fatalf("call not sent to contract")
	}
}
