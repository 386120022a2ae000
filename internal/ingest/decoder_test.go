package ingest

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"dexgraph/internal/event"
)

var (
	pairAddr    = common.HexToAddress("0x00000000000000000000000000000000000000dd")
	factoryAddr = common.HexToAddress("0x00000000000000000000000000000000000000f1")
	fromAddr    = common.HexToAddress("0x0000000000000000000000000000000000000010")
	toAddr      = common.HexToAddress("0x0000000000000000000000000000000000000011")
)

func addressTopic(a common.Address) common.Hash {
	return common.BytesToHash(common.LeftPadBytes(a.Bytes(), 32))
}

func word(v *big.Int) []byte {
	return common.LeftPadBytes(v.Bytes(), 32)
}

func TestDecodeTransfer(t *testing.T) {
	d, err := NewDecoder()
	if err != nil {
		t.Fatalf("new decoder: %v", err)
	}

	lg := types.Log{
		Address:     pairAddr,
		Topics:      []common.Hash{d.transferID, addressTopic(fromAddr), addressTopic(toAddr)},
		Data:        word(big.NewInt(1000)),
		BlockNumber: 42,
		TxHash:      common.HexToHash("0x01"),
		Index:       3,
	}

	decoded, err := d.Decode(lg, 1_700_000_000, common.Address{})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	transfer, ok := decoded.(*event.Transfer)
	if !ok {
		t.Fatalf("decoded %T", decoded)
	}
	if transfer.From != fromAddr || transfer.To != toAddr {
		t.Fatalf("endpoints = %s -> %s", transfer.From.Hex(), transfer.To.Hex())
	}
	if transfer.Value.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("value = %s", transfer.Value)
	}
	if transfer.PairAddress != pairAddr || transfer.BlockNumber != 42 || transfer.Timestamp != 1_700_000_000 || transfer.LogIndex != 3 {
		t.Fatalf("meta = %+v", transfer.Meta)
	}
}

func TestDecodeSwapAndSync(t *testing.T) {
	d, err := NewDecoder()
	if err != nil {
		t.Fatalf("new decoder: %v", err)
	}

	swapLog := types.Log{
		Address: pairAddr,
		Topics:  []common.Hash{d.swapID, addressTopic(fromAddr), addressTopic(toAddr)},
		Data: append(append(append(
			word(big.NewInt(100)),
			word(big.NewInt(0))...),
			word(big.NewInt(0))...),
			word(big.NewInt(50))...),
	}
	if !d.NeedsOrigin(swapLog) {
		t.Fatal("swap logs need the transaction origin")
	}

	decoded, err := d.Decode(swapLog, 0, fromAddr)
	if err != nil {
		t.Fatalf("decode swap: %v", err)
	}
	swap := decoded.(*event.Swap)
	if swap.Amount0In.Cmp(big.NewInt(100)) != 0 || swap.Amount1Out.Cmp(big.NewInt(50)) != 0 {
		t.Fatalf("swap amounts = %+v", swap)
	}
	if swap.Origin != fromAddr {
		t.Fatal("origin not carried into meta")
	}

	syncLog := types.Log{
		Address: pairAddr,
		Topics:  []common.Hash{d.syncID},
		Data:    append(word(big.NewInt(7)), word(big.NewInt(9))...),
	}
	if d.NeedsOrigin(syncLog) {
		t.Fatal("sync logs must not need the transaction origin")
	}
	decoded, err = d.Decode(syncLog, 0, common.Address{})
	if err != nil {
		t.Fatalf("decode sync: %v", err)
	}
	sync := decoded.(*event.Sync)
	if sync.Reserve0.Cmp(big.NewInt(7)) != 0 || sync.Reserve1.Cmp(big.NewInt(9)) != 0 {
		t.Fatalf("reserves = %s / %s", sync.Reserve0, sync.Reserve1)
	}
}

func TestDecodePairCreated(t *testing.T) {
	d, err := NewDecoder()
	if err != nil {
		t.Fatalf("new decoder: %v", err)
	}

	lg := types.Log{
		Address: factoryAddr,
		Topics:  []common.Hash{d.pairCreatedID, addressTopic(fromAddr), addressTopic(toAddr)},
		Data:    append(word(new(big.Int).SetBytes(pairAddr.Bytes())), word(big.NewInt(1))...),
	}

	decoded, err := d.Decode(lg, 0, common.Address{})
	if err != nil {
		t.Fatalf("decode pair created: %v", err)
	}
	created := decoded.(*event.PairCreated)
	if created.Token0 != fromAddr || created.Token1 != toAddr {
		t.Fatalf("tokens = %s / %s", created.Token0.Hex(), created.Token1.Hex())
	}
	if created.Pair != pairAddr {
		t.Fatalf("pair = %s", created.Pair.Hex())
	}
}

func TestDecodeUnknownTopicIsNil(t *testing.T) {
	d, err := NewDecoder()
	if err != nil {
		t.Fatalf("new decoder: %v", err)
	}

	lg := types.Log{Topics: []common.Hash{common.HexToHash("0xdeadbeef")}}
	decoded, err := d.Decode(lg, 0, common.Address{})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded != nil {
		t.Fatalf("unknown topic decoded to %T", decoded)
	}
}
