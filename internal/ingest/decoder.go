// Package ingest turns raw chain logs into typed pair events and feeds them
// to the correlator in chain order.
package ingest

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"dexgraph/internal/event"
)

const pairABIJSON = `[
{"anonymous":false,"inputs":[{"indexed":true,"name":"from","type":"address"},{"indexed":true,"name":"to","type":"address"},{"indexed":false,"name":"value","type":"uint256"}],"name":"Transfer","type":"event"},
{"anonymous":false,"inputs":[{"indexed":true,"name":"sender","type":"address"},{"indexed":false,"name":"amount0","type":"uint256"},{"indexed":false,"name":"amount1","type":"uint256"}],"name":"Mint","type":"event"},
{"anonymous":false,"inputs":[{"indexed":true,"name":"sender","type":"address"},{"indexed":false,"name":"amount0","type":"uint256"},{"indexed":false,"name":"amount1","type":"uint256"},{"indexed":true,"name":"to","type":"address"}],"name":"Burn","type":"event"},
{"anonymous":false,"inputs":[{"indexed":true,"name":"sender","type":"address"},{"indexed":false,"name":"amount0In","type":"uint256"},{"indexed":false,"name":"amount1In","type":"uint256"},{"indexed":false,"name":"amount0Out","type":"uint256"},{"indexed":false,"name":"amount1Out","type":"uint256"},{"indexed":true,"name":"to","type":"address"}],"name":"Swap","type":"event"},
{"anonymous":false,"inputs":[{"indexed":false,"name":"reserve0","type":"uint112"},{"indexed":false,"name":"reserve1","type":"uint112"}],"name":"Sync","type":"event"}
]`

const factoryEventsABIJSON = `[
{"anonymous":false,"inputs":[{"indexed":true,"name":"token0","type":"address"},{"indexed":true,"name":"token1","type":"address"},{"indexed":false,"name":"pair","type":"address"},{"indexed":false,"name":"","type":"uint256"}],"name":"PairCreated","type":"event"}
]`

// Decoder maps factory and pair-contract log topics to typed events.
type Decoder struct {
	pairABI    abi.ABI
	factoryABI abi.ABI

	pairCreatedID common.Hash
	transferID    common.Hash
	mintID        common.Hash
	burnID        common.Hash
	swapID        common.Hash
	syncID        common.Hash
}

// NewDecoder parses the ABIs and indexes their event signatures.
func NewDecoder() (*Decoder, error) {
	parsed, err := abi.JSON(strings.NewReader(pairABIJSON))
	if err != nil {
		return nil, fmt.Errorf("parse pair abi: %w", err)
	}
	factory, err := abi.JSON(strings.NewReader(factoryEventsABIJSON))
	if err != nil {
		return nil, fmt.Errorf("parse factory abi: %w", err)
	}

	return &Decoder{
		pairABI:       parsed,
		factoryABI:    factory,
		pairCreatedID: factory.Events["PairCreated"].ID,
		transferID:    parsed.Events["Transfer"].ID,
		mintID:        parsed.Events["Mint"].ID,
		burnID:        parsed.Events["Burn"].ID,
		swapID:        parsed.Events["Swap"].ID,
		syncID:        parsed.Events["Sync"].ID,
	}, nil
}

// Topics returns every recognised event signature, for log filtering.
func (d *Decoder) Topics() []common.Hash {
	return []common.Hash{d.pairCreatedID, d.transferID, d.mintID, d.burnID, d.swapID, d.syncID}
}

// NeedsOrigin reports whether decoding the log requires the outer
// transaction's sender address.
func (d *Decoder) NeedsOrigin(log types.Log) bool {
	return len(log.Topics) > 0 && log.Topics[0] == d.swapID
}

// Decode turns a log into one of the event types in package event. Logs with
// unknown topics decode to nil.
func (d *Decoder) Decode(log types.Log, timestamp uint64, origin common.Address) (interface{}, error) {
	if len(log.Topics) == 0 {
		return nil, nil
	}

	meta := event.Meta{
		PairAddress: log.Address,
		TxHash:      log.TxHash,
		Origin:      origin,
		BlockNumber: log.BlockNumber,
		Timestamp:   timestamp,
		LogIndex:    log.Index,
	}

	switch log.Topics[0] {
	case d.pairCreatedID:
		values, err := d.factoryABI.Unpack("PairCreated", log.Data)
		if err != nil {
			return nil, fmt.Errorf("unpack pair created: %w", err)
		}
		return &event.PairCreated{
			Meta:   meta,
			Token0: topicAddress(log, 1),
			Token1: topicAddress(log, 2),
			Pair:   values[0].(common.Address),
		}, nil

	case d.transferID:
		values, err := d.pairABI.Unpack("Transfer", log.Data)
		if err != nil {
			return nil, fmt.Errorf("unpack transfer: %w", err)
		}
		return &event.Transfer{
			Meta:  meta,
			From:  topicAddress(log, 1),
			To:    topicAddress(log, 2),
			Value: values[0].(*big.Int),
		}, nil

	case d.mintID:
		values, err := d.pairABI.Unpack("Mint", log.Data)
		if err != nil {
			return nil, fmt.Errorf("unpack mint: %w", err)
		}
		return &event.Mint{
			Meta:    meta,
			Sender:  topicAddress(log, 1),
			Amount0: values[0].(*big.Int),
			Amount1: values[1].(*big.Int),
		}, nil

	case d.burnID:
		values, err := d.pairABI.Unpack("Burn", log.Data)
		if err != nil {
			return nil, fmt.Errorf("unpack burn: %w", err)
		}
		return &event.Burn{
			Meta:    meta,
			Sender:  topicAddress(log, 1),
			To:      topicAddress(log, 2),
			Amount0: values[0].(*big.Int),
			Amount1: values[1].(*big.Int),
		}, nil

	case d.swapID:
		values, err := d.pairABI.Unpack("Swap", log.Data)
		if err != nil {
			return nil, fmt.Errorf("unpack swap: %w", err)
		}
		return &event.Swap{
			Meta:       meta,
			Sender:     topicAddress(log, 1),
			To:         topicAddress(log, 2),
			Amount0In:  values[0].(*big.Int),
			Amount1In:  values[1].(*big.Int),
			Amount0Out: values[2].(*big.Int),
			Amount1Out: values[3].(*big.Int),
		}, nil

	case d.syncID:
		values, err := d.pairABI.Unpack("Sync", log.Data)
		if err != nil {
			return nil, fmt.Errorf("unpack sync: %w", err)
		}
		return &event.Sync{
			Meta:     meta,
			Reserve0: values[0].(*big.Int),
			Reserve1: values[1].(*big.Int),
		}, nil
	}

	return nil, nil
}

func topicAddress(log types.Log, index int) common.Address {
	if index >= len(log.Topics) {
		return common.Address{}
	}
	return common.BytesToAddress(log.Topics[index].Bytes())
}
