package ingest

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"
)

// Dispatcher routes one decoded event to its handler. Each call runs to
// completion before the next log is considered.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev interface{}) error
}

// LogClient is the subset of ethclient.Client the source needs.
type LogClient interface {
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	BlockNumber(ctx context.Context) (uint64, error)
	TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error)
	TransactionSender(ctx context.Context, tx *types.Transaction, block common.Hash, index uint) (common.Address, error)
}

// Options tune the log source.
type Options struct {
	BatchSize    uint64
	PollInterval time.Duration
	Confirms     uint64
	// Known filters logs to pair contracts the engine is indexing; logs
	// from unknown emitters are skipped, not errors.
	Known func(addr common.Address) bool
}

// Source pulls pair logs in block order and dispatches them.
type Source struct {
	client   LogClient
	decoder  *Decoder
	dispatch Dispatcher
	opts     Options
	logger   zerolog.Logger

	headerCache map[uint64]uint64
	originCache map[common.Hash]common.Address
}

// NewSource wires a log source.
func NewSource(client LogClient, decoder *Decoder, dispatch Dispatcher, opts Options, logger zerolog.Logger) *Source {
	if opts.BatchSize == 0 {
		opts.BatchSize = 2000
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 3 * time.Second
	}
	return &Source{
		client:      client,
		decoder:     decoder,
		dispatch:    dispatch,
		opts:        opts,
		logger:      logger.With().Str("component", "ingest").Logger(),
		headerCache: make(map[uint64]uint64),
		originCache: make(map[common.Hash]common.Address),
	}
}

// Replay processes the inclusive block range [from, to] and returns the last
// block handled.
func (s *Source) Replay(ctx context.Context, from, to uint64) (uint64, error) {
	for start := from; start <= to; start += s.opts.BatchSize {
		end := start + s.opts.BatchSize - 1
		if end > to {
			end = to
		}
		if err := s.processRange(ctx, start, end); err != nil {
			return start, err
		}
	}
	return to, nil
}

// Follow replays from start and then polls the chain head, processing new
// confirmed blocks until the context is cancelled.
func (s *Source) Follow(ctx context.Context, start uint64) error {
	next := start
	for {
		head, err := s.client.BlockNumber(ctx)
		if err != nil {
			return fmt.Errorf("query chain head: %w", err)
		}

		safe := head
		if s.opts.Confirms > 0 && head > s.opts.Confirms {
			safe = head - s.opts.Confirms
		}

		if next <= safe {
			last, err := s.Replay(ctx, next, safe)
			if err != nil {
				return err
			}
			next = last + 1
		}

		timer := time.NewTimer(s.opts.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (s *Source) processRange(ctx context.Context, from, to uint64) error {
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Topics:    [][]common.Hash{s.decoder.Topics()},
	}

	logs, err := s.client.FilterLogs(ctx, query)
	if err != nil {
		return fmt.Errorf("filter logs %d-%d: %w", from, to, err)
	}

	s.logger.Debug().Uint64("from", from).Uint64("to", to).Int("logs", len(logs)).Msg("processing block range")

	for _, lg := range logs {
		if lg.Removed {
			continue
		}
		if s.opts.Known != nil && !s.opts.Known(lg.Address) {
			continue
		}

		timestamp, err := s.blockTimestamp(ctx, lg.BlockNumber)
		if err != nil {
			return err
		}

		var origin common.Address
		if s.decoder.NeedsOrigin(lg) {
			origin, err = s.txOrigin(ctx, lg)
			if err != nil {
				return err
			}
		}

		decoded, err := s.decoder.Decode(lg, timestamp, origin)
		if err != nil {
			return err
		}
		if decoded == nil {
			continue
		}

		if err := s.dispatch.Dispatch(ctx, decoded); err != nil {
			return fmt.Errorf("block %d log %d: %w", lg.BlockNumber, lg.Index, err)
		}
	}

	// Cache entries from completed ranges never get read again.
	s.headerCache = make(map[uint64]uint64)
	s.originCache = make(map[common.Hash]common.Address)
	return nil
}

func (s *Source) blockTimestamp(ctx context.Context, number uint64) (uint64, error) {
	if ts, ok := s.headerCache[number]; ok {
		return ts, nil
	}
	header, err := s.client.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		return 0, fmt.Errorf("header %d: %w", number, err)
	}
	s.headerCache[number] = header.Time
	return header.Time, nil
}

func (s *Source) txOrigin(ctx context.Context, lg types.Log) (common.Address, error) {
	if from, ok := s.originCache[lg.TxHash]; ok {
		return from, nil
	}
	tx, _, err := s.client.TransactionByHash(ctx, lg.TxHash)
	if err != nil {
		return common.Address{}, fmt.Errorf("transaction %s: %w", lg.TxHash.Hex(), err)
	}
	from, err := s.client.TransactionSender(ctx, tx, lg.BlockHash, lg.TxIndex)
	if err != nil {
		return common.Address{}, fmt.Errorf("transaction sender %s: %w", lg.TxHash.Hex(), err)
	}
	s.originCache[lg.TxHash] = from
	return from, nil
}
