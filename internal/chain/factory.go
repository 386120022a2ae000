// Package chain provides the read-only chain-state queries the pricing
// oracle depends on.
package chain

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"
)

const (
	factoryABIJSON = `[{"constant":true,"inputs":[{"internalType":"address","name":"","type":"address"},{"internalType":"address","name":"","type":"address"}],"name":"getPair","outputs":[{"internalType":"address","name":"","type":"address"}],"payable":false,"stateMutability":"view","type":"function"}]`
)

var factoryABI abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(factoryABIJSON))
	if err != nil {
		panic("failed to parse factory ABI: " + err.Error())
	}
	factoryABI = parsed
}

// PairLookup resolves the pair contract for a token combination against
// current chain state. The zero address means no pair exists.
type PairLookup interface {
	GetPair(ctx context.Context, tokenA, tokenB common.Address) (common.Address, error)
}

// FactoryOptions parameterise the on-chain factory caller.
type FactoryOptions struct {
	RPCURL         string
	FactoryAddress string
	Timeout        time.Duration
}

// Factory queries the exchange factory contract via Ethereum RPC.
type Factory struct {
	opts      FactoryOptions
	logger    zerolog.Logger
	client    *ethclient.Client
	clientMux sync.Mutex
}

// NewFactory builds a factory caller. The RPC connection is dialled lazily.
func NewFactory(opts FactoryOptions, logger zerolog.Logger) *Factory {
	return &Factory{opts: opts, logger: logger.With().Str("component", "factory_caller").Logger()}
}

// GetPair returns the pair address for the token combination, or the zero
// address when the factory has none.
func (f *Factory) GetPair(ctx context.Context, tokenA, tokenB common.Address) (common.Address, error) {
	if f.opts.RPCURL == "" {
		return common.Address{}, errors.New("ethereum rpc url not configured")
	}
	if f.opts.FactoryAddress == "" {
		return common.Address{}, errors.New("factory contract address not configured")
	}

	timeout := f.opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	var cancel context.CancelFunc
	ctx, cancel = context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := f.getClient(ctx)
	if err != nil {
		return common.Address{}, err
	}

	addr := common.HexToAddress(f.opts.FactoryAddress)

	payload, err := factoryABI.Pack("getPair", tokenA, tokenB)
	if err != nil {
		return common.Address{}, err
	}

	res, err := client.CallContract(ctx, ethereum.CallMsg{To: &addr, Data: payload}, nil)
	if err != nil {
		return common.Address{}, err
	}

	outputs, err := factoryABI.Unpack("getPair", res)
	if err != nil {
		return common.Address{}, err
	}

	if len(outputs) != 1 {
		return common.Address{}, errors.New("unexpected getPair response")
	}

	pair, ok := outputs[0].(common.Address)
	if !ok {
		return common.Address{}, errors.New("failed to decode getPair output")
	}

	return pair, nil
}

func (f *Factory) getClient(ctx context.Context) (*ethclient.Client, error) {
	f.clientMux.Lock()
	defer f.clientMux.Unlock()

	if f.client != nil {
		return f.client, nil
	}

	client, err := ethclient.DialContext(ctx, f.opts.RPCURL)
	if err != nil {
		return nil, err
	}
	f.client = client
	return client, nil
}

var _ PairLookup = (*Factory)(nil)
