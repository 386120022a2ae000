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

const erc20ABIJSON = `[
{"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"payable":false,"stateMutability":"view","type":"function"},
{"constant":true,"inputs":[],"name":"name","outputs":[{"name":"","type":"string"}],"payable":false,"stateMutability":"view","type":"function"},
{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"payable":false,"stateMutability":"view","type":"function"}
]`

var erc20ABI abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		panic("failed to parse erc20 ABI: " + err.Error())
	}
	erc20ABI = parsed
}

// TokenMetadata is the on-chain identity of an ERC-20-like contract.
type TokenMetadata struct {
	Symbol   string
	Name     string
	Decimals int32
}

// MetadataReader fetches token metadata from current chain state.
type MetadataReader interface {
	ReadTokenMetadata(ctx context.Context, token common.Address) (TokenMetadata, error)
}

// ERC20Options parameterise the on-chain token metadata caller.
type ERC20Options struct {
	RPCURL  string
	Timeout time.Duration
}

// ERC20Reader queries token contracts via Ethereum RPC.
type ERC20Reader struct {
	opts      ERC20Options
	logger    zerolog.Logger
	client    *ethclient.Client
	clientMux sync.Mutex
}

// NewERC20Reader builds a metadata caller. The RPC connection is dialled
// lazily.
func NewERC20Reader(opts ERC20Options, logger zerolog.Logger) *ERC20Reader {
	return &ERC20Reader{opts: opts, logger: logger.With().Str("component", "erc20_caller").Logger()}
}

// ReadTokenMetadata returns the token's symbol, name, and decimals. Symbol
// and name fall back to "unknown" when the contract does not expose them;
// a decimals failure is an error, amounts cannot be interpreted without it.
func (r *ERC20Reader) ReadTokenMetadata(ctx context.Context, token common.Address) (TokenMetadata, error) {
	if r.opts.RPCURL == "" {
		return TokenMetadata{}, errors.New("ethereum rpc url not configured")
	}

	timeout := r.opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	var cancel context.CancelFunc
	ctx, cancel = context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := r.getClient(ctx)
	if err != nil {
		return TokenMetadata{}, err
	}

	meta := TokenMetadata{Symbol: "unknown", Name: "unknown"}

	if symbol, err := r.callString(ctx, client, token, "symbol"); err == nil {
		meta.Symbol = symbol
	} else {
		r.logger.Debug().Err(err).Str("token", token.Hex()).Msg("symbol call failed")
	}

	if name, err := r.callString(ctx, client, token, "name"); err == nil {
		meta.Name = name
	} else {
		r.logger.Debug().Err(err).Str("token", token.Hex()).Msg("name call failed")
	}

	payload, err := erc20ABI.Pack("decimals")
	if err != nil {
		return TokenMetadata{}, err
	}
	res, err := client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: payload}, nil)
	if err != nil {
		return TokenMetadata{}, err
	}
	outputs, err := erc20ABI.Unpack("decimals", res)
	if err != nil {
		return TokenMetadata{}, err
	}
	if len(outputs) != 1 {
		return TokenMetadata{}, errors.New("unexpected decimals response")
	}
	decimals, ok := outputs[0].(uint8)
	if !ok {
		return TokenMetadata{}, errors.New("failed to decode decimals output")
	}
	meta.Decimals = int32(decimals)

	return meta, nil
}

func (r *ERC20Reader) callString(ctx context.Context, client *ethclient.Client, token common.Address, method string) (string, error) {
	payload, err := erc20ABI.Pack(method)
	if err != nil {
		return "", err
	}
	res, err := client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: payload}, nil)
	if err != nil {
		return "", err
	}
	outputs, err := erc20ABI.Unpack(method, res)
	if err != nil {
		return "", err
	}
	if len(outputs) != 1 {
		return "", errors.New("unexpected response")
	}
	value, ok := outputs[0].(string)
	if !ok {
		return "", errors.New("failed to decode string output")
	}
	return value, nil
}

func (r *ERC20Reader) getClient(ctx context.Context) (*ethclient.Client, error) {
	r.clientMux.Lock()
	defer r.clientMux.Unlock()

	if r.client != nil {
		return r.client, nil
	}

	client, err := ethclient.DialContext(ctx, r.opts.RPCURL)
	if err != nil {
		return nil, err
	}
	r.client = client
	return client, nil
}

var _ MetadataReader = (*ERC20Reader)(nil)
