package pricing

import (
	"context"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"dexgraph/internal/chain"
	"dexgraph/internal/config"
	"dexgraph/internal/entity"
)

var (
	wavaxAddr   = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	usdAddr     = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	tokenAddr   = common.HexToAddress("0x00000000000000000000000000000000000000cc")
	pairA       = common.HexToAddress("0x00000000000000000000000000000000000000d1")
	pairB       = common.HexToAddress("0x00000000000000000000000000000000000000d2")
	stablePairA = common.HexToAddress("0x00000000000000000000000000000000000000ee")
)

func id(a common.Address) string {
	return strings.ToLower(a.Hex())
}

func testProtocol() config.ProtocolConfig {
	return config.ProtocolConfig{
		WrappedNativeAddress:   id(wavaxAddr),
		StablePairAddress:      id(stablePairA),
		Whitelist:              []string{id(wavaxAddr), id(usdAddr)},
		MinimumLiquidityNative: 1.0,
		MinimumUSDNewPairs:     10.0,
	}
}

func seedStore() *entity.Store {
	store := entity.NewStore()
	store.SaveBundle(&entity.Bundle{ID: entity.BundleID, NativePriceUSD: decimal.NewFromInt(1)})
	store.SaveToken(&entity.Token{ID: id(wavaxAddr), Decimals: 18, DerivedNative: decimal.NewFromInt(1)})
	store.SaveToken(&entity.Token{ID: id(usdAddr), Decimals: 18, DerivedNative: decimal.NewFromFloat(0.04)})
	store.SaveToken(&entity.Token{ID: id(tokenAddr), Decimals: 18})
	return store
}

func TestNativePriceUSDPlaceholder(t *testing.T) {
	store := seedStore()
	oracle := NewOracle(testProtocol(), store, chain.NewStaticPairLookup(), zerolog.Nop())

	if !oracle.NativePriceUSD().Equal(decimal.NewFromInt(1)) {
		t.Fatal("missing stable pair must price at one")
	}

	store.SavePair(&entity.Pair{ID: id(stablePairA), Token0Price: decimal.NewFromInt(25)})
	if !oracle.NativePriceUSD().Equal(decimal.NewFromInt(25)) {
		t.Fatalf("native price = %s", oracle.NativePriceUSD())
	}
}

func TestFindNativePerTokenWrappedNative(t *testing.T) {
	store := seedStore()
	oracle := NewOracle(testProtocol(), store, chain.NewStaticPairLookup(), zerolog.Nop())

	price, err := oracle.FindNativePerToken(context.Background(), store.Token(id(wavaxAddr)))
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	if !price.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("price = %s", price)
	}
}

func TestFindNativePerTokenFirstAnchorWins(t *testing.T) {
	store := seedStore()
	lookup := chain.NewStaticPairLookup()
	lookup.Register(tokenAddr, wavaxAddr, pairA)
	lookup.Register(tokenAddr, usdAddr, pairB)

	// The wavax pair prices the token at 0.5, the far more liquid usd
	// pair at an equivalent 0.8. Whitelist order decides, not liquidity.
	store.SavePair(&entity.Pair{
		ID: id(pairA), Token0: id(tokenAddr), Token1: id(wavaxAddr),
		Token1Price:   decimal.NewFromFloat(0.5),
		ReserveNative: decimal.NewFromInt(10),
	})
	store.SavePair(&entity.Pair{
		ID: id(pairB), Token0: id(tokenAddr), Token1: id(usdAddr),
		Token1Price:   decimal.NewFromInt(20),
		ReserveNative: decimal.NewFromInt(100000),
	})

	oracle := NewOracle(testProtocol(), store, lookup, zerolog.Nop())
	price, err := oracle.FindNativePerToken(context.Background(), store.Token(id(tokenAddr)))
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	if !price.Equal(decimal.NewFromFloat(0.5)) {
		t.Fatalf("price = %s, want the first anchor's 0.5", price)
	}
}

func TestFindNativePerTokenSkipsUnindexedAndIlliquid(t *testing.T) {
	store := seedStore()
	lookup := chain.NewStaticPairLookup()
	// The factory knows a wavax pair the store has never indexed.
	lookup.Register(tokenAddr, wavaxAddr, pairA)
	lookup.Register(tokenAddr, usdAddr, pairB)

	store.SavePair(&entity.Pair{
		ID: id(pairB), Token0: id(tokenAddr), Token1: id(usdAddr),
		Token1Price:   decimal.NewFromInt(20),
		ReserveNative: decimal.NewFromInt(50),
	})

	oracle := NewOracle(testProtocol(), store, lookup, zerolog.Nop())
	price, err := oracle.FindNativePerToken(context.Background(), store.Token(id(tokenAddr)))
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	// Chained derivation: 20 usd per token, 0.04 native per usd.
	if !price.Equal(decimal.NewFromFloat(0.8)) {
		t.Fatalf("price = %s", price)
	}

	// Starve the fallback pair of liquidity: no anchor qualifies.
	store.SavePair(&entity.Pair{
		ID: id(pairB), Token0: id(tokenAddr), Token1: id(usdAddr),
		Token1Price:   decimal.NewFromInt(20),
		ReserveNative: decimal.NewFromFloat(0.5),
	})
	price, err = oracle.FindNativePerToken(context.Background(), store.Token(id(tokenAddr)))
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	if !price.IsZero() {
		t.Fatalf("price = %s, want zero", price)
	}
}

func TestTrackedVolumeWhitelistBranches(t *testing.T) {
	store := seedStore()
	store.SaveToken(&entity.Token{ID: id(tokenAddr), Decimals: 18, DerivedNative: decimal.NewFromInt(2)})
	oracle := NewOracle(testProtocol(), store, chain.NewStaticPairLookup(), zerolog.Nop())

	pair := &entity.Pair{ID: id(pairA), LiquidityProviderCount: 10}
	ten := decimal.NewFromInt(10)

	// Both whitelisted: averaged two-sided value.
	v, err := oracle.TrackedVolumeUSD(ten, store.Token(id(wavaxAddr)), ten, store.Token(id(usdAddr)), pair)
	if err != nil {
		t.Fatalf("tracked volume failed: %v", err)
	}
	if !v.Equal(decimal.NewFromFloat(5.2)) {
		t.Fatalf("both whitelisted = %s", v)
	}

	// One whitelisted: that side alone.
	v, err = oracle.TrackedVolumeUSD(ten, store.Token(id(tokenAddr)), ten, store.Token(id(wavaxAddr)), pair)
	if err != nil {
		t.Fatalf("tracked volume failed: %v", err)
	}
	if !v.Equal(ten) {
		t.Fatalf("one whitelisted = %s", v)
	}

	// Neither whitelisted: exactly zero.
	other := &entity.Token{ID: "0x01", DerivedNative: decimal.NewFromInt(50)}
	v, err = oracle.TrackedVolumeUSD(ten, store.Token(id(tokenAddr)), ten, other, pair)
	if err != nil {
		t.Fatalf("tracked volume failed: %v", err)
	}
	if !v.IsZero() {
		t.Fatalf("neither whitelisted = %s", v)
	}
}

func TestTrackedVolumeNewPairGuard(t *testing.T) {
	store := seedStore()
	oracle := NewOracle(testProtocol(), store, chain.NewStaticPairLookup(), zerolog.Nop())

	// Two providers and nearly no reserves: below the 10 USD floor.
	starved := &entity.Pair{
		ID:                     id(pairA),
		Reserve0:               decimal.NewFromInt(1),
		Reserve1:               decimal.NewFromInt(1),
		LiquidityProviderCount: 2,
	}
	ten := decimal.NewFromInt(10)

	v, err := oracle.TrackedVolumeUSD(ten, store.Token(id(wavaxAddr)), ten, store.Token(id(usdAddr)), starved)
	if err != nil {
		t.Fatalf("tracked volume failed: %v", err)
	}
	if !v.IsZero() {
		t.Fatalf("guarded pair contributed %s", v)
	}

	// The same reserves with an established provider base pass.
	starved.LiquidityProviderCount = 5
	v, err = oracle.TrackedVolumeUSD(ten, store.Token(id(wavaxAddr)), ten, store.Token(id(usdAddr)), starved)
	if err != nil {
		t.Fatalf("tracked volume failed: %v", err)
	}
	if v.IsZero() {
		t.Fatal("established pair must contribute volume")
	}
}

func TestTrackedLiquidityDoublesSingleSide(t *testing.T) {
	store := seedStore()
	oracle := NewOracle(testProtocol(), store, chain.NewStaticPairLookup(), zerolog.Nop())
	ten := decimal.NewFromInt(10)

	v, err := oracle.TrackedLiquidityUSD(ten, store.Token(id(tokenAddr)), ten, store.Token(id(wavaxAddr)))
	if err != nil {
		t.Fatalf("tracked liquidity failed: %v", err)
	}
	if !v.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("single side = %s, want doubled", v)
	}

	v, err = oracle.TrackedLiquidityUSD(ten, store.Token(id(wavaxAddr)), ten, store.Token(id(usdAddr)))
	if err != nil {
		t.Fatalf("tracked liquidity failed: %v", err)
	}
	if !v.Equal(decimal.NewFromFloat(10.4)) {
		t.Fatalf("both sides = %s", v)
	}
}

func TestTrackedVolumeRequiresBundle(t *testing.T) {
	store := entity.NewStore()
	store.SaveToken(&entity.Token{ID: id(wavaxAddr)})
	oracle := NewOracle(testProtocol(), store, chain.NewStaticPairLookup(), zerolog.Nop())

	_, err := oracle.TrackedVolumeUSD(decimal.Zero, store.Token(id(wavaxAddr)), decimal.Zero, store.Token(id(wavaxAddr)), &entity.Pair{})
	if err == nil {
		t.Fatal("missing bundle must fail")
	}
}
