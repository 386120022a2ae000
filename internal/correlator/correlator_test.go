package correlator

import (
	"context"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"dexgraph/internal/chain"
	"dexgraph/internal/config"
	"dexgraph/internal/entity"
	"dexgraph/internal/event"
	"dexgraph/internal/pricing"
	"dexgraph/internal/rollup"
)

var (
	factoryAddr = common.HexToAddress("0x00000000000000000000000000000000000000f1")
	routerAddr  = common.HexToAddress("0x00000000000000000000000000000000000000f2")
	poolAddr    = common.HexToAddress("0x00000000000000000000000000000000000000f3")
	wavaxAddr   = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	usdAddr     = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	tokenAddr   = common.HexToAddress("0x00000000000000000000000000000000000000cc")
	pairAddr    = common.HexToAddress("0x00000000000000000000000000000000000000dd")
	stableAddr  = common.HexToAddress("0x00000000000000000000000000000000000000ee")
	userAddr    = common.HexToAddress("0x0000000000000000000000000000000000000010")
	otherAddr   = common.HexToAddress("0x0000000000000000000000000000000000000011")
)

func id(a common.Address) string {
	return strings.ToLower(a.Hex())
}

func testProtocol() config.ProtocolConfig {
	return config.ProtocolConfig{
		FactoryAddress:         id(factoryAddr),
		RouterAddress:          id(routerAddr),
		WrappedNativeAddress:   id(wavaxAddr),
		StablePairAddress:      id(stableAddr),
		Whitelist:              []string{id(wavaxAddr), id(usdAddr)},
		StakingPools:           []string{id(poolAddr)},
		MinimumLiquidityNative: 1.0,
		MinimumUSDNewPairs:     10.0,
		BootstrapLockAmount:    1000,
		LiquidityTokenDecimals: 18,
	}
}

// newTestCorrelator seeds a store with the factory, bundle, one indexed
// token/wavax pair, and a registered chain lookup for it.
func newTestCorrelator(t *testing.T, cfg config.ProtocolConfig) (*Correlator, *entity.Store) {
	t.Helper()

	store := entity.NewStore()
	store.SaveFactory(&entity.Factory{ID: cfg.FactoryAddress})
	store.SaveBundle(&entity.Bundle{ID: entity.BundleID, NativePriceUSD: decimal.NewFromInt(1)})
	store.SaveToken(&entity.Token{ID: id(tokenAddr), Symbol: "TKN", Decimals: 18, DerivedNative: decimal.NewFromInt(2)})
	store.SaveToken(&entity.Token{ID: id(wavaxAddr), Symbol: "WAVAX", Decimals: 18, DerivedNative: decimal.NewFromInt(1)})
	store.SavePair(&entity.Pair{
		ID:                     id(pairAddr),
		Token0:                 id(tokenAddr),
		Token1:                 id(wavaxAddr),
		ReserveNative:          decimal.NewFromInt(150),
		LiquidityProviderCount: 10,
	})

	lookup := chain.NewStaticPairLookup()
	lookup.Register(tokenAddr, wavaxAddr, pairAddr)

	oracle := pricing.NewOracle(cfg, store, lookup, zerolog.Nop())
	corr := New(cfg, store, oracle, rollup.New(store), chain.NewStaticMetadata(), zerolog.Nop())
	return corr, store
}

func testMeta(txHash string) event.Meta {
	return event.Meta{
		PairAddress: pairAddr,
		TxHash:      common.HexToHash(txHash),
		BlockNumber: 100,
		Timestamp:   1_700_000_000,
		LogIndex:    1,
	}
}

func units(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000_000_000_000_000))
}

func TestBootstrapLockExcluded(t *testing.T) {
	corr, store := newTestCorrelator(t, testProtocol())
	meta := testMeta("0x01")

	ev := &event.Transfer{Meta: meta, From: userAddr, To: common.Address{}, Value: big.NewInt(1000)}
	if err := corr.HandleTransfer(context.Background(), ev); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}

	if tx := store.Transaction(hashID(meta.TxHash)); tx != nil {
		t.Fatal("bootstrap lock transfer must not open a transaction")
	}
	if !store.Pair(id(pairAddr)).TotalSupply.IsZero() {
		t.Fatal("bootstrap lock transfer must not move total supply")
	}
}

func TestStakingPoolTransferSkipped(t *testing.T) {
	corr, store := newTestCorrelator(t, testProtocol())

	ev := &event.Transfer{Meta: testMeta("0x02"), From: userAddr, To: poolAddr, Value: units(5)}
	if err := corr.HandleTransfer(context.Background(), ev); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}

	if tx := store.Transaction(hashID(ev.TxHash)); tx != nil {
		t.Fatal("staking transfers must not open a transaction")
	}
	if pos := store.LiquidityPosition(entity.LiquidityPositionID(id(pairAddr), id(userAddr))); pos != nil {
		t.Fatal("staking transfers must not move positions")
	}
}

func TestMintLifecycle(t *testing.T) {
	corr, store := newTestCorrelator(t, testProtocol())
	ctx := context.Background()
	meta := testMeta("0x03")

	transfer := &event.Transfer{Meta: meta, From: common.Address{}, To: userAddr, Value: units(10)}
	if err := corr.HandleTransfer(ctx, transfer); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}

	tx := store.Transaction(hashID(meta.TxHash))
	if tx == nil || len(tx.Mints) != 1 {
		t.Fatalf("expected one pending mint, got %+v", tx)
	}
	if store.Mint(tx.Mints[0]).Complete {
		t.Fatal("mint must start pending")
	}
	if !store.Pair(id(pairAddr)).TotalSupply.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("total supply not raised: %s", store.Pair(id(pairAddr)).TotalSupply)
	}

	detail := &event.Mint{Meta: meta, Sender: userAddr, Amount0: units(100), Amount1: units(50)}
	if err := corr.HandleMint(ctx, detail); err != nil {
		t.Fatalf("mint detail failed: %v", err)
	}

	mint := store.Mint(tx.Mints[0])
	if !mint.Complete {
		t.Fatal("mint not completed")
	}
	if mint.Sender != id(userAddr) {
		t.Fatalf("sender = %q", mint.Sender)
	}
	if !mint.Amount0.Equal(decimal.NewFromInt(100)) || !mint.Amount1.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("amounts = %s / %s", mint.Amount0, mint.Amount1)
	}
	// 100 units at derived 2 plus 50 units at derived 1.
	if !mint.AmountNative.Equal(decimal.NewFromInt(250)) {
		t.Fatalf("amount native = %s", mint.AmountNative)
	}
	if !mint.AmountUSD.Equal(decimal.NewFromInt(250)) {
		t.Fatalf("amount usd = %s", mint.AmountUSD)
	}

	if store.Pair(id(pairAddr)).TxCount != 1 {
		t.Fatal("pair tx count not bumped")
	}
	day, _ := entity.DayID(meta.Timestamp)
	if store.PairDay(entity.BucketID(id(pairAddr), day)) == nil {
		t.Fatal("pair day bucket not written")
	}

	pos := store.LiquidityPosition(entity.LiquidityPositionID(id(pairAddr), id(userAddr)))
	if pos == nil || !pos.LiquidityTokenBalance.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("position = %+v", pos)
	}
}

func TestSecondMintIsIndependent(t *testing.T) {
	corr, store := newTestCorrelator(t, testProtocol())
	ctx := context.Background()
	meta := testMeta("0x04")

	for i := 0; i < 2; i++ {
		transfer := &event.Transfer{Meta: meta, From: common.Address{}, To: userAddr, Value: units(10)}
		if err := corr.HandleTransfer(ctx, transfer); err != nil {
			t.Fatalf("transfer %d failed: %v", i, err)
		}
		detail := &event.Mint{Meta: meta, Sender: userAddr, Amount0: units(1), Amount1: units(1)}
		if err := corr.HandleMint(ctx, detail); err != nil {
			t.Fatalf("mint detail %d failed: %v", i, err)
		}
	}

	tx := store.Transaction(hashID(meta.TxHash))
	if len(tx.Mints) != 2 {
		t.Fatalf("expected two mint records, got %d", len(tx.Mints))
	}
	for _, mid := range tx.Mints {
		if !store.Mint(mid).Complete {
			t.Fatalf("mint %s left pending", mid)
		}
	}
}

func TestTwoStepBurn(t *testing.T) {
	corr, store := newTestCorrelator(t, testProtocol())
	ctx := context.Background()
	meta := testMeta("0x05")

	// Give the user a balance so the withdrawal does not go negative.
	seed := &event.Transfer{Meta: meta, From: common.Address{}, To: userAddr, Value: units(10)}
	if err := corr.HandleTransfer(ctx, seed); err != nil {
		t.Fatalf("seed transfer failed: %v", err)
	}
	if err := corr.HandleMint(ctx, &event.Mint{Meta: meta, Sender: userAddr, Amount0: units(1), Amount1: units(1)}); err != nil {
		t.Fatalf("seed mint failed: %v", err)
	}

	sendToPair := &event.Transfer{Meta: meta, From: userAddr, To: pairAddr, Value: units(10)}
	if err := corr.HandleTransfer(ctx, sendToPair); err != nil {
		t.Fatalf("send to pair failed: %v", err)
	}

	tx := store.Transaction(hashID(meta.TxHash))
	if len(tx.Burns) != 1 {
		t.Fatalf("expected one burn, got %d", len(tx.Burns))
	}
	if !store.Burn(tx.Burns[0]).NeedsComplete {
		t.Fatal("direct send must open a needs-complete burn")
	}

	toZero := &event.Transfer{Meta: meta, From: pairAddr, To: common.Address{}, Value: units(10)}
	if err := corr.HandleTransfer(ctx, toZero); err != nil {
		t.Fatalf("burn leg failed: %v", err)
	}

	tx = store.Transaction(hashID(meta.TxHash))
	if len(tx.Burns) != 1 {
		t.Fatalf("burn leg must reuse the pending record, got %d", len(tx.Burns))
	}

	detail := &event.Burn{Meta: meta, Sender: userAddr, To: userAddr, Amount0: units(1), Amount1: units(1)}
	if err := corr.HandleBurn(ctx, detail); err != nil {
		t.Fatalf("burn detail failed: %v", err)
	}

	burn := store.Burn(tx.Burns[0])
	if burn.NeedsComplete || !burn.Complete {
		t.Fatalf("burn state = needsComplete %v complete %v", burn.NeedsComplete, burn.Complete)
	}
	if !burn.Amount0.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("amount0 = %s", burn.Amount0)
	}
	if !store.Pair(id(pairAddr)).TotalSupply.IsZero() {
		t.Fatalf("total supply = %s", store.Pair(id(pairAddr)).TotalSupply)
	}
}

func TestFeeMintCollapsesIntoBurn(t *testing.T) {
	corr, store := newTestCorrelator(t, testProtocol())
	ctx := context.Background()
	meta := testMeta("0x06")

	feeMint := &event.Transfer{Meta: meta, From: common.Address{}, To: otherAddr, Value: units(1)}
	if err := corr.HandleTransfer(ctx, feeMint); err != nil {
		t.Fatalf("fee mint transfer failed: %v", err)
	}
	tx := store.Transaction(hashID(meta.TxHash))
	mintID := tx.Mints[0]

	burnLeg := &event.Transfer{Meta: meta, From: pairAddr, To: common.Address{}, Value: units(10)}
	if err := corr.HandleTransfer(ctx, burnLeg); err != nil {
		t.Fatalf("burn leg failed: %v", err)
	}

	tx = store.Transaction(hashID(meta.TxHash))
	if len(tx.Mints) != 0 {
		t.Fatal("fee mint id left on transaction")
	}
	if store.Mint(mintID) != nil {
		t.Fatal("fee mint record not removed")
	}
	if len(tx.Burns) != 1 {
		t.Fatalf("expected one burn, got %d", len(tx.Burns))
	}
	burn := store.Burn(tx.Burns[0])
	if burn.FeeTo != id(otherAddr) {
		t.Fatalf("fee recipient = %q", burn.FeeTo)
	}
	if !burn.FeeLiquidity.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("fee liquidity = %s", burn.FeeLiquidity)
	}
}

func TestBurnDetailWithoutTransactionSkips(t *testing.T) {
	corr, _ := newTestCorrelator(t, testProtocol())

	detail := &event.Burn{Meta: testMeta("0x07"), Sender: userAddr, To: userAddr, Amount0: units(1), Amount1: units(1)}
	if err := corr.HandleBurn(context.Background(), detail); err != nil {
		t.Fatalf("orphan burn detail must be a no-op, got %v", err)
	}
}

func TestMintDetailWithoutTransactionFails(t *testing.T) {
	corr, _ := newTestCorrelator(t, testProtocol())

	detail := &event.Mint{Meta: testMeta("0x08"), Sender: userAddr, Amount0: units(1), Amount1: units(1)}
	if err := corr.HandleMint(context.Background(), detail); err == nil {
		t.Fatal("orphan mint detail must fail")
	}
}

func TestSyncRecomputesPricesAndLiquidity(t *testing.T) {
	corr, store := newTestCorrelator(t, testProtocol())
	ctx := context.Background()

	sync := &event.Sync{Meta: testMeta("0x09"), Reserve0: units(200), Reserve1: units(100)}
	if err := corr.HandleSync(ctx, sync); err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	pair := store.Pair(id(pairAddr))
	if !pair.Token0Price.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("token0 price = %s", pair.Token0Price)
	}
	if !pair.Token0Price.Mul(pair.Reserve1).Equal(pair.Reserve0) {
		t.Fatal("price does not reproduce reserve0")
	}

	// Only wavax is whitelisted, so tracked liquidity doubles its side:
	// 2 * 100 * 1 USD, at a native price of 1.
	want := decimal.NewFromInt(200)
	if !pair.TrackedReserveNative.Equal(want) {
		t.Fatalf("tracked reserve = %s", pair.TrackedReserveNative)
	}
	factory := store.Factory(id(factoryAddr))
	if !factory.TotalLiquidityNative.Equal(want) {
		t.Fatalf("factory liquidity = %s", factory.TotalLiquidityNative)
	}

	// The pair holds token0 at a ratio of 0.5 wavax when walking the
	// whitelist through wavax.
	token0 := store.Token(id(tokenAddr))
	if !token0.DerivedNative.Equal(decimal.NewFromFloat(0.5)) {
		t.Fatalf("derived native = %s", token0.DerivedNative)
	}
	if !store.Token(id(wavaxAddr)).DerivedNative.Equal(decimal.NewFromInt(1)) {
		t.Fatal("wrapped native must derive to one")
	}
	if !token0.TotalLiquidity.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("token0 liquidity = %s", token0.TotalLiquidity)
	}
}

func TestRepeatedSyncDoesNotDoubleCount(t *testing.T) {
	corr, store := newTestCorrelator(t, testProtocol())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		sync := &event.Sync{Meta: testMeta("0x0a"), Reserve0: units(200), Reserve1: units(100)}
		if err := corr.HandleSync(ctx, sync); err != nil {
			t.Fatalf("sync %d failed: %v", i, err)
		}
	}

	factory := store.Factory(id(factoryAddr))
	if !factory.TotalLiquidityNative.Equal(store.Pair(id(pairAddr)).TrackedReserveNative) {
		t.Fatalf("factory liquidity %s drifted from pair tracked reserve %s",
			factory.TotalLiquidityNative, store.Pair(id(pairAddr)).TrackedReserveNative)
	}
	if !store.Token(id(tokenAddr)).TotalLiquidity.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("token liquidity = %s", store.Token(id(tokenAddr)).TotalLiquidity)
	}
}

func TestSwapRouterUnwrapAndVolume(t *testing.T) {
	corr, store := newTestCorrelator(t, testProtocol())
	ctx := context.Background()
	meta := testMeta("0x0b")

	swap := &event.Swap{
		Meta:       meta,
		Sender:     routerAddr,
		To:         routerAddr,
		Amount0In:  units(100),
		Amount1In:  big.NewInt(0),
		Amount0Out: big.NewInt(0),
		Amount1Out: units(50),
	}
	swap.Origin = userAddr

	if err := corr.HandleSwap(ctx, swap); err != nil {
		t.Fatalf("swap failed: %v", err)
	}

	tx := store.Transaction(hashID(meta.TxHash))
	if tx == nil || len(tx.Swaps) != 1 {
		t.Fatalf("expected one swap, got %+v", tx)
	}
	rec := store.Swap(tx.Swaps[0])
	if rec.To != id(userAddr) {
		t.Fatalf("router swap must resolve to the origin, got %q", rec.To)
	}

	// Only the wavax side is whitelisted: tracked volume is 50 * 1 USD.
	want := decimal.NewFromInt(50)
	if !rec.AmountUSD.Equal(want) {
		t.Fatalf("swap usd = %s", rec.AmountUSD)
	}
	if !store.Factory(id(factoryAddr)).TotalVolumeUSD.Equal(want) {
		t.Fatalf("factory volume = %s", store.Factory(id(factoryAddr)).TotalVolumeUSD)
	}
	pair := store.Pair(id(pairAddr))
	if !pair.VolumeToken0.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("volume token0 = %s", pair.VolumeToken0)
	}

	day, _ := entity.DayID(meta.Timestamp)
	factoryDay := store.FactoryDay(entity.BucketID(id(factoryAddr), day))
	if factoryDay == nil || !factoryDay.DailyVolumeUSD.Equal(want) {
		t.Fatalf("factory day bucket = %+v", factoryDay)
	}
	tokenDay := store.TokenDay(entity.BucketID(id(tokenAddr), day))
	if tokenDay == nil || !tokenDay.DailyVolumeUSD.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("token day bucket = %+v", tokenDay)
	}
}

func TestSwapFallsBackToDerivedValue(t *testing.T) {
	cfg := testProtocol()
	cfg.Whitelist = []string{id(usdAddr)}
	corr, store := newTestCorrelator(t, cfg)
	meta := testMeta("0x0c")

	swap := &event.Swap{
		Meta:       meta,
		Sender:     userAddr,
		To:         userAddr,
		Amount0In:  units(100),
		Amount1In:  big.NewInt(0),
		Amount0Out: big.NewInt(0),
		Amount1Out: units(50),
	}
	swap.Origin = userAddr

	if err := corr.HandleSwap(context.Background(), swap); err != nil {
		t.Fatalf("swap failed: %v", err)
	}

	tx := store.Transaction(hashID(meta.TxHash))
	rec := store.Swap(tx.Swaps[0])
	// Neither token is whitelisted: tracked volume is zero and the record
	// carries the derived average, (100*2 + 50*1) / 2.
	if !rec.AmountUSD.Equal(decimal.NewFromInt(125)) {
		t.Fatalf("swap usd = %s", rec.AmountUSD)
	}
	if !store.Factory(id(factoryAddr)).TotalVolumeUSD.IsZero() {
		t.Fatal("untracked swap must not move tracked factory volume")
	}
	if !store.Factory(id(factoryAddr)).UntrackedVolumeUSD.Equal(decimal.NewFromInt(125)) {
		t.Fatalf("factory untracked = %s", store.Factory(id(factoryAddr)).UntrackedVolumeUSD)
	}
}

func TestHandlePairCreated(t *testing.T) {
	cfg := testProtocol()
	store := entity.NewStore()
	store.SaveFactory(&entity.Factory{ID: cfg.FactoryAddress})
	store.SaveBundle(&entity.Bundle{ID: entity.BundleID})

	metadata := chain.NewStaticMetadata()
	metadata.Register(tokenAddr, chain.TokenMetadata{Symbol: "TKN", Name: "Token", Decimals: 18})
	metadata.Register(wavaxAddr, chain.TokenMetadata{Symbol: "WAVAX", Name: "Wrapped AVAX", Decimals: 18})

	oracle := pricing.NewOracle(cfg, store, chain.NewStaticPairLookup(), zerolog.Nop())
	corr := New(cfg, store, oracle, rollup.New(store), metadata, zerolog.Nop())

	ev := &event.PairCreated{
		Meta:   event.Meta{PairAddress: factoryAddr, TxHash: common.HexToHash("0x0d"), BlockNumber: 42, Timestamp: 1_700_000_000},
		Token0: tokenAddr,
		Token1: wavaxAddr,
		Pair:   pairAddr,
	}
	if err := corr.HandlePairCreated(context.Background(), ev); err != nil {
		t.Fatalf("pair created failed: %v", err)
	}

	pair := store.Pair(id(pairAddr))
	if pair == nil {
		t.Fatal("pair not created")
	}
	if pair.Token0 != id(tokenAddr) || pair.Token1 != id(wavaxAddr) {
		t.Fatalf("pair tokens = %q / %q", pair.Token0, pair.Token1)
	}
	if pair.CreatedAtBlock != 42 {
		t.Fatalf("created at block = %d", pair.CreatedAtBlock)
	}
	if token := store.Token(id(tokenAddr)); token == nil || token.Symbol != "TKN" || token.Decimals != 18 {
		t.Fatalf("token0 = %+v", token)
	}
	if store.Factory(cfg.FactoryAddress).PairCount != 1 {
		t.Fatal("pair count not bumped")
	}

	if err := corr.HandlePairCreated(context.Background(), ev); err == nil {
		t.Fatal("duplicate pair creation must fail")
	}
}
