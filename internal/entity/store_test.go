package entity

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestStoreCopiesOnLoadAndSave(t *testing.T) {
	store := NewStore()

	pair := &Pair{ID: "0x01", Reserve0: decimal.NewFromInt(5)}
	store.SavePair(pair)

	// Mutating the caller's struct after save must not reach the store.
	pair.Reserve0 = decimal.NewFromInt(99)
	if !store.Pair("0x01").Reserve0.Equal(decimal.NewFromInt(5)) {
		t.Fatal("store shares memory with the caller on save")
	}

	// Mutating a loaded struct must not reach the store either.
	loaded := store.Pair("0x01")
	loaded.Reserve0 = decimal.NewFromInt(77)
	if !store.Pair("0x01").Reserve0.Equal(decimal.NewFromInt(5)) {
		t.Fatal("store shares memory with the caller on load")
	}

	if store.Pair("0x02") != nil {
		t.Fatal("unknown id must load nil")
	}
}

func TestStoreTransactionClonesIDLists(t *testing.T) {
	store := NewStore()

	tx := &Transaction{ID: "0xaa", Mints: []string{"0xaa-0"}}
	store.SaveTransaction(tx)
	tx.Mints[0] = "corrupted"

	if store.Transaction("0xaa").Mints[0] != "0xaa-0" {
		t.Fatal("transaction id lists share memory with the caller")
	}

	loaded := store.Transaction("0xaa")
	loaded.Mints = append(loaded.Mints, "0xaa-1")
	if len(store.Transaction("0xaa").Mints) != 1 {
		t.Fatal("appending to a loaded transaction leaked into the store")
	}
}

func TestDrainDirtyResets(t *testing.T) {
	store := NewStore()
	store.SavePair(&Pair{ID: "0x01"})
	store.SaveToken(&Token{ID: "0x02"})

	pairs, tokens := store.DrainDirty()
	if len(pairs) != 1 || len(tokens) != 1 {
		t.Fatalf("drained %d pairs, %d tokens", len(pairs), len(tokens))
	}

	pairs, tokens = store.DrainDirty()
	if len(pairs) != 0 || len(tokens) != 0 {
		t.Fatal("drain must reset the dirty sets")
	}

	store.SavePair(&Pair{ID: "0x01", TxCount: 1})
	pairs, _ = store.DrainDirty()
	if len(pairs) != 1 || pairs[0].TxCount != 1 {
		t.Fatalf("re-dirtied pair not drained: %+v", pairs)
	}
}

func TestRemoveMint(t *testing.T) {
	store := NewStore()
	store.SaveMint(&Mint{ID: "0xaa-0"})
	store.RemoveMint("0xaa-0")
	if store.Mint("0xaa-0") != nil {
		t.Fatal("mint not removed")
	}
}

func TestBucketIDs(t *testing.T) {
	// 2023-11-14T22:13:20Z falls on day 19675.
	day, start := DayID(1_700_000_000)
	if day != 19675 {
		t.Fatalf("day = %d", day)
	}
	if start != 19675*86400 {
		t.Fatalf("start = %d", start)
	}
	if BucketID("0x01", day) != "0x01-19675" {
		t.Fatalf("bucket id = %s", BucketID("0x01", day))
	}

	hour, hourStart := HourID(1_700_000_000)
	if hourStart%3600 != 0 || hour*3600 != hourStart {
		t.Fatalf("hour %d start %d", hour, hourStart)
	}
}
