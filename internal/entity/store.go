package entity

import (
	"sync"
)

// Store owns all derived entities. Loads are null-safe: a missing id yields
// nil and callers must branch. Loads and saves copy, so a handler works on a
// private instance until it saves it back; the store is the sole arbiter of
// state between events.
//
// The event loop is single-threaded, but the snapshot flusher reads dirty
// sets from another goroutine, hence the mutex.
type Store struct {
	mu sync.RWMutex

	factories    map[string]Factory
	pairs        map[string]Pair
	tokens       map[string]Token
	bundles      map[string]Bundle
	transactions map[string]Transaction
	mints        map[string]Mint
	burns        map[string]Burn
	swaps        map[string]Swap
	users        map[string]User
	positions    map[string]LiquidityPosition
	snapshots    []LiquiditySnapshot

	pairDays    map[string]PairDayData
	pairHours   map[string]PairHourData
	factoryDays map[string]FactoryDayData
	tokenDays   map[string]TokenDayData

	dirtyPairs  map[string]struct{}
	dirtyTokens map[string]struct{}
}

// NewStore constructs an empty entity store.
func NewStore() *Store {
	return &Store{
		factories:    make(map[string]Factory),
		pairs:        make(map[string]Pair),
		tokens:       make(map[string]Token),
		bundles:      make(map[string]Bundle),
		transactions: make(map[string]Transaction),
		mints:        make(map[string]Mint),
		burns:        make(map[string]Burn),
		swaps:        make(map[string]Swap),
		users:        make(map[string]User),
		positions:    make(map[string]LiquidityPosition),
		pairDays:     make(map[string]PairDayData),
		pairHours:    make(map[string]PairHourData),
		factoryDays:  make(map[string]FactoryDayData),
		tokenDays:    make(map[string]TokenDayData),
		dirtyPairs:   make(map[string]struct{}),
		dirtyTokens:  make(map[string]struct{}),
	}
}

// Factory loads a factory aggregate, nil when absent.
func (s *Store) Factory(id string) *Factory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if f, ok := s.factories[id]; ok {
		return &f
	}
	return nil
}

// SaveFactory persists a factory aggregate.
func (s *Store) SaveFactory(f *Factory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.factories[f.ID] = *f
}

// Pair loads a pair, nil when absent.
func (s *Store) Pair(id string) *Pair {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.pairs[id]; ok {
		return &p
	}
	return nil
}

// SavePair persists a pair and marks it dirty for the next flush.
func (s *Store) SavePair(p *Pair) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pairs[p.ID] = *p
	s.dirtyPairs[p.ID] = struct{}{}
}

// Pairs returns a copy of every pair.
func (s *Store) Pairs() []Pair {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Pair, 0, len(s.pairs))
	for _, p := range s.pairs {
		out = append(out, p)
	}
	return out
}

// Token loads a token, nil when absent.
func (s *Store) Token(id string) *Token {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.tokens[id]; ok {
		return &t
	}
	return nil
}

// SaveToken persists a token and marks it dirty for the next flush.
func (s *Store) SaveToken(t *Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[t.ID] = *t
	s.dirtyTokens[t.ID] = struct{}{}
}

// Bundle loads the singleton bundle, nil when absent.
func (s *Store) Bundle() *Bundle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if b, ok := s.bundles[BundleID]; ok {
		return &b
	}
	return nil
}

// SaveBundle persists the singleton bundle.
func (s *Store) SaveBundle(b *Bundle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == "" {
		b.ID = BundleID
	}
	s.bundles[b.ID] = *b
}

// Transaction loads a transaction, nil when absent.
func (s *Store) Transaction(id string) *Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if tx, ok := s.transactions[id]; ok {
		tx.Mints = append([]string(nil), tx.Mints...)
		tx.Burns = append([]string(nil), tx.Burns...)
		tx.Swaps = append([]string(nil), tx.Swaps...)
		return &tx
	}
	return nil
}

// SaveTransaction persists a transaction.
func (s *Store) SaveTransaction(tx *Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *tx
	stored.Mints = append([]string(nil), tx.Mints...)
	stored.Burns = append([]string(nil), tx.Burns...)
	stored.Swaps = append([]string(nil), tx.Swaps...)
	s.transactions[stored.ID] = stored
}

// Mint loads a mint record, nil when absent.
func (s *Store) Mint(id string) *Mint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if m, ok := s.mints[id]; ok {
		return &m
	}
	return nil
}

// SaveMint persists a mint record.
func (s *Store) SaveMint(m *Mint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mints[m.ID] = *m
}

// RemoveMint deletes a mint record. Used when a pending mint turns out to be
// the protocol fee mint of an enclosing burn.
func (s *Store) RemoveMint(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.mints, id)
}

// Burn loads a burn record, nil when absent.
func (s *Store) Burn(id string) *Burn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if b, ok := s.burns[id]; ok {
		return &b
	}
	return nil
}

// SaveBurn persists a burn record.
func (s *Store) SaveBurn(b *Burn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.burns[b.ID] = *b
}

// Swap loads a swap record, nil when absent.
func (s *Store) Swap(id string) *Swap {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sw, ok := s.swaps[id]; ok {
		return &sw
	}
	return nil
}

// SaveSwap persists a swap record.
func (s *Store) SaveSwap(sw *Swap) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.swaps[sw.ID] = *sw
}

// User loads a user, nil when absent.
func (s *Store) User(id string) *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[id]; ok {
		return &u
	}
	return nil
}

// SaveUser persists a user.
func (s *Store) SaveUser(u *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = *u
}

// LiquidityPosition loads a position, nil when absent.
func (s *Store) LiquidityPosition(id string) *LiquidityPosition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.positions[id]; ok {
		return &p
	}
	return nil
}

// SaveLiquidityPosition persists a position.
func (s *Store) SaveLiquidityPosition(p *LiquidityPosition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions[p.ID] = *p
}

// AddLiquiditySnapshot appends a historical snapshot.
func (s *Store) AddLiquiditySnapshot(snap *LiquiditySnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = append(s.snapshots, *snap)
}

// LiquiditySnapshots returns a copy of all appended snapshots.
func (s *Store) LiquiditySnapshots() []LiquiditySnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]LiquiditySnapshot(nil), s.snapshots...)
}

// PairDay loads a pair-day bucket, nil when absent.
func (s *Store) PairDay(id string) *PairDayData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if d, ok := s.pairDays[id]; ok {
		return &d
	}
	return nil
}

// SavePairDay persists a pair-day bucket.
func (s *Store) SavePairDay(d *PairDayData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pairDays[d.ID] = *d
}

// PairHour loads a pair-hour bucket, nil when absent.
func (s *Store) PairHour(id string) *PairHourData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if d, ok := s.pairHours[id]; ok {
		return &d
	}
	return nil
}

// SavePairHour persists a pair-hour bucket.
func (s *Store) SavePairHour(d *PairHourData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pairHours[d.ID] = *d
}

// FactoryDay loads a factory-day bucket, nil when absent.
func (s *Store) FactoryDay(id string) *FactoryDayData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if d, ok := s.factoryDays[id]; ok {
		return &d
	}
	return nil
}

// SaveFactoryDay persists a factory-day bucket.
func (s *Store) SaveFactoryDay(d *FactoryDayData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.factoryDays[d.ID] = *d
}

// TokenDay loads a token-day bucket, nil when absent.
func (s *Store) TokenDay(id string) *TokenDayData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if d, ok := s.tokenDays[id]; ok {
		return &d
	}
	return nil
}

// SaveTokenDay persists a token-day bucket.
func (s *Store) SaveTokenDay(d *TokenDayData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenDays[d.ID] = *d
}

// DrainDirty returns the pairs and tokens modified since the previous drain
// and resets the dirty sets.
func (s *Store) DrainDirty() ([]Pair, []Token) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pairs := make([]Pair, 0, len(s.dirtyPairs))
	for id := range s.dirtyPairs {
		pairs = append(pairs, s.pairs[id])
	}
	tokens := make([]Token, 0, len(s.dirtyTokens))
	for id := range s.dirtyTokens {
		tokens = append(tokens, s.tokens[id])
	}

	s.dirtyPairs = make(map[string]struct{})
	s.dirtyTokens = make(map[string]struct{})
	return pairs, tokens
}
