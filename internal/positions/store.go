// Package positions maintains one weighted-average-cost position per
// (user, symbol), updated one matched leg at a time. Grounded on the
// teacher's risk.PositionManager: a map-of-maps guarded by a
// sync.RWMutex with a patrickmn/go-cache read-through layer, adapted
// from float64 quantities to the engine's signed integer accounting.
package positions

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/nortvale/matchcore/internal/core/matching"
)

// Position is one user's net exposure to one symbol. Quantity is signed:
// positive is long, negative is short. It is never zero at rest — a leg
// that brings Quantity to zero deletes the entry instead.
type Position struct {
	UserID       string
	Symbol       string
	Quantity     int64
	AveragePrice matching.Price
	UpdatedAt    time.Time
}

const (
	cacheTTL        = 5 * time.Minute
	cacheCleanupTTL = 10 * time.Minute
)

// Store holds every user's positions in memory, writer-priority guarded
// per §5, with a short-TTL cache in front of reads.
type Store struct {
	mu        sync.RWMutex
	positions map[string]map[string]*Position

	cache  *cache.Cache
	logger *zap.Logger
}

// New builds an empty position store.
func New(logger *zap.Logger) *Store {
	return &Store{
		positions: make(map[string]map[string]*Position),
		cache:     cache.New(cacheTTL, cacheCleanupTTL),
		logger:    logger,
	}
}

func cacheKey(user, symbol string) string { return user + ":" + symbol }

// ApplyLeg folds one matched leg into user's position for symbol,
// implementing §4.D's weighted-average-cost update. It returns the
// resulting position, or nil if the leg closed it out exactly.
func (s *Store) ApplyLeg(user, symbol string, side matching.Side, price matching.Price, qty matching.Qty) *Position {
	delta := int64(qty)
	if side == matching.Sell {
		delta = -delta
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	userPositions := s.positions[user]
	if userPositions == nil {
		userPositions = make(map[string]*Position)
		s.positions[user] = userPositions
	}

	existing, ok := userPositions[symbol]
	if !ok {
		p := &Position{UserID: user, Symbol: symbol, Quantity: delta, AveragePrice: price, UpdatedAt: nowFunc()}
		userPositions[symbol] = p
		s.cache.Set(cacheKey(user, symbol), p, cache.DefaultExpiration)
		return p
	}

	newQuantity := existing.Quantity + delta
	if newQuantity == 0 {
		delete(userPositions, symbol)
		s.cache.Delete(cacheKey(user, symbol))
		s.logger.Debug("position closed", zap.String("user", user), zap.String("symbol", symbol))
		return nil
	}

	sameDirection := (existing.Quantity > 0) == (delta > 0)
	if sameDirection {
		numerator := existing.AveragePrice*matching.Price(existing.Quantity) + price*matching.Price(delta)
		existing.AveragePrice = numerator / matching.Price(newQuantity)
	}
	// Opposite direction (reduce or flip): average price is preserved
	// as-is, including across a flip, per §4.D and §9's noted
	// simplification.
	existing.Quantity = newQuantity
	existing.UpdatedAt = nowFunc()

	s.cache.Set(cacheKey(user, symbol), existing, cache.DefaultExpiration)
	s.logger.Debug("position updated",
		zap.String("user", user),
		zap.String("symbol", symbol),
		zap.Int64("quantity", existing.Quantity),
		zap.Int64("average_price", int64(existing.AveragePrice)))
	return existing
}

// Restore inserts a position loaded from storage without recomputing it,
// per §6.3's "positions hydrate by direct insertion" contract. Callers
// supply one row per (user, symbol); a zero quantity is refused since a
// position is never persisted once it reaches zero.
func (s *Store) Restore(p Position) {
	if p.Quantity == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	userPositions := s.positions[p.UserID]
	if userPositions == nil {
		userPositions = make(map[string]*Position)
		s.positions[p.UserID] = userPositions
	}
	restored := p
	userPositions[p.Symbol] = &restored
	s.cache.Set(cacheKey(p.UserID, p.Symbol), &restored, cache.DefaultExpiration)
}

// Positions returns a snapshot of user's positions, optionally filtered
// to one symbol. An empty symbol returns all of them.
func (s *Store) Positions(user, symbol string) []Position {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userPositions := s.positions[user]
	if userPositions == nil {
		return nil
	}

	if symbol != "" {
		p, ok := userPositions[symbol]
		if !ok {
			return nil
		}
		return []Position{*p}
	}

	out := make([]Position, 0, len(userPositions))
	for _, p := range userPositions {
		out = append(out, *p)
	}
	return out
}

// Get retrieves one position through the cache, falling back to the
// authoritative map on a miss.
func (s *Store) Get(user, symbol string) (Position, bool) {
	if cached, found := s.cache.Get(cacheKey(user, symbol)); found {
		if p, ok := cached.(*Position); ok {
			return *p, true
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	userPositions := s.positions[user]
	if userPositions == nil {
		return Position{}, false
	}
	p, ok := userPositions[symbol]
	if !ok {
		return Position{}, false
	}
	return *p, true
}

// UnrealizedPnL is a pure function of a position and a mark price; it
// works unmodified for longs (positive quantity) and shorts (negative
// quantity).
func UnrealizedPnL(p Position, markPrice matching.Price) int64 {
	return int64(markPrice-p.AveragePrice) * p.Quantity
}

var nowFunc = time.Now
