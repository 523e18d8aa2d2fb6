// Package registry holds the fixed, startup-configured mapping from
// symbol to the Engine that owns its ladder. No symbol may be added or
// removed once the registry is built.
package registry

import (
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/nortvale/matchcore/internal/core/matching"
)

// ErrSymbolNotFound is returned by Lookup for any symbol outside the
// configured list.
var ErrSymbolNotFound = errors.New("symbol not found")

// Registry is an immutable symbol-to-engine map built once at startup.
type Registry struct {
	engines map[string]*matching.Engine
	symbols []string
}

// New builds a Registry with one Engine per symbol. Symbols are
// normalized to uppercase; duplicates (after normalization) collapse to
// a single engine, matching a fixed configuration list that should not
// contain them in the first place.
func New(symbols []string, tradeRingCapacity int, logger *zap.Logger) *Registry {
	r := &Registry{engines: make(map[string]*matching.Engine, len(symbols))}
	for _, raw := range symbols {
		sym := strings.ToUpper(strings.TrimSpace(raw))
		if sym == "" {
			continue
		}
		if _, exists := r.engines[sym]; exists {
			continue
		}
		r.engines[sym] = matching.NewEngine(sym, tradeRingCapacity, logger.With(zap.String("symbol", sym)))
		r.symbols = append(r.symbols, sym)
	}
	return r
}

// Lookup normalizes symbol to uppercase and returns its engine.
func (r *Registry) Lookup(symbol string) (*matching.Engine, error) {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	e, ok := r.engines[sym]
	if !ok {
		return nil, ErrSymbolNotFound
	}
	return e, nil
}

// Symbols returns the configured symbol list in registration order.
func (r *Registry) Symbols() []string {
	out := make([]string, len(r.symbols))
	copy(out, r.symbols)
	return out
}
