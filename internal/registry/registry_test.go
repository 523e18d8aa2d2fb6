package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLookup_NormalizesCase(t *testing.T) {
	r := New([]string{"btc-usd", "ETH-USD"}, 16, zap.NewNop())

	e, err := r.Lookup("btc-usd")
	require.NoError(t, err)
	require.NotNil(t, e)

	e2, err := r.Lookup("BTC-USD")
	require.NoError(t, err)
	assert.Same(t, e, e2, "lookup must resolve to the same engine regardless of input case")
}

func TestLookup_UnknownSymbol(t *testing.T) {
	r := New([]string{"BTC-USD"}, 16, zap.NewNop())

	_, err := r.Lookup("DOGE-USD")
	assert.ErrorIs(t, err, ErrSymbolNotFound)
}

func TestNew_DeduplicatesAfterNormalization(t *testing.T) {
	r := New([]string{"btc-usd", "BTC-USD", " btc-usd "}, 16, zap.NewNop())
	assert.Equal(t, []string{"BTC-USD"}, r.Symbols())
}

func TestSymbols_PreservesRegistrationOrder(t *testing.T) {
	r := New([]string{"ETH-USD", "BTC-USD", "SOL-USD"}, 16, zap.NewNop())
	assert.Equal(t, []string{"ETH-USD", "BTC-USD", "SOL-USD"}, r.Symbols())
}
