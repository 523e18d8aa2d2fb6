package db

import (
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/nortvale/matchcore/internal/config"
)

// Connect opens the postgres connection described by cfg.Database. It
// does not migrate the schema; repositories.Migrate does that.
func Connect(cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.User,
		cfg.Database.Password, cfg.Database.Name, cfg.Database.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	logger.Info("connected to database", zap.String("host", cfg.Database.Host), zap.String("name", cfg.Database.Name))
	return db, nil
}

// Writer wraps every persistence write the HTTP layer issues after a
// successful submit/cancel in a circuit breaker, so a struggling
// database degrades to rejected writes instead of backing up order
// handling. Matching and the in-memory core are never blocked by this:
// Writer is only ever called after a core operation has already
// returned its result to the caller.
type Writer struct {
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger
}

// NewWriter builds a Writer with a conservative default breaker policy:
// trip after 5 consecutive failures, half-open retry after 10s.
func NewWriter(logger *zap.Logger) *Writer {
	settings := gobreaker.Settings{
		Name:        "persistence-writer",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", zap.String("breaker", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	}
	return &Writer{cb: gobreaker.NewCircuitBreaker(settings), logger: logger}
}

// Do runs fn through the breaker, logging (but not panicking on) a
// rejected or failing write: persistence failures never propagate back
// into the matching path.
func (w *Writer) Do(op string, fn func() error) {
	_, err := w.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if err != nil {
		w.logger.Error("persistence write failed", zap.String("op", op), zap.Error(err))
	}
}
