// Package audit publishes every executed trade to an external NATS
// subject via a Watermill publisher, for downstream clearing/analytics
// consumers. This is a one-way, best-effort notification: the core never
// reads it back, per §1's "external collaborators" boundary.
package audit

import (
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	wmnats "github.com/ThreeDotsLabs/watermill-nats/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/nortvale/matchcore/internal/core/matching"
)

// Publisher fans trade notifications out to NATS through a bounded
// goroutine pool, so a burst of matches cannot spawn unbounded publish
// goroutines under load.
type Publisher struct {
	pub     message.Publisher
	pool    *ants.Pool
	subject string
	logger  *zap.Logger
}

// tradeEnvelope is the wire shape published to the audit subject.
type tradeEnvelope struct {
	Symbol string         `json:"symbol"`
	Trade  matching.Trade `json:"trade"`
}

// New connects a Watermill NATS publisher to natsURL and builds a
// bounded worker pool of poolSize goroutines to drive it.
func New(natsURL, subject string, poolSize int, logger watermill.LoggerAdapter, zlog *zap.Logger) (*Publisher, error) {
	pub, err := wmnats.NewPublisher(
		wmnats.PublisherConfig{
			URL:       natsURL,
			Marshaler: wmnats.GobMarshaler{},
		},
		logger,
	)
	if err != nil {
		return nil, err
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	return &Publisher{pub: pub, pool: pool, subject: subject, logger: zlog}, nil
}

// PublishTrade schedules a best-effort publish of one executed trade.
// Errors are logged, never propagated: a struggling audit sink must
// never slow down or fail matching.
func (p *Publisher) PublishTrade(symbol string, trade matching.Trade) {
	submitErr := p.pool.Submit(func() {
		payload, err := json.Marshal(tradeEnvelope{Symbol: symbol, Trade: trade})
		if err != nil {
			p.logger.Error("failed to marshal trade for audit publish", zap.Error(err))
			return
		}
		msg := message.NewMessage(trade.ID.String(), payload)
		if err := p.pub.Publish(p.subject, msg); err != nil {
			p.logger.Warn("failed to publish trade audit event", zap.Error(err), zap.String("trade_id", trade.ID.String()))
		}
	})
	if submitErr != nil {
		p.logger.Warn("audit publish pool rejected task", zap.Error(submitErr))
	}
}

// Close releases the publisher and worker pool.
func (p *Publisher) Close() error {
	p.pool.Release()
	return p.pub.Close()
}
