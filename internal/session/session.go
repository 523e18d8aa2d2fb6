// Package session implements the subscriber-side protocol described in
// §4.F: parsing inbound control frames, tracking one connection's
// subscription set, and deciding whether an outbound bus message should
// be forwarded to it. The actual read/write loop lives in internal/ws,
// which drives a Session the same way the teacher's Client drove a Hub.
package session

import (
	"encoding/json"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/nortvale/matchcore/internal/eventbus"
)

const (
	actionSubscribe   = "subscribe"
	actionUnsubscribe = "unsubscribe"

	statusSuccess = "success"
	statusError   = "error"
)

// ControlFrame is one inbound message: {"action": "...", "symbol": "..."}.
type ControlFrame struct {
	Action string `json:"action"`
	Symbol string `json:"symbol"`
}

// Ack is the response to every control frame, malformed or not.
type Ack struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Symbol  string `json:"symbol,omitempty"`
}

// Session holds one connection's subscription set. The zero value is
// not usable; use New.
type Session struct {
	mu            sync.Mutex
	subscriptions map[string]struct{}
	exists        func(symbol string) bool
	logger        *zap.Logger
}

// New builds a Session with an empty subscription set. exists reports
// whether a symbol is configured in the registry.
func New(exists func(symbol string) bool, logger *zap.Logger) *Session {
	return &Session{
		subscriptions: make(map[string]struct{}),
		exists:        exists,
		logger:        logger,
	}
}

// HandleControlFrame parses one inbound frame and applies it, returning
// the JSON-encoded acknowledgement to send back. A malformed frame
// produces a single error acknowledgement and never terminates the
// session.
func (s *Session) HandleControlFrame(raw []byte) []byte {
	var frame ControlFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return mustMarshal(Ack{Status: statusError, Message: "malformed control frame"})
	}

	switch frame.Action {
	case actionSubscribe:
		return mustMarshal(s.subscribe(frame.Symbol))
	case actionUnsubscribe:
		return mustMarshal(s.unsubscribe(frame.Symbol))
	default:
		return mustMarshal(Ack{Status: statusError, Message: "unknown action", Symbol: frame.Symbol})
	}
}

func (s *Session) subscribe(symbol string) Ack {
	symbol = strings.ToUpper(symbol)
	if symbol == "" || !s.exists(symbol) {
		return Ack{Status: statusError, Message: "symbol not found", Symbol: symbol}
	}
	s.mu.Lock()
	s.subscriptions[symbol] = struct{}{}
	s.mu.Unlock()
	return Ack{Status: statusSuccess, Message: "subscribed", Symbol: symbol}
}

func (s *Session) unsubscribe(symbol string) Ack {
	symbol = strings.ToUpper(symbol)
	s.mu.Lock()
	delete(s.subscriptions, symbol)
	s.mu.Unlock()
	return Ack{Status: statusSuccess, Message: "unsubscribed", Symbol: symbol}
}

// Subscribed reports whether symbol is in the current subscription set.
func (s *Session) Subscribed(symbol string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.subscriptions[symbol]
	return ok
}

// ShouldForward decides whether an outbound bus message matches this
// session's subscriptions.
func (s *Session) ShouldForward(msg eventbus.Message) bool {
	switch msg.Type {
	case eventbus.MessageTypeOrderBookUpdate:
		return msg.OrderBookUpdate != nil && s.Subscribed(msg.OrderBookUpdate.Symbol)
	case eventbus.MessageTypeTrade:
		return msg.Trade != nil && s.Subscribed(msg.Trade.Symbol)
	default:
		return false
	}
}

func mustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic("session: failed to marshal acknowledgement: " + err.Error())
	}
	return b
}
