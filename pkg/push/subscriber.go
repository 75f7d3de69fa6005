// Package push pkg/push/subscriber.go maintains the process-wide push
// connection and fans decoded events out to the dashboard sessions.
package push

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/omnisense/raindash/pkg/models"
)

// reconnectInterval paces reconnect attempts after a dropped connection.
const reconnectInterval = 5

// Handler consumes the typed events the subscriber decodes. Exactly one
// handler hangs off the process-wide connection; it is responsible for
// the per-device fan-out.
type Handler interface {
	HandleReading(models.ReadingEvent)
	HandleDeviceUpdate(models.DeviceSummary)
}

// Subscriber owns one long-lived websocket connection to the backend
// push channel. Events are delivered to the handler strictly in arrival
// order; malformed payloads are dropped at this boundary and unknown
// event kinds are skipped.
type Subscriber struct {
	url     string
	handler Handler
	logger  *zap.SugaredLogger
	dialer  *websocket.Dialer
	limiter *rate.Limiter

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewSubscriber creates a subscriber for the push endpoint at url
// (a ws:// or wss:// URL).
func NewSubscriber(url string, handler Handler, logger *zap.SugaredLogger) *Subscriber {
	return &Subscriber{
		url:     url,
		handler: handler,
		logger:  logger,
		dialer:  websocket.DefaultDialer,
		limiter: rate.NewLimiter(rate.Limit(1.0/reconnectInterval), 1),
	}
}

// Run connects and reads events until ctx is canceled, reconnecting
// with paced retries when the connection drops. Range changes on the
// consuming sessions never tear this connection down; only ctx does.
func (s *Subscriber) Run(ctx context.Context) error {
	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}

		conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
		if err != nil {
			s.logger.Warnw("push dial failed", "url", s.url, "error", err)
			continue
		}

		s.setConn(conn)
		s.logger.Infow("push channel connected", "url", s.url)

		s.readLoop(ctx, conn)
		s.setConn(nil)

		if ctx.Err() != nil {
			return ctx.Err()
		}

		s.logger.Infow("push channel lost, reconnecting")
	}
}

// Close tears down the current connection, unblocking the read loop.
func (s *Subscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}

	err := s.conn.Close()
	s.conn = nil

	return err
}

func (s *Subscriber) setConn(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conn = conn
}

func (s *Subscriber) readLoop(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Warnw("push read failed", "error", err)
			}

			return
		}

		s.dispatch(data)
	}
}

// dispatch decodes one envelope and routes it. A bad message is logged
// and dropped; it can never corrupt session state or end the loop.
func (s *Subscriber) dispatch(data []byte) {
	var envelope models.Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		s.logger.Debugw("dropping undecodable push message", "error", err)
		return
	}

	switch envelope.Event {
	case models.EventReadingNew:
		ev, err := models.DecodeReadingEvent(envelope.Payload)
		if err != nil {
			s.logMalformed(envelope.Event, err)
			return
		}

		s.handler.HandleReading(ev)
	case models.EventDeviceUpdate:
		summary, err := models.DecodeDeviceUpdate(envelope.Payload)
		if err != nil {
			s.logMalformed(envelope.Event, err)
			return
		}

		s.handler.HandleDeviceUpdate(summary)
	default:
		// Other event kinds (image:new and anything newer than this
		// client) are not consumed here.
	}
}

func (s *Subscriber) logMalformed(event string, err error) {
	if errors.Is(err, models.ErrMalformedEvent) {
		s.logger.Debugw("dropping malformed push event", "event", event)
		return
	}

	s.logger.Debugw("dropping push event", "event", event, "error", err)
}
