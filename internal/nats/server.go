package nats

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/jjweiting/hackthon001/internal/protocol"
)

// GameRequestHandler serves game module requests.
type GameRequestHandler interface {
	HandleGameRequest(ctx context.Context, req *protocol.GameRequest)
}

// SubscriberConfig sizes the request worker pool.
type SubscriberConfig struct {
	WorkerCount int
	BufferSize  int
}

// GameRequestSubscriber consumes SubjectGameRequest in the queue group and
// fans requests out to a worker pool.
type GameRequestSubscriber struct {
	nc           *nats.Conn
	handler      GameRequestHandler
	logger       *slog.Logger
	subscription *nats.Subscription
	config       SubscriberConfig
	msgChan      chan *nats.Msg
	wg           sync.WaitGroup
	cancelFunc   context.CancelFunc
}

func NewGameRequestSubscriber(nc *nats.Conn, handler GameRequestHandler, config SubscriberConfig) *GameRequestSubscriber {
	if config.WorkerCount <= 0 {
		config.WorkerCount = 4
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 1024
	}

	return &GameRequestSubscriber{
		nc:      nc,
		handler: handler,
		logger:  slog.Default().With("component", "nats.gamerequest"),
		config:  config,
	}
}

func (s *GameRequestSubscriber) Start(ctx context.Context) error {
	s.msgChan = make(chan *nats.Msg, s.config.BufferSize)

	workerCtx, cancel := context.WithCancel(ctx)
	s.cancelFunc = cancel

	for i := 0; i < s.config.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(workerCtx)
	}

	sub, err := s.nc.QueueSubscribe(SubjectGameRequest, QueueGroupGame, func(msg *nats.Msg) {
		select {
		case s.msgChan <- msg:
		default:
			s.logger.Warn("Request buffer full, dropping request", "bufferSize", s.config.BufferSize)
		}
	})
	if err != nil {
		cancel()
		return err
	}

	s.subscription = sub
	s.logger.Info("Game request subscriber started",
		"subject", SubjectGameRequest,
		"workerCount", s.config.WorkerCount,
		"bufferSize", s.config.BufferSize,
	)
	return nil
}

func (s *GameRequestSubscriber) worker(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-s.msgChan:
			if !ok {
				return
			}
			var req protocol.GameRequest
			if err := json.Unmarshal(msg.Data, &req); err != nil {
				s.logger.Error("Failed to unmarshal game request", "error", err)
				continue
			}
			s.handler.HandleGameRequest(ctx, &req)
		}
	}
}

func (s *GameRequestSubscriber) Stop() {
	if s.subscription != nil {
		if err := s.subscription.Unsubscribe(); err != nil {
			s.logger.Error("Failed to unsubscribe", "error", err)
		}
	}
	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	s.wg.Wait()
	s.logger.Info("Game request subscriber stopped")
}

// NotificationPublisher sends lifecycle events to a channel's members.
type NotificationPublisher struct {
	nc     *nats.Conn
	logger *slog.Logger
}

func NewNotificationPublisher(nc *nats.Conn) *NotificationPublisher {
	return &NotificationPublisher{nc: nc, logger: slog.Default().With("component", "nats.notify")}
}

func (p *NotificationPublisher) Publish(channelID string, n protocol.Notification) error {
	data, err := protocol.EncodeNotification(n)
	if err != nil {
		return err
	}
	if err := p.nc.Publish(BuildGameEventSubject(channelID), data); err != nil {
		p.logger.Error("Failed to publish notification", "channel", channelID, "type", n.NotificationType(), "error", err)
		return err
	}
	p.logger.Debug("Published notification", "channel", channelID, "type", n.NotificationType())
	return nil
}
