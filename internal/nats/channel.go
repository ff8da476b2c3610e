package nats

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/jjweiting/hackthon001/internal/protocol"
	"github.com/jjweiting/hackthon001/internal/transport"
)

// Dialer joins relay channels over NATS subjects.
type Dialer struct {
	client     *Client
	bufferSize int
	logger     *slog.Logger
}

var _ transport.ChannelDialer = (*Dialer)(nil)

// NewDialer creates a dialer whose channels buffer up to bufferSize inbound
// messages before dropping.
func NewDialer(client *Client, bufferSize int) *Dialer {
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	return &Dialer{
		client:     client,
		bufferSize: bufferSize,
		logger:     slog.Default().With("component", "nats.channel"),
	}
}

func (d *Dialer) Join(ctx context.Context, channelID, sessionID string, h transport.ChannelHandler) (transport.Channel, error) {
	if !d.client.IsConnected() {
		return nil, transport.ErrNotConnected
	}

	workerCtx, cancel := context.WithCancel(context.Background())
	ch := &Channel{
		nc:      d.client.Conn(),
		id:      channelID,
		session: sessionID,
		handler: h,
		msgChan: make(chan *nats.Msg, d.bufferSize),
		cancel:  cancel,
		logger:  d.logger.With("channel", channelID),
	}

	enqueue := func(msg *nats.Msg) {
		select {
		case ch.msgChan <- msg:
		default:
			ch.logger.Warn("Channel buffer full, dropping message", "bufferSize", d.bufferSize)
		}
	}

	msgSub, err := ch.nc.Subscribe(BuildChannelSubject(channelID), enqueue)
	if err != nil {
		cancel()
		return nil, err
	}
	eventSub, err := ch.nc.Subscribe(BuildGameEventSubject(channelID), enqueue)
	if err != nil {
		_ = msgSub.Unsubscribe()
		cancel()
		return nil, err
	}
	ch.subs = []*nats.Subscription{msgSub, eventSub}

	// make sure the interest is registered before the caller starts sending
	if err := ch.nc.FlushWithContext(ctx); err != nil {
		ch.logger.Warn("Flush after subscribe failed", "error", err)
	}

	ch.wg.Add(1)
	go ch.worker(workerCtx)

	ch.logger.Info("Joined channel", "session", sessionID)
	return ch, nil
}

// Channel is one NATS-backed channel membership. A single worker keeps the
// handler calls sequential.
type Channel struct {
	nc      *nats.Conn
	id      string
	session string
	handler transport.ChannelHandler
	subs    []*nats.Subscription
	msgChan chan *nats.Msg
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	logger  *slog.Logger

	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

var _ transport.Channel = (*Channel)(nil)

func (c *Channel) ID() string { return c.id }

func (c *Channel) Send(_ context.Context, msg protocol.Message) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return transport.ErrChannelClosed
	}

	data, err := protocol.Encode(c.session, msg)
	if err != nil {
		return err
	}
	return c.nc.Publish(BuildChannelSubject(c.id), data)
}

func (c *Channel) Game() transport.GameModule {
	return &GameModuleClient{nc: c.nc, channelID: c.id, sessionID: c.session}
}

// Close unsubscribes and waits for the worker to drain.
func (c *Channel) Close(context.Context) error {
	var errs []error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()

		for _, sub := range c.subs {
			if err := sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
				errs = append(errs, err)
			}
		}
		c.cancel()
		c.wg.Wait()
		c.logger.Info("Left channel", "session", c.session)
	})
	return errors.Join(errs...)
}

func (c *Channel) worker(ctx context.Context) {
	defer c.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-c.msgChan:
			c.handle(msg)
		}
	}
}

func (c *Channel) handle(msg *nats.Msg) {
	if msg.Subject == BuildGameEventSubject(c.id) {
		n, err := protocol.DecodeNotification(msg.Data)
		if err != nil {
			c.logger.Warn("Dropping game event", "error", err)
			return
		}
		c.handler.HandleNotification(n)
		return
	}

	sender, m, err := protocol.Decode(msg.Data)
	if err != nil {
		c.logger.Warn("Dropping malformed message", "error", err)
		return
	}
	c.handler.HandleMessage(sender, m)
}

// GameModuleClient publishes game module requests for one channel.
type GameModuleClient struct {
	nc        *nats.Conn
	channelID string
	sessionID string
}

var _ transport.GameModule = (*GameModuleClient)(nil)

func (g *GameModuleClient) publish(action protocol.GameAction, opts *protocol.GameOptions) error {
	data, err := json.Marshal(protocol.GameRequest{
		Action:    action,
		Channel:   g.channelID,
		SessionID: g.sessionID,
		Options:   opts,
	})
	if err != nil {
		return err
	}
	return g.nc.Publish(SubjectGameRequest, data)
}

func (g *GameModuleClient) Join(_ context.Context, opts protocol.GameOptions) error {
	return g.publish(protocol.ActionJoin, &opts)
}

func (g *GameModuleClient) Start(context.Context) error {
	return g.publish(protocol.ActionStart, nil)
}

func (g *GameModuleClient) End(context.Context) error {
	return g.publish(protocol.ActionEnd, nil)
}

func (g *GameModuleClient) Restart(context.Context) error {
	return g.publish(protocol.ActionRestart, nil)
}

func (g *GameModuleClient) Leave(context.Context) error {
	return g.publish(protocol.ActionLeave, nil)
}
