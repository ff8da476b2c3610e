package nats

import (
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/jjweiting/hackthon001/internal/config"
)

// Client wraps the NATS connection shared by every channel of a process.
type Client struct {
	conn   *nats.Conn
	logger *slog.Logger
}

// NewClient connects to cfg.URL with reconnect logging.
func NewClient(cfg config.NATSConfig, name string) (*Client, error) {
	logger := slog.Default().With("component", "nats")

	opts := []nats.Option{
		nats.Name(name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("Disconnected from NATS", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
		nats.Timeout(10 * time.Second),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, err
	}

	return &Client{conn: conn, logger: logger}, nil
}

// NewClientFromConn wraps an existing connection.
func NewClientFromConn(conn *nats.Conn) *Client {
	return &Client{conn: conn, logger: slog.Default().With("component", "nats")}
}

func (c *Client) Conn() *nats.Conn {
	return c.conn
}

func (c *Client) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}

func (c *Client) IsConnected() bool {
	return c.conn != nil && c.conn.IsConnected()
}
