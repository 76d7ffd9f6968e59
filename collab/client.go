package collab

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/fontogether/fontogether/internal/clock"
)

// Reconnect backoff of the socket client. It starts at initialBackoff,
// doubles on each failed attempt up to maxBackoff and resets once a
// connection is established.
const (
	initialBackoff = 500 * time.Millisecond
	maxBackoff     = 30 * time.Second
)

// ClientConfig configures a Client.
type ClientConfig struct {
	// Network is "tcp" or "unix".
	Network string
	Address string
	Hello   Hello

	HeartbeatInterval time.Duration
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration

	// Dial defaults to a net.Dialer.
	Dial   func(ctx context.Context, network, address string) (net.Conn, error)
	Clock  clock.Clock
	Logger *slog.Logger
}

// Client is a Channel to a remote Server. It keeps reconnecting until it
// is closed, evicted or refused; after every reconnect it emits a resync
// envelope since messages sent while disconnected were missed.
type Client struct {
	cfg    ClientConfig
	events chan Envelope
	cancel context.CancelFunc
	done   chan struct{}

	closed  atomic.Bool
	evicted atomic.Bool

	mu  sync.Mutex
	nc  net.Conn
	enc *cbor.Encoder
}

var _ Channel = (*Client)(nil)

// Dial starts a client in the background and returns immediately. Use
// Connected to check whether a connection is currently up.
func Dial(ctx context.Context, cfg ClientConfig) *Client {
	if cfg.Network == "" {
		cfg.Network = "tcp"
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = initialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = maxBackoff
	}
	if cfg.Dial == nil {
		var d net.Dialer
		cfg.Dial = d.DialContext
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	ctx, cancel := context.WithCancel(ctx)
	c := &Client{
		cfg:    cfg,
		events: make(chan Envelope, SubscriberBufferSize),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go c.run(ctx)
	return c
}

func (c *Client) Events() <-chan Envelope { return c.events }

// Connected reports whether a connection is currently established.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enc != nil
}

// Publish writes env to the server. It fails with ErrNotConnected while
// the client is between connections; rejections by the hub arrive later
// on Events as error envelopes.
func (c *Client) Publish(ctx context.Context, env Envelope) error {
	switch {
	case c.evicted.Load():
		return ErrEvicted
	case c.closed.Load():
		return ErrClosed
	}
	env.ProjectID = c.cfg.Hello.ProjectID
	if err := env.Validate(); err != nil {
		return remoteError(env.Topic, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.enc == nil {
		return ErrNotConnected
	}
	if deadline, ok := ctx.Deadline(); ok {
		c.nc.SetWriteDeadline(deadline)
		defer c.nc.SetWriteDeadline(time.Time{})
	}
	if err := c.enc.Encode(env); err != nil {
		return fmt.Errorf("collab: publish %s: %w", env.Topic, err)
	}
	return nil
}

// Close disconnects and stops reconnecting. Events is closed once the
// background goroutine exits.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.cancel()
	<-c.done
	return nil
}

func (c *Client) run(ctx context.Context) {
	defer close(c.done)
	defer close(c.events)

	backoff := c.cfg.InitialBackoff
	reconnect := false
	for {
		established, stop, err := c.connect(ctx, reconnect)
		if stop || ctx.Err() != nil {
			return
		}
		if established {
			reconnect = true
			backoff = c.cfg.InitialBackoff
		}
		c.cfg.Logger.Warn("collaboration connection lost, will retry",
			"address", c.cfg.Address, "error", err, "backoff", backoff)
		select {
		case <-c.cfg.Clock.After(backoff):
		case <-ctx.Done():
			return
		}
		backoff = min(backoff*2, c.cfg.MaxBackoff)
	}
}

// connect runs one connection until it ends. established reports whether
// the hello was sent; stop reports that the client must not reconnect.
func (c *Client) connect(ctx context.Context, resync bool) (established, stop bool, err error) {
	nc, err := c.cfg.Dial(ctx, c.cfg.Network, c.cfg.Address)
	if err != nil {
		return false, false, fmt.Errorf("dial: %w", err)
	}
	defer nc.Close()
	release := context.AfterFunc(ctx, func() { nc.Close() })
	defer release()

	enc := newEncoder(nc)
	hello := c.cfg.Hello
	if err := enc.Encode(Envelope{Topic: TopicHello, ProjectID: hello.ProjectID, Hello: &hello}); err != nil {
		return false, false, fmt.Errorf("hello: %w", err)
	}
	c.mu.Lock()
	c.nc, c.enc = nc, enc
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.nc, c.enc = nil, nil
		c.mu.Unlock()
	}()
	c.cfg.Logger.Info("collaboration connection established",
		"address", c.cfg.Address, "project", hello.ProjectID, "user", hello.UserID)

	if resync && !c.deliver(ctx, Envelope{Topic: TopicResync, ProjectID: hello.ProjectID}) {
		return true, true, nil
	}

	hbCtx, stopHeartbeat := context.WithCancel(ctx)
	defer stopHeartbeat()
	go c.heartbeat(hbCtx)

	dec := newDecoder(nc)
	for {
		// Wall time: the runtime checks socket deadlines against it.
		nc.SetReadDeadline(time.Now().Add(2 * c.cfg.HeartbeatInterval))
		var env Envelope
		if err := dec.Decode(&env); err != nil {
			return true, false, fmt.Errorf("read: %w", err)
		}
		switch {
		case env.Topic == TopicHeartbeat:
			continue
		case env.Topic == TopicError && env.Error != nil && env.Error.Topic == TopicHello:
			c.cfg.Logger.Error("collaboration server refused connection", "error", env.Error)
			c.deliver(ctx, env)
			return true, true, env.Error
		case env.Topic == TopicKick && env.Kick != nil && env.Kick.KickedUserID == hello.UserID:
			c.evicted.Store(true)
			c.deliver(ctx, env)
			return true, true, ErrEvicted
		}
		if !c.deliver(ctx, env) {
			return true, true, nil
		}
	}
}

func (c *Client) heartbeat(ctx context.Context) {
	ticker := c.cfg.Clock.NewTicker(c.cfg.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.enc != nil {
				c.enc.Encode(Envelope{Topic: TopicHeartbeat, ProjectID: c.cfg.Hello.ProjectID})
			}
			c.mu.Unlock()
		}
	}
}

func (c *Client) deliver(ctx context.Context, env Envelope) bool {
	select {
	case c.events <- env:
		return true
	case <-ctx.Done():
		return false
	}
}
