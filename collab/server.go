package collab

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/fontogether/fontogether/internal/clock"
)

// DefaultHeartbeatInterval is the time between heartbeat frames in each
// direction. A peer that hears nothing for twice this long drops the
// connection.
const DefaultHeartbeatInterval = 15 * time.Second

// helloTimeout bounds how long a new connection may take to identify
// itself.
const helloTimeout = 10 * time.Second

// ServerConfig configures a Server.
type ServerConfig struct {
	Hub               *Hub
	HeartbeatInterval time.Duration
	Clock             clock.Clock
	Logger            *slog.Logger
}

// Server exposes a Hub over stream sockets (TCP or Unix). Each connection
// carries a CBOR sequence of Envelopes; the first client frame must be a
// hello.
type Server struct {
	hub       *Hub
	heartbeat time.Duration
	clock     clock.Clock
	logger    *slog.Logger

	wg sync.WaitGroup
}

// NewServer returns a server for cfg.Hub.
func NewServer(cfg ServerConfig) *Server {
	s := &Server{
		hub:       cfg.Hub,
		heartbeat: cfg.HeartbeatInterval,
		clock:     cfg.Clock,
		logger:    cfg.Logger,
	}
	if s.heartbeat <= 0 {
		s.heartbeat = DefaultHeartbeatInterval
	}
	if s.clock == nil {
		s.clock = clock.Real()
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	return s
}

// Serve accepts connections on ln until ctx is cancelled. It closes ln and
// waits for open connections to finish before returning.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("collaboration server listening", "address", ln.Addr().String())
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()
	defer s.wg.Wait()

	for {
		nc, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("collab: accept: %w", err)
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(ctx, nc)
		}()
	}
}

func (s *Server) serveConn(ctx context.Context, nc net.Conn) {
	defer nc.Close()
	remote := nc.RemoteAddr().String()
	enc := newEncoder(nc)
	dec := newDecoder(nc)

	nc.SetReadDeadline(time.Now().Add(helloTimeout))
	var hello Envelope
	if err := dec.Decode(&hello); err != nil {
		s.logger.Debug("connection dropped before hello", "remote", remote, "error", err)
		return
	}
	if hello.Topic != TopicHello || hello.Validate() != nil {
		enc.Encode(Envelope{Topic: TopicError, Error: &RemoteError{
			Code: CodeInvalid, Message: "first frame must be a hello", Topic: hello.Topic,
		}})
		return
	}
	conn, err := s.hub.Connect(ctx, *hello.Hello)
	if err != nil {
		s.logger.Warn("connection refused", "remote", remote, "user", hello.Hello.UserID,
			"project", hello.Hello.ProjectID, "error", err)
		enc.Encode(Envelope{Topic: TopicError, ProjectID: hello.Hello.ProjectID, Error: remoteError(TopicHello, err)})
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	replies := make(chan Envelope, 16)
	go func() {
		defer cancel()
		s.readLoop(ctx, nc, dec, conn, replies)
	}()
	s.writeLoop(ctx, enc, conn, replies)
}

// readLoop applies client frames to the hub. Rejections are queued on
// replies as error envelopes.
func (s *Server) readLoop(ctx context.Context, nc net.Conn, dec *cbor.Decoder, conn *Conn, replies chan<- Envelope) {
	for {
		// Socket deadlines are checked against wall time by the runtime,
		// so they cannot come from s.clock.
		nc.SetReadDeadline(time.Now().Add(2 * s.heartbeat))
		var env Envelope
		if err := dec.Decode(&env); err != nil {
			if ctx.Err() == nil {
				s.logger.Debug("connection read ended", "conn", conn.ID(), "error", err)
			}
			return
		}
		if env.Topic == TopicHeartbeat {
			continue
		}
		err := conn.Publish(ctx, env)
		if err == nil {
			continue
		}
		if errors.Is(err, ErrEvicted) || errors.Is(err, ErrClosed) {
			return
		}
		reply := Envelope{Topic: TopicError, ProjectID: conn.Hello().ProjectID, Error: remoteError(env.Topic, err)}
		select {
		case replies <- reply:
		default:
			s.logger.Warn("dropping error reply", "conn", conn.ID(), "error", err)
		}
	}
}

// writeLoop sends broadcasts, error replies and heartbeats until the
// connection ends.
func (s *Server) writeLoop(ctx context.Context, enc *cbor.Encoder, conn *Conn, replies <-chan Envelope) {
	heartbeat := s.clock.NewTicker(s.heartbeat)
	defer heartbeat.Stop()

	for {
		var frame Envelope
		select {
		case <-ctx.Done():
			return
		case env, ok := <-conn.Events():
			if !ok {
				return
			}
			frame = env
		case frame = <-replies:
		case <-heartbeat.C:
			frame = Envelope{Topic: TopicHeartbeat, ProjectID: conn.Hello().ProjectID}
		}
		if err := enc.Encode(frame); err != nil {
			s.logger.Debug("connection write error", "conn", conn.ID(), "error", err)
			return
		}
	}
}
