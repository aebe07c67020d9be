// Package transport implements the per-connection websocket session:
// bidirectional request/response dispatch through a MessageHandler,
// ping/pong liveness, and read/write serialization, per SPEC_FULL.md §6.
//
// Grounded on server/fastview/client.go's websock wrapper (a pair of
// size-1 semaphore channels serializing concurrent reads and writes to
// one *websocket.Conn) and its errgroup.WithContext(readMessages,
// pingPong, publish) structure, generalized from fastview's
// publish-only client (server state -> client, one direction) to a
// request-response session (client message in, handler reply out,
// either direction can also fail the other via the shared context).
// The read/write semaphores live directly on Session rather than a
// separately named wrapper type: this package has exactly one
// connection-owning type, so fastview's split between a "client"
// struct and its embedded "websock" would just be an indirection with
// nothing else to hold.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	channerics "github.com/niceyeti/channerics/channels"
	"golang.org/x/sync/errgroup"

	"github.com/kaushikhazra/nexus-of-mind-sub003/internal/wire"
)

const (
	writeWait      = 1 * time.Second
	maxMessageSize = 8192

	pingResolution = 200 * time.Millisecond
	pongWait       = pingResolution * 10

	readDeadline     = time.Second
	writeDeadline    = time.Second
	closeGracePeriod = 10 * time.Second
)

var upgrader = websocket.Upgrader{}

// ErrPongDeadlineExceeded reports a peer that stopped answering pings.
var ErrPongDeadlineExceeded = errors.New("transport: pong deadline exceeded")

// ErrSockCongestion indicates too many waiters on the socket for a
// given read or write operation.
var ErrSockCongestion = errors.New("transport: socket operation failed due to congestion")

// MessageHandler answers one decoded envelope with an optional
// response envelope, satisfied by internal/handler.Handler.
type MessageHandler interface {
	Handle(ctx context.Context, env wire.Envelope) (*wire.Envelope, error)
}

// Logger is the minimal structured-logging surface a session reports
// through; satisfied by the standard library's *slog.Logger.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Upgrade promotes an HTTP request to a websocket session bound to
// handler, writing an HTTP error and returning a non-nil error if the
// upgrade itself fails.
func Upgrade(w http.ResponseWriter, r *http.Request, handler MessageHandler, logger Logger) (*Session, error) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return nil, err
	}
	ws.SetReadLimit(maxMessageSize)

	return &Session{
		handler:  handler,
		logger:   logger,
		conn:     ws,
		readSem:  make(chan struct{}, 1),
		writeSem: make(chan struct{}, 1),
	}, nil
}

// Session serves one websocket connection until the peer disconnects,
// the context is cancelled, or an unrecoverable socket error occurs.
// readSem/writeSem serialize access to conn, whose own requirement is
// at most one concurrent reader and one concurrent writer.
type Session struct {
	handler MessageHandler
	logger  Logger

	conn     *websocket.Conn
	readSem  chan struct{}
	writeSem chan struct{}
}

// Serve blocks, dispatching inbound messages to the handler and
// writing back any responses, until the connection ends. ctx's
// cancellation ends the session cooperatively; the caller should defer
// Close regardless of Serve's return value.
func (s *Session) Serve(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return s.readDispatch(groupCtx)
	})
	group.Go(func() error {
		return s.pingPong(groupCtx)
	})

	return group.Wait()
}

// Close sends a close frame and tears down the underlying connection.
// Safe to call once, after Serve returns.
func (s *Session) Close() {
	s.readSem <- struct{}{}
	s.writeSem <- struct{}{}

	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = s.conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	time.Sleep(closeGracePeriod)
	s.conn.Close()
}

// read serializes read operations on the connection.
func (s *Session) read(ctx context.Context, readFn func(*websocket.Conn) error) error {
	select {
	case <-ctx.Done():
		return nil
	case s.readSem <- struct{}{}:
		defer func() { <-s.readSem }()
		err := readFn(s.conn)
		if err != nil && isClosure(err) {
			return nil
		}
		return err
	case <-time.After(readDeadline):
		return ErrSockCongestion
	}
}

// write serializes write operations on the connection.
func (s *Session) write(ctx context.Context, writeFn func(*websocket.Conn) error) error {
	select {
	case <-ctx.Done():
		return nil
	case s.writeSem <- struct{}{}:
		defer func() { <-s.writeSem }()
		return writeFn(s.conn)
	case <-time.After(writeDeadline):
		return ErrSockCongestion
	}
}

func (s *Session) readDispatch(ctx context.Context) error {
	for {
		var raw []byte
		err := s.read(ctx, func(ws *websocket.Conn) (readErr error) {
			_, raw, readErr = ws.ReadMessage()
			return
		})
		if err != nil {
			return err
		}
		if ctx.Err() != nil || raw == nil {
			return nil
		}

		env, decErr := wire.Decode(raw)
		if decErr != nil {
			s.logger.Warn("transport: malformed envelope", "error", decErr)
			continue
		}

		resp, handleErr := s.handler.Handle(ctx, env)
		if handleErr != nil {
			s.logger.Error("transport: handler returned an error", "error", handleErr, "type", env.Type)
			continue
		}
		if resp == nil {
			continue
		}
		if err := s.writeEnvelope(ctx, *resp); err != nil {
			return err
		}
	}
}

func (s *Session) writeEnvelope(ctx context.Context, env wire.Envelope) error {
	payload, err := wire.Encode(env)
	if err != nil {
		s.logger.Error("transport: failed to encode response", "error", err, "type", env.Type)
		return nil
	}
	return s.write(ctx, func(ws *websocket.Conn) (writeErr error) {
		if writeErr = ws.SetWriteDeadline(time.Now().Add(writeWait)); writeErr != nil {
			return fmt.Errorf("set write deadline: %w", writeErr)
		}
		if writeErr = ws.WriteMessage(websocket.TextMessage, payload); writeErr != nil {
			if isError(writeErr) {
				return fmt.Errorf("write envelope: %w", writeErr)
			}
			return writeErr
		}
		return nil
	})
}

// pingPong monitors the connection's liveness via ping/pong control
// frames, mirroring fastview's client.pingPong loop. Requires
// readDispatch to be running concurrently so incoming pongs reach the
// PongHandler registered below.
func (s *Session) pingPong(ctx context.Context) error {
	pong := make(chan struct{})
	defer close(pong)
	s.conn.SetPongHandler(func(string) error {
		select {
		case pong <- struct{}{}:
		case <-ctx.Done():
		}
		return nil
	})

	pinger := channerics.NewTicker(ctx.Done(), pingResolution)
	lastPong := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-pinger:
			if time.Since(lastPong) > pongWait {
				return ErrPongDeadlineExceeded
			}
			if err := s.ping(ctx); err != nil {
				return err
			}
		case <-pong:
			lastPong = time.Now()
		}
	}
}

func (s *Session) ping(ctx context.Context) error {
	return s.write(ctx, func(ws *websocket.Conn) error {
		if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
			if isError(err) {
				return fmt.Errorf("ping failed: %w", err)
			}
		}
		return nil
	})
}

func isError(err error) bool {
	return err != nil && websocket.IsUnexpectedCloseError(
		err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway)
}

func isClosure(err error) bool {
	return err != nil && websocket.IsCloseError(
		err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway)
}
