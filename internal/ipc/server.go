package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"
)

// ErrHandlerPanic is returned to the client when a handler panics.
var ErrHandlerPanic = errors.New("command handler panicked")

// Handler processes one IPC command request.
type Handler interface {
	Handle(context.Context, Request) Response
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(context.Context, Request) Response

func (f HandlerFunc) Handle(ctx context.Context, req Request) Response {
	return f(ctx, req)
}

// Server answers one request per connection.
type Server struct {
	Handler Handler
	Logger  *slog.Logger
	// ReadTimeout bounds how long a client may take to send its request line.
	ReadTimeout time.Duration
}

// Serve runs a Server with no logger and no read timeout.
func Serve(ctx context.Context, listener net.Listener, handler Handler) error {
	return (&Server{Handler: handler}).Serve(ctx, listener)
}

// Serve accepts clients until ctx is cancelled or the listener closes, then
// waits for in-flight requests.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	stop := context.AfterFunc(ctx, func() { _ = listener.Close() })
	defer stop()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept IPC connection: %w", err)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.serveConn(ctx, conn)
		}()
	}
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	if s.ReadTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(s.ReadTimeout))
	}

	frame, err := readFrame(conn)
	if err != nil {
		s.reply(conn, Failure(fmt.Errorf("read request: %w", err)))
		return
	}

	var req Request
	if err := decodeFrame(frame, &req); err != nil {
		s.reply(conn, Failure(fmt.Errorf("decode request: %w", err)))
		return
	}

	s.logDebug("ipc request", "command", req.Command, "args", len(req.Args))
	s.reply(conn, s.dispatch(ctx, req))
}

func (s *Server) dispatch(ctx context.Context, req Request) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			s.logError("ipc handler panic", "command", req.Command, "panic", fmt.Sprint(r))
			resp = Failure(fmt.Errorf("%w: %s", ErrHandlerPanic, req.Command))
		}
	}()
	return s.Handler.Handle(ctx, req)
}

func (s *Server) reply(conn net.Conn, resp Response) {
	if err := writeFrame(conn, resp); err != nil {
		s.logDebug("ipc reply dropped", "error", err.Error())
	}
}

func (s *Server) logDebug(msg string, attrs ...any) {
	if s.Logger == nil {
		return
	}
	s.Logger.Debug(msg, attrs...)
}

func (s *Server) logError(msg string, attrs ...any) {
	if s.Logger == nil {
		return
	}
	s.Logger.Error(msg, attrs...)
}
