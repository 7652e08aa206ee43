package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"time"

	"github.com/vk/shaderbuild/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// Config locates the socket.io endpoint of a running engine.
type Config struct {
	URL                string
	Namespace          string
	Event              string
	InsecureSkipVerify bool
	ConnectTimeout     time.Duration
}

// Enabled reports whether a notification endpoint is configured.
func (c Config) Enabled() bool { return c.URL != "" }

// drainTimeout bounds how long Close waits for queued events to be written.
const drainTimeout = time.Second

// SocketIO emits one event per unit on an open socket.io connection.
type SocketIO struct {
	io    *socket.Socket
	event string
}

// Dial connects to cfg.URL and waits for the handshake.
func Dial(ctx context.Context, cfg Config) (*SocketIO, error) {
	logger := ctxlog.FromContext(ctx).With("notify_url", cfg.URL)

	parsedURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	event := cfg.Event
	if event == "" {
		event = DefaultEvent
	}
	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "/"
	}

	opts := socket.DefaultOptions()
	if parsedURL.Path != "" && parsedURL.Path != "/" {
		opts.SetPath(parsedURL.Path)
	}
	if cfg.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connected := make(chan error, 1)
	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		connected <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		if len(errs) > 0 {
			if err, ok := errs[0].(error); ok {
				connected <- err
				return
			}
		}
		connected <- fmt.Errorf("connect_error")
	})

	logger.Debug("Connecting to notification endpoint.")
	io.Connect()

	select {
	case err := <-connected:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		logger.Info("Connected to notification endpoint.", "sid", io.Id())
		return &SocketIO{io: io, event: event}, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection")
	case <-time.After(timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", timeout)
	}
}

// Notify emits e. Errors are logged and otherwise ignored.
func (s *SocketIO) Notify(ctx context.Context, e Event) {
	logger := ctxlog.FromContext(ctx)
	if !s.io.Connected() {
		logger.Warn("Notification endpoint disconnected, dropping event.", "shader", e.Shader)
		return
	}
	logger.Debug("Emitting build notification.", "event", s.event, "shader", e.Shader)
	if err := s.io.Emit(s.event, e.Payload()); err != nil {
		logger.Warn("Failed to emit build notification.", "shader", e.Shader, "error", err)
	}
}

// Close waits up to drainTimeout for queued events to leave the client,
// then disconnects.
func (s *SocketIO) Close() error {
	deadline := time.Now().Add(drainTimeout)
	for s.pending() > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	s.io.Disconnect()
	return nil
}

// pending counts packets not yet handed to the transport.
func (s *SocketIO) pending() int {
	n := s.io.SendBuffer().Len()
	if eng := s.io.Io().Engine(); eng != nil {
		n += eng.WriteBuffer().Len()
	}
	return n
}
