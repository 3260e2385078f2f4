package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// DefaultReadBufferSize bounds the single response read.
const DefaultReadBufferSize = 4096

var (
	ErrDial     = errors.New("dial controller")
	ErrDeadline = errors.New("set connection deadline")
	ErrEncode   = errors.New("encode request")
	ErrWrite    = errors.New("write request")
	ErrRead     = errors.New("read response")
)

// Sender delivers one payload and reports what came back.
type Sender interface {
	Send(ctx context.Context, payload any) Result
}

// DialFunc opens the connection used by a single Send.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Client performs single-shot request/response exchanges with the controller.
// Every Send opens its own TCP connection and closes it before returning.
type Client struct {
	Addr           string
	ReadBufferSize int
	// DialTimeout and IOTimeout of zero leave the OS defaults in place.
	DialTimeout time.Duration
	IOTimeout   time.Duration
	Dial        DialFunc
	Logger      zerolog.Logger
}

var _ Sender = (*Client)(nil)

func NewClient(host string, port int) *Client {
	return &Client{
		Addr:           net.JoinHostPort(host, strconv.Itoa(port)),
		ReadBufferSize: DefaultReadBufferSize,
		Logger:         zerolog.Nop(),
	}
}

func (c *Client) dial(ctx context.Context) (net.Conn, error) {
	if c.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.DialTimeout)
		defer cancel()
	}
	if c.Dial != nil {
		return c.Dial(ctx, "tcp", c.Addr)
	}
	var d net.Dialer
	return d.DialContext(ctx, "tcp", c.Addr)
}

// Send encodes payload as JSON, writes it, and reads one response chunk.
// Failures never escape: they come back as a TransportError result.
// Cancelling ctx unblocks a pending write or read.
func (c *Client) Send(ctx context.Context, payload any) Result {
	body, err := json.Marshal(payload)
	if err != nil {
		return c.failed(fmt.Errorf("%w: %w", ErrEncode, err))
	}

	conn, err := c.dial(ctx)
	if err != nil {
		return c.failed(fmt.Errorf("%w %s: %w", ErrDial, c.Addr, err))
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			c.Logger.Debug().Err(closeErr).Msg("error closing controller connection")
		}
	}()

	if c.IOTimeout > 0 {
		if err := conn.SetDeadline(time.Now().Add(c.IOTimeout)); err != nil {
			return c.failed(fmt.Errorf("%w: %w", ErrDeadline, err))
		}
	}
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now()) //nolint:errcheck // best effort unblock
	})
	defer stop()

	if _, err := conn.Write(body); err != nil {
		return c.failed(ioError(ctx, ErrWrite, err))
	}

	size := c.ReadBufferSize
	if size <= 0 {
		size = DefaultReadBufferSize
	}
	buf := make([]byte, size)
	n, err := conn.Read(buf)
	if n == 0 {
		if err != nil && !errors.Is(err, io.EOF) {
			return c.failed(ioError(ctx, ErrRead, err))
		}
		c.Logger.Warn().Str("addr", c.Addr).Msg("no response received")
		return Result{Kind: EmptyResponse}
	}

	return c.decode(buf[:n])
}

func (c *Client) decode(data []byte) Result {
	raw := string(data)
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		c.Logger.Warn().Str("response", raw).Msg("received non-JSON response")
		return Result{Kind: DecodeFallback, Raw: raw}
	}
	if emptyDocument(value) {
		c.Logger.Warn().Str("response", raw).Msg("controller answered with an empty document")
		return Result{Kind: EmptyResponse, Raw: raw}
	}
	c.Logger.Debug().RawJSON("response", data).Msg("received response")
	return Result{Kind: Success, Value: value, Raw: raw}
}

// emptyDocument reports whether a decoded reply carries nothing: null, false,
// zero, "" or an empty object or array.
func emptyDocument(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return !t
	case float64:
		return t == 0
	case string:
		return t == ""
	case map[string]any:
		return len(t) == 0
	case []any:
		return len(t) == 0
	}
	return false
}

// ioError prefers the context error when cancellation caused the failure.
func ioError(ctx context.Context, kind, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %w", kind, ctxErr)
	}
	return fmt.Errorf("%w: %w", kind, err)
}

func (c *Client) failed(err error) Result {
	c.Logger.Error().Err(err).Msg("controller exchange failed")
	return Result{Kind: TransportError, Err: err}
}
