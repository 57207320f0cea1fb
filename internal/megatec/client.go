// internal/megatec/client.go
package megatec

import (
	"context"
	"errors"
	"net"
	"strconv"
	"time"
	"unicode/utf8"
)

// DefaultTimeout bounds one full exchange when Config.Timeout is unset.
const DefaultTimeout = 3 * time.Second

// Target is the immutable address of one UPS.
type Target struct {
	Host     string   `json:"host"`
	Port     int      `json:"port"`
	Protocol Protocol `json:"protocol"`
}

// Endpoint returns host:port.
func (t Target) Endpoint() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

// Config is the per-UPS client configuration.
type Config struct {
	Target  Target
	Timeout time.Duration
	Bounds  Bounds
}

// Client performs one stateless Q1 request/response per Poll.
// Every Poll opens and closes its own connection.
type Client struct {
	cfg    Config
	dialer net.Dialer
}

// New validates cfg and returns a Client. No connection is made.
func New(cfg Config) (*Client, error) {
	if cfg.Target.Host == "" {
		return nil, errors.New("megatec client: host required")
	}
	if cfg.Target.Port < 1 || cfg.Target.Port > 65535 {
		return nil, errors.New("megatec client: port out of range")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{cfg: cfg}, nil
}

// Target returns the configured target.
func (c *Client) Target() Target { return c.cfg.Target }

// Poll sends Q1 and parses the reply.
// No retries. The connection is closed on every path.
func (c *Client) Poll(ctx context.Context) (Reading, error) {
	t := c.cfg.Target
	if t.Protocol != ProtocolQ1 {
		return Reading{}, &UnsupportedProtocolError{Protocol: t.Protocol}
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	addr := t.Endpoint()

	conn, err := c.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return Reading{}, connError(ctx, "dial", addr, err)
	}
	defer conn.Close()

	// A stuck peer is cut off when the budget runs out.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}

	raw, err := exchange(conn)
	if err != nil {
		var pe *ProtocolError
		if errors.As(err, &pe) {
			return Reading{}, err
		}
		return Reading{}, connError(ctx, "exchange", addr, err)
	}

	return Parse(raw, c.cfg.Bounds)
}

// exchange writes the command and reads a single reply chunk.
// No reassembly: Q1 replies fit one read.
func exchange(conn net.Conn) (string, error) {
	if err := writeAll(conn, []byte(CommandQ1)); err != nil {
		return "", err
	}

	buf := make([]byte, MaxReplyLen)
	n, err := conn.Read(buf)
	if n == 0 {
		if err == nil {
			err = errors.New("empty read")
		}
		return "", err
	}

	if !utf8.Valid(buf[:n]) {
		return "", &ProtocolError{Msg: "invalid response: not utf-8 text"}
	}
	return string(buf[:n]), nil
}

// Probe checks that addr accepts TCP connections within timeout.
// Nothing is written.
func Probe(ctx context.Context, addr string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return connError(ctx, "probe", addr, err)
	}
	return conn.Close()
}

func connError(ctx context.Context, op, addr string, err error) *ConnectionError {
	timeout := errors.Is(ctx.Err(), context.DeadlineExceeded)

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		timeout = true
	}

	return &ConnectionError{
		Op:      op,
		Addr:    addr,
		Timeout: timeout,
		Err:     err,
	}
}

func writeAll(conn net.Conn, b []byte) error {
	for len(b) > 0 {
		n, err := conn.Write(b)
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}
