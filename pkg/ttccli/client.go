// Package ttccli is the client side of the ttcsync daemon's JSON-RPC
// WebSocket endpoint.
package ttccli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	cws "github.com/coder/websocket"
	"github.com/creachadair/jrpc2"
	"github.com/warpdl/ttcsync/common"
)

const (
	dialTimeout  = 2 * time.Second
	probeTimeout = 100 * time.Millisecond
	wsReadLimit  = 1 << 20
)

// Options configures Dial. Zero values fall back to the environment.
type Options struct {
	// Addr is the daemon's host:port. Defaults to 127.0.0.1 and common.RPCPort().
	Addr string
	// Secret is the bearer token. Defaults to LoadSecret().
	Secret string
}

type Client struct {
	conn *cws.Conn
	rpc  *jrpc2.Client

	notify atomic.Pointer[NotifyFunc]
	done   chan struct{}
	once   sync.Once
}

// DefaultAddr is the loopback address the daemon listens on.
func DefaultAddr() string {
	return net.JoinHostPort("127.0.0.1", strconv.Itoa(common.RPCPort()))
}

// NewClient connects to the daemon using the environment defaults.
func NewClient(ctx context.Context) (*Client, error) {
	return Dial(ctx, nil)
}

// Dial opens an authenticated WebSocket session with the daemon.
func Dial(ctx context.Context, opts *Options) (*Client, error) {
	if opts == nil {
		opts = &Options{}
	}
	addr := opts.Addr
	if addr == "" {
		addr = DefaultAddr()
	}
	secret := opts.Secret
	if secret == "" {
		s, err := LoadSecret()
		if err != nil {
			return nil, err
		}
		secret = s
	}

	dctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	conn, resp, err := cws.Dial(dctx, "ws://"+addr+common.RPCWSPath, &cws.DialOptions{
		HTTPHeader: http.Header{"Authorization": []string{"Bearer " + secret}},
	})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("error connecting to daemon: %w", err)
	}
	conn.SetReadLimit(wsReadLimit)

	c := &Client{conn: conn, done: make(chan struct{})}
	ch := &wsChannel{conn: conn, onClose: c.markDone}
	c.rpc = jrpc2.NewClient(ch, &jrpc2.ClientOptions{
		OnNotify: c.dispatch,
	})
	return c, nil
}

// IsDaemonRunning reports whether something accepts connections on addr.
func IsDaemonRunning(addr string) bool {
	if addr == "" {
		addr = DefaultAddr()
	}
	conn, err := net.DialTimeout("tcp", addr, probeTimeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// Close ends the session.
func (c *Client) Close() error {
	err := c.rpc.Close()
	c.markDone()
	return err
}

// Done is closed once the connection is gone.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) markDone() {
	c.once.Do(func() { close(c.done) })
}

func (c *Client) call(ctx context.Context, method string, params, result any) error {
	if err := c.rpc.CallResult(ctx, method, params, result); err != nil {
		return callError(method, err)
	}
	return nil
}

// wsChannel adapts a WebSocket connection to a jrpc2 channel.
type wsChannel struct {
	conn    *cws.Conn
	onClose func()
}

func (c *wsChannel) Send(data []byte) error {
	return c.conn.Write(context.Background(), cws.MessageText, data)
}

func (c *wsChannel) Recv() ([]byte, error) {
	_, data, err := c.conn.Read(context.Background())
	if err != nil {
		c.onClose()
	}
	return data, err
}

func (c *wsChannel) Close() error {
	c.onClose()
	err := c.conn.Close(cws.StatusNormalClosure, "")
	var ce cws.CloseError
	if errors.As(err, &ce) {
		return nil
	}
	return err
}
