package server

import (
	"context"
	"net/http"

	cws "github.com/coder/websocket"
	"github.com/creachadair/jrpc2"
)

// wsReadLimit bounds a single inbound JSON-RPC message.
const wsReadLimit = 1 << 20

// wsChannel adapts a coder/websocket.Conn to the jrpc2 Channel interface.
type wsChannel struct {
	conn *cws.Conn
	ctx  context.Context
}

func (c *wsChannel) Send(data []byte) error {
	return c.conn.Write(c.ctx, cws.MessageText, data)
}

func (c *wsChannel) Recv() ([]byte, error) {
	_, data, err := c.conn.Read(c.ctx)
	return data, err
}

func (c *wsChannel) Close() error {
	return c.conn.Close(cws.StatusNormalClosure, "")
}

// serveWS upgrades the request and serves JSON-RPC on the connection until
// the peer goes away. The connection also receives push notifications.
func (rs *RPCServer) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := cws.Accept(w, r, nil)
	if err != nil {
		rs.log.Debug("rpc: websocket accept: %v", err)
		return
	}
	conn.SetReadLimit(wsReadLimit)

	srv := jrpc2.NewServer(rs.methods, &jrpc2.ServerOptions{AllowPush: true})
	srv.Start(&wsChannel{conn: conn, ctx: context.Background()})
	rs.notifier.Register(srv)
	defer rs.notifier.Unregister(srv)

	if err := srv.Wait(); err != nil {
		rs.log.Debug("rpc: websocket session ended: %v", err)
	}
}
