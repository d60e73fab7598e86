package ttccli

import (
	"context"
	"encoding/json"

	"github.com/creachadair/jrpc2"
)

// Event is a push notification received from the daemon.
type Event struct {
	Method string
	Params json.RawMessage
}

// Decode unmarshals the event params into v.
func (e *Event) Decode(v any) error {
	if len(e.Params) == 0 {
		return nil
	}
	return json.Unmarshal(e.Params, v)
}

type NotifyFunc func(Event)

func (c *Client) dispatch(req *jrpc2.Request) {
	fn := c.notify.Load()
	if fn == nil {
		return
	}
	var params json.RawMessage
	if req.HasParams() {
		if err := req.UnmarshalParams(&params); err != nil {
			return
		}
	}
	(*fn)(Event{Method: req.Method(), Params: params})
}

// OnNotify installs fn as the push notification handler, replacing any
// previous one. The returned func removes it.
func (c *Client) OnNotify(fn NotifyFunc) (remove func()) {
	p := &fn
	c.notify.Store(p)
	return func() { c.notify.CompareAndSwap(p, nil) }
}

// Watch delivers push notifications to fn until ctx is done or the
// connection drops.
func (c *Client) Watch(ctx context.Context, fn NotifyFunc) error {
	defer c.OnNotify(fn)()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrDisconnected
	}
}
