package nostr

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	ws "github.com/coder/websocket"
)

var ErrDisconnected = errors.New("<disconnected>")

// Connection represents a websocket connection to a Nostr relay.
type Connection struct {
	conn         *ws.Conn
	cancel       context.CancelCauseFunc
	writeQueue   chan writeRequest
	closed       *atomic.Bool
	closedNotify chan struct{}
}

type writeRequest struct {
	msg    []byte
	answer chan error
}

// newConnection dials url using dialCtx and then keeps the connection alive until ctx is
// canceled or the socket breaks, in which case cancel is called.
func newConnection(
	dialCtx context.Context,
	ctx context.Context,
	cancel context.CancelCauseFunc,
	url string,
	handleMessage func(string),
	requestHeader http.Header,
	tlsConfig *tls.Config,
) (*Connection, error) {
	debugLogf("{%s} connecting!", url)

	c, _, err := ws.Dial(dialCtx, url, getConnectionOptions(requestHeader, tlsConfig))
	if err != nil {
		return nil, err
	}
	c.SetReadLimit(2 << 24) // 33MB

	// ping every 29 seconds
	ticker := time.NewTicker(29 * time.Second)

	writeQueue := make(chan writeRequest)
	readQueue := make(chan string)

	conn := &Connection{
		conn:         c,
		cancel:       cancel,
		writeQueue:   writeQueue,
		closed:       &atomic.Bool{},
		closedNotify: make(chan struct{}),
	}

	// main websocket loop
	go func() {
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				conn.doClose(ws.StatusNormalClosure, "")
				debugLogf("{%s} closing!, context done: '%s'", url, context.Cause(ctx))
				return
			case <-conn.closedNotify:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeoutCause(ctx, time.Millisecond*800, errors.New("ping took too long"))
				err := c.Ping(ctx)
				cancel()
				if err != nil {
					debugLogf("{%s} closing!, ping failed: '%s'", url, err)
					conn.doClose(ws.StatusAbnormalClosure, "ping took too long")
					return
				}
			case wr := <-writeQueue:
				debugLogf("{%s} sending '%v'", url, string(wr.msg))
				ctx, cancel := context.WithTimeoutCause(ctx, time.Second*10, errors.New("write took too long"))
				err := c.Write(ctx, ws.MessageText, wr.msg)
				cancel()
				if err != nil {
					debugLogf("{%s} closing!, write failed: '%s'", url, err)
					conn.doClose(ws.StatusAbnormalClosure, "write failed")
					if wr.answer != nil {
						wr.answer <- err
					}
					return
				}
				if wr.answer != nil {
					close(wr.answer)
				}
			case msg := <-readQueue:
				debugLogf("{%s} received %v", url, msg)
				handleMessage(msg)
			}
		}
	}()

	// read loop -- loops back to the main loop
	go func() {
		buf := new(bytes.Buffer)

		for {
			buf.Reset()

			_, reader, err := c.Reader(ctx)
			if err != nil {
				debugLogf("{%s} closing!, reader failure: '%s'", url, err)
				conn.doClose(ws.StatusAbnormalClosure, "failed to get reader")
				return
			}
			if _, err := io.Copy(buf, reader); err != nil {
				debugLogf("{%s} closing!, read failure: '%s'", url, err)
				conn.doClose(ws.StatusAbnormalClosure, "failed to read")
				return
			}

			select {
			case readQueue <- buf.String():
			case <-conn.closedNotify:
				return
			}
		}
	}()

	return conn, nil
}

func (c *Connection) doClose(code ws.StatusCode, reason string) {
	if wasClosed := c.closed.Swap(true); wasClosed {
		return
	}

	c.conn.Close(code, reason)
	c.cancel(fmt.Errorf("%w: %s", ErrDisconnected, reason))
	close(c.closedNotify)
}

func getConnectionOptions(requestHeader http.Header, tlsConfig *tls.Config) *ws.DialOptions {
	opts := &ws.DialOptions{
		HTTPHeader: requestHeader,
	}
	if tlsConfig != nil {
		opts.HTTPClient = &http.Client{
			Transport: &http.Transport{TLSClientConfig: tlsConfig},
		}
	}
	return opts
}
