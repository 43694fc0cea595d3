package fastview

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	channerics "github.com/niceyeti/channerics/channels"
	"golang.org/x/sync/errgroup"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 1 * time.Second
	// Maximum message size allowed from peer. Paint strokes are small.
	maxMessageSize = 8192

	// Updates arriving faster than this are dropped.
	pubResolution  = time.Millisecond * 50
	pingResolution = time.Millisecond * 200
	// Number of lost pongs tolerated before the peer is considered gone.
	pongWait = pingResolution * 4
)

var upgrader = websocket.Upgrader{}

// MessageHandler receives each text message sent by the browser. A returned error
// is logged; it does not end the session.
type MessageHandler func([]byte) error

// Client publishes ele-updates to one browser over a websocket and passes the
// browser's messages (paint strokes, button presses) to a handler.
//
// The socket is bidirectional: the same reader that drains pongs also delivers paint
// strokes and button commands, so a slow onMessage stalls pong handling too. This
// has been fine since commands are answered between ticks, but a handler that blocks
// for longer than pongWait will get the session closed as dead.
type Client[T any] struct {
	id        string
	updates   <-chan T
	onMessage MessageHandler
	ws        *websock
	rootCtx   context.Context
}

// NewClient upgrades the request to a websocket. Items on updates should be
// idempotent, since any that arrive faster than the publish rate are discarded.
// onMessage may be nil, in which case client messages are read and ignored.
func NewClient[T any](
	updates <-chan T,
	onMessage MessageHandler,
	w http.ResponseWriter,
	r *http.Request,
) (*Client[T], error) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		return nil, fmt.Errorf("upgrade: %w", err)
	}
	ws.SetReadLimit(maxMessageSize)

	return &Client[T]{
		id:        uuid.NewString(),
		updates:   updates,
		onMessage: onMessage,
		ws:        newWebSock(ws),
		rootCtx:   r.Context(),
	}, nil
}

// ID identifies the session in logs.
func (cli *Client[T]) ID() string {
	return cli.id
}

// errPeerClosed ends a session normally.
var errPeerClosed = errors.New("peer closed the websocket")

// Sync runs the reader, the ping-pong liveness check and the publisher until the
// peer leaves or one of them fails. It returns nil on a normal disconnect.
func (cli *Client[T]) Sync() error {
	log.Printf("fastview: session %s opened", cli.id)
	group, groupCtx := errgroup.WithContext(cli.rootCtx)

	group.Go(func() error {
		return cli.readMessages(groupCtx)
	})
	group.Go(func() error {
		return cli.pingPong(groupCtx)
	})
	group.Go(func() error {
		return cli.publish(groupCtx)
	})
	group.Go(func() error {
		// Unblocks the reader once any routine exits.
		<-groupCtx.Done()
		_ = cli.ws.Conn().Close()
		return nil
	})

	err := group.Wait()
	log.Printf("fastview: session %s closed", cli.id)
	if errors.Is(err, errPeerClosed) {
		return nil
	}
	return err
}

var ErrPongDeadlineExceeded error = errors.New("client disconnect, pong deadline exceeded")

// pingPong requires readMessages to be running, since the pong handler is invoked
// from reads.
func (cli *Client[T]) pingPong(ctx context.Context) error {
	pong := make(chan struct{}, 1)
	cli.ws.Conn().SetPongHandler(func(_ string) error {
		select {
		case pong <- struct{}{}:
		default:
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
			if err := cli.ping(ctx); err != nil {
				return err
			}
		case <-pong:
			lastPong = time.Now()
		}
	}
}

func (cli *Client[T]) ping(ctx context.Context) error {
	return cli.ws.Write(
		ctx,
		func(ws *websocket.Conn) (err error) {
			if err = ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				err = fmt.Errorf("ping failed: %w", err)
			}
			return
		})
}

// readMessages hands each text message to onMessage. Read errors are permanent
// for a gorilla websocket, so any of them ends the session.
func (cli *Client[T]) readMessages(ctx context.Context) error {
	for {
		var (
			kind int
			data []byte
		)
		err := cli.ws.Read(
			ctx,
			func(ws *websocket.Conn) (readErr error) {
				kind, data, readErr = ws.ReadMessage()
				return
			})
		if err != nil {
			if isClosure(err) || ctx.Err() != nil {
				return errPeerClosed
			}
			return fmt.Errorf("read failed: %w", err)
		}
		if ctx.Err() != nil {
			return nil
		}

		if kind != websocket.TextMessage || cli.onMessage == nil {
			continue
		}
		if err := cli.onMessage(data); err != nil {
			log.Printf("fastview: session %s: %v", cli.id, err)
		}
	}
}

func (cli *Client[T]) publish(ctx context.Context) error {
	var lastSync time.Time

	for {
		select {
		case <-ctx.Done():
			return nil
		case updates, ok := <-cli.updates:
			if !ok {
				return nil
			}
			if time.Since(lastSync) < pubResolution {
				break
			}

			lastSync = time.Now()
			err := cli.ws.Write(
				ctx,
				func(ws *websocket.Conn) (writeErr error) {
					if writeErr = ws.SetWriteDeadline(time.Now().Add(writeWait)); writeErr != nil {
						return fmt.Errorf("failed to set deadline: %w", writeErr)
					}
					if writeErr = ws.WriteJSON(updates); writeErr != nil {
						writeErr = fmt.Errorf("publish failed: %w", writeErr)
					}
					return
				})
			if err != nil {
				return err
			}
		}
	}
}

func isClosure(err error) bool {
	return websocket.IsCloseError(
		err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived)
}

// ErrSockCongestion indicates there are too many waiters on the socket for a given op.
var ErrSockCongestion = errors.New("sock op failed due to congestion")

const writeDeadline = time.Second

// websock serializes access to the websocket, which allows at most one concurrent
// reader and one concurrent writer.
type websock struct {
	readSem  chan struct{}
	writeSem chan struct{}
	ws       *websocket.Conn
}

func newWebSock(ws *websocket.Conn) *websock {
	return &websock{
		readSem:  make(chan struct{}, 1),
		writeSem: make(chan struct{}, 1),
		ws:       ws,
	}
}

// Conn returns the underlying websocket, for setup only (handlers, closing).
func (sock *websock) Conn() *websocket.Conn {
	return sock.ws
}

// Read serializes reads. A read blocks until a message arrives or the
// connection is closed.
func (sock *websock) Read(
	ctx context.Context,
	readFn func(*websocket.Conn) error,
) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case sock.readSem <- struct{}{}:
		defer func() { <-sock.readSem }()
		return readFn(sock.ws)
	}
}

// Write serializes writes, giving up when the socket stays busy past writeDeadline.
func (sock *websock) Write(
	ctx context.Context,
	writeFn func(*websocket.Conn) error,
) error {
	select {
	case <-ctx.Done():
		return nil
	case sock.writeSem <- struct{}{}:
		defer func() { <-sock.writeSem }()
		return writeFn(sock.ws)
	case <-time.After(writeDeadline):
		return ErrSockCongestion
	}
}
