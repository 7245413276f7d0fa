package analysispool

import (
	"bytes"
	"context"
	"time"

	"ffxiv_damage/share"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	requestTimeout = 10 * time.Second
	pingInterval   = 5 * time.Second
)

var websockEmptyClosure = websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")

// Do serves one websocket client: it reads the request, answers from the cache or queues it,
// and returns once the result is sent or the client is gone.
func (p *Pool) Do(ctx context.Context, ws *websocket.Conn, remoteAddr string) {
	ctx, ctxCancel := context.WithCancel(ctx)
	defer ctxCancel()
	defer ws.Close()

	q := &queueData{
		conn: ws,
		ctx:  ctx,
		done: make(chan struct{}),
	}
	q.Ready()

	////////////////////////////////////////////////////////////////////////////////////////////////////

	var req Request

	ws.SetReadDeadline(time.Now().Add(requestTimeout))
	_, msg, err := ws.ReadMessage()
	if err != nil {
		zap.L().Debug("read request", zap.Error(err))
		return
	}
	ws.SetReadDeadline(time.Time{})

	go func() {
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				ctxCancel()
				return
			}
		}
	}()

	if err := jsoniter.Unmarshal(msg, &req); err != nil {
		q.Error("invalid request")
		p.close(ctx, q)
		return
	}

	if p.verify != nil {
		ok, err := p.verify(remoteAddr, req.Recaptcha)
		if err != nil {
			share.CaptureError(errors.WithStack(err))
		}
		if err != nil || !ok {
			q.Error("recaptcha verification failed")
			p.close(ctx, q)
			return
		}
	}

	fight, ok := p.resolve(&req)
	if !ok {
		q.Error("invalid request")
		p.close(ctx, q)
		return
	}
	q.fight = fight

	////////////////////////////////////////////////////////////////////////////////////////////////////

	if p.cache != nil {
		var buf bytes.Buffer
		if p.cache.LoadRaw(sectionKey(fight), &buf) {
			q.Complete(share.B2s(buf.Bytes()))
			p.close(ctx, q)
			return
		}
	}

	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				q.lock.Lock()
				err := ws.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(time.Second))
				q.lock.Unlock()
				if err != nil {
					ctxCancel()
					return
				}
			case <-q.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	p.enqueue(q)

	select {
	case <-q.done:
		p.close(ctx, q)
	case <-ctx.Done():
		// the worker skips a cancelled request, or aborts it through ctx
	}
}

// close sends a close frame and waits for the client to hang up.
func (p *Pool) close(ctx context.Context, q *queueData) {
	q.lock.Lock()
	err := q.conn.WriteMessage(websocket.CloseMessage, websockEmptyClosure)
	q.lock.Unlock()
	if err != nil && err != websocket.ErrCloseSent {
		zap.L().Debug("websocket close", zap.Error(err))
		return
	}

	select {
	case <-time.After(p.closeWait):
	case <-ctx.Done():
	}
}
