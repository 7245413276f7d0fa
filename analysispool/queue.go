package analysispool

import (
	"context"
	"sync"
	"time"

	"ffxiv_damage/fights"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

const writeTimeout = 10 * time.Second

var (
	eventReady = []byte(`{"event":"ready"}`)
	eventStart = []byte(`{"event":"start"}`)
)

type event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

type queueData struct {
	lock sync.Mutex

	conn *websocket.Conn

	fight *fights.Fight
	ctx   context.Context

	// closed by the worker once the request is answered
	done chan struct{}
}

func (q *queueData) write(msg []byte) {
	q.lock.Lock()
	defer q.lock.Unlock()

	q.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	err := q.conn.WriteMessage(websocket.TextMessage, msg)
	if err != nil && err != websocket.ErrCloseSent {
		zap.L().Debug("websocket write failed", zap.Error(err))
	}
}

func (q *queueData) writeEvent(name string, data interface{}) {
	msg, err := jsoniter.Marshal(event{Event: name, Data: data})
	if err != nil {
		zap.L().Error("encode event", zap.Error(err))
		return
	}
	q.write(msg)
}

func (q *queueData) Ready()              { q.write(eventReady) }
func (q *queueData) Start()              { q.write(eventStart) }
func (q *queueData) Reorder(order int)   { q.writeEvent("waiting", order) }
func (q *queueData) Progress(s string)   { q.writeEvent("progress", s) }
func (q *queueData) Error(msg string)    { q.writeEvent("error", msg) }
func (q *queueData) Complete(htm string) { q.writeEvent("complete", htm) }
