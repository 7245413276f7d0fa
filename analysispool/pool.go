package analysispool

import (
	"bytes"
	"context"
	"sync"
	"time"

	"ffxiv_damage/cache"
	"ffxiv_damage/fights"
	"ffxiv_damage/report"
	"ffxiv_damage/share"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const DefaultSectionExpires = time.Hour

// Processor fetches and renders one fight.
type Processor func(ctx context.Context, f *fights.Fight, progress func(s string)) (*report.Section, error)

// Verifier checks a recaptcha response for the client address.
type Verifier func(remoteAddr string, response string) (bool, error)

type Options struct {
	Presets *fights.Presets
	Process Processor

	// rendered sections; nil disables caching
	Cache *cache.Storage

	// nil accepts every client
	Verify Verifier

	// how long a finished connection waits for the client to close
	CloseWait time.Duration
}

// Pool runs requested fights one at a time and streams the result back over websocket.
type Pool struct {
	presets   *fights.Presets
	process   Processor
	cache     *cache.Storage
	verify    Verifier
	closeWait time.Duration

	queueLock sync.Mutex
	queue     []*queueData
	queueWake chan struct{}

	bufPool sync.Pool
}

func New(opt Options) *Pool {
	if opt.CloseWait <= 0 {
		opt.CloseWait = 10 * time.Second
	}

	return &Pool{
		presets:   opt.Presets,
		process:   opt.Process,
		cache:     opt.Cache,
		verify:    opt.Verify,
		closeWait: opt.CloseWait,
		queue:     make([]*queueData, 0, 16),
		queueWake: make(chan struct{}, 1),
		bufPool: sync.Pool{
			New: func() interface{} {
				b := new(bytes.Buffer)
				b.Grow(64 * 1024)

				return b
			},
		},
	}
}

// Start runs the queue worker until ctx is done.
func (p *Pool) Start(ctx context.Context) {
	for {
		q := p.dequeue()
		if q == nil {
			select {
			case <-p.queueWake:
				continue
			case <-ctx.Done():
				return
			}
		}

		p.run(q)
	}
}

func (p *Pool) enqueue(q *queueData) {
	p.queueLock.Lock()
	defer p.queueLock.Unlock()

	p.queue = append(p.queue, q)
	q.Reorder(len(p.queue))

	select {
	case p.queueWake <- struct{}{}:
	default:
	}
}

func (p *Pool) dequeue() *queueData {
	p.queueLock.Lock()
	if len(p.queue) == 0 {
		p.queueLock.Unlock()
		return nil
	}

	q := p.queue[0]
	copy(p.queue, p.queue[1:])
	p.queue[len(p.queue)-1] = nil
	p.queue = p.queue[:len(p.queue)-1]

	waiting := make([]*queueData, len(p.queue))
	copy(waiting, p.queue)
	p.queueLock.Unlock()

	for i, w := range waiting {
		w.Reorder(i + 1)
	}

	return q
}

func (p *Pool) run(q *queueData) {
	defer close(q.done)

	if q.ctx.Err() != nil {
		return
	}

	log := zap.L().With(zap.String("preset", q.fight.Name), zap.String("report", q.fight.ReportID), zap.Int("fight", q.fight.FightID))
	log.Info("start")

	q.Start()
	section, err := p.process(q.ctx, q.fight, q.Progress)
	if err == nil && section.Failed() {
		err = section.Err
	}
	if err != nil {
		if !share.IsContextClosedError(err) {
			share.CaptureError(err, zap.String("preset", q.fight.Name))
		}
		q.Error(err.Error())
		return
	}

	buf := p.bufPool.Get().(*bytes.Buffer)
	defer p.bufPool.Put(buf)
	buf.Reset()

	if err := report.RenderSection(buf, section); err != nil {
		share.CaptureError(errors.WithStack(err))
		q.Error("failed to render the result")
		return
	}

	htm := buf.String()
	if p.cache != nil {
		p.cache.SaveRaw(sectionKey(q.fight), share.S2b(htm))
	}
	q.Complete(htm)

	log.Info("done")
}
