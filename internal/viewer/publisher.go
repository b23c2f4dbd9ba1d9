package viewer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/auvlib/mapstream/internal/monitoring"
)

// Config holds publisher configuration.
type Config struct {
	// Period is the republish interval (10s from the default 0.1 Hz rate).
	Period time.Duration

	// QueueDepth bounds the publish queue. Frames beyond it are dropped,
	// never queued behind a slow consumer.
	QueueDepth int
}

// DefaultConfig returns the reference publisher configuration.
func DefaultConfig() Config {
	return Config{
		Period:     10 * time.Second,
		QueueDepth: 4,
	}
}

// Publisher re-emits the current OutputFrame on a fixed cadence and fans
// it out to every subscribed consumer. Publication is best-effort: a full
// queue or a slow subscriber drops frames, it never blocks the loop.
type Publisher struct {
	config Config

	frameMu    sync.RWMutex
	frame      *OutputFrame
	frameReady chan struct{}

	frameChan chan *OutputFrame
	clients   map[string]chan *OutputFrame
	clientsMu sync.RWMutex

	publishCount  atomic.Uint64
	droppedFrames atomic.Uint64
	running       atomic.Bool
}

// NewPublisher creates a Publisher with the given configuration.
func NewPublisher(cfg Config) *Publisher {
	if cfg.QueueDepth < 1 {
		cfg.QueueDepth = DefaultConfig().QueueDepth
	}
	if cfg.Period <= 0 {
		cfg.Period = DefaultConfig().Period
	}
	return &Publisher{
		config:     cfg,
		frameChan:  make(chan *OutputFrame, cfg.QueueDepth),
		clients:    make(map[string]chan *OutputFrame),
		frameReady: make(chan struct{}, 1),
	}
}

// SetFrame installs the frame the loop republishes. Idle until the first
// call; the loop transitions to publishing as soon as a frame exists.
func (p *Publisher) SetFrame(frame *OutputFrame) {
	p.frameMu.Lock()
	p.frame = frame
	p.frameMu.Unlock()

	select {
	case p.frameReady <- struct{}{}:
	default:
	}
}

// LatestFrame returns the current frame, nil before the first SetFrame.
func (p *Publisher) LatestFrame() *OutputFrame {
	p.frameMu.RLock()
	defer p.frameMu.RUnlock()
	return p.frame
}

// Subscribe registers a consumer and returns its frame channel.
func (p *Publisher) Subscribe(id string) <-chan *OutputFrame {
	ch := make(chan *OutputFrame, 1)

	p.clientsMu.Lock()
	p.clients[id] = ch
	p.clientsMu.Unlock()

	monitoring.Logf("viewer client subscribed: %s (total: %d)", id, p.clientCount())
	return ch
}

// Unsubscribe removes a consumer and closes its channel so a blocked
// receiver observes the end of the stream. Closing under the write lock
// cannot race the broadcast sends, which hold the read lock.
func (p *Publisher) Unsubscribe(id string) {
	p.clientsMu.Lock()
	if ch, ok := p.clients[id]; ok {
		delete(p.clients, id)
		close(ch)
	}
	p.clientsMu.Unlock()

	monitoring.Logf("viewer client unsubscribed: %s (remaining: %d)", id, p.clientCount())
}

func (p *Publisher) clientCount() int {
	p.clientsMu.RLock()
	defer p.clientsMu.RUnlock()
	return len(p.clients)
}

// Publish enqueues one frame for broadcast. A full queue drops the frame.
func (p *Publisher) Publish(frame *OutputFrame) {
	if frame == nil {
		return
	}
	select {
	case p.frameChan <- frame:
		p.publishCount.Add(1)
	default:
		p.droppedFrames.Add(1)
	}
}

// Run drives the publisher until ctx is cancelled: it starts the broadcast
// goroutine, emits the current frame immediately once one is available,
// then re-emits it every configured period. The period wait is the only
// suspension point; cancellation is observed at each iteration boundary.
func (p *Publisher) Run(ctx context.Context) error {
	if !p.running.CompareAndSwap(false, true) {
		return nil
	}
	defer p.running.Store(false)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.broadcastLoop(ctx)
	}()
	defer wg.Wait()

	// Idle until the first frame is installed.
	for p.LatestFrame() == nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.frameReady:
		}
	}

	monitoring.Logf("publisher started: period=%v queue=%d", p.config.Period, p.config.QueueDepth)

	ticker := time.NewTicker(p.config.Period)
	defer ticker.Stop()

	p.Publish(p.LatestFrame())
	for {
		select {
		case <-ctx.Done():
			monitoring.Logf("publisher stopped after %d publishes (%d dropped)",
				p.publishCount.Load(), p.droppedFrames.Load())
			return ctx.Err()
		case <-ticker.C:
			p.Publish(p.LatestFrame())
		}
	}
}

// broadcastLoop distributes queued frames to all subscribed consumers.
func (p *Publisher) broadcastLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-p.frameChan:
			p.clientsMu.RLock()
			for _, ch := range p.clients {
				select {
				case ch <- frame:
				default:
					// Slow consumer: drop this frame for it.
					p.droppedFrames.Add(1)
				}
			}
			p.clientsMu.RUnlock()
		}
	}
}

// Stats reports publish and drop counters.
func (p *Publisher) Stats() Stats {
	return Stats{
		PublishCount:  p.publishCount.Load(),
		DroppedFrames: p.droppedFrames.Load(),
		ClientCount:   p.clientCount(),
		Running:       p.running.Load(),
	}
}

// Stats contains publisher counters.
type Stats struct {
	PublishCount  uint64
	DroppedFrames uint64
	ClientCount   int
	Running       bool
}
