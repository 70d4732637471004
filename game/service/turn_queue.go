package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultAnimationDelay is how long a session stays busy after a turn
	DefaultAnimationDelay = 160 * time.Millisecond

	// TurnQueueCapacity is how many turns may wait per session
	TurnQueueCapacity = 64

	turnQueueIdle = time.Minute
)

var (
	ErrQueueFull   = errors.New("turn queue full")
	ErrQueueClosed = errors.New("turn queue closed")
)

// TurnCallback receives the outcome of every queued turn
type TurnCallback func(sessionID string, result *MoveResult, err error)

// TurnQueue serializes streamed turns per session. Each session gets a FIFO
// and a single worker that applies a turn, reports it, then stays busy for
// the animation delay before taking the next one.
type TurnQueue struct {
	service GameService
	delay   time.Duration
	onTurn  TurnCallback

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	queues map[string]chan string
}

// NewTurnQueue creates a queue bound to ctx; cancel ctx or call Close to stop it
func NewTurnQueue(ctx context.Context, svc GameService, delay time.Duration, onTurn TurnCallback) *TurnQueue {
	ctx, cancel := context.WithCancel(ctx)
	return &TurnQueue{
		service: svc,
		delay:   delay,
		onTurn:  onTurn,
		ctx:     ctx,
		cancel:  cancel,
		queues:  make(map[string]chan string),
	}
}

// Enqueue schedules a turn for sessionID
func (q *TurnQueue) Enqueue(sessionID, direction string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.ctx.Err() != nil {
		return ErrQueueClosed
	}

	ch, ok := q.queues[sessionID]
	if !ok {
		ch = make(chan string, TurnQueueCapacity)
		q.queues[sessionID] = ch
		q.wg.Add(1)
		go q.worker(sessionID, ch)
	}

	select {
	case ch <- direction:
		return nil
	default:
		return ErrQueueFull
	}
}

// Pending returns the number of turns waiting for sessionID
func (q *TurnQueue) Pending(sessionID string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queues[sessionID])
}

// Close stops every worker and waits for them; queued turns are dropped
func (q *TurnQueue) Close() {
	q.cancel()
	q.wg.Wait()
}

func (q *TurnQueue) worker(sessionID string, ch chan string) {
	defer q.wg.Done()

	for {
		select {
		case <-q.ctx.Done():
			return

		case direction := <-ch:
			result, err := q.service.Move(q.ctx, sessionID, direction)
			if err != nil {
				log.Debug().Err(err).Str("session", sessionID).Str("direction", direction).Msg("queued turn failed")
			}
			if q.onTurn != nil {
				q.onTurn(sessionID, result, err)
			}

			if q.delay > 0 {
				timer := time.NewTimer(q.delay)
				select {
				case <-q.ctx.Done():
					timer.Stop()
					return
				case <-timer.C:
				}
			}

		case <-time.After(turnQueueIdle):
			q.mu.Lock()
			if len(ch) == 0 {
				delete(q.queues, sessionID)
				q.mu.Unlock()
				return
			}
			q.mu.Unlock()
		}
	}
}
