// Package notify delivers outbound email through a bounded queue with
// retries and a dead-letter list.
package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"license-server/pkg/mailer"
	"license-server/pkg/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrQueueFull    = errors.New("notification queue is full")
	ErrQueueStopped = errors.New("notification queue is stopped")
)

const (
	sendTimeout = 30 * time.Second
	maxBackoff  = time.Minute
)

type Config struct {
	QueueSize       int
	Workers         int
	MaxAttempts     int
	RetryBackoff    time.Duration
	DeadLetterLimit int
}

// DeadLetter is a message that exhausted its attempts.
type DeadLetter struct {
	ID        string    `json:"id"`
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Attempts  int       `json:"attempts"`
	LastError string    `json:"lastError"`
	FailedAt  time.Time `json:"failedAt"`
}

type result struct {
	messageID string
	err       error
}

type task struct {
	id     string
	msg    mailer.Message
	ctx    context.Context
	result chan result
}

type Queue struct {
	sender  mailer.Sender
	config  Config
	metrics *metrics.Metrics
	log     *zap.Logger

	mu      sync.RWMutex
	tasks   chan *task
	stopped bool
	quit    chan struct{}
	wg      sync.WaitGroup

	deadMu sync.Mutex
	dead   []DeadLetter

	now func() time.Time
}

func NewQueue(sender mailer.Sender, config Config, m *metrics.Metrics, log *zap.Logger) *Queue {
	if config.QueueSize <= 0 {
		config.QueueSize = 64
	}
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}
	if config.DeadLetterLimit <= 0 {
		config.DeadLetterLimit = 100
	}

	return &Queue{
		sender:  sender,
		config:  config,
		metrics: m,
		log:     log.With(zap.String("component", "notify")),
		tasks:   make(chan *task, config.QueueSize),
		quit:    make(chan struct{}),
		now:     time.Now,
	}
}

// Start launches the workers. They run until Stop.
func (q *Queue) Start() {
	q.log.Info("Starting notification queue",
		zap.Int("workers", q.config.Workers),
		zap.Int("capacity", q.config.QueueSize))

	for i := 0; i < q.config.Workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
}

// Stop rejects new messages, lets the workers finish what is queued and
// cuts pending retry waits short.
func (q *Queue) Stop(timeout time.Duration) error {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return nil
	}
	q.stopped = true
	close(q.tasks)
	close(q.quit)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.log.Info("Notification queue stopped")
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("timeout waiting for notification workers to finish")
	}
}

// Dispatch enqueues msg and waits for the delivery outcome. It never blocks
// on a full queue: ErrQueueFull is returned instead. If ctx ends first the
// message is still delivered in the background.
func (q *Queue) Dispatch(ctx context.Context, msg mailer.Message) (string, error) {
	t := &task{
		id:     uuid.New().String(),
		msg:    msg,
		ctx:    context.WithoutCancel(ctx),
		result: make(chan result, 1),
	}

	if err := q.enqueue(t); err != nil {
		return "", err
	}

	select {
	case res := <-t.result:
		return res.messageID, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (q *Queue) enqueue(t *task) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.stopped {
		return ErrQueueStopped
	}

	select {
	case q.tasks <- t:
		q.observeDepth()
		return nil
	default:
		q.log.Warn("Notification queue full, rejecting message",
			zap.String("to", t.msg.To),
			zap.String("subject", t.msg.Subject))
		return ErrQueueFull
	}
}

func (q *Queue) worker(id int) {
	defer q.wg.Done()

	for t := range q.tasks {
		q.observeDepth()
		messageID, err := q.deliver(t)
		t.result <- result{messageID: messageID, err: err}
	}

	q.log.Debug("Notification worker exiting", zap.Int("worker", id))
}

func (q *Queue) deliver(t *task) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= q.config.MaxAttempts; attempt++ {
		if attempt > 1 {
			if !q.wait(q.backoff(attempt - 1)) {
				break
			}
		}

		ctx, cancel := context.WithTimeout(t.ctx, sendTimeout)
		messageID, err := q.sender.Send(ctx, t.msg)
		cancel()

		if err == nil {
			q.countSend("success")
			q.log.Info("Email sent",
				zap.String("task_id", t.id),
				zap.String("message_id", messageID),
				zap.String("to", t.msg.To),
				zap.Int("attempt", attempt))
			return messageID, nil
		}

		lastErr = err
		q.countSend("failure")
		q.log.Warn("Email delivery attempt failed",
			zap.String("task_id", t.id),
			zap.String("to", t.msg.To),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", q.config.MaxAttempts),
			zap.Error(err))
	}

	q.addDeadLetter(t, lastErr)
	return "", fmt.Errorf("deliver email to %s: %w", t.msg.To, lastErr)
}

// backoff doubles per retry, capped at maxBackoff.
func (q *Queue) backoff(retry int) time.Duration {
	d := q.config.RetryBackoff
	for i := 1; i < retry; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}

// wait sleeps for d and reports false when the queue is stopping.
func (q *Queue) wait(d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-q.quit:
		return false
	}
}

func (q *Queue) addDeadLetter(t *task, err error) {
	dl := DeadLetter{
		ID:       t.id,
		To:       t.msg.To,
		Subject:  t.msg.Subject,
		Attempts: q.config.MaxAttempts,
		FailedAt: q.now(),
	}
	if err != nil {
		dl.LastError = err.Error()
	} else {
		dl.LastError = ErrQueueStopped.Error()
	}

	q.deadMu.Lock()
	q.dead = append(q.dead, dl)
	if over := len(q.dead) - q.config.DeadLetterLimit; over > 0 {
		q.dead = append([]DeadLetter(nil), q.dead[over:]...)
	}
	q.deadMu.Unlock()

	if q.metrics != nil {
		q.metrics.MailDeadLetters.Inc()
	}
	q.log.Error("Email moved to dead letters",
		zap.String("task_id", t.id),
		zap.String("to", t.msg.To),
		zap.String("subject", t.msg.Subject),
		zap.String("last_error", dl.LastError))
}

// DeadLetters returns the retained dead letters, oldest first.
func (q *Queue) DeadLetters() []DeadLetter {
	q.deadMu.Lock()
	defer q.deadMu.Unlock()
	return append([]DeadLetter(nil), q.dead...)
}

func (q *Queue) Pending() int {
	return len(q.tasks)
}

func (q *Queue) observeDepth() {
	if q.metrics != nil {
		q.metrics.MailQueueDepth.Set(float64(len(q.tasks)))
	}
}

func (q *Queue) countSend(outcome string) {
	if q.metrics != nil {
		q.metrics.MailSent.WithLabelValues(outcome).Inc()
	}
}
