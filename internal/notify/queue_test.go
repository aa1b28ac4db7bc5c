package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"license-server/pkg/mailer"
	"license-server/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// flakySender fails the first failures calls, then succeeds.
type flakySender struct {
	failures int32
	calls    int32
}

func (s *flakySender) Send(_ context.Context, msg mailer.Message) (string, error) {
	n := atomic.AddInt32(&s.calls, 1)
	if n <= s.failures {
		return "", errors.New("smtp unavailable")
	}
	return fmt.Sprintf("msg-%d", n), nil
}

// blockingSender holds every send until release is closed.
type blockingSender struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *blockingSender) Send(ctx context.Context, msg mailer.Message) (string, error) {
	s.once.Do(func() { close(s.started) })
	<-s.release
	return "ok", nil
}

func newTestQueue(sender mailer.Sender, cfg Config) (*Queue, *metrics.Metrics) {
	m := metrics.New()
	q := NewQueue(sender, cfg, m, zap.NewNop())
	q.Start()
	return q, m
}

func TestQueue_DeliversAndReturnsMessageID(t *testing.T) {
	q, m := newTestQueue(&flakySender{}, Config{QueueSize: 4, Workers: 2, MaxAttempts: 3})
	defer q.Stop(time.Second)

	id, err := q.Dispatch(context.Background(), mailer.Message{To: "a@x.com", Subject: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.MailSent.WithLabelValues("success")))
}

func TestQueue_RetriesWithBackoff(t *testing.T) {
	sender := &flakySender{failures: 2}
	q, m := newTestQueue(sender, Config{QueueSize: 4, Workers: 1, MaxAttempts: 3, RetryBackoff: time.Millisecond})
	defer q.Stop(time.Second)

	id, err := q.Dispatch(context.Background(), mailer.Message{To: "a@x.com"})
	require.NoError(t, err)
	assert.Equal(t, "msg-3", id)
	assert.Equal(t, int32(3), atomic.LoadInt32(&sender.calls))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.MailSent.WithLabelValues("failure")))
	assert.Empty(t, q.DeadLetters())
}

func TestQueue_DeadLetterAfterMaxAttempts(t *testing.T) {
	sender := &flakySender{failures: 100}
	q, m := newTestQueue(sender, Config{QueueSize: 4, Workers: 1, MaxAttempts: 2, RetryBackoff: time.Millisecond})
	defer q.Stop(time.Second)

	_, err := q.Dispatch(context.Background(), mailer.Message{To: "a@x.com", Subject: "code"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp unavailable")

	dead := q.DeadLetters()
	require.Len(t, dead, 1)
	assert.Equal(t, "a@x.com", dead[0].To)
	assert.Equal(t, "code", dead[0].Subject)
	assert.Equal(t, 2, dead[0].Attempts)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.MailDeadLetters))
}

func TestQueue_DeadLettersAreBounded(t *testing.T) {
	q, _ := newTestQueue(&flakySender{failures: 100}, Config{QueueSize: 4, Workers: 1, MaxAttempts: 1, DeadLetterLimit: 2})
	defer q.Stop(time.Second)

	for i := 0; i < 3; i++ {
		_, err := q.Dispatch(context.Background(), mailer.Message{To: fmt.Sprintf("%d@x.com", i)})
		require.Error(t, err)
	}

	dead := q.DeadLetters()
	require.Len(t, dead, 2)
	assert.Equal(t, "1@x.com", dead[0].To)
	assert.Equal(t, "2@x.com", dead[1].To)
}

func TestQueue_FullQueueRejects(t *testing.T) {
	sender := &blockingSender{started: make(chan struct{}), release: make(chan struct{})}
	q, _ := newTestQueue(sender, Config{QueueSize: 1, Workers: 1, MaxAttempts: 1})

	// first message occupies the worker
	go q.Dispatch(context.Background(), mailer.Message{To: "1@x.com"})
	<-sender.started

	// second fills the buffer
	go q.Dispatch(context.Background(), mailer.Message{To: "2@x.com"})
	require.Eventually(t, func() bool { return q.Pending() == 1 }, time.Second, time.Millisecond)

	_, err := q.Dispatch(context.Background(), mailer.Message{To: "3@x.com"})
	assert.ErrorIs(t, err, ErrQueueFull)

	close(sender.release)
	require.NoError(t, q.Stop(time.Second))
}

func TestQueue_StoppedRejects(t *testing.T) {
	q, _ := newTestQueue(&flakySender{}, Config{})
	require.NoError(t, q.Stop(time.Second))
	require.NoError(t, q.Stop(time.Second))

	_, err := q.Dispatch(context.Background(), mailer.Message{To: "a@x.com"})
	assert.ErrorIs(t, err, ErrQueueStopped)
}

func TestQueue_CallerContextCancelled(t *testing.T) {
	sender := &blockingSender{started: make(chan struct{}), release: make(chan struct{})}
	q, _ := newTestQueue(sender, Config{QueueSize: 1, Workers: 1, MaxAttempts: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := q.Dispatch(ctx, mailer.Message{To: "a@x.com"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(sender.release)
	require.NoError(t, q.Stop(time.Second))
}

func TestQueue_Backoff(t *testing.T) {
	q := NewQueue(&flakySender{}, Config{RetryBackoff: 2 * time.Second}, nil, zap.NewNop())

	assert.Equal(t, 2*time.Second, q.backoff(1))
	assert.Equal(t, 4*time.Second, q.backoff(2))
	assert.Equal(t, 8*time.Second, q.backoff(3))
	assert.Equal(t, maxBackoff, q.backoff(10))
}

func TestTemplates(t *testing.T) {
	msg, err := AdminRequestMessage("admin@x.com", "http://localhost:4000/admin.html", LicenseRequestInfo{
		RequestID:   "req-1",
		UserName:    "<script>alert(1)</script>",
		UserEmail:   "alice@x.com",
		IDCard:      "ID-1",
		Fingerprint: "fp-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "admin@x.com", msg.To)
	assert.Contains(t, msg.HTML, "fp-1")
	assert.NotContains(t, msg.HTML, "<script>")

	msg, err = LicenseCodeMessage("alice@x.com", "Alice", "XYZ-123", "http://localhost:4000")
	require.NoError(t, err)
	assert.Contains(t, msg.HTML, "XYZ-123")
	assert.Contains(t, msg.Text, "XYZ-123")

	msg, err = ValidationCodeMessage("alice@x.com", "Alice", "12345678fp-1", "data:image/png;base64,AAAA")
	require.NoError(t, err)
	assert.Contains(t, msg.HTML, `src="data:image/png;base64,AAAA"`)
	assert.True(t, strings.Contains(msg.Text, "12345678fp-1"))

	otp := OTPMessage("a@x.com", "123456", 5*time.Minute)
	assert.Contains(t, otp.Text, "123456")
	assert.Contains(t, otp.Text, "5 minutes")
}
