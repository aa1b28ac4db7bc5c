package usecase

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"license-server/internal/data/repository"
	"license-server/pkg/events"
	"license-server/pkg/mailer"
	"license-server/pkg/metrics"
	"license-server/pkg/objectstore"
	"license-server/pkg/token"
	"license-server/pkg/utils"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeDispatcher records every message and can be told to fail.
type fakeDispatcher struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (d *fakeDispatcher) Dispatch(_ context.Context, msg mailer.Message) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return "", d.err
	}
	d.sent = append(d.sent, msg)
	return "msg-id", nil
}

func (d *fakeDispatcher) messages() []mailer.Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]mailer.Message(nil), d.sent...)
}

func (d *fakeDispatcher) fail(err error) {
	d.mu.Lock()
	d.err = err
	d.mu.Unlock()
}

type fakeRenderer struct{}

func (fakeRenderer) RenderScannable(text string) ([]byte, error) {
	return []byte("png:" + text), nil
}

// recordingPublisher keeps the subjects it was asked to publish.
type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, _ interface{}) error {
	p.mu.Lock()
	p.subjects = append(p.subjects, subject)
	p.mu.Unlock()
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

var _ events.Publisher = (*recordingPublisher)(nil)

type testEnv struct {
	store      *objectstore.MemoryStore
	repo       *repository.Repository
	dispatcher *fakeDispatcher
	events     *recordingPublisher
	metrics    *metrics.Metrics
	config     *utils.Config
	svc        *Service
}

func testConfig() *utils.Config {
	return &utils.Config{
		App:     utils.AppConfig{Name: "license-server", PublicURL: "http://localhost:3000"},
		Email:   utils.EmailConfig{AdminEmail: "admin@example.com"},
		OTP:     utils.OTPConfig{ExpiryMinutes: 5, Length: 6},
		License: utils.LicenseConfig{OTPLength: 8},
	}
}

func newTestEnv(t *testing.T, mutate ...func(*utils.Config)) *testEnv {
	t.Helper()

	cfg := testConfig()
	for _, m := range mutate {
		m(cfg)
	}

	store := objectstore.NewMemoryStore()
	repo := repository.NewRepository(store, zap.NewNop())
	env := &testEnv{
		store:      store,
		repo:       repo,
		dispatcher: &fakeDispatcher{},
		events:     &recordingPublisher{},
		metrics:    metrics.New(),
		config:     cfg,
	}
	env.svc = NewService(repo, Infra{
		Dispatcher: env.dispatcher,
		Events:     env.events,
		QRCode:     fakeRenderer{},
		Tokens:     token.NewIssuer("test-secret", "license-server", time.Hour),
		Metrics:    env.metrics,
	}, cfg, zap.NewNop())
	return env
}

var sixDigits = regexp.MustCompile(`\b\d{6}\b`)

// lastOTP pulls the passcode out of the most recent message sent to email.
func (e *testEnv) lastOTP(t *testing.T, email string) string {
	t.Helper()
	msgs := e.dispatcher.messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].To == email {
			code := sixDigits.FindString(msgs[i].Text)
			require.NotEmpty(t, code, "no code in %q", msgs[i].Text)
			return code
		}
	}
	t.Fatalf("no message sent to %s", email)
	return ""
}

var errSMTP = errors.New("smtp down")
