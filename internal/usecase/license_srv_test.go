package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"license-server/internal/data/entity"
	"license-server/internal/dto/request"
	"license-server/pkg/events"
	"license-server/pkg/utils"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func submitReq(fp string) *request.SubmitLicenseRequest {
	return &request.SubmitLicenseRequest{
		UserEmail:   "alice@x.com",
		UserName:    "Alice",
		IDCard:      "ID-1",
		Fingerprint: fp,
	}
}

func TestLicenseService_SubmitIsIdempotent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	first, created, err := env.svc.License.SubmitRequest(ctx, submitReq("fp-1"))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, entity.LicenseStatusPending, first.Status)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{16}$`), first.RequestID)

	msgs := env.dispatcher.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "admin@example.com", msgs[0].To)
	assert.Contains(t, msgs[0].Text, "http://localhost:3000/admin.html")
	assert.Contains(t, msgs[0].Text, first.RequestID)

	again := submitReq("fp-1")
	again.UserName = "Mallory"
	second, created, err := env.svc.License.SubmitRequest(ctx, again)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.RequestID, second.RequestID)
	assert.Equal(t, "Alice", second.UserName)
	assert.Len(t, env.dispatcher.messages(), 1)

	assert.Equal(t, 1, env.svc.License.PendingCount(ctx))
	assert.Equal(t, []string{events.LicenseRequested}, env.events.subjects)
}

func TestLicenseService_SubmitDispatchFailureSavesNothing(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.dispatcher.fail(errSMTP)

	_, _, err := env.svc.License.SubmitRequest(ctx, submitReq("fp-1"))
	require.ErrorIs(t, err, ErrDispatch)

	check, err := env.svc.License.CheckRequest(ctx, "fp-1")
	require.NoError(t, err)
	assert.False(t, check.HasRequest)
}

func TestLicenseService_ConcurrentSubmitSendsOnce(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	var g errgroup.Group
	for i := 0; i < 20; i++ {
		g.Go(func() error {
			_, _, err := env.svc.License.SubmitRequest(ctx, submitReq("fp-race"))
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.Len(t, env.dispatcher.messages(), 1)
	assert.Len(t, env.svc.License.ListRequests(ctx), 1)
}

func TestLicenseService_CheckRequest(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	check, err := env.svc.License.CheckRequest(ctx, "fp-1")
	require.NoError(t, err)
	assert.False(t, check.HasRequest)
	assert.Nil(t, check.RequestDate)

	lr, _, err := env.svc.License.SubmitRequest(ctx, submitReq("fp-1"))
	require.NoError(t, err)

	check, err = env.svc.License.CheckRequest(ctx, "fp-1")
	require.NoError(t, err)
	assert.True(t, check.HasRequest)
	assert.Equal(t, "Alice", check.UserName)
	assert.Equal(t, "alice@x.com", check.UserEmail)
	require.NotNil(t, check.RequestDate)
	assert.True(t, lr.Timestamp.Equal(*check.RequestDate))

	_, err = env.svc.License.CheckRequest(ctx, " ")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestLicenseService_IssueAndActivate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, _, err := env.svc.License.SubmitRequest(ctx, submitReq("fp-1"))
	require.NoError(t, err)

	code, err := env.svc.License.IssueCode(ctx, &request.SendLicenseRequest{
		Fingerprint: "fp-1",
		Email:       "alice@x.com",
		UserName:    "Alice",
		LicenseCode: "LIC-123",
	})
	require.NoError(t, err)
	assert.Equal(t, "LIC-123", code)

	msgs := env.dispatcher.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "alice@x.com", msgs[1].To)
	assert.Contains(t, msgs[1].Text, "LIC-123")

	lr, err := env.repo.License.FindByFingerprint(ctx, "fp-1")
	require.NoError(t, err)
	assert.Equal(t, entity.LicenseStatusValidated, lr.Status)
	assert.Equal(t, "LIC-123", lr.LicenseCode)
	require.NotNil(t, lr.ValidatedAt)

	record, err := env.svc.License.Activate(ctx, &request.ActivateLicenseRequest{Fingerprint: "fp-1", LicenseCode: "LIC-123"})
	require.NoError(t, err)
	assert.Equal(t, "Alice", record.User)
	assert.Equal(t, "alice@x.com", record.Email)

	stored, err := env.repo.Activation.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "fp-1", stored.Fingerprint)
	assert.Equal(t, "LIC-123", stored.LicenseCode)

	lr, err = env.repo.License.FindByFingerprint(ctx, "fp-1")
	require.NoError(t, err)
	assert.Equal(t, entity.LicenseStatusActivated, lr.Status)
	require.NotNil(t, lr.ActivatedAt)

	// activated requests never go back
	_, err = env.svc.License.IssueCode(ctx, &request.SendLicenseRequest{
		Fingerprint: "fp-1", Email: "alice@x.com", LicenseCode: "LIC-456",
	})
	assert.ErrorIs(t, err, ErrAlreadyActivated)

	assert.Equal(t, float64(1), testutil.ToFloat64(env.metrics.LicenseEvents.WithLabelValues("activated")))
	assert.Equal(t, []string{events.LicenseRequested, events.LicenseValidated, events.LicenseActivated}, env.events.subjects)
}

func TestLicenseService_IssueUnknownFingerprint(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.License.IssueCode(context.Background(), &request.SendLicenseRequest{
		Fingerprint: "nope", Email: "alice@x.com", LicenseCode: "LIC",
	})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, env.dispatcher.messages())
}

func TestLicenseService_ActivateUnknownFingerprint(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.License.Activate(context.Background(), &request.ActivateLicenseRequest{Fingerprint: "nope", LicenseCode: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLicenseService_ActivateCodeMatch(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name     string
		require  bool
		code     string
		expected error
	}{
		{"lenient accepts any code", false, "whatever", nil},
		{"strict rejects other code", true, "whatever", ErrCodeMismatch},
		{"strict accepts issued code", true, "LIC-123", nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t, func(c *utils.Config) { c.License.RequireCodeMatch = tc.require })

			_, _, err := env.svc.License.SubmitRequest(ctx, submitReq("fp-1"))
			require.NoError(t, err)
			_, err = env.svc.License.IssueCode(ctx, &request.SendLicenseRequest{
				Fingerprint: "fp-1", Email: "alice@x.com", LicenseCode: "LIC-123",
			})
			require.NoError(t, err)

			_, err = env.svc.License.Activate(ctx, &request.ActivateLicenseRequest{Fingerprint: "fp-1", LicenseCode: tc.code})
			if tc.expected == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.expected)

			lr, err := env.repo.License.FindByFingerprint(ctx, "fp-1")
			require.NoError(t, err)
			assert.Equal(t, entity.LicenseStatusValidated, lr.Status)
		})
	}
}

func TestLicenseService_ValidateWithOTP(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	lr, _, err := env.svc.License.SubmitRequest(ctx, submitReq("fp-1"))
	require.NoError(t, err)

	code, err := env.svc.License.ValidateWithOTP(ctx, lr.RequestID)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(code, "fp-1"), code)
	assert.Regexp(t, regexp.MustCompile(`^[1-9]\d{7}fp-1$`), code)

	msgs := env.dispatcher.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "alice@x.com", msgs[1].To)
	assert.Contains(t, msgs[1].Text, code)
	assert.Contains(t, msgs[1].HTML, "data:image/png;base64,")

	stored, err := env.repo.License.FindByFingerprint(ctx, "fp-1")
	require.NoError(t, err)
	assert.Equal(t, entity.LicenseStatusValidated, stored.Status)
	assert.Equal(t, code, stored.LicenseCode)

	// only pending requests can be validated this way
	_, err = env.svc.License.ValidateWithOTP(ctx, lr.RequestID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.svc.License.ValidateWithOTP(ctx, "deadbeefdeadbeef")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Len(t, env.dispatcher.messages(), 2)
}

func TestLicenseService_ListRequests(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	for i := 0; i < 3; i++ {
		_, _, err := env.svc.License.SubmitRequest(ctx, submitReq(fmt.Sprintf("fp-%d", i)))
		require.NoError(t, err)
	}

	all := env.svc.License.ListRequests(ctx)
	assert.Len(t, all, 3)

	// callers get copies
	all["fp-0"].Status = entity.LicenseStatusActivated
	assert.Equal(t, 3, env.svc.License.PendingCount(ctx))
}

func TestLicenseService_TimestampsUseClock(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	env.svc.License.(*licenseService).now = func() time.Time { return fixed }

	lr, _, err := env.svc.License.SubmitRequest(ctx, submitReq("fp-1"))
	require.NoError(t, err)
	assert.Equal(t, fixed, lr.Timestamp)
}
