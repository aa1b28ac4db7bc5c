package usecase

import (
	"context"
	"strconv"
	"testing"
	"time"

	"license-server/internal/data/entity"
	"license-server/internal/data/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestOTPService(now *time.Time) *otpService {
	s := NewOTPService(repository.NewOTPRepository(zap.NewNop()), 6, 5*time.Minute, zap.NewNop()).(*otpService)
	s.now = func() time.Time { return *now }
	return s
}

func TestOTPService_IssueRange(t *testing.T) {
	now := time.Now()
	s := newTestOTPService(&now)

	for i := 0; i < 200; i++ {
		code, err := s.Issue(context.Background(), "a@x.com", entity.OTPPurposeRegister)
		require.NoError(t, err)
		require.Len(t, code, 6)

		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 100000)
		assert.LessOrEqual(t, n, 999999)
	}
}

func TestOTPService_SingleUse(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	s := newTestOTPService(&now)

	code, err := s.Issue(ctx, "a@x.com", entity.OTPPurposeLogin)
	require.NoError(t, err)

	require.NoError(t, s.Verify(ctx, "a@x.com", code))
	assert.ErrorIs(t, s.Verify(ctx, "a@x.com", code), ErrInvalidOrExpired)
}

func TestOTPService_MismatchKeepsCode(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	s := newTestOTPService(&now)

	code, err := s.Issue(ctx, "a@x.com", entity.OTPPurposeLogin)
	require.NoError(t, err)

	wrong := "000000"
	if code == wrong {
		wrong = "000001"
	}
	assert.ErrorIs(t, s.Verify(ctx, "a@x.com", wrong), ErrInvalidOrExpired)
	assert.NoError(t, s.Verify(ctx, "a@x.com", code))
}

func TestOTPService_NewIssueReplacesOld(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	s := newTestOTPService(&now)

	first, err := s.Issue(ctx, "a@x.com", entity.OTPPurposeRegister)
	require.NoError(t, err)
	second, err := s.Issue(ctx, "a@x.com", entity.OTPPurposeRegister)
	require.NoError(t, err)

	if first != second {
		assert.ErrorIs(t, s.Verify(ctx, "a@x.com", first), ErrInvalidOrExpired)
	}
	assert.NoError(t, s.Verify(ctx, "a@x.com", second))
}

func TestOTPService_ExpiryBoundary(t *testing.T) {
	ctx := context.Background()
	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("just before expiry", func(t *testing.T) {
		now := issued
		s := newTestOTPService(&now)
		code, err := s.Issue(ctx, "a@x.com", entity.OTPPurposeLogin)
		require.NoError(t, err)

		now = issued.Add(5*time.Minute - time.Millisecond)
		assert.NoError(t, s.Verify(ctx, "a@x.com", code))
	})

	t.Run("exactly at expiry", func(t *testing.T) {
		now := issued
		s := newTestOTPService(&now)
		code, err := s.Issue(ctx, "a@x.com", entity.OTPPurposeLogin)
		require.NoError(t, err)

		now = issued.Add(5 * time.Minute)
		assert.ErrorIs(t, s.Verify(ctx, "a@x.com", code), ErrInvalidOrExpired)

		// the expired entry is gone even if the clock went back
		now = issued
		assert.ErrorIs(t, s.Verify(ctx, "a@x.com", code), ErrInvalidOrExpired)
	})
}

func TestOTPService_UnknownIdentity(t *testing.T) {
	now := time.Now()
	s := newTestOTPService(&now)
	assert.ErrorIs(t, s.Verify(context.Background(), "nobody@x.com", "123456"), ErrInvalidOrExpired)
}
