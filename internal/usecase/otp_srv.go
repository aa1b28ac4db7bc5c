package usecase

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"license-server/internal/data/entity"
	"license-server/internal/data/repository"
	"license-server/pkg/utils"

	"go.uber.org/zap"
)

type OTPService interface {
	// Issue replaces any live code for identity and returns the new one.
	Issue(ctx context.Context, identity string, purpose entity.OTPPurpose) (string, error)
	// Verify consumes the code. Absent, mismatched and expired codes all fail
	// with ErrInvalidOrExpired.
	Verify(ctx context.Context, identity, code string) error
	TTL() time.Duration
}

type otpService struct {
	repo   repository.OTPRepository
	locks  *keyLocker
	length int
	ttl    time.Duration
	now    func() time.Time
	log    *zap.Logger
}

func NewOTPService(repo repository.OTPRepository, length int, ttl time.Duration, log *zap.Logger) OTPService {
	return &otpService{
		repo:   repo,
		locks:  newKeyLocker(),
		length: length,
		ttl:    ttl,
		now:    time.Now,
		log:    log.With(zap.String("service", "otp")),
	}
}

func (s *otpService) TTL() time.Duration {
	return s.ttl
}

func (s *otpService) Issue(ctx context.Context, identity string, purpose entity.OTPPurpose) (string, error) {
	code, err := utils.GenerateOTP(s.length)
	if err != nil {
		return "", err
	}

	unlock := s.locks.Lock(identity)
	defer unlock()

	now := s.now()
	otp := &entity.OTP{
		Identity:  identity,
		Code:      code,
		Purpose:   purpose,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	if err := s.repo.Save(ctx, otp); err != nil {
		return "", fmt.Errorf("save otp for %s: %w", identity, err)
	}

	s.log.Debug("OTP issued",
		zap.String("identity", identity),
		zap.String("purpose", string(purpose)),
		zap.Time("expires_at", otp.ExpiresAt))

	return code, nil
}

func (s *otpService) Verify(ctx context.Context, identity, code string) error {
	unlock := s.locks.Lock(identity)
	defer unlock()

	otp, err := s.repo.FindByIdentity(ctx, identity)
	if err != nil {
		return fmt.Errorf("find otp for %s: %w", identity, err)
	}
	if otp == nil {
		return ErrInvalidOrExpired
	}

	if otp.IsExpired(s.now()) {
		// lazy eviction
		if err := s.repo.Delete(ctx, identity); err != nil {
			s.log.Warn("Failed to drop expired OTP", zap.Error(err), zap.String("identity", identity))
		}
		return ErrInvalidOrExpired
	}

	if subtle.ConstantTimeCompare([]byte(otp.Code), []byte(code)) != 1 {
		return ErrInvalidOrExpired
	}

	if err := s.repo.Delete(ctx, identity); err != nil {
		return fmt.Errorf("consume otp for %s: %w", identity, err)
	}
	return nil
}
