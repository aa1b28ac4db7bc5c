package repository

import (
	"context"
	"sync"

	"license-server/internal/data/entity"

	"go.uber.org/zap"
)

// OTPRepository is volatile: a restart drops every outstanding code.
type OTPRepository interface {
	Save(ctx context.Context, otp *entity.OTP) error
	FindByIdentity(ctx context.Context, identity string) (*entity.OTP, error)
	Delete(ctx context.Context, identity string) error
}

type otpRepository struct {
	mu      sync.RWMutex
	entries map[string]entity.OTP
	log     *zap.Logger
}

func NewOTPRepository(log *zap.Logger) OTPRepository {
	return &otpRepository{
		entries: make(map[string]entity.OTP),
		log:     log.With(zap.String("repository", "otp")),
	}
}

// Save replaces any previous entry for the identity.
func (r *otpRepository) Save(_ context.Context, otp *entity.OTP) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[otp.Identity] = *otp
	return nil
}

// FindByIdentity returns nil, nil when no entry exists.
func (r *otpRepository) FindByIdentity(_ context.Context, identity string) (*entity.OTP, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	otp, ok := r.entries[identity]
	if !ok {
		return nil, nil
	}
	return &otp, nil
}

func (r *otpRepository) Delete(_ context.Context, identity string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, identity)
	return nil
}
