package repository

import (
	"context"

	"license-server/pkg/objectstore"

	"go.uber.org/zap"
)

type Repository struct {
	OTP        OTPRepository
	User       UserRepository
	License    LicenseRequestRepository
	Activation ActivationRepository

	log *zap.Logger
}

func NewRepository(store objectstore.Store, log *zap.Logger) *Repository {
	return &Repository{
		OTP:        NewOTPRepository(log),
		User:       NewUserRepository(store, log),
		License:    NewLicenseRequestRepository(store, log),
		Activation: NewActivationRepository(store, log),
		log:        log,
	}
}

// Load fills the caches from the object store. A failed load is logged and
// leaves that repository empty; the service still starts.
func (r *Repository) Load(ctx context.Context) {
	users, err := r.User.Load(ctx)
	if err != nil {
		r.log.Error("Failed to load users, starting with an empty directory", zap.Error(err))
	} else {
		r.log.Info("Users loaded", zap.Int("count", users))
	}

	requests, err := r.License.Load(ctx)
	if err != nil {
		r.log.Error("Failed to load license requests, starting with an empty registry", zap.Error(err))
	} else {
		r.log.Info("License requests loaded", zap.Int("count", requests))
	}
}
