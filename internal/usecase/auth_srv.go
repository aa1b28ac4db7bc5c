package usecase

import (
	"context"
	"fmt"
	"time"

	"license-server/internal/data/entity"
	"license-server/internal/data/repository"
	"license-server/internal/dto/request"
	"license-server/internal/dto/response"
	"license-server/internal/notify"
	"license-server/pkg/events"
	"license-server/pkg/utils"

	"go.uber.org/zap"
)

type AuthService interface {
	Register(ctx context.Context, req *request.RegisterRequest) error
	Login(ctx context.Context, req *request.LoginRequest) error
	Verify(ctx context.Context, req *request.VerifyRequest) (*response.VerifyResponse, error)
}

type authService struct {
	repo  *repository.Repository
	otp   OTPService
	infra Infra
	locks *keyLocker
	now   func() time.Time
	log   *zap.Logger
}

func NewAuthService(repo *repository.Repository, otp OTPService, infra Infra, log *zap.Logger) AuthService {
	return &authService{
		repo:  repo,
		otp:   otp,
		infra: infra,
		locks: newKeyLocker(),
		now:   nowUTC,
		log:   log.With(zap.String("service", "auth")),
	}
}

// Register sends a passcode to an unknown email. The account itself is only
// created by the first successful Verify.
func (s *authService) Register(ctx context.Context, req *request.RegisterRequest) error {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	unlock := s.locks.Lock(req.Email)
	defer unlock()

	existing, err := s.repo.User.FindByEmail(ctx, req.Email)
	if err != nil {
		s.log.Error("Failed to check email", zap.Error(err), zap.String("email", req.Email))
		return fmt.Errorf("%w: check email: %v", ErrStorage, err)
	}
	if existing != nil {
		return fmt.Errorf("email %s: %w", req.Email, ErrAlreadyExists)
	}

	return s.sendOTP(ctx, req.Email, entity.OTPPurposeRegister)
}

func (s *authService) Login(ctx context.Context, req *request.LoginRequest) error {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	unlock := s.locks.Lock(req.Email)
	defer unlock()

	user, err := s.repo.User.FindByEmail(ctx, req.Email)
	if err != nil {
		s.log.Error("Failed to find user", zap.Error(err), zap.String("email", req.Email))
		return fmt.Errorf("%w: find user: %v", ErrStorage, err)
	}
	if user == nil {
		s.log.Warn("Login for unknown email", zap.String("email", req.Email))
		return fmt.Errorf("email %s: %w", req.Email, ErrUserNotFound)
	}

	return s.sendOTP(ctx, req.Email, entity.OTPPurposeLogin)
}

// Verify consumes the passcode, creates the user on first success and
// returns a signed bearer token.
func (s *authService) Verify(ctx context.Context, req *request.VerifyRequest) (*response.VerifyResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	unlock := s.locks.Lock(req.Email)
	defer unlock()

	if err := s.otp.Verify(ctx, req.Email, req.OTP); err != nil {
		s.countVerification("failure")
		s.log.Warn("OTP verification failed", zap.String("email", req.Email), zap.Error(err))
		return nil, err
	}
	s.countVerification("success")

	user, err := s.repo.User.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("%w: find user: %v", ErrStorage, err)
	}

	if user == nil {
		user = &entity.User{
			Email:        req.Email,
			RegisteredAt: s.now(),
		}
		if err := s.repo.User.Create(ctx, user); err != nil {
			s.log.Error("Failed to create user", zap.Error(err), zap.String("email", req.Email))
			return nil, fmt.Errorf("%w: create user: %v", ErrStorage, err)
		}

		s.log.Info("User registered", zap.String("email", user.Email))
		publish(ctx, s.infra.Events, s.log, events.UserRegistered, events.UserRegisteredEvent{
			Email:        user.Email,
			RegisteredAt: user.RegisteredAt,
		})
	} else {
		s.log.Info("User logged in", zap.String("email", user.Email))
	}

	tok, err := s.infra.Tokens.Issue(user.Email)
	if err != nil {
		s.log.Error("Failed to issue token", zap.Error(err), zap.String("email", user.Email))
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &response.VerifyResponse{
		Message: "Authentication successful",
		Token:   tok,
	}, nil
}

// ==================== HELPER METHODS ====================

// sendOTP commits the code before dispatching it; a failed dispatch leaves the
// code live and the caller can simply ask again.
func (s *authService) sendOTP(ctx context.Context, email string, purpose entity.OTPPurpose) error {
	code, err := s.otp.Issue(ctx, email, purpose)
	if err != nil {
		s.log.Error("Failed to issue OTP", zap.Error(err), zap.String("email", email))
		return err
	}
	if s.infra.Metrics != nil {
		s.infra.Metrics.OTPIssued.WithLabelValues(string(purpose)).Inc()
	}

	if _, err := s.infra.Dispatcher.Dispatch(ctx, notify.OTPMessage(email, code, s.otp.TTL())); err != nil {
		s.log.Error("Failed to send OTP email", zap.Error(err), zap.String("email", email))
		return fmt.Errorf("%w: send otp to %s: %v", ErrDispatch, email, err)
	}

	s.log.Info("OTP sent", zap.String("email", email), zap.String("purpose", string(purpose)))
	return nil
}

func (s *authService) countVerification(result string) {
	if s.infra.Metrics != nil {
		s.infra.Metrics.OTPVerified.WithLabelValues(result).Inc()
	}
}
