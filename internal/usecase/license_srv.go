package usecase

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"sync"
	"time"

	"license-server/internal/data/entity"
	"license-server/internal/data/repository"
	"license-server/internal/dto/request"
	"license-server/internal/dto/response"
	"license-server/internal/notify"
	"license-server/pkg/events"
	"license-server/pkg/qrcode"
	"license-server/pkg/utils"

	"go.uber.org/zap"
)

type LicenseService interface {
	// SubmitRequest returns the stored request unchanged when the fingerprint
	// already has one; created reports whether a new request was made.
	SubmitRequest(ctx context.Context, req *request.SubmitLicenseRequest) (lr *entity.LicenseRequest, created bool, err error)
	CheckRequest(ctx context.Context, fingerprint string) (*response.CheckRequestResponse, error)
	IssueCode(ctx context.Context, req *request.SendLicenseRequest) (string, error)
	ValidateWithOTP(ctx context.Context, requestID string) (string, error)
	Activate(ctx context.Context, req *request.ActivateLicenseRequest) (*entity.ActivationRecord, error)
	ListRequests(ctx context.Context) map[string]*entity.LicenseRequest
	PendingCount(ctx context.Context) int
}

type licenseService struct {
	repo   *repository.Repository
	infra  Infra
	config *utils.Config
	locks  *keyLocker
	// guards the single activation slot
	activationMu sync.Mutex
	now          func() time.Time
	log          *zap.Logger
}

func NewLicenseService(repo *repository.Repository, infra Infra, config *utils.Config, log *zap.Logger) LicenseService {
	return &licenseService{
		repo:   repo,
		infra:  infra,
		config: config,
		locks:  newKeyLocker(),
		now:    nowUTC,
		log:    log.With(zap.String("service", "license")),
	}
}

// SubmitRequest records a pending request for a new fingerprint. The
// administrator email is dispatched before the request is saved: a failed
// dispatch leaves nothing stored, so the device can simply submit again.
func (s *licenseService) SubmitRequest(ctx context.Context, req *request.SubmitLicenseRequest) (*entity.LicenseRequest, bool, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, false, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	unlock := s.locks.Lock(req.Fingerprint)
	defer unlock()

	existing, err := s.repo.License.FindByFingerprint(ctx, req.Fingerprint)
	if err != nil {
		return nil, false, fmt.Errorf("%w: find request: %v", ErrStorage, err)
	}
	if existing != nil {
		s.log.Info("License request already exists",
			zap.String("fingerprint", req.Fingerprint),
			zap.String("request_id", existing.RequestID),
			zap.String("status", string(existing.Status)))
		return existing, false, nil
	}

	requestID, err := utils.GenerateRequestID()
	if err != nil {
		return nil, false, err
	}

	lr := &entity.LicenseRequest{
		RequestID:   requestID,
		UserName:    req.UserName,
		UserEmail:   req.UserEmail,
		IDCard:      req.IDCard,
		Fingerprint: req.Fingerprint,
		Timestamp:   s.now(),
		Status:      entity.LicenseStatusPending,
	}

	// Notify the administrator before recording the request, so a failed
	// dispatch leaves nothing behind and a retry notifies again.
	msg, err := notify.AdminRequestMessage(s.config.Email.AdminEmail, s.adminURL(), notify.LicenseRequestInfo{
		RequestID:   lr.RequestID,
		UserName:    lr.UserName,
		UserEmail:   lr.UserEmail,
		IDCard:      lr.IDCard,
		Fingerprint: lr.Fingerprint,
	})
	if err != nil {
		return nil, false, err
	}
	if _, err := s.infra.Dispatcher.Dispatch(ctx, msg); err != nil {
		s.log.Error("Failed to notify administrator", zap.Error(err), zap.String("fingerprint", lr.Fingerprint))
		return nil, false, fmt.Errorf("%w: notify administrator: %v", ErrDispatch, err)
	}

	if err := s.repo.License.Save(ctx, lr); err != nil {
		return nil, false, fmt.Errorf("%w: save request: %v", ErrStorage, err)
	}

	s.log.Info("License request created",
		zap.String("request_id", lr.RequestID),
		zap.String("fingerprint", lr.Fingerprint),
		zap.String("user_email", lr.UserEmail))
	s.recordTransition(ctx, events.LicenseRequested, lr)

	return lr, true, nil
}

func (s *licenseService) CheckRequest(ctx context.Context, fingerprint string) (*response.CheckRequestResponse, error) {
	if strings.TrimSpace(fingerprint) == "" {
		return nil, fmt.Errorf("%w: fingerprint is required", ErrValidation)
	}

	lr, err := s.repo.License.FindByFingerprint(ctx, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("%w: find request: %v", ErrStorage, err)
	}

	resp := response.CheckRequestToResponse(lr)
	return &resp, nil
}

// IssueCode is the administrator approving a request with a chosen code. The
// code is emailed first and the request only moves to validated once the
// email went out.
func (s *licenseService) IssueCode(ctx context.Context, req *request.SendLicenseRequest) (string, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return "", fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	unlock := s.locks.Lock(req.Fingerprint)
	defer unlock()

	lr, err := s.repo.License.FindByFingerprint(ctx, req.Fingerprint)
	if err != nil {
		return "", fmt.Errorf("%w: find request: %v", ErrStorage, err)
	}
	if lr == nil {
		return "", fmt.Errorf("license request for %s: %w", req.Fingerprint, ErrNotFound)
	}
	if !lr.Status.CanTransitionTo(entity.LicenseStatusValidated) {
		return "", fmt.Errorf("license request for %s: %w", req.Fingerprint, ErrAlreadyActivated)
	}

	userName := req.UserName
	if userName == "" {
		userName = lr.UserName
	}

	msg, err := notify.LicenseCodeMessage(req.Email, userName, req.LicenseCode, s.config.App.PublicURL)
	if err != nil {
		return "", err
	}
	if _, err := s.infra.Dispatcher.Dispatch(ctx, msg); err != nil {
		s.log.Error("Failed to send license code", zap.Error(err), zap.String("fingerprint", req.Fingerprint))
		return "", fmt.Errorf("%w: send license code: %v", ErrDispatch, err)
	}

	now := s.now()
	lr.Status = entity.LicenseStatusValidated
	lr.LicenseCode = req.LicenseCode
	lr.ValidatedAt = &now

	if err := s.repo.License.Save(ctx, lr); err != nil {
		return "", fmt.Errorf("%w: save request: %v", ErrStorage, err)
	}

	s.log.Info("License code issued",
		zap.String("request_id", lr.RequestID),
		zap.String("fingerprint", lr.Fingerprint))
	s.recordTransition(ctx, events.LicenseValidated, lr)

	return req.LicenseCode, nil
}

// ValidateWithOTP approves a pending request found by its requestId. The code
// sent to the user is an 8-digit OTP followed by the fingerprint, delivered as
// text and as a QR image, and stored as the request's license code.
func (s *licenseService) ValidateWithOTP(ctx context.Context, requestID string) (string, error) {
	if strings.TrimSpace(requestID) == "" {
		return "", fmt.Errorf("%w: requestId is required", ErrValidation)
	}

	found, err := s.repo.License.FindByRequestID(ctx, requestID)
	if err != nil {
		return "", fmt.Errorf("%w: find request: %v", ErrStorage, err)
	}
	if found == nil {
		return "", fmt.Errorf("license request %s: %w", requestID, ErrNotFound)
	}

	unlock := s.locks.Lock(found.Fingerprint)
	defer unlock()

	// re-read under the lock; only pending requests take this path
	lr, err := s.repo.License.FindByFingerprint(ctx, found.Fingerprint)
	if err != nil {
		return "", fmt.Errorf("%w: find request: %v", ErrStorage, err)
	}
	if lr == nil || lr.RequestID != requestID || lr.Status != entity.LicenseStatusPending {
		return "", fmt.Errorf("pending license request %s: %w", requestID, ErrNotFound)
	}

	otp, err := utils.GenerateOTP(s.config.License.OTPLength)
	if err != nil {
		return "", err
	}
	code := otp + lr.Fingerprint

	png, err := s.infra.QRCode.RenderScannable(code)
	if err != nil {
		return "", fmt.Errorf("render validation code: %w", err)
	}

	msg, err := notify.ValidationCodeMessage(lr.UserEmail, lr.UserName, code, qrcode.DataURL(png))
	if err != nil {
		return "", err
	}
	if _, err := s.infra.Dispatcher.Dispatch(ctx, msg); err != nil {
		s.log.Error("Failed to send validation code", zap.Error(err), zap.String("request_id", requestID))
		return "", fmt.Errorf("%w: send validation code: %v", ErrDispatch, err)
	}

	now := s.now()
	lr.Status = entity.LicenseStatusValidated
	lr.LicenseCode = code
	lr.ValidatedAt = &now

	if err := s.repo.License.Save(ctx, lr); err != nil {
		return "", fmt.Errorf("%w: save request: %v", ErrStorage, err)
	}

	s.log.Info("License request validated with OTP",
		zap.String("request_id", requestID),
		zap.String("fingerprint", lr.Fingerprint))
	s.recordTransition(ctx, events.LicenseValidated, lr)

	return code, nil
}

// Activate writes the activation record and marks the request activated.
// The supplied code is only compared with the issued one when
// LICENSE_REQUIRE_CODE_MATCH is on. Repeated calls overwrite the record.
func (s *licenseService) Activate(ctx context.Context, req *request.ActivateLicenseRequest) (*entity.ActivationRecord, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	unlock := s.locks.Lock(req.Fingerprint)
	defer unlock()

	lr, err := s.repo.License.FindByFingerprint(ctx, req.Fingerprint)
	if err != nil {
		return nil, fmt.Errorf("%w: find request: %v", ErrStorage, err)
	}
	if lr == nil {
		return nil, fmt.Errorf("license request for %s: %w", req.Fingerprint, ErrNotFound)
	}

	if s.config.License.RequireCodeMatch {
		if lr.LicenseCode == "" || subtle.ConstantTimeCompare([]byte(lr.LicenseCode), []byte(req.LicenseCode)) != 1 {
			s.log.Warn("Activation with a code that was not issued", zap.String("fingerprint", req.Fingerprint))
			return nil, fmt.Errorf("license request for %s: %w", req.Fingerprint, ErrCodeMismatch)
		}
	}

	now := s.now()
	record := &entity.ActivationRecord{
		User:        lr.UserName,
		Email:       lr.UserEmail,
		Fingerprint: lr.Fingerprint,
		LicenseCode: req.LicenseCode,
		ActivatedAt: now,
	}

	s.activationMu.Lock()
	err = s.repo.Activation.Save(ctx, record)
	s.activationMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%w: write activation record: %v", ErrStorage, err)
	}

	lr.Status = entity.LicenseStatusActivated
	lr.ActivatedAt = &now
	if err := s.repo.License.Save(ctx, lr); err != nil {
		return nil, fmt.Errorf("%w: save request: %v", ErrStorage, err)
	}

	s.log.Info("License activated",
		zap.String("request_id", lr.RequestID),
		zap.String("fingerprint", lr.Fingerprint))
	s.recordTransition(ctx, events.LicenseActivated, lr)

	return record, nil
}

func (s *licenseService) ListRequests(ctx context.Context) map[string]*entity.LicenseRequest {
	return s.repo.License.List(ctx)
}

func (s *licenseService) PendingCount(ctx context.Context) int {
	return s.repo.License.CountByStatus(ctx, entity.LicenseStatusPending)
}

// ==================== HELPER METHODS ====================

func (s *licenseService) adminURL() string {
	return strings.TrimRight(s.config.App.PublicURL, "/") + "/admin.html"
}

func (s *licenseService) recordTransition(ctx context.Context, subject string, lr *entity.LicenseRequest) {
	if s.infra.Metrics != nil {
		s.infra.Metrics.LicenseEvents.WithLabelValues(string(lr.Status)).Inc()
	}
	publish(ctx, s.infra.Events, s.log, subject, events.LicenseEvent{
		RequestID:   lr.RequestID,
		Fingerprint: lr.Fingerprint,
		UserEmail:   lr.UserEmail,
		Status:      string(lr.Status),
		OccurredAt:  s.now(),
	})
}
