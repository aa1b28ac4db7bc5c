package entity

import "time"

type LicenseStatus string

const (
	LicenseStatusPending   LicenseStatus = "pending"
	LicenseStatusValidated LicenseStatus = "validated"
	LicenseStatusActivated LicenseStatus = "activated"
)

func (s LicenseStatus) rank() int {
	switch s {
	case LicenseStatusPending:
		return 1
	case LicenseStatusValidated:
		return 2
	case LicenseStatusActivated:
		return 3
	default:
		return 0
	}
}

// CanTransitionTo reports whether moving from s to next keeps the lifecycle
// monotonic. Staying in the same status is allowed.
func (s LicenseStatus) CanTransitionTo(next LicenseStatus) bool {
	return next.rank() > 0 && next.rank() >= s.rank()
}

// LicenseRequest tracks one device from request to activation.
// Timestamp is the creation time.
type LicenseRequest struct {
	RequestID   string        `json:"requestId"`
	UserName    string        `json:"userName"`
	UserEmail   string        `json:"userEmail"`
	IDCard      string        `json:"idCard"`
	Fingerprint string        `json:"fingerprint"`
	Timestamp   time.Time     `json:"timestamp"`
	Status      LicenseStatus `json:"status"`
	LicenseCode string        `json:"licenseCode,omitempty"`
	ValidatedAt *time.Time    `json:"validatedAt,omitempty"`
	ActivatedAt *time.Time    `json:"activatedAt,omitempty"`
}

// Clone returns a deep copy so cached records are never shared with callers.
func (r *LicenseRequest) Clone() *LicenseRequest {
	if r == nil {
		return nil
	}
	c := *r
	if r.ValidatedAt != nil {
		t := *r.ValidatedAt
		c.ValidatedAt = &t
	}
	if r.ActivatedAt != nil {
		t := *r.ActivatedAt
		c.ActivatedAt = &t
	}
	return &c
}

// ActivationRecord is the durable proof that a device accepted a license code.
type ActivationRecord struct {
	User        string    `json:"user"`
	Email       string    `json:"email"`
	Fingerprint string    `json:"fingerprint"`
	LicenseCode string    `json:"licenseCode"`
	ActivatedAt time.Time `json:"activatedAt"`
}
