package request

type SubmitLicenseRequest struct {
	UserEmail   string `json:"userEmail" validate:"required,email"`
	UserName    string `json:"userName" validate:"required"`
	IDCard      string `json:"idCard" validate:"required"`
	Fingerprint string `json:"fingerprint" validate:"required"`
}

type CheckRequestRequest struct {
	Fingerprint string `json:"fingerprint" validate:"required"`
}

type ActivateLicenseRequest struct {
	Fingerprint string `json:"fingerprint" validate:"required"`
	LicenseCode string `json:"licenseCode" validate:"required"`
}

// SendLicenseRequest is the admin call that issues a code. Email and UserName
// address the outgoing message; the stored request is found by fingerprint.
type SendLicenseRequest struct {
	Fingerprint string `json:"fingerprint" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	UserName    string `json:"userName"`
	LicenseCode string `json:"licenseCode" validate:"required"`
}

type AdminValidateRequest struct {
	RequestID string `json:"requestId" validate:"required"`
}
