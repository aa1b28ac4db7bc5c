package response

import (
	"time"

	"license-server/internal/data/entity"
)

type SubmitLicenseResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	RequestID string `json:"requestId"`
}

type CheckRequestResponse struct {
	HasRequest  bool       `json:"hasRequest"`
	UserName    string     `json:"userName,omitempty"`
	UserEmail   string     `json:"userEmail,omitempty"`
	RequestDate *time.Time `json:"requestDate,omitempty"`
}

type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type SendLicenseResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	LicenseCode string `json:"licenseCode"`
}

type AdminValidateResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	ValidationCode string `json:"validationCode"`
}

type RequestsResponse struct {
	Requests map[string]*entity.LicenseRequest `json:"requests"`
}

// Helper converters
func CheckRequestToResponse(req *entity.LicenseRequest) CheckRequestResponse {
	if req == nil {
		return CheckRequestResponse{HasRequest: false}
	}
	ts := req.Timestamp
	return CheckRequestResponse{
		HasRequest:  true,
		UserName:    req.UserName,
		UserEmail:   req.UserEmail,
		RequestDate: &ts,
	}
}
