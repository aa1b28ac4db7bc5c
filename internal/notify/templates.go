package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"license-server/pkg/mailer"
)

var (
	adminRequestTmpl = template.Must(template.New("admin_request").Parse(`<!DOCTYPE html>
<html><body style="font-family: Arial, sans-serif;">
<h2>New license request</h2>
<p>A new license authorization request was received:</p>
<table>
<tr><td><b>User</b></td><td>{{.UserName}}</td></tr>
<tr><td><b>Email</b></td><td>{{.UserEmail}}</td></tr>
<tr><td><b>ID card</b></td><td>{{.IDCard}}</td></tr>
<tr><td><b>Device fingerprint</b></td><td style="font-family: monospace; word-break: break-all;">{{.Fingerprint}}</td></tr>
<tr><td><b>Request ID</b></td><td>{{.RequestID}}</td></tr>
</table>
<p><a href="{{.AdminURL}}">Manage requests</a></p>
</body></html>`))

	licenseCodeTmpl = template.Must(template.New("license_code").Parse(`<!DOCTYPE html>
<html><body style="font-family: Arial, sans-serif;">
<h2>Congratulations {{.UserName}}!</h2>
<p>Your license request has been approved.</p>
<p style="font-size: 24px; font-weight: bold; letter-spacing: 2px;">{{.LicenseCode}}</p>
<ol>
<li>Copy the license code above</li>
<li>Open <a href="{{.ActivationURL}}">{{.ActivationURL}}</a></li>
<li>Paste the code and click "Activate license"</li>
<li>Restart the application</li>
</ol>
<p>This code is bound to your device. Do not share it.</p>
</body></html>`))

	validationCodeTmpl = template.Must(template.New("validation_code").Parse(`<!DOCTYPE html>
<html><body style="font-family: Arial, sans-serif;">
<h2>License request validated</h2>
<p>Hello {{.UserName}},</p>
<p>Your information has been validated. Scan the QR code below or enter the code manually:</p>
<img src="{{.QRCode}}" alt="Validation QR code" style="max-width: 200px;" />
<p><b>Validation code:</b> {{.Code}}</p>
<p>Enter this code in the application to activate your license.</p>
</body></html>`))
)

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}

// OTPMessage carries an authentication passcode.
func OTPMessage(to, code string, ttl time.Duration) mailer.Message {
	minutes := int(ttl.Minutes())
	return mailer.Message{
		To:      to,
		Subject: "Your verification code",
		Text:    fmt.Sprintf("Your verification code is: %s\n\nThis code expires in %d minutes.", code, minutes),
	}
}

type LicenseRequestInfo struct {
	RequestID   string
	UserName    string
	UserEmail   string
	IDCard      string
	Fingerprint string
}

// AdminRequestMessage tells the administrator a device asked for a license.
func AdminRequestMessage(adminEmail, adminURL string, info LicenseRequestInfo) (mailer.Message, error) {
	html, err := render(adminRequestTmpl, struct {
		LicenseRequestInfo
		AdminURL string
	}{info, adminURL})
	if err != nil {
		return mailer.Message{}, err
	}

	return mailer.Message{
		To:      adminEmail,
		Subject: "License authorization request",
		Text: fmt.Sprintf("New license request\nUser: %s\nEmail: %s\nID card: %s\nFingerprint: %s\nRequest ID: %s\nManage: %s",
			info.UserName, info.UserEmail, info.IDCard, info.Fingerprint, info.RequestID, adminURL),
		HTML: html,
	}, nil
}

// LicenseCodeMessage sends the issued code with activation instructions.
func LicenseCodeMessage(to, userName, licenseCode, activationURL string) (mailer.Message, error) {
	html, err := render(licenseCodeTmpl, map[string]string{
		"UserName":      userName,
		"LicenseCode":   licenseCode,
		"ActivationURL": activationURL,
	})
	if err != nil {
		return mailer.Message{}, err
	}

	return mailer.Message{
		To:      to,
		ToName:  userName,
		Subject: "Your license code",
		Text:    fmt.Sprintf("Your license code is: %s\n\nActivate it at %s and restart the application.", licenseCode, activationURL),
		HTML:    html,
	}, nil
}

// ValidationCodeMessage sends the combined validation code and its QR image.
func ValidationCodeMessage(to, userName, code, qrDataURL string) (mailer.Message, error) {
	html, err := render(validationCodeTmpl, map[string]any{
		"UserName": userName,
		"Code":     code,
		// data: URLs are filtered by html/template unless marked safe
		"QRCode": template.URL(qrDataURL),
	})
	if err != nil {
		return mailer.Message{}, err
	}

	return mailer.Message{
		To:      to,
		ToName:  userName,
		Subject: "License validation code",
		Text:    fmt.Sprintf("Your validation code is: %s\n\nEnter it in the application to activate your license.", code),
		HTML:    html,
	}, nil
}
