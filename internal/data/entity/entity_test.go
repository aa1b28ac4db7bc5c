package entity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOTP_IsExpired(t *testing.T) {
	exp := time.Date(2026, 1, 1, 12, 5, 0, 0, time.UTC)
	otp := &OTP{ExpiresAt: exp}

	assert.False(t, otp.IsExpired(exp.Add(-time.Nanosecond)))
	assert.True(t, otp.IsExpired(exp))
	assert.True(t, otp.IsExpired(exp.Add(time.Second)))
}

func TestLicenseStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to LicenseStatus
		want     bool
	}{
		{LicenseStatusPending, LicenseStatusValidated, true},
		{LicenseStatusPending, LicenseStatusActivated, true},
		{LicenseStatusValidated, LicenseStatusActivated, true},
		{LicenseStatusValidated, LicenseStatusValidated, true},
		{LicenseStatusActivated, LicenseStatusActivated, true},
		{LicenseStatusActivated, LicenseStatusValidated, false},
		{LicenseStatusActivated, LicenseStatusPending, false},
		{LicenseStatusValidated, LicenseStatusPending, false},
		{LicenseStatusPending, LicenseStatus("bogus"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestUser_PreservesExtraFields(t *testing.T) {
	in := []byte(`{"email":"a@x.com","registeredAt":"2026-01-01T00:00:00Z","company":"ACME","roles":["x"]}`)

	var u User
	require.NoError(t, json.Unmarshal(in, &u))
	assert.Equal(t, "a@x.com", u.Email)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), u.RegisteredAt)
	assert.Contains(t, u.Extra, "company")

	out, err := json.Marshal(u)
	require.NoError(t, err)
	assert.JSONEq(t, string(in), string(out))
}

func TestLicenseRequest_Clone(t *testing.T) {
	now := time.Now()
	orig := &LicenseRequest{Fingerprint: "fp", ValidatedAt: &now}

	c := orig.Clone()
	*c.ValidatedAt = now.Add(time.Hour)
	c.Status = LicenseStatusActivated

	assert.Equal(t, now, *orig.ValidatedAt)
	assert.Empty(t, orig.Status)
}
