package utils

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOTP_Ranges(t *testing.T) {
	tests := []struct {
		length int
		min    int
		max    int
	}{
		{length: 6, min: 100000, max: 999999},
		{length: 8, min: 10000000, max: 99999999},
	}

	for _, tt := range tests {
		t.Run(strconv.Itoa(tt.length), func(t *testing.T) {
			for i := 0; i < 500; i++ {
				code, err := GenerateOTP(tt.length)
				require.NoError(t, err)
				require.Len(t, code, tt.length)

				n, err := strconv.Atoi(code)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, n, tt.min)
				assert.LessOrEqual(t, n, tt.max)
			}
		})
	}
}

func TestGenerateOTP_DefaultLength(t *testing.T) {
	code, err := GenerateOTP(0)
	require.NoError(t, err)
	assert.Len(t, code, 6)
}

func TestGenerateRequestID(t *testing.T) {
	id, err := GenerateRequestID()
	require.NoError(t, err)
	assert.Regexp(t, `^[0-9a-f]{16}$`, id)

	other, err := GenerateRequestID()
	require.NoError(t, err)
	assert.NotEqual(t, id, other)
}

func TestStorageKeyHashes(t *testing.T) {
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", MD5Hex(""))
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", SHA256Hex(""))
}

func TestValidateStruct(t *testing.T) {
	type req struct {
		Email string `json:"email" validate:"required,email"`
		OTP   string `json:"otp" validate:"required,numeric"`
	}

	assert.Nil(t, ValidateStruct(req{Email: "a@x.com", OTP: "123456"}))

	errs := ValidateStruct(req{Email: "nope", OTP: "12ab"})
	assert.Equal(t, map[string]string{
		"Email": "Invalid email format",
		"OTP":   "Must contain digits only",
	}, errs)
	assert.Equal(t, "Email: Invalid email format; OTP: Must contain digits only", FormatValidationErrors(errs))

	errs = ValidateStruct(req{})
	assert.Equal(t, "This field is required", errs["Email"])
}

func TestLoadConfig_DefaultsAndEnv(t *testing.T) {
	t.Setenv("PORT", "5050")
	t.Setenv("LICENSE_REQUIRE_CODE_MATCH", "true")
	t.Setenv("MAIL_RETRY_BACKOFF", "250ms")

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "5050", config.App.Port)
	assert.True(t, config.License.RequireCodeMatch)
	assert.Equal(t, 250*time.Millisecond, config.Mail.RetryBackoff)

	assert.Equal(t, "file", config.Storage.Driver)
	assert.Equal(t, 6, config.OTP.Length)
	assert.Equal(t, 8, config.License.OTPLength)
	assert.Equal(t, 5*time.Minute, config.OTPExpiry())
	assert.Equal(t, "dev", config.Email.Driver)
	assert.False(t, config.App.TrustProxy)
}
