package validation

import (
	"testing"

	"github.com/ahmetcoskunkizilkaya/photowall/internal/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginRequestValidation(t *testing.T) {
	ok := dto.LoginRequest{Username: "admin_1", Password: "secret1", CaptchaToken: "0123456789"}
	assert.Nil(t, Struct(ok))

	bad := dto.LoginRequest{Username: "ad min", Password: "123", CaptchaToken: ""}
	errs := Struct(bad)
	require.Len(t, errs, 3)

	fields := map[string]string{}
	for _, e := range errs {
		fields[e.Field] = e.Message
	}
	assert.Contains(t, fields, "username")
	assert.Contains(t, fields, "password")
	assert.Contains(t, fields, "captcha_token")
	assert.Equal(t, "is required", fields["captcha_token"])
}

func TestReportReasonTag(t *testing.T) {
	assert.Nil(t, Struct(dto.ReportRequest{Reason: "spam"}))

	errs := Struct(dto.ReportRequest{Reason: "boring"})
	require.Len(t, errs, 1)
	assert.Equal(t, "reason", errs[0].Field)
	assert.Contains(t, errs[0].Message, "copyright_violation")
}
