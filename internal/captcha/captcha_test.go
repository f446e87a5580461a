package captcha

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/ahmetcoskunkizilkaya/photowall/internal/config"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const verifyURL = "https://hcaptcha.test/siteverify"

func setupHTTPMock(t *testing.T) *http.Client {
	t.Helper()
	client := &http.Client{}
	httpmock.ActivateNonDefault(client)
	t.Cleanup(httpmock.DeactivateAndReset)
	return client
}

func TestVerifySuccess(t *testing.T) {
	client := setupHTTPMock(t)
	httpmock.RegisterResponder(http.MethodPost, verifyURL,
		func(req *http.Request) (*http.Response, error) {
			require.NoError(t, req.ParseForm())
			assert.Equal(t, "secret", req.PostForm.Get("secret"))
			assert.Equal(t, "token-123456", req.PostForm.Get("response"))
			assert.Equal(t, "203.0.113.9", req.PostForm.Get("remoteip"))
			return httpmock.NewStringResponse(http.StatusOK, `{"success":true}`), nil
		})

	v := NewHCaptcha("secret", verifyURL, client)
	assert.True(t, v.Verify(context.Background(), "token-123456", "203.0.113.9"))
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestVerifyRejected(t *testing.T) {
	client := setupHTTPMock(t)
	httpmock.RegisterResponder(http.MethodPost, verifyURL,
		httpmock.NewStringResponder(http.StatusOK, `{"success":false,"error-codes":["invalid-input-response"]}`))

	assert.False(t, NewHCaptcha("secret", verifyURL, client).Verify(context.Background(), "bad-token", ""))
}

func TestVerifyNetworkFailureIsInvalid(t *testing.T) {
	client := setupHTTPMock(t)
	httpmock.RegisterResponder(http.MethodPost, verifyURL, httpmock.NewErrorResponder(errors.New("connection reset")))

	assert.False(t, NewHCaptcha("secret", verifyURL, client).Verify(context.Background(), "token", ""))
}

func TestVerifyBadStatusAndBody(t *testing.T) {
	client := setupHTTPMock(t)
	v := NewHCaptcha("secret", verifyURL, client)

	httpmock.RegisterResponder(http.MethodPost, verifyURL, httpmock.NewStringResponder(http.StatusBadGateway, `{"success":true}`))
	assert.False(t, v.Verify(context.Background(), "token", ""))

	httpmock.RegisterResponder(http.MethodPost, verifyURL, httpmock.NewStringResponder(http.StatusOK, `not json`))
	assert.False(t, v.Verify(context.Background(), "token", ""))
}

func TestVerifyWithoutTokenSkipsNetwork(t *testing.T) {
	client := setupHTTPMock(t)

	assert.False(t, NewHCaptcha("secret", verifyURL, client).Verify(context.Background(), "", ""))
	assert.False(t, NewHCaptcha("", verifyURL, client).Verify(context.Background(), "token", ""))
	assert.Zero(t, httpmock.GetTotalCallCount())
}

func TestNewHonoursBypassOnlyOutsideProduction(t *testing.T) {
	assert.IsType(t, Bypass{}, New(&config.Config{Env: "development", CaptchaBypass: true}))
	assert.IsType(t, &HCaptcha{}, New(&config.Config{Env: "production", CaptchaBypass: true}))
	assert.IsType(t, &HCaptcha{}, New(&config.Config{Env: "development", CaptchaBypass: false}))
}
