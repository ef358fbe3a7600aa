package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"issuesolver/internal/llm/client"
)

func TestClassifyError(t *testing.T) {
	cases := []struct {
		text string
		want ErrorKind
	}{
		{"error, status code: 429, message: You exceeded your current quota", KindQuota},
		{"Error 429: Resource has been exhausted (e.g. check quota). RESOURCE_EXHAUSTED", KindQuota},
		{"Your credit balance is too low to access the Anthropic API", KindQuota},
		{"rate limit reached for requests", KindQuota},
		{"error, status code: 401, message: Incorrect API key provided", KindInvalidCredential},
		{"API key not valid. Please pass a valid API key.", KindInvalidCredential},
		{"API key for openai is not configured", KindInvalidCredential},
		{`Post "https://api.openai.com/v1/chat/completions": dial tcp: lookup api.openai.com: no such host`, KindNetwork},
		{"context deadline exceeded", KindNetwork},
		{"dial tcp 127.0.0.1:4290: connect: connection refused", KindNetwork},
		{"dial tcp 10.0.0.7:4010: i/o timeout", KindNetwork},
		{`Post "http://10.4.29.1:429/v1": EOF`, KindUnknown},
		{"error, status code: 429", KindQuota},
		{"Error 403: caller does not have access", KindInvalidCredential},
		{"upstream request 401-abc failed with status 500", KindUnknown},
		{"request_id=req_4291 failed", KindUnknown},
		{"anthropic: overloaded_error: Overloaded", KindUnknown},
		{"model produced an empty response", KindUnknown},
		{"", KindUnknown},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyError(tc.text), tc.text)
	}
}

func TestNewGatewayError_KeepsExistingClassification(t *testing.T) {
	inner := &GatewayError{Kind: KindQuota, KeySource: client.KeySourceDefault, Err: errors.New("quota")}
	wrapped := fmt.Errorf("plan: %w", inner)

	got := newGatewayError(wrapped, client.KeySourceUser)
	assert.Same(t, inner, got)

	got = newGatewayError(errors.New("invalid api key"), client.KeySourceUser)
	assert.Equal(t, KindInvalidCredential, got.Kind)
	assert.Equal(t, client.KeySourceUser, got.KeySource)
}

func TestValidationError_WrapsSentinel(t *testing.T) {
	err := validationError("issue_url %q is not a GitHub issue", "x")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "issue_url")

	fe := &FetchError{URL: "u", Err: errors.New("issue not found")}
	assert.Equal(t, "issue not found", fe.Error())
}
