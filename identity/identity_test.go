package identity

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	s := NewSigner([]byte("test-secret"), time.Hour, "session")

	setCookie, err := s.Issue("user-42")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(setCookie, "session="))
	assert.Contains(t, setCookie, "HttpOnly")

	sub, err := s.FromCookieHeader(strings.SplitN(setCookie, ";", 2)[0])
	require.NoError(t, err)
	assert.Equal(t, "user-42", sub)
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	s := NewSigner([]byte("test-secret"), time.Hour, "session")
	token, err := s.Issue("user-1")
	require.NoError(t, err)

	raw := strings.SplitN(strings.TrimPrefix(token, "session="), ";", 2)[0]
	tampered := raw[:len(raw)-1] + "x"
	_, err = s.Verify(tampered)
	assert.Error(t, err)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	s1 := NewSigner([]byte("secret-one"), time.Hour, "session")
	s2 := NewSigner([]byte("secret-two"), time.Hour, "session")

	setCookie, err := s1.Issue("user-7")
	require.NoError(t, err)

	raw := strings.SplitN(strings.TrimPrefix(setCookie, "session="), ";", 2)[0]
	_, err = s2.Verify(raw)
	assert.Error(t, err)
}

func TestFromCookieHeaderNoCookie(t *testing.T) {
	s := NewSigner([]byte("secret"), time.Hour, "session")
	_, err := s.FromCookieHeader("other=value")
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestIssueAndVerifyTable(t *testing.T) {
	cases := []struct {
		name    string
		subject string
		ttl     time.Duration
	}{
		{"short ttl", "user-a", time.Minute},
		{"long ttl", "user-b", 24 * time.Hour},
		{"empty subject", "", time.Hour},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewSigner([]byte("secret"), tc.ttl, "session")
			setCookie, err := s.Issue(tc.subject)
			require.NoError(t, err)

			sub, err := s.FromCookieHeader(strings.SplitN(setCookie, ";", 2)[0])
			require.NoError(t, err)
			assert.Equal(t, tc.subject, sub)
		})
	}
}
