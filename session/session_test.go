package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validCookies = "_m_h5_tk=abc123_1700000000000; _m_h5_tk_enc=enc==; lzd_sid=sid42"

func TestParseCookies(t *testing.T) {
	raw := " a=1;\n b = 2 ; junk; c=x=y==;a=3; =orphan "

	creds := ParseCookies(raw)

	assert.Equal(t, 3, creds.Len())
	assert.Equal(t, "3", creds.Get("a"), "last write wins")
	assert.Equal(t, "2", creds.Get("b"))
	assert.Equal(t, "x=y==", creds.Get("c"), "embedded '=' kept")
	assert.Equal(t, "", creds.Get("junk"))
	assert.Equal(t, "a=3; b=2; c=x=y==", creds.Header())
}

func TestParseCookiesStripsNewlines(t *testing.T) {
	creds := ParseCookies("lzd_sid=ab\ncd;\n_m_h5_tk=t")

	assert.Equal(t, "abcd", creds.Get("lzd_sid"))
	assert.Equal(t, "t", creds.Get("_m_h5_tk"))
}

func TestParseCredentials(t *testing.T) {
	creds, err := ParseCredentials(validCookies)
	require.NoError(t, err)
	assert.Equal(t, "enc==", creds.Get(EncryptedTokenCookie))

	tests := []struct {
		name    string
		raw     string
		missing string
	}{
		{name: "empty", raw: "", missing: TokenCookie},
		{name: "no token", raw: "_m_h5_tk_enc=e; lzd_sid=s", missing: TokenCookie},
		{name: "no encrypted token", raw: "_m_h5_tk=t; lzd_sid=s", missing: EncryptedTokenCookie},
		{name: "no session", raw: "_m_h5_tk=t; _m_h5_tk_enc=e", missing: SessionIDCookie},
		{name: "empty value", raw: "_m_h5_tk=t; _m_h5_tk_enc=e; lzd_sid=", missing: SessionIDCookie},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCredentials(tt.raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMissingCredential))
			assert.Contains(t, err.Error(), tt.missing)
		})
	}
}

func TestSignDeterministic(t *testing.T) {
	data := `{"appId":"41711","params":"{\"pageNo\":1}"}`

	first := Sign("abc123_1700000000000", "1700000000123", "24677475", data)
	second := Sign("abc123_1700000000000", "1700000000123", "24677475", data)

	assert.Equal(t, first, second)
	assert.Len(t, first, 32)
	assert.Regexp(t, "^[0-9a-f]{32}$", first)

	variants := []string{
		Sign("abd123_1700000000000", "1700000000123", "24677475", data),
		Sign("abc123_1700000000000", "1700000000124", "24677475", data),
		Sign("abc123_1700000000000", "1700000000123", "24677476", data),
		Sign("abc123_1700000000000", "1700000000123", "24677475", data+" "),
	}
	for _, v := range variants {
		assert.NotEqual(t, first, v)
	}
}

func TestSignUsesTokenPrefix(t *testing.T) {
	assert.Equal(t,
		Sign("abc123", "1", "k", "d"),
		Sign("abc123_999_888", "1", "k", "d"),
	)
}

func TestSignKnownVector(t *testing.T) {
	// md5("abc123&1700000000123&24677475&{}")
	assert.Equal(t, "1c402170fa92d3ad01c7c6a939cd9ff2", Sign("abc123_1700000000000", "1700000000123", "24677475", "{}"))
}
