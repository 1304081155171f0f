// Package session parses browser session cookies and signs feed requests with them.
package session

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingCredential is returned when a required session cookie is absent or empty.
var ErrMissingCredential = errors.New("missing essential cookie")

// Cookie names the feed requires before any request is attempted.
const (
	TokenCookie          = "_m_h5_tk"
	EncryptedTokenCookie = "_m_h5_tk_enc"
	SessionIDCookie      = "lzd_sid"
)

// RequiredCookies lists the cookies ParseCredentials insists on.
var RequiredCookies = []string{TokenCookie, EncryptedTokenCookie, SessionIDCookie}

// Credentials is an ordered cookie set. Keys keep the position of their first
// occurrence; a repeated key overwrites the value.
type Credentials struct {
	keys   []string
	values map[string]string
}

// ParseCookies splits a raw Cookie header value. Newlines are removed, entries
// are trimmed and split at the first '='. Entries without '=' are skipped.
func ParseCookies(raw string) *Credentials {
	creds := &Credentials{values: make(map[string]string)}

	raw = strings.TrimSpace(strings.ReplaceAll(raw, "\n", ""))
	for _, entry := range strings.Split(raw, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(entry), "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		creds.set(key, strings.TrimSpace(value))
	}
	return creds
}

// ParseCredentials parses raw and checks every cookie in RequiredCookies.
func ParseCredentials(raw string) (*Credentials, error) {
	creds := ParseCookies(raw)
	if err := creds.RequireKeys(RequiredCookies...); err != nil {
		return nil, err
	}
	return creds, nil
}

// RequireKeys fails with ErrMissingCredential on the first absent or empty key.
func (c *Credentials) RequireKeys(keys ...string) error {
	for _, key := range keys {
		if c.Get(key) == "" {
			return fmt.Errorf("%w: %s", ErrMissingCredential, key)
		}
	}
	return nil
}

// Get returns the cookie value or "".
func (c *Credentials) Get(key string) string {
	return c.values[key]
}

// Len returns the number of distinct cookies.
func (c *Credentials) Len() int {
	return len(c.keys)
}

// Header renders the cookies as a Cookie header value.
func (c *Credentials) Header() string {
	pairs := make([]string, 0, len(c.keys))
	for _, key := range c.keys {
		pairs = append(pairs, key+"="+c.values[key])
	}
	return strings.Join(pairs, "; ")
}

func (c *Credentials) set(key, value string) {
	if _, seen := c.values[key]; !seen {
		c.keys = append(c.keys, key)
	}
	c.values[key] = value
}
