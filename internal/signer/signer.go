// Package signer builds the HMAC-SHA256 Authorization header value expected by the
// marketplace gateway. Signatures embed the signing second, so a fresh value is produced
// for every request.
package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	// Algorithm is the only algorithm the gateway accepts.
	Algorithm = "HmacSHA256"
	// SignedDateLayout renders yyMMdd'T'HHmmss'Z'.
	SignedDateLayout = "060102T150405Z"

	scheme = "CEA"
)

// SignedDate formats at in UTC using SignedDateLayout.
func SignedDate(at time.Time) string {
	return at.UTC().Format(SignedDateLayout)
}

// Signature returns the lowercase hex HMAC-SHA256 of signedDate+method+path+query, where
// target is split into path and query on its first "?".
func Signature(method, target, secretKey, signedDate string) string {
	path, query, _ := strings.Cut(target, "?")

	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(signedDate + method + path + query))
	return hex.EncodeToString(mac.Sum(nil))
}

// Authorization returns the full Authorization header value for a request signed at at.
func Authorization(method, target, accessKey, secretKey string, at time.Time) string {
	signedDate := SignedDate(at)
	return fmt.Sprintf("%s algorithm=%s, access-key=%s, signed-date=%s, signature=%s",
		scheme, Algorithm, accessKey, signedDate, Signature(method, target, secretKey, signedDate))
}

// Signer binds credentials to a clock.
type Signer struct {
	accessKey string
	secretKey string
	clock     clockwork.Clock
}

// New creates a Signer. A nil clock uses the real wall clock.
func New(accessKey, secretKey string, clock clockwork.Clock) *Signer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Signer{
		accessKey: accessKey,
		secretKey: secretKey,
		clock:     clock,
	}
}

// Authorize signs method and target at the current time. Call it right before sending.
func (s *Signer) Authorize(method, target string) string {
	return Authorization(method, target, s.accessKey, s.secretKey, s.clock.Now())
}
