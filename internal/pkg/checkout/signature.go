// Package checkout verifies and decodes events sent by the hosted checkout provider.
package checkout

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

// SignatureHeader carries "t=<unix seconds>,v1=<hex hmac>". Several v1 entries may be
// present while the provider rotates secrets.
const SignatureHeader = "Payment-Signature"

// DefaultTolerance bounds how old a signed timestamp may be.
const DefaultTolerance = 5 * time.Minute

var (
	ErrMissingSecret     = errors.New("webhook secret not configured")
	ErrMalformedHeader   = errors.New("malformed signature header")
	ErrTimestampTooOld   = errors.New("signature timestamp outside tolerance")
	ErrSignatureMismatch = errors.New("signature mismatch")
)

// VerifySignature validates an HMAC-SHA256 signature over "<t>.<payload>".
func VerifySignature(payload []byte, header, secret string, now time.Time, tolerance time.Duration) error {
	if secret == "" {
		return ErrMissingSecret
	}

	ts, signatures, err := parseHeader(header)
	if err != nil {
		return err
	}

	if delta := now.Sub(time.Unix(ts, 0)); delta > tolerance || delta < -tolerance {
		return ErrTimestampTooOld
	}

	expected := computeSignature(payload, secret, ts)
	for _, sig := range signatures {
		given, err := hex.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(given, expected) {
			return nil
		}
	}
	return ErrSignatureMismatch
}

// GenerateSignature builds a header value for payload. Used by tests and local tooling.
func GenerateSignature(payload []byte, secret string, at time.Time) string {
	ts := at.Unix()
	return "t=" + strconv.FormatInt(ts, 10) + ",v1=" + hex.EncodeToString(computeSignature(payload, secret, ts))
}

func computeSignature(payload []byte, secret string, ts int64) []byte {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(strconv.FormatInt(ts, 10)))
	h.Write([]byte("."))
	h.Write(payload)
	return h.Sum(nil)
}

func parseHeader(header string) (int64, []string, error) {
	var (
		ts         int64
		haveTS     bool
		signatures []string
	)
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "t":
			parsed, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, nil, ErrMalformedHeader
			}
			ts, haveTS = parsed, true
		case "v1":
			signatures = append(signatures, value)
		}
	}
	if !haveTS || len(signatures) == 0 {
		return 0, nil, ErrMalformedHeader
	}
	return ts, signatures, nil
}
