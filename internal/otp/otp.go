// Package otp wraps time-based one-time-password generation and
// validation for login: SHA-1, 6 digits, 30-second step, one step of
// tolerance on each side.
package otp

import (
	"bytes"           // PNG buffer
	"encoding/base64" // QR image encoding for inline rendering
	"image/png"       // QR image encoding
	"time"            // Current time window

	otplib "github.com/pquerna/otp" // OTP key and parameter types
	"github.com/pquerna/otp/totp"   // TOTP generation/validation
)

// Issuer is bound into every provisioned secret; it namespaces the
// account entry in authenticator apps and is not itself secret.
const Issuer = "Money Money Program"

// validateOpts pins the code parameters for both sides of the check.
var validateOpts = totp.ValidateOpts{
	Period:    30,
	Skew:      1,
	Digits:    otplib.DigitsSix,
	Algorithm: otplib.AlgorithmSHA1,
}

// GenerateKey creates a fresh TOTP key for the given account name.
func GenerateKey(username string) (*otplib.Key, error) {
	return totp.Generate(totp.GenerateOpts{
		Issuer:      Issuer,
		AccountName: username,
		Period:      30,
		Digits:      otplib.DigitsSix,
		Algorithm:   otplib.AlgorithmSHA1,
	})
}

// Verify reports whether the candidate code is valid for the secret in
// the current time window (±1 step).
func Verify(secret, code string) bool {
	ok, err := totp.ValidateCustom(code, secret, time.Now().UTC(), validateOpts)
	return err == nil && ok
}

// CodeAt returns the code for the secret at the given instant.
// Used by tests and by the window checks; never exposed over HTTP.
func CodeAt(secret string, t time.Time) (string, error) {
	return totp.GenerateCodeCustom(secret, t, validateOpts)
}

// QRCodeBase64 renders the provisioning QR image of a key as a base64
// PNG suitable for an inline data: URL.
func QRCodeBase64(key *otplib.Key) (string, error) {
	img, err := key.Image(200, 200)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
