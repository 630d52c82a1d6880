package teacher

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base32"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	salt = []byte("dalant.core.teacher.token_gen")
	b32  = base32.StdEncoding.WithPadding(base32.NoPadding)

	// errors
	errInvalidToken = errors.New("invalid token")
	errTokenExpired = errors.New("token expired")
)

// tokenGenerator makes and verifies password reset tokens: "<base32 days since 2001>-<hmac>".
// The HMAC covers the password hash and last login, so a token stops working once it has been used.
type tokenGenerator struct {
	secretKey string
	timeout   time.Duration
	now       func() time.Time
}

// EncodeUID base64 encodes the church and ID of the given Teacher.
func EncodeUID(t Teacher) string {
	return base64.RawURLEncoding.EncodeToString([]byte(t.ChurchID + ":" + t.ID))
}

// decodeUID base64 decodes given UID into church and teacher IDs.
func decodeUID(uid string) (churchID, id string, err error) {
	raw, err := base64.RawURLEncoding.DecodeString(uid)
	if err != nil {
		return "", "", err
	}
	parts := strings.SplitN(string(raw), ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errInvalidToken
	}
	return parts[0], parts[1], nil
}

// makeToken generates a password reset token for a given Teacher.
func (tg tokenGenerator) makeToken(t Teacher) (string, error) {
	return tg.makeTokenWithTimestamp(t, numDaysSince2001(tg.now()))
}

// verifyToken checks that a password reset token for a given Teacher is valid.
func (tg tokenGenerator) verifyToken(t Teacher, token string) error {
	if token == "" {
		return errInvalidToken
	}

	parts := strings.SplitN(token, "-", 2)
	if len(parts) < 2 {
		return errInvalidToken
	}

	data, err := b32.DecodeString(parts[0])
	if err != nil {
		return errInvalidToken
	}
	ts, err := strconv.Atoi(string(data))
	if err != nil {
		return errInvalidToken
	}

	// check that token has not been tampered with
	newToken, err := tg.makeTokenWithTimestamp(t, ts)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(newToken), []byte(token)) == 0 {
		return errInvalidToken
	}

	// check that the timestamp is within limit
	if (numDaysSince2001(tg.now()) - ts) > int(tg.timeout/(24*time.Hour)) {
		return errTokenExpired
	}
	return nil
}

func (tg tokenGenerator) makeTokenWithTimestamp(t Teacher, ts int) (string, error) {
	tsB32 := b32.EncodeToString([]byte(strconv.Itoa(ts)))
	sig, err := tg.sign(hashValue(t, ts))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s", tsB32, sig), nil
}

func (tg tokenGenerator) sign(val []byte) (string, error) {
	key := sha256.Sum256(append(salt, tg.secretKey...))
	h := hmac.New(sha256.New, key[:])
	if _, err := h.Write(val); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil)), nil
}

func numDaysSince2001(t time.Time) int {
	ref := time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)
	return int(math.Ceil(t.Sub(ref).Hours() / 24))
}

func hashValue(t Teacher, ts int) []byte {
	var val bytes.Buffer
	val.WriteString(t.ID)
	val.Write(t.PasswordHash)
	if t.LastLogin != nil {
		val.WriteString(t.LastLogin.UTC().Truncate(time.Second).String())
	}
	val.WriteString(strconv.Itoa(ts))
	return val.Bytes()
}
