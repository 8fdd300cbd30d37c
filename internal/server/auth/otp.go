package auth

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/dmitrijs2005/hireloop/internal/common"
)

// OTPLength is the number of digits in an emailed code.
const OTPLength = 6

func NewOTP() (string, error) {
	return common.RandomDigits(OTPLength)
}

// HashOTP is what the OTP store keeps instead of the code.
func HashOTP(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}
