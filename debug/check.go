package debug

import (
	"crypto/sha256"
	"encoding/hex"
)

// CheckSum returns the hex sha256 of an assembled image.
func CheckSum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
