package core

import (
	cryptorand "crypto/rand"
	"encoding/hex"
	"math/rand"
)

const alnumChars = "0123456789" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
	"abcdefghijklmnopqrstuvwxyz"

// randomAlnum returns a random alphanumeric string of length n, used for
// meeting ids, meeting codes and session tokens.
func randomAlnum(n int) string {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = alnumChars[rand.Intn(len(alnumChars))]
	}
	return string(buf)
}

// randomHex returns a random hex string of length n.
func randomHex(n int) string {
	const hexChars = "0123456789abcdef"
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = hexChars[rand.Intn(len(hexChars))]
	}
	return string(buf)
}

// randomSalt returns n random bytes hex-encoded, preferring the
// cryptographic source and falling back to the PRNG if it fails.
func randomSalt(n int) string {
	buf := make([]byte, n)
	if _, err := cryptorand.Read(buf); err != nil {
		return randomHex(2 * n)
	}
	return hex.EncodeToString(buf)
}
