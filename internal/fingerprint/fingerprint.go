// Package fingerprint derives a stable pseudo-identity from connection
// metadata. The id is one-way and deterministic; it exists only to give the
// rate limiter a scope that survives IP rotation, not to identify a person.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
)

const idLength = 16

func Derive(networkAddr, clientSignature string) string {
	sum := sha256.Sum256([]byte(networkAddr + "|" + clientSignature))
	return hex.EncodeToString(sum[:])[:idLength]
}
