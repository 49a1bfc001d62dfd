package sec

import "crypto/rand"

// NewToken returns a cryptographically secure random session token carrying
// 130 bits of entropy, encoded as 26 base32 characters. If the system entropy
// source fails, the program crashes.
func NewToken() string {
	return rand.Text()
}
