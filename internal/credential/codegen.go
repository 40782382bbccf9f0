package credential

import (
	"crypto/rand"
	"fmt"
)

// codeAlphabet matches the code format voters already know from paper
// mailings: uppercase letters and digits, no lowercase.
const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateCode draws a uniformly random code of the given length from the
// 36-symbol alphabet using crypto/rand. Rejection sampling keeps the draw
// unbiased: bytes >= 252 (the largest multiple of 36 below 256) are
// discarded instead of taken modulo.
func GenerateCode(length int) (string, error) {
	const limit = byte(252)

	code := make([]byte, 0, length)
	buf := make([]byte, length)
	for len(code) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			code = append(code, codeAlphabet[int(b)%len(codeAlphabet)])
			if len(code) == length {
				break
			}
		}
	}
	return string(code), nil
}
