package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// Алфавит без неоднозначных символов (0/O, 1/I/l) — код может
// набираться вручную при отладке.
const codeAlphabet = "ABCDEFGHJKMNPQRSTVWXYZ23456789"

// RandomCode — равномерная выборка из codeAlphabet через rejection sampling.
// 16 символов × log2(30) ≈ 78 бит энтропии.
func RandomCode(n int) (string, error) {
	if n <= 0 {
		n = 16
	}
	out := make([]byte, 0, n)
	buf := make([]byte, 64)
	// 240 = наибольшее кратное len(alphabet) в байте; остальное отбрасываем
	limit := byte(256 - 256%len(codeAlphabet))
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			out = append(out, codeAlphabet[int(b)%len(codeAlphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}

// RandomSecret — opaque-секрет: nBytes случайных байт в base64url.
func RandomSecret(nBytes int) (string, error) {
	if nBytes <= 0 {
		nBytes = 32
	}
	buf := make([]byte, nBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashToken — детерминированный дайджест для хранения и поиска по хешу.
// Секреты высокоэнтропийные, перебор по SHA-256 не имеет смысла.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// IssueRefresh возвращает пару (plaintext, hash). Plaintext уходит клиенту
// и больше нигде не появляется.
func IssueRefresh() (string, string, error) {
	token, err := RandomSecret(32)
	if err != nil {
		return "", "", err
	}
	return token, HashToken(token), nil
}
