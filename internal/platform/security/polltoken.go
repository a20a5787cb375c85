package security

import "github.com/alexedwards/argon2id"

// Poll-токен не ищется по хешу (строку находим по device_id), поэтому в
// отличие от refresh-секретов его можно держать под argon2id.

func HashPollToken(token string) (string, error) {
	return argon2id.CreateHash(token, argon2id.DefaultParams)
}

func CheckPollToken(hash, token string) (bool, error) {
	return argon2id.ComparePasswordAndHash(token, hash)
}
