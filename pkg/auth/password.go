package auth

import "github.com/alexedwards/argon2id"

func HashPassword(plain string) (string, error) {
	return argon2id.CreateHash(plain, argon2id.DefaultParams)
}

func CheckPassword(plain, hash string) bool {
	ok, err := argon2id.ComparePasswordAndHash(plain, hash)
	return err == nil && ok
}
