package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword bcrypt-hashes a registration password. The cost comes
// from BCRYPT_COST so deployments can trade login latency against
// brute-force resistance without a rebuild.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword compares a stored hash against a login attempt. The
// comparison is constant-time inside bcrypt; callers only learn
// match or no match.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
