package domain

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"math/big"
	"strings"
)

const (
	// authorizationCodeBytes yields 43 base64url characters.
	authorizationCodeBytes = 32
	// accessTokenBytes yields 171 base64url characters.
	accessTokenBytes = 128

	clientSecretPrefix = "sorria_cs_"
	clientSecretLength = 40
	base62Chars        = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
)

// GenerateAuthorizationCode gera um código de autorização aleatório
// Retorna: (plainCode, hash)
func GenerateAuthorizationCode() (string, string, error) {
	return generateOpaque(authorizationCodeBytes)
}

// GenerateAccessToken gera um access token opaco
// Retorna: (plainToken, hash)
func GenerateAccessToken() (string, string, error) {
	return generateOpaque(accessTokenBytes)
}

// HashToken gera o hash SHA256 de um código ou token
func HashToken(value string) string {
	hash := sha256.Sum256([]byte(value))
	return hex.EncodeToString(hash[:])
}

// GenerateClientSecret gera o segredo entregue ao dono da aplicação
// Formato: sorria_cs_<random40>
func GenerateClientSecret() (string, error) {
	randomPart, err := generateSecureRandomString(clientSecretLength)
	if err != nil {
		return "", err
	}
	return clientSecretPrefix + randomPart, nil
}

// IsValidClientSecretFormat verifica se o segredo tem o formato correto
func IsValidClientSecretFormat(secret string) bool {
	if !strings.HasPrefix(secret, clientSecretPrefix) {
		return false
	}

	randomPart := strings.TrimPrefix(secret, clientSecretPrefix)
	if len(randomPart) != clientSecretLength {
		return false
	}

	for _, char := range randomPart {
		if !strings.ContainsRune(base62Chars, char) {
			return false
		}
	}

	return true
}

func generateOpaque(n int) (string, string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}

	plain := base64.RawURLEncoding.EncodeToString(buf)
	return plain, HashToken(plain), nil
}

// generateSecureRandomString gera uma string aleatória segura usando crypto/rand
func generateSecureRandomString(length int) (string, error) {
	result := make([]byte, length)
	base62Len := big.NewInt(int64(len(base62Chars)))

	for i := 0; i < length; i++ {
		num, err := rand.Int(rand.Reader, base62Len)
		if err != nil {
			return "", err
		}
		result[i] = base62Chars[num.Int64()]
	}

	return string(result), nil
}
