package service

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const (
	folioAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	folioLength   = 6
	folioPrefix   = "APP-"
)

// NewFolio returns a short human reference such as "K3X9QA". Uniqueness is
// best-effort; the appointment id is the real key.
func NewFolio() (string, error) {
	var b strings.Builder
	b.Grow(folioLength)
	size := big.NewInt(int64(len(folioAlphabet)))
	for i := 0; i < folioLength; i++ {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", err
		}
		b.WriteByte(folioAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// NormalizeFolio accepts "app-k3x9qa", "APP-K3X9QA" or "K3X9QA".
func NormalizeFolio(folio string) string {
	folio = strings.ToUpper(strings.TrimSpace(folio))
	return strings.TrimPrefix(folio, folioPrefix)
}
