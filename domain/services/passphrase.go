package services

import "strings"

const (
	// PassphraseAlphabet omits I, O, 0 and 1
	PassphraseAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	PassphraseLength   = 6
)

// GeneratePassphrase returns a room passphrase drawn from PassphraseAlphabet
func GeneratePassphrase(rng Randomizer) string {
	var b strings.Builder
	b.Grow(PassphraseLength)
	for i := 0; i < PassphraseLength; i++ {
		b.WriteByte(PassphraseAlphabet[rng.IntN(len(PassphraseAlphabet))])
	}
	return b.String()
}
