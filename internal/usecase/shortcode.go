package usecase

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// shortCodeAlphabet is the 56-character alphabet used for short codes.
// The visually ambiguous characters 0, O, I, l and 1 are excluded so that
// codes survive being read aloud or transcribed.
const shortCodeAlphabet = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// DefaultShortCodeLength is the code length used when none is configured.
const DefaultShortCodeLength = 6

// generateShortCode draws length characters from shortCodeAlphabet using a
// cryptographically strong random source. The code space is the application's
// only collision-avoidance mechanism, so a weak PRNG is not acceptable here.
func generateShortCode(length int) (string, error) {
	return gonanoid.Generate(shortCodeAlphabet, length)
}
