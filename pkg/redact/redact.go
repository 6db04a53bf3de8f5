package redact

const maskedValue = "***"

// visiblePrefix is how many leading characters of a long secret are kept.
const visiblePrefix = 4

// minRevealLength is the shortest secret that keeps its prefix; shorter values are fully masked.
const minRevealLength = 16

// Token masks a credential for log output. Short tokens are replaced entirely,
// long ones keep a short prefix so that different tokens can be told apart.
func Token(token string) string {
	if token == "" {
		return ""
	}
	if len(token) < minRevealLength {
		return maskedValue
	}
	return token[:visiblePrefix] + maskedValue
}
