package frontend

import (
	"ffxiv_damage/analysispool"

	"github.com/dpapathanasiou/go-recaptcha"
)

// NewVerifier returns nil when no secret is configured, which disables the check.
func NewVerifier(secret string) analysispool.Verifier {
	if secret == "" {
		return nil
	}

	recaptcha.Init(secret)
	return recaptcha.Confirm
}
