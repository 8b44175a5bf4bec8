package settings

// Setting keys known to the platform. The migration seeds defaults for all
// of them; services fall back to config values when a row is missing.
const (
	KeyTokensPerReferral      = "tokens_per_referral"
	KeyReferralBonusNewUser   = "referral_bonus_new_user"
	KeyDefaultTokenExpiryDays = "default_token_expiry_days"
	KeyExpiringSoonDays       = "expiring_soon_days"
	KeyTokensPerEuro          = "tokens_per_euro"
)

var numericKeys = map[string]bool{
	KeyTokensPerReferral:      true,
	KeyReferralBonusNewUser:   true,
	KeyDefaultTokenExpiryDays: true,
	KeyExpiringSoonDays:       true,
	KeyTokensPerEuro:          true,
}

// KnownKeys returns every key the admin surface may update.
func KnownKeys() []string {
	return []string{
		KeyTokensPerReferral,
		KeyReferralBonusNewUser,
		KeyDefaultTokenExpiryDays,
		KeyExpiringSoonDays,
		KeyTokensPerEuro,
	}
}

// IsKnownKey reports whether the key is part of the platform registry.
func IsKnownKey(key string) bool {
	return numericKeys[key]
}
