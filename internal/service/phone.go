package service

// PhoneValidator normalizes and validates payer MSISDNs against the
// configured carrier prefixes. It is pure and holds no state beyond the
// prefix set.
type PhoneValidator struct {
	prefixes map[string]struct{}
}

// msisdnLength is the locale's subscriber number length: a two-digit carrier
// prefix followed by exactly seven digits.
const msisdnLength = 9

// NewPhoneValidator creates a validator for the given two-digit carrier prefixes.
func NewPhoneValidator(allowedPrefixes []string) *PhoneValidator {
	prefixes := make(map[string]struct{}, len(allowedPrefixes))
	for _, p := range allowedPrefixes {
		prefixes[p] = struct{}{}
	}
	return &PhoneValidator{prefixes: prefixes}
}

// Validate strips non-digit characters and checks the carrier rules.
// On failure the returned error carries the original raw input, not the
// stripped value.
func (v *PhoneValidator) Validate(raw string) (string, error) {
	var digits []byte
	for i := 0; i < len(raw); i++ {
		if raw[i] >= '0' && raw[i] <= '9' {
			digits = append(digits, raw[i])
		}
	}

	if len(digits) != msisdnLength {
		return "", &ValidationError{Field: "phone_number", Raw: raw, Reason: "must contain exactly 9 digits"}
	}

	normalized := string(digits)
	if _, ok := v.prefixes[normalized[:2]]; !ok {
		return "", &ValidationError{Field: "phone_number", Raw: raw, Reason: "carrier prefix not supported"}
	}

	return normalized, nil
}
