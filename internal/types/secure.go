package types

import "encoding/json"

// redactedPlaceholder replaces secret values in logs and serialized output.
const redactedPlaceholder = "***REDACTED***"

// redactedJSON is the pre-computed JSON encoding of the redacted placeholder.
var redactedJSON = []byte(`"***REDACTED***"`)

// SecretString is a string type that prevents accidental logging or
// serialization of sensitive values (webhook shared secrets). It overrides
// String() and MarshalJSON() to return a redacted placeholder, so secrets
// never leak through fmt functions, structured logs, or JSON config dumps.
//
// Use Unmask() where the plaintext is genuinely required (the token
// comparison in the dispatcher).
type SecretString string

// String returns a redacted placeholder instead of the raw value.
func (s SecretString) String() string {
	return redactedPlaceholder
}

// MarshalJSON returns the redacted placeholder as a JSON string.
func (s SecretString) MarshalJSON() ([]byte, error) {
	return redactedJSON, nil
}

// UnmarshalJSON accepts the raw plaintext from configuration input.
// Unmarshalling is asymmetric with MarshalJSON on purpose: config files
// carry the real value in, but the value never serializes back out.
func (s *SecretString) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*s = SecretString(raw)
	return nil
}

// Unmask returns the raw plaintext value of the secret.
func (s SecretString) Unmask() string {
	return string(s)
}

// IsEmpty reports whether no secret is configured. Routes with an empty
// secret accept any token, including none at all.
func (s SecretString) IsEmpty() bool {
	return s == ""
}
