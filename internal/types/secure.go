package types

// redactedPlaceholder replaces secret values in logs and serialization.
const redactedPlaceholder = "***REDACTED***"

var redactedJSON = []byte(`"***REDACTED***"`)

// SecretString is a string type that prevents accidental logging or
// serialization of sensitive values (the admin bearer token, the upstream
// service key). String() and MarshalJSON() return a redacted placeholder;
// Unmask() retrieves the plaintext where it is genuinely needed.
type SecretString string

// String returns a redacted placeholder instead of the raw value. Invoked by
// fmt and by slog when the value is logged.
func (s SecretString) String() string {
	return redactedPlaceholder
}

// MarshalJSON returns the redacted placeholder as a JSON string.
func (s SecretString) MarshalJSON() ([]byte, error) {
	return redactedJSON, nil
}

// Unmask returns the raw plaintext value. Limit use to building Authorization
// headers and upstream query parameters.
func (s SecretString) Unmask() string {
	return string(s)
}
