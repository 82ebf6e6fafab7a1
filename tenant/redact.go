package tenant

import "strings"

// RedactionMarker replaces sensitive values in audited payloads.
const RedactionMarker = "[REDACTED]"

var sensitiveFragments = []string{
	"password",
	"token",
	"secret",
	"email",
	"phone",
}

func sensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, fragment := range sensitiveFragments {
		if strings.Contains(lower, fragment) {
			return true
		}
	}
	return false
}

// Redact returns a copy of the record with sensitive fields replaced by the
// redaction marker. Nested records are redacted recursively; the input is
// never modified.
func Redact(record Record) Record {
	if record == nil {
		return nil
	}
	out := make(Record, len(record))
	for key, value := range record {
		if sensitiveKey(key) {
			out[key] = RedactionMarker
			continue
		}
		if nested, ok := value.(map[string]any); ok {
			out[key] = map[string]any(Redact(Record(nested)))
			continue
		}
		if nested, ok := value.(Record); ok {
			out[key] = Redact(nested)
			continue
		}
		out[key] = value
	}
	return out
}
