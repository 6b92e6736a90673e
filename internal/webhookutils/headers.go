package webhookutils

import "strings"

// GetHeaderCaseInsensitive retrieves a header value using case-insensitive key matching.
// This is needed because Go's HTTP library canonicalizes header keys (e.g., X-GitHub-Event -> X-Github-Event)
// which can cause exact string matches to fail.
func GetHeaderCaseInsensitive(headers map[string]string, key string) (string, bool) {
	keyLower := strings.ToLower(key)
	for k, v := range headers {
		if strings.ToLower(k) == keyLower {
			return v, true
		}
	}
	return "", false
}

// EventKind returns the GitHub event kind announced in the X-GitHub-Event header,
// or "" if the header is absent.
func EventKind(headers map[string]string) string {
	kind, _ := GetHeaderCaseInsensitive(headers, "X-GitHub-Event")
	return kind
}

// DeliveryID returns the X-GitHub-Delivery header, GitHub's unique id for one
// webhook delivery attempt. Used for log correlation only; redelivery
// deduplication happens upstream of this service.
func DeliveryID(headers map[string]string) string {
	id, _ := GetHeaderCaseInsensitive(headers, "X-GitHub-Delivery")
	return id
}
