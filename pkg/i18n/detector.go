package i18n

import "strings"

// DetectLanguage picks a supported language from an Accept-Language
// header. Quality weights are ignored; order of appearance wins, which
// matches how the floor tablets send the header.
func DetectLanguage(acceptLanguage string) string {
	for _, part := range strings.Split(acceptLanguage, ",") {
		tag := strings.TrimSpace(part)
		if i := strings.Index(tag, ";"); i >= 0 {
			tag = tag[:i]
		}
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if i := strings.Index(tag, "-"); i >= 0 {
			tag = tag[:i]
		}
		if IsSupported(tag) {
			return tag
		}
	}
	return DefaultLanguage
}
