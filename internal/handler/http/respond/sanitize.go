package respond

import "regexp"

// secretMask pairs a credential shape with its masked replacement. Entries
// are applied in order, so Anthropic keys are masked before the broader
// OpenAI shape can match them.
type secretMask struct {
	pattern *regexp.Regexp
	replace string
}

var secretMasks = []secretMask{
	{regexp.MustCompile(`sk-ant-[a-zA-Z0-9-_]+`), "sk-ant-****"},
	{regexp.MustCompile(`sk-[a-zA-Z0-9]{10,}`), "sk-****"},
	{regexp.MustCompile(`AIza[0-9A-Za-z\-_]{35}`), "AIza****"},
	{regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9\-_.]+`), "Bearer ****"},
	// user:password@ in OLLAMA_HOST or a fetched URL.
	{regexp.MustCompile(`://([^:/]+):([^@]+)@`), "://$1:****@"},
}

// SanitizeError returns the error message with provider keys, bearer
// tokens and URL passwords masked, for logging.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, m := range secretMasks {
		msg = m.pattern.ReplaceAllString(msg, m.replace)
	}
	return msg
}
