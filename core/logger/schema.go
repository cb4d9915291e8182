package logger

import "strings"

var levelNames = map[string]string{
	"debug":   "DEBUG",
	"info":    "INFO",
	"warn":    "WARN",
	"warning": "WARN",
	"error":   "ERROR",
}

var allowedOutcome = map[string]struct{}{
	"ok":           {},
	"fail":         {},
	"cancelled":    {},
	"rate_limited": {},
	"rejected":     {},
}

func normalizeLevel(level string) string {
	if level == "" {
		return "INFO"
	}
	if mapped, ok := levelNames[strings.ToLower(level)]; ok {
		return mapped
	}
	return strings.ToUpper(level)
}

func normalizeStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}

func normalizeOutcome(outcome string) (string, bool) {
	outcome = strings.ToLower(strings.TrimSpace(outcome))
	_, ok := allowedOutcome[outcome]
	return outcome, ok
}

var defaultKeyOrder = []string{
	"ts",
	"level",
	"component",
	"event",
	"status",
	"rid",
	"rid_full",
	"ts_unix_nano",
	"update_id",
	"user_id",
	"chat_id",
	"kind",
	"handler",
	"state",
	"next_state",
	"action",
	"cb_key",
	"outcome",
	"duration_ms",
	"messages",
	"kb",
	"op",
	"http_code",
	"product_id",
	"quantity",
	"items",
	"payload",
	"text_len",
	"username",
	"mode",
	"listen",
	"public_url",
	"expires_at",
	"db",
	"host",
	"port",
	"err",
	"err_code",
	"cause",
	"attempts",
	"pending",
}
