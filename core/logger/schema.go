package logger

import "strings"

var allowedLevels = map[string]string{
	"debug":   "DEBUG",
	"info":    "INFO",
	"warn":    "WARN",
	"warning": "WARN",
	"error":   "ERROR",
}

var allowedStatus = map[string]string{
	"ok":       "ok",
	"fail":     "fail",
	"skip":     "skip",
	"retry":    "retry",
	"invalid":  "invalid",
	"fallback": "fallback",
}

var allowedOutcome = map[string]string{
	"ok":        "ok",
	"fail":      "fail",
	"invalid":   "invalid",
	"not_found": "not_found",
	"panic":     "panic",
}

func normalizeLevel(level string) string {
	if level == "" {
		return "INFO"
	}
	if mapped, ok := allowedLevels[strings.ToLower(level)]; ok {
		return mapped
	}
	return strings.ToUpper(level)
}

// normalizeStatus lowercases known statuses; unknown values pass through.
func normalizeStatus(status string) string {
	status = strings.ToLower(strings.TrimSpace(status))
	if mapped, ok := allowedStatus[status]; ok {
		return mapped
	}
	return status
}

func normalizeOutcome(outcome string) (string, bool) {
	val, ok := allowedOutcome[strings.ToLower(strings.TrimSpace(outcome))]
	return val, ok
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
	"team_id",
	"channel_id",
	"user_id",
	"kind",
	"handler",
	"key",
	"outcome",
	"duration_ms",
	"ack",
	"form_id",
	"fields",
	"errors",
	"template",
	"mode",
	"listen",
	"db",
	"host",
	"port",
	"commands",
	"actions",
	"views",
	"err",
	"err_code",
	"cause",
	"attempts",
	"elapsed_ms",
}
