package logger

import "strings"

var levelNames = map[string]string{
	"debug":   "DEBUG",
	"info":    "INFO",
	"warn":    "WARN",
	"warning": "WARN",
	"error":   "ERROR",
	"fatal":   "FATAL",
}

// outcomes outside this set are dropped from the record.
var knownOutcome = map[string]bool{"ok": true, "fail": true, "cancelled": true, "rate_limited": true}

func normalizeLevel(level string) string {
	if level == "" {
		return "INFO"
	}
	if mapped, ok := levelNames[strings.ToLower(level)]; ok {
		return mapped
	}
	return strings.ToUpper(level)
}

// defaultKeyOrder puts correlation data first, then what the bot was doing
// (warehouse, box type, page), then error details.
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
	"chat_type",
	"handler",
	"op",
	"cb_key",
	"state",
	"outcome",
	"duration_ms",
	"messages",
	"kb",
	"warehouse_id",
	"box_type",
	"page",
	"count",
	"deleted",
	"recipients",
	"payload",
	"username",
	"mode",
	"listen",
	"public_url",
	"http_code",
	"body",
	"db",
	"err",
	"err_code",
	"cause",
	"attempts",
}
