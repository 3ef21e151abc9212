package logger

import "strings"

var levelNames = map[string]string{
	"debug":   "DEBUG",
	"info":    "INFO",
	"warn":    "WARN",
	"warning": "WARN",
	"error":   "ERROR",
}

func levelName(level string) string {
	if name, ok := levelNames[strings.ToLower(level)]; ok {
		return name
	}
	if level == "" {
		return "INFO"
	}
	return strings.ToUpper(level)
}

// defaultKeyOrder puts the fields people grep for first; everything else
// follows alphabetically.
var defaultKeyOrder = []string{
	"ts",
	"level",
	"component",
	"event",
	"status",
	"outcome",
	"rid",
	"trace_id",
	"span_id",
	"update_id",
	"user_id",
	"chat_id",
	"chat_type",
	"admin_id",
	"handler",
	"cb_key",
	"action",
	"from_state",
	"to_state",
	"action_state",
	"prompt",
	"duration_ms",
	"messages",
	"kb",
	"broadcast_id",
	"recipient_id",
	"message_id",
	"total",
	"success",
	"failed",
	"blocked",
	"remaining_s",
	"mode",
	"driver",
	"err",
	"err_kind",
	"err_code",
	"cause",
	"attempts",
}
