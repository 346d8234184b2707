package stream

import (
	"encoding/json"
	"log/slog"

	"github.com/tidwall/gjson"
)

// ParseEvent classifies a single data payload.
//
// It returns ok=false for payloads that are not valid JSON; those are logged
// and must be skipped by the caller. An error frame yields a *Error.
func ParseEvent(payload string, logger *slog.Logger) (frame Frame, ok bool, err error) {
	if payload == DoneSentinel {
		return Frame{Done: true}, true, nil
	}

	if !json.Valid([]byte(payload)) {
		loggerOrDefault(logger).Warn("skipping malformed stream frame",
			"payload", truncate(payload, 120))
		return Frame{}, false, nil
	}

	parsed := gjson.Parse(payload)
	if isTruthy(parsed.Get("error")) {
		msg := parsed.Get("message").String()
		if msg == "" {
			msg = DefaultErrorMessage
		}
		return Frame{}, true, &Error{Message: msg}
	}

	frame.Delta = parsed.Get("text").String()
	if meta := parsed.Get("usageMetadata"); meta.Exists() && meta.Type != gjson.Null {
		u := usageFrom(meta)
		frame.Usage = &u
	}
	return frame, true, nil
}

// isTruthy mirrors loose truthiness: false, 0, "", null and absent are falsy.
func isTruthy(r gjson.Result) bool {
	switch r.Type {
	case gjson.Null:
		return false
	case gjson.False:
		return false
	case gjson.Number:
		return r.Num != 0
	case gjson.String:
		return r.Str != ""
	default:
		// true, objects and arrays.
		return r.Exists()
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
