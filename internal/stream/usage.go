package stream

import (
	"log/slog"

	"github.com/tidwall/gjson"
)

// ExtractUsage reads usageMetadata from an arbitrary response document.
//
// It never fails: a missing, null or unparsable usageMetadata logs a warning
// and returns zero usage. Each count defaults to 0 on its own. Values are not
// validated, so a negative count passes through unchanged and a numeric
// string is coerced.
func ExtractUsage(raw []byte, logger *slog.Logger) Usage {
	meta := gjson.GetBytes(raw, "usageMetadata")
	if !meta.Exists() || meta.Type == gjson.Null {
		loggerOrDefault(logger).Warn("response has no usageMetadata, reporting zero usage")
		return Usage{}
	}
	return usageFrom(meta)
}

func usageFrom(meta gjson.Result) Usage {
	return Usage{
		InputTokens:  int(meta.Get("promptTokenCount").Int()),
		OutputTokens: int(meta.Get("candidatesTokenCount").Int()),
		TotalTokens:  int(meta.Get("totalTokenCount").Int()),
	}
}
