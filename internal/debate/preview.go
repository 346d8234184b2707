package debate

import (
	"github.com/tidwall/gjson"

	"github.com/abhisek/ronpa/internal/stream"
)

// PreviewField extracts field from partial structured output, so a caller can
// show a rebuttal's claim while the rest is still streaming. It returns ""
// until the field has started.
func PreviewField(text, field string) string {
	repaired := stream.Repair(stream.Clean(text))
	if !gjson.Valid(repaired) {
		return ""
	}
	return gjson.Get(repaired, field).String()
}
