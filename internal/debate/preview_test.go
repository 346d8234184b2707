package debate

import "testing"

func TestPreviewField(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"empty", "", ""},
		{"before field", `{"cla`, ""},
		{"partial value", `**{"claim":"Homework bui`, "Homework bui"},
		{"complete value", `{"claim":"Homework builds habits","reasoning":"Pra`, "Homework builds habits"},
		{"think block", `<think>plan</think>{"claim":"No"`, "No"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PreviewField(tt.text, "claim"); got != tt.want {
				t.Fatalf("PreviewField(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}
