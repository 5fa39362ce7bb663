package usecases

import "testing"

func TestExtractConfidence(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{"template answer", "Confidence / Disclaimer:\n- Confidence level: 95%\n- Legal disclaimer: This is not legal advice.", 95},
		{"lowercase", "confidence level: 80%", 80},
		{"extra spacing", "Confidence level : 72 %", 72},
		{"zero", "Confidence level: 0%", 0},
		{"missing line", "Follow-up: What type of license do you hold?", 0},
		{"empty content", "", 0},
		{"no percent sign", "Confidence level: 90", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractConfidence(tt.content); got != tt.want {
				t.Errorf("ExtractConfidence(%q) = %d, want %d", tt.content, got, tt.want)
			}
		})
	}
}
