package entities

import "testing"

func TestResolveJurisdiction(t *testing.T) {
	tests := []struct {
		name string
		tag  string
		ok   bool
	}{
		{"malaysia", "MY", true},
		{"Malaysia", "MY", true},
		{"SINGAPORE", "SG", true},
		{" singapore ", "SG", true},
		{"thailand", "", false},
		{"all", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		tag, ok := ResolveJurisdiction(tt.name)
		if tag != tt.tag || ok != tt.ok {
			t.Errorf("ResolveJurisdiction(%q) = (%q, %v), want (%q, %v)", tt.name, tag, ok, tt.tag, tt.ok)
		}
	}
}

func TestJurisdictionFilter_DestinationWins(t *testing.T) {
	req := &QueryRequest{Country: "Malaysia", ToCountry: "Singapore"}
	if got := req.JurisdictionFilter(); got != "Singapore" {
		t.Errorf("destination must win, got %q", got)
	}

	req = &QueryRequest{Country: "Malaysia"}
	if got := req.JurisdictionFilter(); got != "Malaysia" {
		t.Errorf("country must be used when destination is empty, got %q", got)
	}
}
