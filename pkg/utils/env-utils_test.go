package utils

import "testing"

func TestGenerateEnvVarName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"simple", "SIMPLE"},
		{"with-dashes", "WITH_DASHES"},
		{"with spaces", "WITH_SPACES"},
		{"with.dots", "WITH_DOTS"},
		{"MixedCase123", "MIXEDCASE123"},
		{"--leading-and-trailing--", "LEADING_AND_TRAILING"},
		{"multiple---separators", "MULTIPLE_SEPARATORS"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := GenerateEnvVarName(tt.input)
			if got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestGenerateJobRetentionEnvVarName(t *testing.T) {
	got := GenerateJobRetentionEnvVarName("my-instance")
	expected := "JOB_RETENTION_DAYS_FOR_MY_INSTANCE"
	if got != expected {
		t.Errorf("expected %s, got %s", expected, got)
	}
}
