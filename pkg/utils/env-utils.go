package utils

import (
	"regexp"
	"strings"
)

// GenerateEnvVarName generates a standardized environment variable name from a given string.
// It converts the input to uppercase and replaces any non-alphanumeric characters with underscores.
// Leading and trailing underscores are removed.
func GenerateEnvVarName(input string) string {
	// Convert to uppercase
	normalized := strings.ToUpper(input)

	// Replace any non-alphanumeric characters with underscores
	reg := regexp.MustCompile(`[^A-Z0-9]+`)
	normalized = reg.ReplaceAllString(normalized, "_")

	// Remove leading/trailing underscores
	normalized = strings.Trim(normalized, "_")

	return normalized
}

// GenerateJobRetentionEnvVarName generates the environment variable name for
// overriding the finished-job retention of one instance.
// Format: JOB_RETENTION_DAYS_FOR_{NORMALIZED_INSTANCE_ID}
func GenerateJobRetentionEnvVarName(instanceID string) string {
	normalized := GenerateEnvVarName(instanceID)
	return "JOB_RETENTION_DAYS_FOR_" + normalized
}
