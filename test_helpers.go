package llmstream

// Test helper functions shared across test files

func stringPtr(s string) *string {
	return &s
}

func intPtr(i int) *int {
	return &i
}
