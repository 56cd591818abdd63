package models

// NewTestAdDataStore creates a new in-memory catalog store for testing
func NewTestAdDataStore() AdDataStore {
	return NewInMemoryAdDataStore()
}
