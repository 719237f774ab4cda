package postgres

import (
	"os"
	"testing"

	"github.com/RubeHicksCube/Djournal/internal/storage/storagetest"
)

// Set DJOURNAL_POSTGRES_TEST_URL to run, for example
// DJOURNAL_POSTGRES_TEST_URL="postgres://djournal@localhost:5432/djournal_test?sslmode=disable"
func TestStore_Integration(t *testing.T) {
	connStr := os.Getenv("DJOURNAL_POSTGRES_TEST_URL")
	if connStr == "" {
		t.Skip("DJOURNAL_POSTGRES_TEST_URL not set, skipping PostgreSQL integration test")
	}

	store := New(connStr)
	if err := store.Init(); err != nil {
		t.Fatalf("Failed to initialize store: %v", err)
	}
	defer store.Close()

	storagetest.Run(t, store)

	if err := store.Load(); err != nil {
		t.Errorf("Load after Init: %v", err)
	}
}
