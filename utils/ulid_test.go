package utils

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
)

func TestGenerateULID(t *testing.T) {
	ulid1 := GenerateULID()
	ulid2 := GenerateULID()

	if ulid1 == ulid2 {
		t.Error("Generated ULIDs should be different")
	}
	if ulid1.Compare(ulid2) >= 0 {
		t.Error("ULIDs should sort in generation order")
	}
	if len(GenerateULIDString()) != 26 {
		t.Error("ULID string should be 26 characters")
	}
}

func TestGenerateULIDWithTime(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	id := GenerateULIDWithTime(at)

	if got := ulid.Time(id.Time()); !got.Equal(at) {
		t.Errorf("Expected timestamp %v, got %v", at, got)
	}
}

func TestGenerateULIDConcurrent(t *testing.T) {
	const n = 200
	ids := make([]string, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i] = GenerateULIDString()
		}(i)
	}
	wg.Wait()

	sort.Strings(ids)
	for i := 1; i < n; i++ {
		if ids[i] == ids[i-1] {
			t.Fatalf("Duplicate ULID %s", ids[i])
		}
	}
}

func TestParseULID(t *testing.T) {
	original := GenerateULID()
	parsed, err := ParseULID(original.String())
	if err != nil {
		t.Fatalf("Failed to parse ULID: %v", err)
	}
	if original != parsed {
		t.Error("Parsed ULID should match original")
	}

	if _, err := ParseULID("not-a-ulid"); err == nil {
		t.Error("Expected parse failure")
	}
}
