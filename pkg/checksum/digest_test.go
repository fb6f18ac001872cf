package checksum

import (
	"strings"
	"testing"
)

func TestDigestDeterministic(t *testing.T) {
	a := Digest([]byte("customer_id,date\nC1,2023-01-01\n"))
	b := Digest([]byte("customer_id,date\nC1,2023-01-01\n"))
	if a == "" || a != b {
		t.Fatalf("digest must be deterministic: %q vs %q", a, b)
	}
	if c := Digest([]byte("customer_id,date\nC1,2023-01-02\n")); c == a {
		t.Fatalf("different content must produce a different digest")
	}
}

func TestDigestReaderMatchesDigest(t *testing.T) {
	content := "customer_id,date\nC1,2023-01-01\n"
	fromReader, err := DigestReader(strings.NewReader(content))
	if err != nil {
		t.Fatalf("digest reader: %v", err)
	}
	if fromReader != Digest([]byte(content)) {
		t.Fatalf("reader and byte digests disagree")
	}
}
