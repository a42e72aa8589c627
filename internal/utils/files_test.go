package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSafeWriteFileCreatesParent(t *testing.T) {
	p := filepath.Join(t.TempDir(), "a", "b", "out.txt")
	if err := SafeWriteFile(p, []byte("hello")); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil || string(b) != "hello" {
		t.Fatalf("read back %q, %v", b, err)
	}
	if _, err := os.Stat(p + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind")
	}
}

func TestPrettyJSON(t *testing.T) {
	b, err := PrettyJSON(map[string]int{"rows": 3})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "\n  \"rows\": 3") {
		t.Fatalf("got %s", b)
	}
}
