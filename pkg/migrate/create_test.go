package migrate

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestCreateAtRejectsOutOfOrderVersion(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	path, err := createAt(dir, "add zones", now)
	if err != nil {
		t.Fatalf("createAt: %v", err)
	}
	if !strings.HasSuffix(path, "20250301120000_add_zones.sql") {
		t.Fatalf("unexpected path %s", path)
	}
	body, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(body), "-- undo add_zones") {
		t.Fatalf("unexpected skeleton:\n%s", body)
	}

	if _, err := createAt(dir, "older", now.Add(-time.Minute)); err == nil {
		t.Fatal("expected an older version to be rejected")
	}
	if _, err := createAt(dir, "later", now.Add(time.Second)); err != nil {
		t.Fatalf("later version should be accepted: %v", err)
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Add Shipping Zones!": "add_shipping_zones",
		"  carts--index ":     "carts_index",
		"!!!":                 "",
	}
	for in, want := range cases {
		if got := slugify(in); got != want {
			t.Fatalf("slugify(%q) = %q, want %q", in, got, want)
		}
	}
}
