package version

import (
	"strings"
	"testing"
)

func TestFullStartsWithString(t *testing.T) {
	if got := Full(); !strings.HasPrefix(got, String()) {
		t.Fatalf("Full() = %q, want prefix %q", got, String())
	}
}

func TestTaggedBuild(t *testing.T) {
	stamp()
	oldTag, oldCommit, oldDate := tag, commit, date
	t.Cleanup(func() { tag, commit, date = oldTag, oldCommit, oldDate })

	tag, commit, date = "v0.1.0", "abc1234", "2026-01-01"
	if got := String(); got != "v0.1.0" {
		t.Fatalf("String() = %q", got)
	}
	if got, want := Full(), "v0.1.0 (abc1234) built 2026-01-01"; got != want {
		t.Fatalf("Full() = %q, want %q", got, want)
	}

	tag, commit, date = "", "", ""
	if got := Full(); got != "dev" {
		t.Fatalf("Full() = %q, want dev", got)
	}
}
