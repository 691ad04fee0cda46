package buildinfo

import (
	"strings"
	"testing"
)

func TestSource(t *testing.T) {
	oldVersion, oldCommit := Version, Commit
	defer func() { Version, Commit = oldVersion, oldCommit }()

	tests := []struct {
		version, commit string
		want            string
	}{
		{"dev", "none", "amrraster dev (none)"},
		{"v1.2.3", "3f2c1a9d0b7e", "amrraster v1.2.3 (3f2c1a9)"},
		{"v1.2.3", "abc", "amrraster v1.2.3 (abc)"},
	}
	for _, tt := range tests {
		Version, Commit = tt.version, tt.commit
		if got := Source("amrraster"); got != tt.want {
			t.Errorf("Source() = %q, want %q", got, tt.want)
		}
	}
}

func TestTemplate(t *testing.T) {
	if got := Template(); !strings.HasPrefix(got, "{{.Name}} version ") {
		t.Errorf("Template() = %q", got)
	}
	if got := String(); !strings.Contains(got, "commit: ") {
		t.Errorf("String() = %q", got)
	}
}
