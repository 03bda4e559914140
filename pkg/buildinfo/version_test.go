package buildinfo

import (
	"strings"
	"testing"
)

func TestTemplate(t *testing.T) {
	old := Version
	Version = "v9.9.9"
	defer func() { Version = old }()

	if got := Template(); !strings.Contains(got, "version v9.9.9") {
		t.Errorf("Template() = %q, want version line", got)
	}
	if got := UserAgent(); got != "catgraph/v9.9.9" {
		t.Errorf("UserAgent() = %q, want catgraph/v9.9.9", got)
	}
}
