package gate

import (
	"os"
	"path/filepath"
	"testing"
)

// TestClassifyDefaults verifies the compiled-in route table, including path
// normalization quirks.
func TestClassifyDefaults(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		path string
		want PathClass
	}{
		{"/schedule", PathPublic},
		{"/contact", PathPublic},
		{"/notices", PathPublic},
		{"/about", PathPublic},
		{"/login", PathAuthFlow},
		{"/register", PathAuthFlow},
		{"/verify-email", PathAuthFlow},
		{"/survey", PathSurvey},
		{"/", PathProtected},
		{"/tickets", PathProtected},
		{"/anything/else", PathProtected},

		// Normalization: case, trailing slash, missing leading slash, empty.
		{"/Schedule", PathPublic},
		{"/schedule/", PathPublic},
		{"schedule", PathPublic},
		{"/SURVEY/", PathSurvey},
		{"", PathProtected},
	}

	for _, tt := range tests {
		if got := p.Classify(tt.path); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

// TestLoadPolicyOverrides verifies a YAML file overrides only the fields it
// sets, leaving the rest at their defaults.
func TestLoadPolicyOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.yaml")
	content := []byte("public:\n  - /fares\n  - /holidays\nsurvey: /onboarding\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadPolicy(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if p.Classify("/fares") != PathPublic || p.Classify("/holidays") != PathPublic {
		t.Error("overridden public routes not honored")
	}
	if p.Classify("/schedule") != PathProtected {
		t.Error("overriding public must replace the default list, not merge")
	}
	if p.Classify("/onboarding") != PathSurvey {
		t.Error("overridden survey route not honored")
	}

	// Fields the file left unset keep their defaults.
	if p.Classify("/login") != PathAuthFlow {
		t.Error("default auth-flow routes lost")
	}
	if p.Login != "/login" || p.Home != "/" {
		t.Errorf("default targets lost: login=%q home=%q", p.Login, p.Home)
	}
}

// TestLoadPolicyEmptyPathUsesDefaults verifies no file means the built-in
// table.
func TestLoadPolicyEmptyPathUsesDefaults(t *testing.T) {
	p, err := LoadPolicy("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Survey != "/survey" {
		t.Errorf("expected default policy, got %+v", p)
	}
}

// TestLoadPolicyBadFile verifies unreadable or malformed files surface as
// errors instead of silently falling back.
func TestLoadPolicyBadFile(t *testing.T) {
	if _, err := LoadPolicy(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("public: {not a list"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadPolicy(path); err == nil {
		t.Error("expected error for malformed yaml")
	}
}
