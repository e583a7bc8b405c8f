package gate

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
)

// PathClass is the gate's classification of a navigation target.
type PathClass int

const (
	// PathProtected is the default: everything not otherwise listed.
	PathProtected PathClass = iota
	// PathPublic renders for anyone, even mid-bootstrap.
	PathPublic
	// PathAuthFlow is the login/register/verify-email surface.
	PathAuthFlow
	// PathSurvey is the single one-time onboarding survey route.
	PathSurvey
)

// Policy is the route classification table. It ships with compiled-in
// defaults and can be overridden by a YAML file for deployments that add
// public marketing pages without a rebuild.
type Policy struct {
	Public   []string `yaml:"public"`
	AuthFlow []string `yaml:"auth_flow"`
	Survey   string   `yaml:"survey"`
	Home     string   `yaml:"home"`
	Login    string   `yaml:"login"`
	Verify   string   `yaml:"verify_email"`
}

// DefaultPolicy returns the built-in route table.
func DefaultPolicy() Policy {
	return Policy{
		Public:   []string{"/schedule", "/contact", "/notices", "/about"},
		AuthFlow: []string{"/login", "/register", "/verify-email"},
		Survey:   "/survey",
		Home:     "/",
		Login:    "/login",
		Verify:   "/verify-email",
	}
}

// LoadPolicy reads a YAML policy file, filling unset fields from the
// defaults. An empty path returns the defaults unchanged.
func LoadPolicy(path string) (Policy, error) {
	policy := DefaultPolicy()
	if path == "" {
		return policy, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read route policy: %w", err)
	}

	var loaded Policy
	if err := yaml.Unmarshal(raw, &loaded); err != nil {
		return Policy{}, fmt.Errorf("parse route policy: %w", err)
	}

	if len(loaded.Public) > 0 {
		policy.Public = loaded.Public
	}
	if len(loaded.AuthFlow) > 0 {
		policy.AuthFlow = loaded.AuthFlow
	}
	if loaded.Survey != "" {
		policy.Survey = loaded.Survey
	}
	if loaded.Home != "" {
		policy.Home = loaded.Home
	}
	if loaded.Login != "" {
		policy.Login = loaded.Login
	}
	if loaded.Verify != "" {
		policy.Verify = loaded.Verify
	}

	return policy, nil
}

// Classify maps a navigation path to its class. The home path is protected:
// it is the dashboard, not a public landing page.
func (p Policy) Classify(path string) PathClass {
	path = normalizePath(path)

	for _, pub := range p.Public {
		if path == normalizePath(pub) {
			return PathPublic
		}
	}
	for _, af := range p.AuthFlow {
		if path == normalizePath(af) {
			return PathAuthFlow
		}
	}
	if path == normalizePath(p.Survey) {
		return PathSurvey
	}
	return PathProtected
}

func normalizePath(path string) string {
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return strings.ToLower(path)
}
