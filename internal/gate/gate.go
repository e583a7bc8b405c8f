// Package gate decides, per navigation, whether a route may render or where
// the client must be redirected instead. Decide is a pure function over
// (session, survey status, path); it is re-evaluated on every navigation
// and never cached, since role and survey state can change between them.
package gate

import (
	"github.com/CampusTransit/CT-Backend/internal/session"
)

// Decision is the gate's verdict for one navigation.
type Decision int

const (
	// Allow renders the requested route.
	Allow Decision = iota
	// Block renders a loading placeholder: state isn't known yet, and
	// redirecting now would flash the wrong destination.
	Block
	RedirectLogin
	RedirectVerifyEmail
	RedirectSurvey
	RedirectHome
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Block:
		return "block"
	case RedirectLogin:
		return "redirect_login"
	case RedirectVerifyEmail:
		return "redirect_verify_email"
	case RedirectSurvey:
		return "redirect_survey"
	case RedirectHome:
		return "redirect_home"
	default:
		return "block"
	}
}

// Target returns the redirect destination under the given policy, or ""
// for Allow and Block.
func (d Decision) Target(p Policy) string {
	switch d {
	case RedirectLogin:
		return p.Login
	case RedirectVerifyEmail:
		return p.Verify
	case RedirectSurvey:
		return p.Survey
	case RedirectHome:
		return p.Home
	default:
		return ""
	}
}

// Decide evaluates the access rules in precedence order:
//
//  1. Public and auth-flow paths always render, even mid-bootstrap, so the
//     first paint is never blocked.
//  2. Before the initial check completes, or while the survey status is
//     still loading, nothing else can be decided: Block.
//  3. No authenticated user: to login.
//  4. Unverified email: to verification. Checked before the survey gate
//     because an unverified user's survey state is meaningless. Admin and
//     driver accounts are exempt.
//  5. Admin and driver skip everything downstream.
//  6. Survey still due and the target isn't the survey: to the survey.
//     A survey fetch error gates the same way: failing toward the survey
//     is harmless (the page re-checks), failing open is not.
//  7. Survey done and the target IS the survey: home. The survey is
//     strictly one-time.
//  8. Otherwise the route renders.
func Decide(p Policy, s session.Session, survey session.SurveyStatus, path string) Decision {
	class := p.Classify(path)

	if class == PathPublic || class == PathAuthFlow {
		return Allow
	}

	if !s.InitialCheckComplete || survey.Phase == session.SurveyLoading {
		return Block
	}

	if !s.IsAuthenticated() {
		return RedirectLogin
	}

	user := *s.User

	if !user.Verified && !user.Role.Privileged() {
		return RedirectVerifyEmail
	}

	if user.Role.Privileged() {
		return Allow
	}

	surveyDone := survey.Phase == session.SurveyCompleted

	if !surveyDone && class != PathSurvey {
		return RedirectSurvey
	}
	if surveyDone && class == PathSurvey {
		return RedirectHome
	}

	return Allow
}
