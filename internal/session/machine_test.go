package session

import (
	"encoding/json"
	"testing"
)

func authedSession() Session {
	s := Apply(Session{}, BootstrapStarted{})
	s = Apply(s, CredentialsLoaded{
		User:  UserRecord{ID: "u1", Username: "rahim", Role: RoleStudent, Verified: true},
		Token: "tok-1",
	})
	return Apply(s, InitialCheckDone{})
}

// TestAuthenticatedIffUserAndToken verifies the core invariant: a session is
// authenticated exactly when both user and token are present, with no
// intermediate states reachable through Apply.
func TestAuthenticatedIffUserAndToken(t *testing.T) {
	s := Session{}
	if s.IsAuthenticated() {
		t.Error("zero session must not be authenticated")
	}

	s = authedSession()
	if !s.IsAuthenticated() {
		t.Error("session with user and token must be authenticated")
	}
	if s.Phase != PhaseAuthenticated {
		t.Errorf("expected authenticated phase, got %v", s.Phase)
	}

	s = Apply(s, LoggedOut{})
	if s.IsAuthenticated() {
		t.Error("logged-out session must not be authenticated")
	}
	if s.User != nil || s.Token != "" {
		t.Error("logout must clear both user and token together")
	}
}

// TestInitialCheckCompleteSticky verifies the flag flips once and no later
// event reverts it.
func TestInitialCheckCompleteSticky(t *testing.T) {
	s := Apply(Session{}, BootstrapStarted{})
	if s.InitialCheckComplete {
		t.Fatal("flag must start false")
	}

	s = Apply(s, InitialCheckDone{})
	if !s.InitialCheckComplete {
		t.Fatal("flag must be true after InitialCheckDone")
	}

	for _, e := range []Event{
		LoginStarted{}, LoginFailed{}, LoggedOut{},
		CredentialsMissing{}, SurveyFetchFailed{Generation: 9, Reason: "boom"},
	} {
		s = Apply(s, e)
		if !s.InitialCheckComplete {
			t.Errorf("flag reverted after %T", e)
		}
	}
}

// TestBootstrapFailurePathStillCompletesCheck verifies the fail-open flag /
// fail-closed auth split: missing credentials leave the session
// unauthenticated but the check still completes.
func TestBootstrapFailurePathStillCompletesCheck(t *testing.T) {
	s := Apply(Session{}, BootstrapStarted{})
	s = Apply(s, CredentialsMissing{})
	s = Apply(s, InitialCheckDone{})

	if s.IsAuthenticated() {
		t.Error("expected unauthenticated session")
	}
	if !s.InitialCheckComplete {
		t.Error("initial check must complete even when credentials are missing")
	}
}

// TestStaleSurveyResponseDiscarded verifies the generation stamp: a response
// from an older fetch cannot overwrite the result of a newer one.
func TestStaleSurveyResponseDiscarded(t *testing.T) {
	s := authedSession()

	s = Apply(s, SurveyFetchStarted{Generation: 1})
	s = Apply(s, SurveyFetchStarted{Generation: 2})
	s = Apply(s, SurveyFetched{Generation: 2, Record: json.RawMessage(`{"done":true}`)})

	// The first fetch resolves late, claiming no survey exists.
	s = Apply(s, SurveyFetched{Generation: 1, Record: nil})

	if s.Survey.Phase != SurveyCompleted {
		t.Errorf("stale response overwrote newer result: phase %v", s.Survey.Phase)
	}

	// Same for a late failure.
	s = Apply(s, SurveyFetchFailed{Generation: 1, Reason: "timeout"})
	if s.Survey.Phase != SurveyCompleted {
		t.Error("stale failure overwrote newer result")
	}
}

// TestSurveyFetchOutcomes verifies the tagged sub-states: a record means
// completed, nil means not completed, and an error is its own state rather
// than being folded into "not completed".
func TestSurveyFetchOutcomes(t *testing.T) {
	s := authedSession()

	s = Apply(s, SurveyFetchStarted{Generation: 1})
	if s.Survey.Phase != SurveyLoading {
		t.Fatalf("expected loading, got %v", s.Survey.Phase)
	}

	s = Apply(s, SurveyFetched{Generation: 1, Record: nil})
	if s.Survey.Phase != SurveyNotCompleted {
		t.Errorf("nil record should mean not completed, got %v", s.Survey.Phase)
	}

	s = Apply(s, SurveyFetchStarted{Generation: 2})
	s = Apply(s, SurveyFetchFailed{Generation: 2, Reason: "connection refused"})
	if s.Survey.Phase != SurveyFetchError {
		t.Errorf("fetch failure should be its own state, got %v", s.Survey.Phase)
	}
	if s.Survey.FetchError == "" {
		t.Error("fetch error reason should be preserved")
	}

	s = Apply(s, SurveyFetchStarted{Generation: 3})
	s = Apply(s, SurveyFetched{Generation: 3, Record: json.RawMessage(`{"bus":"ac"}`)})
	if s.Survey.Phase != SurveyCompleted {
		t.Errorf("record should mean completed, got %v", s.Survey.Phase)
	}
}

// TestMarkSurveyCompletedBeatsInflightFetch verifies the optimistic
// completion survives a fetch that was already in flight when it happened.
func TestMarkSurveyCompletedBeatsInflightFetch(t *testing.T) {
	s := authedSession()

	s = Apply(s, SurveyFetchStarted{Generation: 5})
	s = Apply(s, SurveyMarkedCompleted{Record: json.RawMessage(`{"paid":true}`)})

	// The fetch started before the mark resolves now, claiming nothing.
	s = Apply(s, SurveyFetched{Generation: 5, Record: nil})

	if s.Survey.Phase != SurveyCompleted {
		t.Errorf("in-flight fetch undid optimistic completion: %v", s.Survey.Phase)
	}
}

// TestLogoutResetsSurveyState verifies logout is the only transition that
// clears the survey sub-state.
func TestLogoutResetsSurveyState(t *testing.T) {
	s := authedSession()
	s = Apply(s, SurveyFetchStarted{Generation: 1})
	s = Apply(s, SurveyFetched{Generation: 1, Record: json.RawMessage(`{}`)})

	s = Apply(s, LoggedOut{})
	if s.Survey.Phase != SurveyUnknown || s.Survey.Data != nil {
		t.Error("logout must reset survey state")
	}
}

// TestUserReplacedIsWholesale verifies UserReplaced swaps the record
// entirely and is ignored for unauthenticated sessions.
func TestUserReplacedIsWholesale(t *testing.T) {
	s := authedSession()
	s = Apply(s, UserReplaced{User: UserRecord{ID: "u1", Username: "renamed"}})

	if s.User.Username != "renamed" {
		t.Errorf("expected replaced username, got %q", s.User.Username)
	}
	if s.User.Verified {
		t.Error("replace must not merge old fields into the new record")
	}

	anon := Apply(Session{}, UserReplaced{User: UserRecord{ID: "ghost"}})
	if anon.User != nil {
		t.Error("UserReplaced on unauthenticated session must be a no-op")
	}
}

// TestApplyDoesNotMutateInput verifies Apply is a pure function over its
// value argument.
func TestApplyDoesNotMutateInput(t *testing.T) {
	before := authedSession()
	snapshot := before

	_ = Apply(before, LoggedOut{})
	_ = Apply(before, SurveyFetchStarted{Generation: 99})

	if before.Phase != snapshot.Phase || before.Token != snapshot.Token ||
		before.Survey.Phase != snapshot.Survey.Phase ||
		before.Survey.Generation != snapshot.Survey.Generation {
		t.Error("Apply mutated its input")
	}
	if before.User == nil || before.User.ID != "u1" {
		t.Error("Apply mutated the input's user")
	}
}
