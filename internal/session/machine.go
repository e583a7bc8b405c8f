package session

import "encoding/json"

// Phase is the authentication lifecycle state.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseLoading
	PhaseAuthenticated
	PhaseUnauthenticated
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseAuthenticated:
		return "authenticated"
	case PhaseUnauthenticated:
		return "unauthenticated"
	default:
		return "uninitialized"
	}
}

// SurveyPhase is the orthogonal survey sub-state carried by an
// authenticated session. FetchError is deliberately distinct from
// NotCompleted so the UI can tell an outage from a first-time user, even
// though the access gate treats both as "survey still due".
type SurveyPhase int

const (
	SurveyUnknown SurveyPhase = iota
	SurveyLoading
	SurveyCompleted
	SurveyNotCompleted
	SurveyFetchError
)

func (p SurveyPhase) String() string {
	switch p {
	case SurveyLoading:
		return "loading"
	case SurveyCompleted:
		return "completed"
	case SurveyNotCompleted:
		return "not_completed"
	case SurveyFetchError:
		return "fetch_error"
	default:
		return "unknown"
	}
}

// SurveyStatus is the survey sub-state. Generation is a monotonic stamp:
// responses from an older fetch than the latest one started are discarded,
// so a slow response can never overwrite a newer one.
type SurveyStatus struct {
	Phase      SurveyPhase
	Data       json.RawMessage
	FetchError string
	Generation uint64
}

// Session is the full session state. It is a value type; Apply returns a
// new Session and never mutates its input.
type Session struct {
	Phase Phase
	User  *UserRecord
	Token string

	// InitialCheckComplete flips to true exactly once per bootstrap, even
	// when bootstrap fails. The access gate refuses to decide before it is
	// set, so leaving it false on error would hang every navigation.
	InitialCheckComplete bool

	Survey SurveyStatus
}

// IsAuthenticated holds iff both user and token are present. There is no
// intermediate state: every transition sets or clears them together.
func (s Session) IsAuthenticated() bool {
	return s.User != nil && s.Token != ""
}

// Event is a state-machine input. The concrete event types below are the
// complete set; Apply ignores anything else.
type Event interface{ isEvent() }

type BootstrapStarted struct{}

// CredentialsLoaded means the durable store held a full token+user pair.
type CredentialsLoaded struct {
	User  UserRecord
	Token string
}

// CredentialsMissing means the durable store had no usable credentials.
type CredentialsMissing struct{}

// InitialCheckDone marks the end of bootstrap regardless of its outcome.
type InitialCheckDone struct{}

type LoginStarted struct{}

type LoginSucceeded struct {
	User  UserRecord
	Token string
}

type LoginFailed struct{}

type LoggedOut struct{}

// UserReplaced swaps the user record wholesale.
type UserReplaced struct{ User UserRecord }

type SurveyFetchStarted struct{ Generation uint64 }

// SurveyFetched carries the survey record, or nil when the user has none.
type SurveyFetched struct {
	Generation uint64
	Record     json.RawMessage
}

type SurveyFetchFailed struct {
	Generation uint64
	Reason     string
}

// SurveyMarkedCompleted is the optimistic completion applied right after a
// verified payment, skipping the round trip to the survey service.
type SurveyMarkedCompleted struct{ Record json.RawMessage }

func (BootstrapStarted) isEvent()      {}
func (CredentialsLoaded) isEvent()     {}
func (CredentialsMissing) isEvent()    {}
func (InitialCheckDone) isEvent()      {}
func (LoginStarted) isEvent()          {}
func (LoginSucceeded) isEvent()        {}
func (LoginFailed) isEvent()           {}
func (LoggedOut) isEvent()             {}
func (UserReplaced) isEvent()          {}
func (SurveyFetchStarted) isEvent()    {}
func (SurveyFetched) isEvent()         {}
func (SurveyFetchFailed) isEvent()     {}
func (SurveyMarkedCompleted) isEvent() {}

// Apply is the pure transition function. All durable-store and network side
// effects live in the Manager; this function only maps state to state.
func Apply(s Session, e Event) Session {
	switch ev := e.(type) {
	case BootstrapStarted, LoginStarted:
		s.Phase = PhaseLoading

	case CredentialsLoaded:
		user := ev.User
		s.Phase = PhaseAuthenticated
		s.User = &user
		s.Token = ev.Token

	case CredentialsMissing, LoginFailed:
		s.Phase = PhaseUnauthenticated
		s.User = nil
		s.Token = ""

	case InitialCheckDone:
		s.InitialCheckComplete = true

	case LoginSucceeded:
		user := ev.User
		s.Phase = PhaseAuthenticated
		s.User = &user
		s.Token = ev.Token

	case LoggedOut:
		// The only transition that resets survey state. The initial-check
		// flag survives: it reverts only on a full reload.
		s.Phase = PhaseUnauthenticated
		s.User = nil
		s.Token = ""
		s.Survey = SurveyStatus{}

	case UserReplaced:
		if s.User != nil {
			user := ev.User
			s.User = &user
		}

	case SurveyFetchStarted:
		if ev.Generation < s.Survey.Generation {
			return s
		}
		s.Survey.Phase = SurveyLoading
		s.Survey.FetchError = ""
		s.Survey.Generation = ev.Generation

	case SurveyFetched:
		if ev.Generation < s.Survey.Generation {
			return s
		}
		s.Survey.Generation = ev.Generation
		s.Survey.FetchError = ""
		if len(ev.Record) > 0 {
			s.Survey.Phase = SurveyCompleted
			s.Survey.Data = ev.Record
		} else {
			s.Survey.Phase = SurveyNotCompleted
			s.Survey.Data = nil
		}

	case SurveyFetchFailed:
		if ev.Generation < s.Survey.Generation {
			return s
		}
		s.Survey.Generation = ev.Generation
		s.Survey.Phase = SurveyFetchError
		s.Survey.FetchError = ev.Reason
		s.Survey.Data = nil

	case SurveyMarkedCompleted:
		// Bump the generation so an in-flight fetch started earlier cannot
		// undo the optimistic completion.
		s.Survey.Phase = SurveyCompleted
		s.Survey.Data = ev.Record
		s.Survey.FetchError = ""
		s.Survey.Generation++
	}

	return s
}
