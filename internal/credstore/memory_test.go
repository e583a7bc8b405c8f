package credstore

import (
	"context"
	"errors"
	"testing"
)

// TestMemoryRoundTrip verifies save, load, replace, and clear against the
// in-process store.
func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, err := m.Load(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	creds := Credentials{Token: "tok", User: []byte(`{"id":"u1"}`)}
	if err := m.Save(ctx, "s1", creds); err != nil {
		t.Fatal(err)
	}

	got, err := m.Load(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Token != "tok" || string(got.User) != `{"id":"u1"}` {
		t.Errorf("loaded %+v", got)
	}

	if err := m.ReplaceUser(ctx, "s1", []byte(`{"id":"u1","name":"x"}`)); err != nil {
		t.Fatal(err)
	}
	got, _ = m.Load(ctx, "s1")
	if got.Token != "tok" {
		t.Error("replace must not touch the token")
	}
	if string(got.User) != `{"id":"u1","name":"x"}` {
		t.Errorf("user = %s", got.User)
	}

	if err := m.Clear(ctx, "s1"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Load(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after clear, got %v", err)
	}
}

// TestMemoryPartialCredentialsNotFound verifies a record missing either half
// does not resolve.
func TestMemoryPartialCredentialsNotFound(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_ = m.Save(ctx, "token-only", Credentials{Token: "tok"})
	if _, err := m.Load(ctx, "token-only"); !errors.Is(err, ErrNotFound) {
		t.Error("token without user must not resolve")
	}

	_ = m.Save(ctx, "user-only", Credentials{User: []byte(`{}`)})
	if _, err := m.Load(ctx, "user-only"); !errors.Is(err, ErrNotFound) {
		t.Error("user without token must not resolve")
	}
}

// TestMemorySurveyMarker verifies the optimistic completion marker.
func TestMemorySurveyMarker(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, done, err := m.SurveyCompleted(ctx, "u1"); err != nil || done {
		t.Fatalf("unmarked user: (%v, %v)", done, err)
	}

	if err := m.MarkSurveyCompleted(ctx, "u1", []byte(`{"paid":true}`)); err != nil {
		t.Fatal(err)
	}
	payload, done, err := m.SurveyCompleted(ctx, "u1")
	if err != nil || !done {
		t.Fatalf("marked user: (%v, %v)", done, err)
	}
	if string(payload) != `{"paid":true}` {
		t.Errorf("payload = %s", payload)
	}
}

// TestMemoryPendingEmail verifies the verification marker is per session
// and cleared with the credentials.
func TestMemoryPendingEmail(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if err := m.SetPendingEmail(ctx, "s1", "a@b.c"); err != nil {
		t.Fatal(err)
	}
	if email, _ := m.PendingEmail(ctx, "s1"); email != "a@b.c" {
		t.Errorf("email = %q", email)
	}
	if email, _ := m.PendingEmail(ctx, "s2"); email != "" {
		t.Errorf("foreign session sees %q", email)
	}

	_ = m.Clear(ctx, "s1")
	if email, _ := m.PendingEmail(ctx, "s1"); email != "" {
		t.Error("clear must drop the pending email")
	}
}
