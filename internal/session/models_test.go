package session

import "testing"

// TestParseRole verifies unknown role strings degrade to student, the least
// privileged role.
func TestParseRole(t *testing.T) {
	tests := []struct {
		raw  string
		want Role
	}{
		{"student", RoleStudent},
		{"teacher", RoleTeacher},
		{"driver", RoleDriver},
		{"admin", RoleAdmin},
		{"ADMIN", RoleAdmin},
		{" Teacher ", RoleTeacher},
		{"", RoleStudent},
		{"superuser", RoleStudent},
	}
	for _, tt := range tests {
		if got := ParseRole(tt.raw); got != tt.want {
			t.Errorf("ParseRole(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

// TestPrivileged verifies only admin and driver bypass the verification and
// survey gates.
func TestPrivileged(t *testing.T) {
	if RoleStudent.Privileged() || RoleTeacher.Privileged() {
		t.Error("student and teacher must not be privileged")
	}
	if !RoleAdmin.Privileged() || !RoleDriver.Privileged() {
		t.Error("admin and driver must be privileged")
	}
}
