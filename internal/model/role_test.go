package model

import (
	"errors"
	"testing"
)

func TestParseRole(t *testing.T) {
	cases := []struct {
		in   string
		want Role
	}{
		{"admin", RoleAdmin},
		{"ntc", RoleNTC},
		{"bus-owner", RoleBusOwner},
		{"commuter", RoleCommuter},
		{"  Commuter  ", RoleCommuter},
		{"BUS-OWNER", RoleBusOwner},
	}
	for _, c := range cases {
		got, err := ParseRole(c.in)
		if err != nil {
			t.Fatalf("ParseRole(%q) error: %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("ParseRole(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestParseRoleRejectsUnknown(t *testing.T) {
	for _, in := range []string{"", "driver", "superadmin", "bus owner"} {
		if _, err := ParseRole(in); !errors.Is(err, ErrUnknownRole) {
			t.Fatalf("ParseRole(%q) error = %v, want ErrUnknownRole", in, err)
		}
	}
}
