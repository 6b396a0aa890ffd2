package auth

import (
	"reflect"
	"sort"
	"testing"
)

func TestHasPermission(t *testing.T) {
	cases := []struct {
		role string
		res  Resource
		act  Action
		want bool
	}{
		{RoleSuperuser, ResUser, ActDelete, true},
		{RoleSuperuser, ResOdontogramHistory, ActDelete, true},
		{RoleAdmin, ResPayment, ActDelete, true},
		{RoleAdmin, ResOdontogram, ActDelete, false},
		{RoleAdmin, ResUser, ActDelete, false},
		{RoleAdmin, ResAudit, ActView, true},
		{RoleDoctor, ResPatient, ActChange, true},
		{RoleDoctor, ResPatient, ActDelete, false},
		{RoleDoctor, ResPayment, ActAdd, false},
		{RoleDoctor, ResAudit, ActView, false},
		{RoleAssistant, ResPatient, ActView, true},
		{RoleAssistant, ResHistory, ActView, false},
		{RoleAssistant, ResTreatment, ActAdd, false},
		{"", ResPatient, ActView, false},
		{"GUEST", ResPatient, ActView, false},
	}
	for _, c := range cases {
		if got := HasPermission(c.role, c.res, c.act); got != c.want {
			t.Errorf("HasPermission(%s, %s, %s) = %v, want %v", c.role, c.res, c.act, got, c.want)
		}
	}
}

func TestPermissions(t *testing.T) {
	if got := len(Permissions(RoleSuperuser)); got != 40 {
		t.Fatalf("superuser permissions: got %d want 40", got)
	}
	got := Permissions(RoleAssistant)
	if len(got) != 4 {
		t.Fatalf("assistant permissions: got %v", got)
	}
	if len(Permissions("nobody")) != 0 {
		t.Fatal("unknown role should have no permissions")
	}
}

func TestPermissionsSortedAndStable(t *testing.T) {
	for _, role := range []string{RoleSuperuser, RoleAdmin, RoleDoctor, RoleAssistant} {
		first := Permissions(role)
		if !sort.StringsAreSorted(first) {
			t.Fatalf("%s permissions not sorted: %v", role, first)
		}
		for i := 0; i < 20; i++ {
			if got := Permissions(role); !reflect.DeepEqual(got, first) {
				t.Fatalf("%s permissions changed order: %v vs %v", role, got, first)
			}
		}
	}
	if got := Permissions(RoleAssistant); got[0] != "note.view" {
		t.Fatalf("assistant first permission = %q", got[0])
	}
}
