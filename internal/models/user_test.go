package models

import "testing"

func TestRoleSatisfies(t *testing.T) {
	tests := []struct {
		role     Role
		required Role
		want     bool
	}{
		{RoleExplorer, RoleExplorer, true},
		{RolePioneer, RoleExplorer, true},
		{RoleExplorer, RolePioneer, false},
		{RolePioneer, RolePioneer, true},
		{RoleGuardian, RolePioneer, false},
		{RoleAdmin, RolePioneer, true},
		{RoleGuardian, RoleGuardian, true},
		{RolePioneer, RoleGuardian, false},
		{RoleAdmin, RoleGuardian, true},
		{RoleGuardian, RoleAdmin, false},
		{RoleAdmin, RoleAdmin, true},
		{Role("visitor"), RoleExplorer, false},
		{RoleExplorer, "", true},
	}
	for _, tt := range tests {
		if got := tt.role.Satisfies(tt.required); got != tt.want {
			t.Errorf("%s.Satisfies(%s) = %v, want %v", tt.role, tt.required, got, tt.want)
		}
	}
}

func TestSelfAssignableRoles(t *testing.T) {
	if !RoleExplorer.SelfAssignable() || !RolePioneer.SelfAssignable() {
		t.Fatal("expected explorer and pioneer to be self assignable")
	}
	if RoleGuardian.SelfAssignable() || RoleAdmin.SelfAssignable() {
		t.Fatal("guardian and admin must not be self assignable")
	}
}

func TestCategoryValid(t *testing.T) {
	for _, info := range Categories {
		if !info.ID.Valid() {
			t.Errorf("expected %s to be valid", info.ID)
		}
	}
	if Category("boats").Valid() {
		t.Fatal("unexpected valid category boats")
	}
	if len(Categories) != 6 {
		t.Fatalf("expected 6 categories, got %d", len(Categories))
	}
}
