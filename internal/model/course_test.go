package model

import "testing"

func TestCoursePermissionAtLeast(t *testing.T) {
	tests := []struct {
		p    CoursePermission
		min  CoursePermission
		want bool
	}{
		{PermissionOwner, PermissionOwner, true},
		{PermissionOwner, PermissionTeacher, true},
		{PermissionOwner, PermissionStudent, true},
		{PermissionTeacher, PermissionOwner, false},
		{PermissionTeacher, PermissionTeacher, true},
		{PermissionTeacher, PermissionStudent, true},
		{PermissionStudent, PermissionTeacher, false},
		{PermissionStudent, PermissionStudent, true},
		{PermissionNone, PermissionStudent, false},
		{PermissionNone, PermissionNone, true},
		// 未知值按无权限处理
		{CoursePermission("bogus"), PermissionStudent, false},
	}

	for _, tt := range tests {
		if got := tt.p.AtLeast(tt.min); got != tt.want {
			t.Errorf("%q.AtLeast(%q) = %v, want %v", tt.p, tt.min, got, tt.want)
		}
	}
}

func TestGenerateInvitationTokenUnique(t *testing.T) {
	a := GenerateInvitationToken()
	b := GenerateInvitationToken()
	if a == "" || b == "" {
		t.Fatal("token must not be empty")
	}
	if a == b {
		t.Fatal("tokens must be unique")
	}
	if len(a) != 36 {
		t.Fatalf("expected uuid length 36, got %d", len(a))
	}
}
