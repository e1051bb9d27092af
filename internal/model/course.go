package model

import "gorm.io/gorm"

// CoursePermission 课程成员权限，按等级排序
type CoursePermission string

const (
	PermissionNone    CoursePermission = ""
	PermissionStudent CoursePermission = "student"
	PermissionTeacher CoursePermission = "teacher"
	PermissionOwner   CoursePermission = "owner"
)

var permissionRank = map[CoursePermission]int{
	PermissionNone:    0,
	PermissionStudent: 1,
	PermissionTeacher: 2,
	PermissionOwner:   3,
}

// AtLeast reports whether p grants everything min grants.
func (p CoursePermission) AtLeast(min CoursePermission) bool {
	return permissionRank[p] >= permissionRank[min]
}

// swagger:model Course
type Course struct {
	BaseModel
	Name            string             `gorm:"size:255;not null" json:"name"`
	SubjectID       uint               `gorm:"index;type:bigint unsigned" json:"subjectId"`
	Subject         *Subject           `json:"subject,omitempty"`
	InvitationToken string             `gorm:"size:36;uniqueIndex" json:"invitationToken,omitempty"`
	Memberships     []CourseMembership `gorm:"foreignKey:CourseID" json:"memberships,omitempty"`
}

func (Course) TableName() string {
	return "courses"
}

func (c *Course) BeforeCreate(tx *gorm.DB) (err error) {
	if c.InvitationToken == "" {
		c.InvitationToken = GenerateInvitationToken()
	}
	return
}

// CourseMembership 课程成员关系，(user, course) 唯一
// swagger:model CourseMembership
type CourseMembership struct {
	BaseModel
	UserID     uint             `gorm:"uniqueIndex:idx_course_memberships_user_course;type:bigint unsigned" json:"userId"`
	CourseID   uint             `gorm:"uniqueIndex:idx_course_memberships_user_course;type:bigint unsigned" json:"courseId"`
	Permission CoursePermission `gorm:"type:enum('student','teacher','owner');default:'student'" json:"permission"`
	User       *User            `json:"user,omitempty"`
}

func (CourseMembership) TableName() string {
	return "course_memberships"
}
