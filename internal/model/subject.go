package model

import "gorm.io/gorm"

// Subject 学科，由教师共同管理；邀请令牌用于教师加入
// swagger:model Subject
type Subject struct {
	BaseModel
	Name            string `gorm:"size:255;not null" json:"name"`
	InvitationToken string `gorm:"size:36;uniqueIndex" json:"invitationToken,omitempty"`
	Teachers        []User `gorm:"many2many:subject_teachers;" json:"teachers,omitempty"`
}

func (Subject) TableName() string {
	return "subjects"
}

func (s *Subject) BeforeCreate(tx *gorm.DB) (err error) {
	if s.InvitationToken == "" {
		s.InvitationToken = GenerateInvitationToken()
	}
	return
}
