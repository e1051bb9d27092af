package repository

import (
	"classhub_backend/internal/model"

	"gorm.io/gorm"
)

type SubjectRepository struct {
	DB *gorm.DB
}

func NewSubjectRepository(db *gorm.DB) *SubjectRepository {
	return &SubjectRepository{DB: db}
}

func (r *SubjectRepository) Create(subject *model.Subject) error {
	return r.DB.Create(subject).Error
}

func (r *SubjectRepository) FindByID(id uint) (*model.Subject, error) {
	var subject model.Subject
	err := r.DB.Preload("Teachers").First(&subject, id).Error
	if err != nil {
		return nil, err
	}
	return &subject, nil
}

func (r *SubjectRepository) FindByInvitationToken(token string) (*model.Subject, error) {
	var subject model.Subject
	err := r.DB.Where("invitation_token = ?", token).First(&subject).Error
	if err != nil {
		return nil, err
	}
	return &subject, nil
}

func (r *SubjectRepository) ListByTeacher(userID uint) ([]model.Subject, error) {
	var subjects []model.Subject
	err := r.DB.
		Joins("JOIN subject_teachers st ON st.subject_id = subjects.id").
		Where("st.user_id = ?", userID).
		Preload("Teachers").
		Find(&subjects).Error
	return subjects, err
}

func (r *SubjectRepository) Update(subject *model.Subject) error {
	return r.DB.Save(subject).Error
}

func (r *SubjectRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Subject{}, id).Error
}

func (r *SubjectRepository) AddTeacher(subject *model.Subject, user *model.User) error {
	return r.DB.Model(subject).Association("Teachers").Append(user)
}

func (r *SubjectRepository) HasTeacher(subjectID, userID uint) (bool, error) {
	var count int64
	err := r.DB.Table("subject_teachers").
		Where("subject_id = ? AND user_id = ?", subjectID, userID).
		Count(&count).Error
	return count > 0, err
}
