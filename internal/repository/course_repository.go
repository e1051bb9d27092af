package repository

import (
	"classhub_backend/internal/model"

	"gorm.io/gorm"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

func (r *CourseRepository) Create(course *model.Course) error {
	return r.DB.Create(course).Error
}

// CreateWithOwner 同一事务内创建课程并写入创建者的 owner 成员关系
func (r *CourseRepository) CreateWithOwner(course *model.Course, ownerID uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(course).Error; err != nil {
			return err
		}
		membership := &model.CourseMembership{
			UserID:     ownerID,
			CourseID:   course.ID,
			Permission: model.PermissionOwner,
		}
		return tx.Create(membership).Error
	})
}

func (r *CourseRepository) FindByID(id uint) (*model.Course, error) {
	var course model.Course
	err := r.DB.Preload("Subject").Preload("Memberships.User").First(&course, id).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *CourseRepository) FindByInvitationToken(token string) (*model.Course, error) {
	var course model.Course
	err := r.DB.Where("invitation_token = ?", token).First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *CourseRepository) ListByMember(userID uint) ([]model.Course, error) {
	var courses []model.Course
	err := r.DB.
		Joins("JOIN course_memberships cm ON cm.course_id = courses.id").
		Where("cm.user_id = ? AND cm.deleted_at IS NULL", userID).
		Preload("Subject").
		Find(&courses).Error
	return courses, err
}

func (r *CourseRepository) Update(course *model.Course) error {
	return r.DB.Save(course).Error
}

func (r *CourseRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Course{}, id).Error
}

func (r *CourseRepository) FindMembership(userID, courseID uint) (*model.CourseMembership, error) {
	var membership model.CourseMembership
	err := r.DB.Where("user_id = ? AND course_id = ?", userID, courseID).First(&membership).Error
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

func (r *CourseRepository) CreateMembership(membership *model.CourseMembership) error {
	return r.DB.Create(membership).Error
}

func (r *CourseRepository) UpdateMembership(membership *model.CourseMembership) error {
	return r.DB.Save(membership).Error
}
