package service

import (
	"classhub_backend/internal/model"
	"classhub_backend/internal/repository"
	"classhub_backend/internal/util"
)

type CourseService struct {
	CourseRepo  *repository.CourseRepository
	SubjectRepo *repository.SubjectRepository
}

func NewCourseService(courseRepo *repository.CourseRepository, subjectRepo *repository.SubjectRepository) *CourseService {
	return &CourseService{CourseRepo: courseRepo, SubjectRepo: subjectRepo}
}

type CourseRequest struct {
	Name string `json:"name" binding:"required"`
}

// CreateCourse 在科目下创建课程，创建者必须是该科目的教师。
// 课程与创建者的 owner 成员关系在同一事务内写入。
func (s *CourseService) CreateCourse(subjectID uint, req CourseRequest, creatorID uint) (*model.Course, error) {
	isTeacher, err := s.SubjectRepo.HasTeacher(subjectID, creatorID)
	if err != nil {
		return nil, err
	}
	if !isTeacher {
		return nil, util.ErrPermissionDenied
	}

	course := &model.Course{
		Name:      req.Name,
		SubjectID: subjectID,
	}
	if err := s.CourseRepo.CreateWithOwner(course, creatorID); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CourseService) GetCourse(id uint) (*model.Course, error) {
	return s.CourseRepo.FindByID(id)
}

// ListCourses 返回用户作为成员加入的课程
func (s *CourseService) ListCourses(userID uint) ([]model.Course, error) {
	return s.CourseRepo.ListByMember(userID)
}

func (s *CourseService) UpdateCourse(id uint, req CourseRequest) (*model.Course, error) {
	course, err := s.CourseRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	course.Name = req.Name
	if err := s.CourseRepo.Update(course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CourseService) DeleteCourse(id uint) error {
	return s.CourseRepo.Delete(id)
}

func (s *CourseService) RotateInvitationToken(id uint) (*model.Course, error) {
	course, err := s.CourseRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	course.InvitationToken = model.GenerateInvitationToken()
	if err := s.CourseRepo.Update(course); err != nil {
		return nil, err
	}
	return course, nil
}
