package service

import (
	"classhub_backend/internal/model"
	"classhub_backend/internal/repository"
	"classhub_backend/internal/util"
)

type SubjectService struct {
	SubjectRepo *repository.SubjectRepository
	UserRepo    *repository.UserRepository
}

func NewSubjectService(subjectRepo *repository.SubjectRepository, userRepo *repository.UserRepository) *SubjectService {
	return &SubjectService{SubjectRepo: subjectRepo, UserRepo: userRepo}
}

type SubjectRequest struct {
	Name string `json:"name" binding:"required"`
}

// CreateSubject 创建科目，创建者自动成为科目教师
func (s *SubjectService) CreateSubject(req SubjectRequest, creatorID uint) (*model.Subject, error) {
	creator, err := s.UserRepo.FindByID(creatorID)
	if err != nil {
		return nil, err
	}
	if creator.Role != model.Teacher && creator.Role != model.Admin {
		return nil, util.ErrPermissionDenied
	}

	subject := &model.Subject{
		Name:     req.Name,
		Teachers: []model.User{*creator},
	}
	if err := s.SubjectRepo.Create(subject); err != nil {
		return nil, err
	}
	return subject, nil
}

func (s *SubjectService) GetSubject(id uint) (*model.Subject, error) {
	return s.SubjectRepo.FindByID(id)
}

// ListSubjects 只返回用户执教的科目；管理员可见全部时走 ListAll
func (s *SubjectService) ListSubjects(userID uint) ([]model.Subject, error) {
	return s.SubjectRepo.ListByTeacher(userID)
}

func (s *SubjectService) UpdateSubject(id uint, req SubjectRequest) (*model.Subject, error) {
	subject, err := s.SubjectRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	subject.Name = req.Name
	if err := s.SubjectRepo.Update(subject); err != nil {
		return nil, err
	}
	return subject, nil
}

func (s *SubjectService) DeleteSubject(id uint) error {
	return s.SubjectRepo.Delete(id)
}

// RotateInvitationToken 作废旧令牌并签发新令牌
func (s *SubjectService) RotateInvitationToken(id uint) (*model.Subject, error) {
	subject, err := s.SubjectRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	subject.InvitationToken = model.GenerateInvitationToken()
	if err := s.SubjectRepo.Update(subject); err != nil {
		return nil, err
	}
	return subject, nil
}
