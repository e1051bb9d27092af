package service

import (
	"classhub_backend/internal/model"
	"classhub_backend/internal/repository"
	"classhub_backend/internal/util"
	"errors"

	"gorm.io/gorm"
)

// MembershipService 统一回答"这个用户在这门课程里是什么身份"。
// 科目教师自动获得该科目下所有课程的 owner 权限，管理员在
// middleware 层直接放行，不经过这里。
type MembershipService struct {
	SubjectRepo *repository.SubjectRepository
	CourseRepo  *repository.CourseRepository
	UserRepo    *repository.UserRepository
}

func NewMembershipService(subjectRepo *repository.SubjectRepository, courseRepo *repository.CourseRepository, userRepo *repository.UserRepository) *MembershipService {
	return &MembershipService{
		SubjectRepo: subjectRepo,
		CourseRepo:  courseRepo,
		UserRepo:    userRepo,
	}
}

// RoleOf 解析用户在课程中的有效权限。
// 优先级：科目教师 > 课程成员关系 > 无权限。
func (s *MembershipService) RoleOf(courseID, userID uint) (model.CoursePermission, error) {
	course, err := s.CourseRepo.FindByID(courseID)
	if err != nil {
		return model.PermissionNone, err
	}

	isTeacher, err := s.SubjectRepo.HasTeacher(course.SubjectID, userID)
	if err != nil {
		return model.PermissionNone, err
	}
	if isTeacher {
		return model.PermissionOwner, nil
	}

	membership, err := s.CourseRepo.FindMembership(userID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.PermissionNone, nil
		}
		return model.PermissionNone, err
	}
	return membership.Permission, nil
}

// IsSubjectTeacher reports whether the user teaches the subject.
func (s *MembershipService) IsSubjectTeacher(subjectID, userID uint) (bool, error) {
	return s.SubjectRepo.HasTeacher(subjectID, userID)
}

// JoinCourse 学生凭邀请令牌加入课程，初始权限 student
func (s *MembershipService) JoinCourse(token string, userID uint) (*model.Course, error) {
	course, err := s.CourseRepo.FindByInvitationToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrInvalidInvitationToken
		}
		return nil, err
	}

	if _, err := s.CourseRepo.FindMembership(userID, course.ID); err == nil {
		return nil, util.ErrAlreadyJoined
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	membership := &model.CourseMembership{
		UserID:     userID,
		CourseID:   course.ID,
		Permission: model.PermissionStudent,
	}
	if err := s.CourseRepo.CreateMembership(membership); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, util.ErrAlreadyJoined
		}
		return nil, err
	}
	return course, nil
}

// JoinSubject 教师凭邀请令牌加入科目，仅限教师角色
func (s *MembershipService) JoinSubject(token string, userID uint) (*model.Subject, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}
	if user.Role != model.Teacher && user.Role != model.Admin {
		return nil, util.ErrOnlyTeachersCanJoin
	}

	subject, err := s.SubjectRepo.FindByInvitationToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrInvalidInvitationToken
		}
		return nil, err
	}

	already, err := s.SubjectRepo.HasTeacher(subject.ID, userID)
	if err != nil {
		return nil, err
	}
	if already {
		return nil, util.ErrAlreadyJoined
	}

	if err := s.SubjectRepo.AddTeacher(subject, user); err != nil {
		return nil, err
	}
	return subject, nil
}

// ChangeCoursePermission 调整课程成员权限。
// 只有 owner 能改别人的权限，且不能把人提升为 owner 之上的等级。
func (s *MembershipService) ChangeCoursePermission(courseID, targetUserID uint, permission model.CoursePermission) (*model.CourseMembership, error) {
	if !permission.AtLeast(model.PermissionStudent) || !model.PermissionOwner.AtLeast(permission) {
		return nil, util.ErrPermissionDenied
	}

	membership, err := s.CourseRepo.FindMembership(targetUserID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}

	membership.Permission = permission
	if err := s.CourseRepo.UpdateMembership(membership); err != nil {
		return nil, err
	}
	return membership, nil
}
