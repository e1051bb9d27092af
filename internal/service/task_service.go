package service

import (
	"classhub_backend/internal/model"
	"classhub_backend/internal/repository"
	"classhub_backend/internal/util"
	"time"
)

type TaskService struct {
	TaskRepo   *repository.TaskRepository
	CourseRepo *repository.CourseRepository
	QuizRepo   *repository.QuizRepository
}

func NewTaskService(taskRepo *repository.TaskRepository, courseRepo *repository.CourseRepository, quizRepo *repository.QuizRepository) *TaskService {
	return &TaskService{TaskRepo: taskRepo, CourseRepo: courseRepo, QuizRepo: quizRepo}
}

type TaskRequest struct {
	Title    string    `json:"title" binding:"required"`
	Deadline time.Time `json:"deadline" binding:"required"`
	QuizID   uint      `json:"quizId" binding:"required"`
}

// CreateTask 在课程下布置任务。
// 任务引用的测验必须与课程同属一个科目，跨科目引用直接拒绝。
func (s *TaskService) CreateTask(courseID uint, req TaskRequest) (*model.Task, error) {
	course, err := s.CourseRepo.FindByID(courseID)
	if err != nil {
		return nil, err
	}
	quiz, err := s.QuizRepo.FindByID(req.QuizID)
	if err != nil {
		return nil, err
	}
	if quiz.SubjectID != course.SubjectID {
		return nil, util.ErrQuizSubjectMismatch
	}

	task := &model.Task{
		Title:    req.Title,
		Deadline: req.Deadline,
		CourseID: courseID,
		QuizID:   req.QuizID,
	}
	if err := s.TaskRepo.Create(task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) GetTask(id uint) (*model.Task, error) {
	return s.TaskRepo.FindByID(id)
}

func (s *TaskService) ListTasks(courseID uint) ([]model.Task, error) {
	return s.TaskRepo.ListByCourse(courseID)
}

// UpdateTask 换测验时重新校验科目一致性
func (s *TaskService) UpdateTask(id uint, req TaskRequest) (*model.Task, error) {
	task, err := s.TaskRepo.FindByID(id)
	if err != nil {
		return nil, err
	}

	if req.QuizID != task.QuizID {
		course, err := s.CourseRepo.FindByID(task.CourseID)
		if err != nil {
			return nil, err
		}
		quiz, err := s.QuizRepo.FindByID(req.QuizID)
		if err != nil {
			return nil, err
		}
		if quiz.SubjectID != course.SubjectID {
			return nil, util.ErrQuizSubjectMismatch
		}
	}

	task.Title = req.Title
	task.Deadline = req.Deadline
	task.QuizID = req.QuizID
	if err := s.TaskRepo.Update(task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) DeleteTask(id uint) error {
	return s.TaskRepo.Delete(id)
}
