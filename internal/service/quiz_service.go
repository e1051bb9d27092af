package service

import (
	"classhub_backend/internal/model"
	"classhub_backend/internal/repository"
	"classhub_backend/internal/util"
)

type QuizService struct {
	QuizRepo     *repository.QuizRepository
	QuestionRepo *repository.QuestionRepository
}

func NewQuizService(quizRepo *repository.QuizRepository, questionRepo *repository.QuestionRepository) *QuizService {
	return &QuizService{QuizRepo: quizRepo, QuestionRepo: questionRepo}
}

type QuizRequest struct {
	Name        string `json:"name" binding:"required"`
	MaxDuration int    `json:"maxDuration" binding:"omitempty,min=0"`
}

type QuestionRequest struct {
	Title          string `json:"title" binding:"required,max=511"`
	ExpectedAnswer string `json:"expectedAnswer" binding:"required"`
	Value          int    `json:"value" binding:"required,min=1"`
}

func (s *QuizService) CreateQuiz(subjectID uint, req QuizRequest) (*model.Quiz, error) {
	quiz := &model.Quiz{
		Name:        req.Name,
		MaxDuration: req.MaxDuration,
		SubjectID:   subjectID,
	}
	if err := s.QuizRepo.Create(quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

func (s *QuizService) GetQuiz(id uint) (*model.Quiz, error) {
	return s.QuizRepo.FindByID(id)
}

func (s *QuizService) ListQuizzes(subjectID uint) ([]model.Quiz, error) {
	return s.QuizRepo.ListBySubject(subjectID)
}

func (s *QuizService) UpdateQuiz(id uint, req QuizRequest) (*model.Quiz, error) {
	quiz, err := s.QuizRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	quiz.Name = req.Name
	quiz.MaxDuration = req.MaxDuration
	if err := s.QuizRepo.Update(quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

func (s *QuizService) DeleteQuiz(id uint) error {
	return s.QuizRepo.Delete(id)
}

// AddQuestion 向测验追加题目
func (s *QuizService) AddQuestion(quizID uint, req QuestionRequest) (*model.Question, error) {
	if _, err := s.QuizRepo.FindByID(quizID); err != nil {
		return nil, err
	}

	question := &model.Question{
		Title:          req.Title,
		ExpectedAnswer: req.ExpectedAnswer,
		Value:          req.Value,
		QuizID:         quizID,
	}
	if err := s.QuestionRepo.Create(question); err != nil {
		return nil, err
	}
	return question, nil
}

func (s *QuizService) ListQuestions(quizID uint) ([]model.Question, error) {
	return s.QuestionRepo.ListByQuiz(quizID)
}

// UpdateQuestion 只允许修改属于该测验的题目
func (s *QuizService) UpdateQuestion(quizID, questionID uint, req QuestionRequest) (*model.Question, error) {
	question, err := s.QuestionRepo.FindByID(questionID)
	if err != nil {
		return nil, err
	}
	if question.QuizID != quizID {
		return nil, util.ErrQuestionNotInQuiz
	}

	question.Title = req.Title
	question.ExpectedAnswer = req.ExpectedAnswer
	question.Value = req.Value
	if err := s.QuestionRepo.Update(question); err != nil {
		return nil, err
	}
	return question, nil
}

func (s *QuizService) DeleteQuestion(quizID, questionID uint) error {
	question, err := s.QuestionRepo.FindByID(questionID)
	if err != nil {
		return err
	}
	if question.QuizID != quizID {
		return util.ErrQuestionNotInQuiz
	}
	return s.QuestionRepo.Delete(questionID)
}
