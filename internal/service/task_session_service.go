package service

import (
	"classhub_backend/internal/model"
	"classhub_backend/internal/util"
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// MaxSubmitDelay 截止时间之后仍接受 finish 提交的宽限期。
// start 不享受宽限。
const MaxSubmitDelay = 3 * time.Minute

// TaskStore loads tasks with their quiz questions attached.
type TaskStore interface {
	FindByID(id uint) (*model.Task, error)
}

// SessionStore persists task sessions and their answers. Finish must be
// atomic: either all answer rows and finished_at land, or none do, and a
// second Finish on the same session must fail with ErrSessionAlreadyFinished.
type SessionStore interface {
	GetOrCreate(session *model.TaskSession) (bool, error)
	FindByTaskAndUser(taskID, userID uint) (*model.TaskSession, error)
	FindByID(id uint) (*model.TaskSession, error)
	ListByTask(taskID uint) ([]model.TaskSession, error)
	ListByTaskAndUser(taskID, userID uint) ([]model.TaskSession, error)
	Finish(sessionID uint, answers []model.UserAnswer, finishedAt time.Time) error
	Delete(id uint) error
}

// GradingOracle scores a submitted answer against the expected one,
// returning a score in [0,100] and an explanation.
type GradingOracle interface {
	GradeAnswer(ctx context.Context, question, expectedAnswer, userAnswer string) (int, string, error)
}

type TaskSessionService struct {
	Tasks    TaskStore
	Sessions SessionStore
	Oracle   GradingOracle

	now func() time.Time
}

func NewTaskSessionService(tasks TaskStore, sessions SessionStore, oracle GradingOracle) *TaskSessionService {
	return &TaskSessionService{
		Tasks:    tasks,
		Sessions: sessions,
		Oracle:   oracle,
		now:      time.Now,
	}
}

type AnswerSubmission struct {
	QuestionID uint   `json:"questionId" binding:"required"`
	Answer     string `json:"answer"`
}

// 空提交合法：未作答的题目计 0 分
type TaskSessionFinishRequest struct {
	Answers []AnswerSubmission `json:"answers" binding:"omitempty,dive"`
}

type TaskSessionResult struct {
	Session   *model.TaskSession `json:"session"`
	TotalMark float64            `json:"totalMark"`
}

// Start 开始一次作答。幂等：会话已存在时原样返回，created=false。
func (s *TaskSessionService) Start(taskID, userID uint) (*model.TaskSession, bool, error) {
	task, err := s.Tasks.FindByID(taskID)
	if err != nil {
		return nil, false, err
	}

	if s.now().After(task.Deadline) {
		return nil, false, util.ErrDeadlineExceeded
	}

	session := &model.TaskSession{
		TaskID:    taskID,
		UserID:    userID,
		StartedAt: s.now(),
	}
	created, err := s.Sessions.GetOrCreate(session)
	if err != nil {
		return nil, false, err
	}
	return session, created, nil
}

// Finish 提交答案并关闭会话。校验顺序固定：宽限后的截止时间、会话存在、
// 会话未结束、题目归属与重复提交。全部答案先经 oracle 评分并缓存在内存，
// 之后一次事务落库——任何一步失败都不会留下部分答案。
func (s *TaskSessionService) Finish(ctx context.Context, taskID, userID uint, submissions []AnswerSubmission) (*TaskSessionResult, error) {
	task, err := s.Tasks.FindByID(taskID)
	if err != nil {
		return nil, err
	}

	if s.now().After(task.Deadline.Add(MaxSubmitDelay)) {
		return nil, util.ErrDeadlineExceeded
	}

	session, err := s.Sessions.FindByTaskAndUser(taskID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSessionNotStarted
		}
		return nil, err
	}

	if session.Finished() {
		return nil, util.ErrSessionAlreadyFinished
	}

	questions := make(map[uint]model.Question)
	if task.Quiz != nil {
		for _, q := range task.Quiz.Questions {
			questions[q.ID] = q
		}
	}

	seen := make(map[uint]bool, len(submissions))
	for _, sub := range submissions {
		if _, ok := questions[sub.QuestionID]; !ok {
			return nil, fmt.Errorf("%w: question %d", util.ErrQuestionNotInQuiz, sub.QuestionID)
		}
		if seen[sub.QuestionID] {
			return nil, fmt.Errorf("%w: question %d", util.ErrDuplicateAnswer, sub.QuestionID)
		}
		seen[sub.QuestionID] = true
	}

	answers := make([]model.UserAnswer, 0, len(submissions))
	for _, sub := range submissions {
		question := questions[sub.QuestionID]

		score, explanation, err := s.Oracle.GradeAnswer(ctx, question.Title, question.ExpectedAnswer, sub.Answer)
		if err != nil {
			if !errors.Is(err, util.ErrGradingFailed) {
				err = fmt.Errorf("%w: %v", util.ErrGradingFailed, err)
			}
			return nil, err
		}

		answers = append(answers, model.UserAnswer{
			QuestionID:  sub.QuestionID,
			Text:        sub.Answer,
			Score:       score,
			Explanation: explanation,
		})
	}

	finishedAt := s.now()
	if !finishedAt.After(session.StartedAt) {
		finishedAt = session.StartedAt.Add(time.Millisecond)
	}

	if err := s.Sessions.Finish(session.ID, answers, finishedAt); err != nil {
		return nil, err
	}

	finished, err := s.Sessions.FindByID(session.ID)
	if err != nil {
		return nil, err
	}
	return &TaskSessionResult{
		Session:   finished,
		TotalMark: TotalMark(finished),
	}, nil
}

// GetResult 返回会话及其总分
func (s *TaskSessionService) GetResult(sessionID uint) (*TaskSessionResult, error) {
	session, err := s.Sessions.FindByID(sessionID)
	if err != nil {
		return nil, err
	}
	return &TaskSessionResult{
		Session:   session,
		TotalMark: TotalMark(session),
	}, nil
}

// ListSessions 列出任务的会话；seeAll=false 时仅返回该学生自己的
func (s *TaskSessionService) ListSessions(taskID, userID uint, seeAll bool) ([]TaskSessionResult, error) {
	var (
		sessions []model.TaskSession
		err      error
	)
	if seeAll {
		sessions, err = s.Sessions.ListByTask(taskID)
	} else {
		sessions, err = s.Sessions.ListByTaskAndUser(taskID, userID)
	}
	if err != nil {
		return nil, err
	}

	results := make([]TaskSessionResult, 0, len(sessions))
	for i := range sessions {
		results = append(results, TaskSessionResult{
			Session:   &sessions[i],
			TotalMark: TotalMark(&sessions[i]),
		})
	}
	return results, nil
}

func (s *TaskSessionService) DeleteSession(sessionID uint) error {
	return s.Sessions.Delete(sessionID)
}

// TotalMark 汇总已结束会话的加权总分：Σ(score×value)/100。
// 未结束的会话总分恒为 0，派生值不落库。
func TotalMark(session *model.TaskSession) float64 {
	if session == nil || !session.Finished() {
		return 0
	}

	sum := 0
	for _, a := range session.Answers {
		// 题目预加载不过滤软删除，这里的 nil 只会来自未预加载的调用方，按 0 分值计
		if a.Question == nil {
			continue
		}
		sum += a.Score * a.Question.Value
	}
	return float64(sum) / 100
}
