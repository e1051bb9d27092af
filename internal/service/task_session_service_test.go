package service

import (
	"classhub_backend/internal/model"
	"classhub_backend/internal/util"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"
)

type fakeTaskStore struct {
	tasks map[uint]*model.Task
}

func (f *fakeTaskStore) FindByID(id uint) (*model.Task, error) {
	task, ok := f.tasks[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return task, nil
}

type fakeSessionStore struct {
	nextID    uint
	sessions  map[uint]*model.TaskSession
	questions map[uint]*model.Question
}

func newFakeSessionStore(questions map[uint]*model.Question) *fakeSessionStore {
	return &fakeSessionStore{
		nextID:    1,
		sessions:  make(map[uint]*model.TaskSession),
		questions: questions,
	}
}

func (f *fakeSessionStore) GetOrCreate(session *model.TaskSession) (bool, error) {
	for _, existing := range f.sessions {
		if existing.TaskID == session.TaskID && existing.UserID == session.UserID {
			*session = *existing
			return false, nil
		}
	}
	session.ID = f.nextID
	f.nextID++
	stored := *session
	f.sessions[stored.ID] = &stored
	return true, nil
}

func (f *fakeSessionStore) FindByTaskAndUser(taskID, userID uint) (*model.TaskSession, error) {
	for _, s := range f.sessions {
		if s.TaskID == taskID && s.UserID == userID {
			copied := *s
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeSessionStore) FindByID(id uint) (*model.TaskSession, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *s
	return &copied, nil
}

func (f *fakeSessionStore) ListByTask(taskID uint) ([]model.TaskSession, error) {
	var out []model.TaskSession
	for _, s := range f.sessions {
		if s.TaskID == taskID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeSessionStore) ListByTaskAndUser(taskID, userID uint) ([]model.TaskSession, error) {
	var out []model.TaskSession
	for _, s := range f.sessions {
		if s.TaskID == taskID && s.UserID == userID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeSessionStore) Finish(sessionID uint, answers []model.UserAnswer, finishedAt time.Time) error {
	s, ok := f.sessions[sessionID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if s.FinishedAt != nil {
		return util.ErrSessionAlreadyFinished
	}
	for i := range answers {
		answers[i].TaskSessionID = sessionID
		answers[i].Question = f.questions[answers[i].QuestionID]
	}
	s.Answers = answers
	t := finishedAt
	s.FinishedAt = &t
	return nil
}

func (f *fakeSessionStore) Delete(id uint) error {
	delete(f.sessions, id)
	return nil
}

type fakeOracle struct {
	scores map[string]int // 按学生答案文本给分
	err    error
	calls  int
}

func (f *fakeOracle) GradeAnswer(ctx context.Context, question, expectedAnswer, userAnswer string) (int, string, error) {
	f.calls++
	if f.err != nil {
		return 0, "", f.err
	}
	score, ok := f.scores[userAnswer]
	if !ok {
		return 0, "", fmt.Errorf("unexpected answer %q", userAnswer)
	}
	return score, "graded", nil
}

func newSessionFixture(deadline time.Time) (*TaskSessionService, *fakeSessionStore, *fakeOracle) {
	q1 := &model.Question{Title: "q1", ExpectedAnswer: "e1", Value: 60, QuizID: 1}
	q1.ID = 1
	q2 := &model.Question{Title: "q2", ExpectedAnswer: "e2", Value: 40, QuizID: 1}
	q2.ID = 2

	quiz := &model.Quiz{Name: "quiz", SubjectID: 1, Questions: []model.Question{*q1, *q2}}
	quiz.ID = 1

	task := &model.Task{Title: "task", Deadline: deadline, CourseID: 1, QuizID: 1, Quiz: quiz}
	task.ID = 1

	tasks := &fakeTaskStore{tasks: map[uint]*model.Task{1: task}}
	sessions := newFakeSessionStore(map[uint]*model.Question{1: q1, 2: q2})
	oracle := &fakeOracle{scores: map[string]int{"a1": 80, "a2": 50}}

	svc := NewTaskSessionService(tasks, sessions, oracle)
	return svc, sessions, oracle
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestStartIdempotent(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc, _, _ := newSessionFixture(now.Add(time.Hour))
	svc.now = fixedClock(now)

	first, created, err := svc.Start(1, 7)
	if err != nil {
		t.Fatalf("first start: %v", err)
	}
	if !created {
		t.Fatal("first start should create the session")
	}

	second, created, err := svc.Start(1, 7)
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	if created {
		t.Fatal("second start must not create a new session")
	}
	if second.ID != first.ID {
		t.Fatalf("expected same session, got %d and %d", first.ID, second.ID)
	}

	// 不同用户各自独立
	other, created, err := svc.Start(1, 8)
	if err != nil {
		t.Fatalf("other user start: %v", err)
	}
	if !created || other.ID == first.ID {
		t.Fatal("different user should get a fresh session")
	}
}

func TestStartDeadline(t *testing.T) {
	deadline := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, _, _ := newSessionFixture(deadline)

	// 恰好在截止时刻仍允许开始
	svc.now = fixedClock(deadline)
	if _, _, err := svc.Start(1, 7); err != nil {
		t.Fatalf("start at deadline: %v", err)
	}

	svc.now = fixedClock(deadline.Add(time.Second))
	_, _, err := svc.Start(1, 8)
	if !errors.Is(err, util.ErrDeadlineExceeded) {
		t.Fatalf("expected ErrDeadlineExceeded, got %v", err)
	}
}

func TestFinishHappyPathTotalMark(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc, sessions, _ := newSessionFixture(now.Add(time.Hour))
	svc.now = fixedClock(now)

	if _, _, err := svc.Start(1, 7); err != nil {
		t.Fatalf("start: %v", err)
	}

	svc.now = fixedClock(now.Add(10 * time.Minute))
	result, err := svc.Finish(context.Background(), 1, 7, []AnswerSubmission{
		{QuestionID: 1, Answer: "a1"},
		{QuestionID: 2, Answer: "a2"},
	})
	if err != nil {
		t.Fatalf("finish: %v", err)
	}

	// 80×60/100 + 50×40/100 = 48 + 20
	if result.TotalMark != 68 {
		t.Fatalf("expected total mark 68, got %v", result.TotalMark)
	}
	if !result.Session.Finished() {
		t.Fatal("session should be finished")
	}
	if len(result.Session.Answers) != 2 {
		t.Fatalf("expected 2 answers, got %d", len(result.Session.Answers))
	}
	if !result.Session.FinishedAt.After(result.Session.StartedAt) {
		t.Fatal("finished_at must be strictly after started_at")
	}

	stored, _ := sessions.FindByID(result.Session.ID)
	if !stored.Finished() {
		t.Fatal("finish must be persisted")
	}
}

func TestFinishEmptySubmission(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc, _, oracle := newSessionFixture(now.Add(time.Hour))
	svc.now = fixedClock(now)

	if _, _, err := svc.Start(1, 7); err != nil {
		t.Fatalf("start: %v", err)
	}

	svc.now = fixedClock(now.Add(time.Minute))
	result, err := svc.Finish(context.Background(), 1, 7, nil)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if !result.Session.Finished() {
		t.Fatal("session should be finished")
	}
	if result.TotalMark != 0 {
		t.Fatalf("empty submission must score 0, got %v", result.TotalMark)
	}
	if oracle.calls != 0 {
		t.Fatal("oracle must not be called for an empty submission")
	}
}

func TestFinishBeforeStart(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc, _, _ := newSessionFixture(now.Add(time.Hour))
	svc.now = fixedClock(now)

	_, err := svc.Finish(context.Background(), 1, 7, []AnswerSubmission{{QuestionID: 1, Answer: "a1"}})
	if !errors.Is(err, util.ErrSessionNotStarted) {
		t.Fatalf("expected ErrSessionNotStarted, got %v", err)
	}
}

func TestFinishTwice(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc, _, _ := newSessionFixture(now.Add(time.Hour))
	svc.now = fixedClock(now)

	if _, _, err := svc.Start(1, 7); err != nil {
		t.Fatalf("start: %v", err)
	}
	svc.now = fixedClock(now.Add(time.Minute))
	if _, err := svc.Finish(context.Background(), 1, 7, []AnswerSubmission{{QuestionID: 1, Answer: "a1"}}); err != nil {
		t.Fatalf("first finish: %v", err)
	}

	_, err := svc.Finish(context.Background(), 1, 7, []AnswerSubmission{{QuestionID: 1, Answer: "a1"}})
	if !errors.Is(err, util.ErrSessionAlreadyFinished) {
		t.Fatalf("expected ErrSessionAlreadyFinished, got %v", err)
	}
}

func TestFinishGraceWindow(t *testing.T) {
	deadline := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, _, _ := newSessionFixture(deadline)

	svc.now = fixedClock(deadline.Add(-time.Hour))
	if _, _, err := svc.Start(1, 7); err != nil {
		t.Fatalf("start: %v", err)
	}

	// 截止后 3 分钟内仍可提交
	svc.now = fixedClock(deadline.Add(MaxSubmitDelay))
	if _, err := svc.Finish(context.Background(), 1, 7, []AnswerSubmission{{QuestionID: 1, Answer: "a1"}}); err != nil {
		t.Fatalf("finish within grace: %v", err)
	}
}

func TestFinishAfterGrace(t *testing.T) {
	deadline := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, sessions, _ := newSessionFixture(deadline)

	svc.now = fixedClock(deadline.Add(-time.Hour))
	session, _, err := svc.Start(1, 7)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	svc.now = fixedClock(deadline.Add(MaxSubmitDelay + time.Second))
	_, err = svc.Finish(context.Background(), 1, 7, []AnswerSubmission{{QuestionID: 1, Answer: "a1"}})
	if !errors.Is(err, util.ErrDeadlineExceeded) {
		t.Fatalf("expected ErrDeadlineExceeded, got %v", err)
	}

	stored, _ := sessions.FindByID(session.ID)
	if stored.Finished() {
		t.Fatal("session must stay open after rejected finish")
	}
}

func TestFinishInvalidQuestion(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc, sessions, oracle := newSessionFixture(now.Add(time.Hour))
	svc.now = fixedClock(now)

	session, _, err := svc.Start(1, 7)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	_, err = svc.Finish(context.Background(), 1, 7, []AnswerSubmission{
		{QuestionID: 1, Answer: "a1"},
		{QuestionID: 99, Answer: "a2"},
	})
	if !errors.Is(err, util.ErrQuestionNotInQuiz) {
		t.Fatalf("expected ErrQuestionNotInQuiz, got %v", err)
	}

	// 校验先于评分，oracle 不应被调用
	if oracle.calls != 0 {
		t.Fatalf("oracle called %d times before validation passed", oracle.calls)
	}

	stored, _ := sessions.FindByID(session.ID)
	if stored.Finished() || len(stored.Answers) != 0 {
		t.Fatal("rejected finish must leave no answers and keep the session open")
	}
}

func TestFinishDuplicateAnswer(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc, sessions, oracle := newSessionFixture(now.Add(time.Hour))
	svc.now = fixedClock(now)

	session, _, err := svc.Start(1, 7)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	_, err = svc.Finish(context.Background(), 1, 7, []AnswerSubmission{
		{QuestionID: 1, Answer: "a1"},
		{QuestionID: 1, Answer: "a2"},
	})
	if !errors.Is(err, util.ErrDuplicateAnswer) {
		t.Fatalf("expected ErrDuplicateAnswer, got %v", err)
	}
	if oracle.calls != 0 {
		t.Fatalf("oracle called %d times on invalid submission", oracle.calls)
	}

	stored, _ := sessions.FindByID(session.ID)
	if stored.Finished() || len(stored.Answers) != 0 {
		t.Fatal("rejected finish must leave no answers and keep the session open")
	}
}

func TestFinishOracleFailure(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc, sessions, oracle := newSessionFixture(now.Add(time.Hour))
	svc.now = fixedClock(now)

	session, _, err := svc.Start(1, 7)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	oracle.err = errors.New("upstream boom")
	_, err = svc.Finish(context.Background(), 1, 7, []AnswerSubmission{
		{QuestionID: 1, Answer: "a1"},
		{QuestionID: 2, Answer: "a2"},
	})
	if !errors.Is(err, util.ErrGradingFailed) {
		t.Fatalf("expected ErrGradingFailed, got %v", err)
	}

	stored, _ := sessions.FindByID(session.ID)
	if stored.Finished() || len(stored.Answers) != 0 {
		t.Fatal("oracle failure must not persist any answer")
	}
}

func TestTotalMark(t *testing.T) {
	finished := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)
	q1 := &model.Question{Value: 60}
	q2 := &model.Question{Value: 40}

	tests := []struct {
		name    string
		session *model.TaskSession
		want    float64
	}{
		{"nil session", nil, 0},
		{
			"open session scores zero",
			&model.TaskSession{
				Answers: []model.UserAnswer{{Score: 100, Question: q1}},
			},
			0,
		},
		{
			"weighted sum",
			&model.TaskSession{
				FinishedAt: &finished,
				Answers: []model.UserAnswer{
					{Score: 80, Question: q1},
					{Score: 50, Question: q2},
				},
			},
			68,
		},
		{
			"unanswered questions contribute nothing",
			&model.TaskSession{
				FinishedAt: &finished,
				Answers:    []model.UserAnswer{{Score: 80, Question: q1}},
			},
			48,
		},
		{
			"empty submission",
			&model.TaskSession{FinishedAt: &finished},
			0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TotalMark(tt.session); got != tt.want {
				t.Fatalf("TotalMark() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestListSessionsScope(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc, _, _ := newSessionFixture(now.Add(time.Hour))
	svc.now = fixedClock(now)

	if _, _, err := svc.Start(1, 7); err != nil {
		t.Fatalf("start user 7: %v", err)
	}
	if _, _, err := svc.Start(1, 8); err != nil {
		t.Fatalf("start user 8: %v", err)
	}

	own, err := svc.ListSessions(1, 7, false)
	if err != nil {
		t.Fatalf("list own: %v", err)
	}
	if len(own) != 1 || own[0].Session.UserID != 7 {
		t.Fatalf("student must only see their own session, got %d", len(own))
	}

	all, err := svc.ListSessions(1, 7, true)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("teacher must see all sessions, got %d", len(all))
	}
}
