package repository

import (
	"classhub_backend/internal/model"
	"classhub_backend/internal/util"
	"errors"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newSessionTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// 每个测试独立的内存库；TranslateError 与生产配置一致，
	// GetOrCreate/Finish 的唯一键路径依赖它
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := db.AutoMigrate(&model.Question{}, &model.TaskSession{}, &model.UserAnswer{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func startSession(t *testing.T, repo *TaskSessionRepository, taskID, userID uint) *model.TaskSession {
	t.Helper()
	session := &model.TaskSession{TaskID: taskID, UserID: userID, StartedAt: time.Now()}
	created, err := repo.GetOrCreate(session)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if !created {
		t.Fatal("expected a fresh session")
	}
	return session
}

func TestGetOrCreateRecoversExisting(t *testing.T) {
	repo := NewTaskSessionRepository(newSessionTestDB(t))

	first := startSession(t, repo, 1, 7)

	second := &model.TaskSession{TaskID: 1, UserID: 7, StartedAt: time.Now()}
	created, err := repo.GetOrCreate(second)
	if err != nil {
		t.Fatalf("second GetOrCreate: %v", err)
	}
	if created {
		t.Fatal("second GetOrCreate must not create")
	}
	if second.ID != first.ID {
		t.Fatalf("expected session %d, got %d", first.ID, second.ID)
	}
}

func TestDeleteThenRestart(t *testing.T) {
	db := newSessionTestDB(t)
	repo := NewTaskSessionRepository(db)

	first := startSession(t, repo, 1, 7)
	answers := []model.UserAnswer{{QuestionID: 1, Text: "a", Score: 80, Explanation: "x"}}
	if err := repo.Finish(first.ID, answers, time.Now()); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	if err := repo.Delete(first.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	// 删除必须清空唯一索引占位，否则学生被重置后无法重新开始
	if _, err := repo.FindByTaskAndUser(1, 7); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("deleted session must be gone, got %v", err)
	}

	restarted := &model.TaskSession{TaskID: 1, UserID: 7, StartedAt: time.Now()}
	created, err := repo.GetOrCreate(restarted)
	if err != nil {
		t.Fatalf("restart after reset must succeed, got err=%v", err)
	}
	if !created {
		t.Fatal("restart must create a fresh session")
	}
	if restarted.ID == first.ID {
		t.Fatal("restart must not resurrect the deleted session")
	}

	// 旧答案不能残留
	var leftover int64
	if err := db.Unscoped().Model(&model.UserAnswer{}).
		Where("task_session_id = ?", first.ID).
		Count(&leftover).Error; err != nil {
		t.Fatalf("count answers: %v", err)
	}
	if leftover != 0 {
		t.Fatalf("expected 0 leftover answers, got %d", leftover)
	}
}

func TestFinishLoserGetsAlreadyFinished(t *testing.T) {
	repo := NewTaskSessionRepository(newSessionTestDB(t))

	session := startSession(t, repo, 1, 7)
	winner := []model.UserAnswer{{QuestionID: 1, Text: "a", Score: 80, Explanation: "x"}}
	if err := repo.Finish(session.ID, winner, time.Now()); err != nil {
		t.Fatalf("first Finish: %v", err)
	}

	// 落败方提交了重叠的题目：必须报会话已结束，而不是答案重复
	loser := []model.UserAnswer{{QuestionID: 1, Text: "b", Score: 50, Explanation: "y"}}
	err := repo.Finish(session.ID, loser, time.Now())
	if !errors.Is(err, util.ErrSessionAlreadyFinished) {
		t.Fatalf("expected ErrSessionAlreadyFinished, got %v", err)
	}

	stored, findErr := repo.FindByID(session.ID)
	if findErr != nil {
		t.Fatalf("FindByID: %v", findErr)
	}
	if len(stored.Answers) != 1 || stored.Answers[0].Score != 80 {
		t.Fatal("winner's answers must stand untouched")
	}
}

func TestFinishDuplicateBatchRollsBack(t *testing.T) {
	repo := NewTaskSessionRepository(newSessionTestDB(t))

	session := startSession(t, repo, 1, 7)
	answers := []model.UserAnswer{
		{QuestionID: 1, Text: "a", Score: 80, Explanation: "x"},
		{QuestionID: 1, Text: "b", Score: 50, Explanation: "y"},
	}
	err := repo.Finish(session.ID, answers, time.Now())
	if !errors.Is(err, util.ErrDuplicateAnswer) {
		t.Fatalf("expected ErrDuplicateAnswer, got %v", err)
	}

	// finished_at 的写入必须随事务回滚，会话保持打开
	stored, findErr := repo.FindByID(session.ID)
	if findErr != nil {
		t.Fatalf("FindByID: %v", findErr)
	}
	if stored.Finished() || len(stored.Answers) != 0 {
		t.Fatal("failed finish must leave the session open with no answers")
	}
}

func TestQuestionSoftDeleteKeepsHistoricalMarks(t *testing.T) {
	db := newSessionTestDB(t)
	repo := NewTaskSessionRepository(db)

	question := &model.Question{Title: "q1", ExpectedAnswer: "e1", Value: 60, QuizID: 1}
	if err := db.Create(question).Error; err != nil {
		t.Fatalf("create question: %v", err)
	}

	session := startSession(t, repo, 1, 7)
	answers := []model.UserAnswer{{QuestionID: question.ID, Text: "a", Score: 80, Explanation: "x"}}
	if err := repo.Finish(session.ID, answers, time.Now()); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	if err := db.Delete(question).Error; err != nil {
		t.Fatalf("delete question: %v", err)
	}

	stored, err := repo.FindByID(session.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if len(stored.Answers) != 1 || stored.Answers[0].Question == nil {
		t.Fatal("answer must keep its question after the question is deleted")
	}
	if stored.Answers[0].Question.Value != 60 {
		t.Fatalf("question value = %d, want 60", stored.Answers[0].Question.Value)
	}
}
