package repository

import (
	"classhub_backend/internal/model"
	"classhub_backend/internal/util"
	"errors"
	"time"

	"gorm.io/gorm"
)

type TaskSessionRepository struct {
	DB *gorm.DB
}

func NewTaskSessionRepository(db *gorm.DB) *TaskSessionRepository {
	return &TaskSessionRepository{DB: db}
}

// GetOrCreate 以 (task_id, user_id) 唯一索引做幂等创建。
// 先插入、冲突后回查，而不是先查后插——并发的两次 start 恰好一个创建成功，
// 另一个拿到已存在的会话。
func (r *TaskSessionRepository) GetOrCreate(session *model.TaskSession) (bool, error) {
	err := r.DB.Create(session).Error
	if err == nil {
		return true, nil
	}

	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return false, err
	}

	existing, findErr := r.FindByTaskAndUser(session.TaskID, session.UserID)
	if findErr != nil {
		return false, findErr
	}
	*session = *existing
	return false, nil
}

func (r *TaskSessionRepository) FindByTaskAndUser(taskID, userID uint) (*model.TaskSession, error) {
	var session model.TaskSession
	err := r.DB.Where("task_id = ? AND user_id = ?", taskID, userID).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// 题目预加载不过滤软删除：题目在评分后被删除时，
// 已结束会话的历史总分必须保持不变
func unscopedQuestion(db *gorm.DB) *gorm.DB {
	return db.Unscoped()
}

func (r *TaskSessionRepository) FindByID(id uint) (*model.TaskSession, error) {
	var session model.TaskSession
	err := r.DB.Preload("User").
		Preload("Answers.Question", unscopedQuestion).
		First(&session, id).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *TaskSessionRepository) ListByTask(taskID uint) ([]model.TaskSession, error) {
	var sessions []model.TaskSession
	err := r.DB.Where("task_id = ?", taskID).
		Preload("User").
		Preload("Answers.Question", unscopedQuestion).
		Find(&sessions).Error
	return sessions, err
}

func (r *TaskSessionRepository) ListByTaskAndUser(taskID, userID uint) ([]model.TaskSession, error) {
	var sessions []model.TaskSession
	err := r.DB.Where("task_id = ? AND user_id = ?", taskID, userID).
		Preload("User").
		Preload("Answers.Question", unscopedQuestion).
		Find(&sessions).Error
	return sessions, err
}

// Finish 在单个事务里关闭会话并写入全部答案。
// 先做 finished_at 的 IS NULL 守卫 CAS 再插答案：并发 finish 的落败方
// 在行锁上等待后看到 RowsAffected==0，拿到 ErrSessionAlreadyFinished，
// 而不是先撞上胜者已提交答案的唯一键。
func (r *TaskSessionRepository) Finish(sessionID uint, answers []model.UserAnswer, finishedAt time.Time) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.TaskSession{}).
			Where("id = ? AND finished_at IS NULL", sessionID).
			Update("finished_at", finishedAt)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return util.ErrSessionAlreadyFinished
		}

		if len(answers) > 0 {
			for i := range answers {
				answers[i].TaskSessionID = sessionID
			}
			if err := tx.Create(&answers).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return util.ErrDuplicateAnswer
				}
				return err
			}
		}
		return nil
	})
}

// Delete 硬删除会话及其答案。软删除的行仍占用 (task_id, user_id)
// 唯一索引，学生被重置后将永远无法重新开始。
func (r *TaskSessionRepository) Delete(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().
			Where("task_session_id = ?", id).
			Delete(&model.UserAnswer{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&model.TaskSession{}, id).Error
	})
}
