package model

import "time"

// Task 将测验布置给课程并附上截止时间
// swagger:model Task
type Task struct {
	BaseModel
	Title    string    `gorm:"size:255;not null" json:"title"`
	Deadline time.Time `gorm:"index" json:"deadline"`
	CourseID uint      `gorm:"index;type:bigint unsigned" json:"courseId"`
	QuizID   uint      `gorm:"index;type:bigint unsigned" json:"quizId"`
	Quiz     *Quiz     `json:"quiz,omitempty"`
}

func (Task) TableName() string {
	return "tasks"
}

// TaskSession 学生对任务的一次作答。(task, user) 唯一；
// finished_at 只写一次，写入后会话进入终态。
// swagger:model TaskSession
type TaskSession struct {
	BaseModel
	TaskID     uint         `gorm:"uniqueIndex:idx_task_sessions_task_user;type:bigint unsigned" json:"taskId"`
	UserID     uint         `gorm:"uniqueIndex:idx_task_sessions_task_user;type:bigint unsigned" json:"userId"`
	StartedAt  time.Time    `json:"startedAt"`
	FinishedAt *time.Time   `json:"finishedAt,omitempty"`
	User       *User        `json:"user,omitempty"`
	Answers    []UserAnswer `gorm:"foreignKey:TaskSessionID" json:"answers,omitempty"`
}

func (TaskSession) TableName() string {
	return "task_sessions"
}

// Finished reports whether the session has reached its terminal state.
func (s *TaskSession) Finished() bool {
	return s.FinishedAt != nil
}

// UserAnswer 会话内单题的已评分回答，finish 事务中批量创建，此后不再更新
// （人工调分走 is_adjusted 标记的独立路径）。
// swagger:model UserAnswer
type UserAnswer struct {
	BaseModel
	TaskSessionID uint      `gorm:"uniqueIndex:idx_user_answers_question_session;type:bigint unsigned" json:"taskSessionId"`
	QuestionID    uint      `gorm:"uniqueIndex:idx_user_answers_question_session;type:bigint unsigned" json:"questionId"`
	Text          string    `gorm:"type:text" json:"text"`
	Score         int       `json:"score"` // 0-100
	Explanation   string    `gorm:"type:text" json:"explanation"`
	IsAdjusted    bool      `gorm:"default:false" json:"isAdjusted"`
	Question      *Question `json:"question,omitempty"`
}

func (UserAnswer) TableName() string {
	return "user_answers"
}
