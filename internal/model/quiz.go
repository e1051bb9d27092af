package model

// swagger:model Quiz
type Quiz struct {
	BaseModel
	Name        string     `gorm:"size:255;not null" json:"name"`
	MaxDuration int        `json:"maxDuration"` // 分钟
	SubjectID   uint       `gorm:"index;type:bigint unsigned" json:"subjectId"`
	Questions   []Question `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// Question 开放题，value 为题目分值权重
// swagger:model Question
type Question struct {
	BaseModel
	Title          string `gorm:"size:511;not null" json:"title"`
	ExpectedAnswer string `gorm:"type:text" json:"expectedAnswer"`
	Value          int    `json:"value"`
	QuizID         uint   `gorm:"index;type:bigint unsigned" json:"quizId"`
}

func (Question) TableName() string {
	return "questions"
}
