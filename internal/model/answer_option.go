package model

// AnswerOption is one selectable answer variant of a question.
type AnswerOption struct {
	BaseModel

	QuestionID uint   `gorm:"index;type:bigint unsigned" json:"questionId"`
	Text       string `gorm:"type:text;not null" json:"text"`
	IsTrue     bool   `gorm:"default:false" json:"isTrue"`
	Rank       int    `gorm:"default:0" json:"rank"`
}

func (AnswerOption) TableName() string {
	return "answer_options"
}
