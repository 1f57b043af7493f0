package model

// swagger:model Question
type Question struct {
	BaseModel

	Tasks []Task `gorm:"many2many:task_questions" json:"-"`

	Text         string `gorm:"type:text;not null" json:"text"`
	MediaURL     string `gorm:"size:255" json:"mediaUrl"`
	IsFreeAnswer bool   `gorm:"default:false" json:"isFreeAnswer"`
	Score        int    `gorm:"default:1" json:"score"` // max points, >= 0

	Options []AnswerOption `gorm:"foreignKey:QuestionID" json:"options,omitempty"`
}

func (Question) TableName() string {
	return "questions"
}

// CorrectAnswerIDs returns the ids of the options marked as correct.
func (q *Question) CorrectAnswerIDs() []uint {
	var ids []uint
	for _, opt := range q.Options {
		if opt.IsTrue {
			ids = append(ids, opt.ID)
		}
	}
	return ids
}
