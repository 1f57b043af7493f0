package model

// UserAnswer is one user's response to one question within a passing.
// At most one row may exist per (passing, question) pair.
type UserAnswer struct {
	BaseModel

	PassingID  uint     `gorm:"index;type:bigint unsigned;not null;uniqueIndex:uniq_passing_question" json:"passingId"`
	QuestionID uint     `gorm:"type:bigint unsigned;not null;uniqueIndex:uniq_passing_question" json:"questionId"`
	Question   Question `json:"-"`

	// AnswerID carries a single-select submission; Answers carries
	// multi-select. Both shapes are accepted and merged for scoring.
	AnswerID *uint          `gorm:"type:bigint unsigned" json:"answerId,omitempty"`
	Answers  []AnswerOption `gorm:"many2many:user_answer_selections" json:"answers,omitempty"`

	Text    string `gorm:"type:text" json:"text,omitempty"`
	FileURL string `gorm:"size:255" json:"fileUrl,omitempty"`

	// UserPoints is only meaningful for free-answer questions and is set by
	// a grader; nil means not graded yet.
	UserPoints *int  `gorm:"type:smallint" json:"userPoints,omitempty"`
	VerifierID *uint `gorm:"type:bigint unsigned" json:"verifierId,omitempty"`
}

func (UserAnswer) TableName() string {
	return "user_answers"
}

// SelectedAnswerIDs returns the chosen option ids with the single-select
// reference merged into the multi-select set.
func (ua *UserAnswer) SelectedAnswerIDs() []uint {
	ids := make([]uint, 0, len(ua.Answers)+1)
	seen := make(map[uint]bool, len(ua.Answers)+1)
	for _, a := range ua.Answers {
		if !seen[a.ID] {
			seen[a.ID] = true
			ids = append(ids, a.ID)
		}
	}
	if ua.AnswerID != nil && !seen[*ua.AnswerID] {
		ids = append(ids, *ua.AnswerID)
	}
	return ids
}

// Points computes the points earned for this answer.
// Free-answer questions yield the grader-assigned points (0 while
// ungraded). Everything else is all-or-nothing: the full question score
// if and only if the selected option set equals the correct option set.
func (ua *UserAnswer) Points() int {
	if ua.Question.IsFreeAnswer {
		if ua.UserPoints != nil {
			return *ua.UserPoints
		}
		return 0
	}
	if sameIDSet(ua.SelectedAnswerIDs(), ua.Question.CorrectAnswerIDs()) {
		return ua.Question.Score
	}
	return 0
}

// MaxPoints is the highest score achievable for the answered question.
func (ua *UserAnswer) MaxPoints() int {
	return ua.Question.Score
}

func sameIDSet(a, b []uint) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[uint]bool, len(a))
	for _, id := range a {
		set[id] = true
	}
	for _, id := range b {
		if !set[id] {
			return false
		}
	}
	return true
}
