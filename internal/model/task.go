package model

import (
	"strconv"
	"strings"
)

// swagger:model Task
type Task struct {
	BaseModel

	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`

	// TravelTime is the allowed duration for one attempt, stored as "HH:MM:SS".
	TravelTime     string `gorm:"size:8;not null" json:"travelTime"`
	RetakeSeconds  uint   `gorm:"default:0" json:"retakeSeconds"`
	PassingPercent int    `gorm:"default:100" json:"passingPercent"` // 1..100
	Attempts       int    `gorm:"default:100" json:"attempts"`
	TrialAttempts  int    `gorm:"default:0" json:"trialAttempts"`
	IsFinal        bool   `gorm:"default:false" json:"isFinal"`
	IsActive       bool   `gorm:"default:true" json:"isActive"`
	IsHidden       bool   `gorm:"default:false" json:"isHidden"` // hide results from the client
	Rank           int    `gorm:"default:0" json:"rank"`

	Questions []Question `gorm:"many2many:task_questions" json:"questions,omitempty"`
}

func (Task) TableName() string {
	return "tasks"
}

// TravelTimeSeconds converts the "HH:MM:SS" time budget into whole seconds.
// Malformed values count as a zero budget.
func (t *Task) TravelTimeSeconds() int {
	parts := strings.Split(t.TravelTime, ":")
	if len(parts) != 3 {
		return 0
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0
	}
	s, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0
	}
	return s + m*60 + h*60*60
}
