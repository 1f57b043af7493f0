package model

import (
	"time"
)

// Passing status codes. The numeric values are part of the API contract
// consumed by clients, do not reorder.
const (
	PassingPassed      = 0 // passed successfully
	PassingOnCheck     = 1 // awaiting manual grading
	PassingLimit       = 2 // time budget exceeded
	PassingAttempts    = 3 // attempt quota exceeded
	PassingScore       = 4 // passing percentage not reached
	PassingNotFinished = 5 // initial, still in progress
)

// StatusText maps a passing status code to a short description.
func StatusText(status int) string {
	switch status {
	case PassingPassed:
		return "passed"
	case PassingOnCheck:
		return "on check"
	case PassingLimit:
		return "time limit exceeded"
	case PassingAttempts:
		return "attempts exceeded"
	case PassingScore:
		return "score not reached"
	case PassingNotFinished:
		return "not finished"
	}
	return "unknown"
}

// Passing is one user's attempt at a task.
// swagger:model Passing
type Passing struct {
	BaseModel

	TaskID uint `gorm:"index;type:bigint unsigned;not null" json:"taskId"`
	Task   Task `json:"-"`
	UserID uint `gorm:"index;type:bigint unsigned;not null" json:"userId"`

	StartTime  time.Time  `json:"startTime"`
	FinishTime *time.Time `json:"finishTime,omitempty"`

	SuccessPassed int  `gorm:"default:5" json:"successPassed"`
	OutOfTime     bool `gorm:"default:false" json:"outOfTime"` // waives the retake cooldown for the next attempt
	IsTrial       bool `gorm:"default:false" json:"isTrial"`

	// UserPoints is recomputed on evaluation; MaxPoints is snapshotted at
	// creation and never recomputed, so historical scores stay stable even
	// when the task's question set changes later.
	UserPoints int `gorm:"default:0" json:"userPoints"`
	MaxPoints  int `gorm:"default:0" json:"maxPoints"`
}

func (Passing) TableName() string {
	return "passings"
}

// TravelTime returns the elapsed wall-clock seconds between start and
// finish, truncated to whole seconds. ok is false while the attempt is
// still open.
func (p *Passing) TravelTime() (float64, bool) {
	if p.FinishTime == nil {
		return 0, false
	}
	secs := p.FinishTime.Sub(p.StartTime) / time.Second
	return float64(secs), true
}

// IsFinished reports whether the finish timestamp has been set.
func (p *Passing) IsFinished() bool {
	return p.FinishTime != nil
}

// IsTerminal reports whether the status can no longer change through
// ordinary evaluation. Only an explicit recheck after manual grading may
// move a terminal passing again.
func (p *Passing) IsTerminal() bool {
	return p.SuccessPassed != PassingNotFinished
}
