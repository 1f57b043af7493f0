package service

import (
	"lms_testing_backend/internal/model"
	"time"
)

// The evaluation engine talks to persistence through narrow store
// interfaces so it can be exercised against in-memory fakes. The gorm
// repositories in internal/repository satisfy them.

type PassingStore interface {
	Create(p *model.Passing) error
	FindByID(id uint) (*model.Passing, error)
	// UpdateLocked serializes concurrent read-modify-write cycles on one
	// passing row; fn reports whether the mutation should be persisted.
	UpdateLocked(id uint, fn func(p *model.Passing) (bool, error)) error
	Count(taskID, userID uint) (int64, error)
	CountTrial(taskID, userID uint) (int64, error)
	LatestNonTrial(taskID, userID uint) (*model.Passing, error)
	ListByUser(userID uint, taskID uint, page, limit int) ([]model.Passing, int64, error)
}

type TaskStore interface {
	FindByID(id uint) (*model.Task, error)
	QuestionsScore(taskID uint) (int, error)
	QuestionCount(taskID uint) (int64, error)
	HasQuestion(taskID, questionID uint) (bool, error)
}

type QuestionStore interface {
	FindByID(id uint) (*model.Question, error)
	FindOptionsByIDs(ids []uint) ([]model.AnswerOption, error)
}

type UserAnswerStore interface {
	Create(ua *model.UserAnswer) error
	Save(ua *model.UserAnswer) error
	FindByID(id uint) (*model.UserAnswer, error)
	FindByPassingAndQuestion(passingID, questionID uint) (*model.UserAnswer, error)
	ListByPassing(passingID uint) ([]model.UserAnswer, error)
	CountByPassing(passingID uint) (int64, error)
	HasUngradedFreeAnswers(passingID uint) (bool, error)
	ReplaceSelections(ua *model.UserAnswer, options []model.AnswerOption) error
	ListUngradedFree(taskID uint, page, limit int) ([]model.UserAnswer, int64, error)
}

// AttemptScheduler defers the automatic closing of an attempt until its
// time budget elapses. Delivery is at-least-once; the close handler is
// idempotent, so Cancel is best-effort.
type AttemptScheduler interface {
	Schedule(passingID uint, delay time.Duration) error
	Cancel(passingID uint) error
}
