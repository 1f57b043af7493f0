package repository

import (
	"errors"
	"lms_testing_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserAnswerRepository struct {
	DB *gorm.DB
}

func NewUserAnswerRepository(db *gorm.DB) *UserAnswerRepository {
	return &UserAnswerRepository{DB: db}
}

func (r *UserAnswerRepository) Create(ua *model.UserAnswer) error {
	// The Question association is read-only here; selections are written
	// through ReplaceSelections.
	return r.DB.Omit(clause.Associations).Create(ua).Error
}

func (r *UserAnswerRepository) Save(ua *model.UserAnswer) error {
	return r.DB.Omit(clause.Associations).Save(ua).Error
}

func (r *UserAnswerRepository) FindByID(id uint) (*model.UserAnswer, error) {
	var ua model.UserAnswer
	err := r.DB.Preload("Question.Options").Preload("Answers").First(&ua, id).Error
	if err != nil {
		return nil, err
	}
	return &ua, nil
}

// FindByPassingAndQuestion returns the single answer row for the pair, or
// nil when the question has not been answered yet.
func (r *UserAnswerRepository) FindByPassingAndQuestion(passingID, questionID uint) (*model.UserAnswer, error) {
	var ua model.UserAnswer
	err := r.DB.Preload("Question.Options").Preload("Answers").
		Where("passing_id = ? AND question_id = ?", passingID, questionID).
		First(&ua).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ua, nil
}

// ListByPassing loads all answers of a passing with everything scoring
// needs preloaded.
func (r *UserAnswerRepository) ListByPassing(passingID uint) ([]model.UserAnswer, error) {
	var answers []model.UserAnswer
	err := r.DB.Preload("Question.Options").Preload("Answers").
		Where("passing_id = ?", passingID).
		Find(&answers).Error
	return answers, err
}

func (r *UserAnswerRepository) CountByPassing(passingID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.UserAnswer{}).
		Where("passing_id = ?", passingID).
		Count(&count).Error
	return count, err
}

// HasUngradedFreeAnswers reports whether any answer of the passing belongs
// to a free-answer question and still lacks grader points.
func (r *UserAnswerRepository) HasUngradedFreeAnswers(passingID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.UserAnswer{}).
		Joins("JOIN questions ON questions.id = user_answers.question_id").
		Where("user_answers.passing_id = ? AND questions.is_free_answer = ? AND user_answers.user_points IS NULL",
			passingID, true).
		Count(&count).Error
	return count > 0, err
}

// ReplaceSelections rewrites the multi-select association of an answer.
func (r *UserAnswerRepository) ReplaceSelections(ua *model.UserAnswer, options []model.AnswerOption) error {
	return r.DB.Model(ua).Association("Answers").Replace(options)
}

// ListUngradedFree lists free-answer submissions awaiting grading,
// optionally narrowed to one task.
func (r *UserAnswerRepository) ListUngradedFree(taskID uint, page, limit int) ([]model.UserAnswer, int64, error) {
	query := r.DB.Model(&model.UserAnswer{}).
		Joins("JOIN questions ON questions.id = user_answers.question_id").
		Joins("JOIN passings ON passings.id = user_answers.passing_id").
		Where("questions.is_free_answer = ? AND user_answers.user_points IS NULL", true)
	if taskID > 0 {
		query = query.Where("passings.task_id = ?", taskID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var answers []model.UserAnswer
	err := query.Preload("Question").
		Order("user_answers.created_at").
		Offset((page - 1) * limit).Limit(limit).
		Find(&answers).Error
	return answers, total, err
}
