package repository

import (
	"errors"
	"lms_testing_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PassingRepository struct {
	DB *gorm.DB
}

func NewPassingRepository(db *gorm.DB) *PassingRepository {
	return &PassingRepository{DB: db}
}

func (r *PassingRepository) Create(p *model.Passing) error {
	return r.DB.Create(p).Error
}

func (r *PassingRepository) FindByID(id uint) (*model.Passing, error) {
	var p model.Passing
	if err := r.DB.First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateLocked runs fn on the passing inside a transaction holding a
// row-level write lock, so concurrent evaluations of the same passing
// serialize. fn returns whether the mutated passing should be persisted.
func (r *PassingRepository) UpdateLocked(id uint, fn func(p *model.Passing) (bool, error)) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		var p model.Passing
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, id).Error; err != nil {
			return err
		}
		persist, err := fn(&p)
		if err != nil {
			return err
		}
		if persist {
			return tx.Save(&p).Error
		}
		return nil
	})
}

// Count counts every passing for the (task, user) pair, trial included.
func (r *PassingRepository) Count(taskID, userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Passing{}).
		Where("task_id = ? AND user_id = ?", taskID, userID).
		Count(&count).Error
	return count, err
}

func (r *PassingRepository) CountTrial(taskID, userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Passing{}).
		Where("task_id = ? AND user_id = ? AND is_trial = ?", taskID, userID, true).
		Count(&count).Error
	return count, err
}

// LatestNonTrial returns the most recently created non-trial passing for
// the pair, or nil when there is none.
func (r *PassingRepository) LatestNonTrial(taskID, userID uint) (*model.Passing, error) {
	var p model.Passing
	err := r.DB.Where("task_id = ? AND user_id = ? AND is_trial = ?", taskID, userID, false).
		Order("created_at DESC").
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PassingRepository) ListByUser(userID uint, taskID uint, page, limit int) ([]model.Passing, int64, error) {
	query := r.DB.Model(&model.Passing{}).Where("user_id = ?", userID)
	if taskID > 0 {
		query = query.Where("task_id = ?", taskID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var passings []model.Passing
	err := query.Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&passings).Error
	return passings, total, err
}
