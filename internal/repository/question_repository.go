package repository

import (
	"lms_testing_backend/internal/model"

	"gorm.io/gorm"
)

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

func (r *QuestionRepository) Create(q *model.Question) error {
	return r.DB.Create(q).Error
}

func (r *QuestionRepository) Update(q *model.Question) error {
	return r.DB.Save(q).Error
}

func (r *QuestionRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Question{}, id).Error
}

func (r *QuestionRepository) FindByID(id uint) (*model.Question, error) {
	var q model.Question
	err := r.DB.Preload("Options", func(db *gorm.DB) *gorm.DB {
		return db.Order("answer_options.rank")
	}).First(&q, id).Error
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *QuestionRepository) CreateOption(opt *model.AnswerOption) error {
	return r.DB.Create(opt).Error
}

func (r *QuestionRepository) UpdateOption(opt *model.AnswerOption) error {
	return r.DB.Save(opt).Error
}

func (r *QuestionRepository) DeleteOption(id uint) error {
	return r.DB.Delete(&model.AnswerOption{}, id).Error
}

func (r *QuestionRepository) FindOptionByID(id uint) (*model.AnswerOption, error) {
	var opt model.AnswerOption
	if err := r.DB.First(&opt, id).Error; err != nil {
		return nil, err
	}
	return &opt, nil
}

func (r *QuestionRepository) FindOptionsByIDs(ids []uint) ([]model.AnswerOption, error) {
	var opts []model.AnswerOption
	if len(ids) == 0 {
		return opts, nil
	}
	err := r.DB.Where("id IN ?", ids).Find(&opts).Error
	return opts, err
}
