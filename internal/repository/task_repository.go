package repository

import (
	"lms_testing_backend/internal/model"

	"gorm.io/gorm"
)

type TaskRepository struct {
	DB *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{DB: db}
}

func (r *TaskRepository) Create(task *model.Task) error {
	return r.DB.Create(task).Error
}

func (r *TaskRepository) Update(task *model.Task) error {
	return r.DB.Save(task).Error
}

func (r *TaskRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Task{}, id).Error
}

func (r *TaskRepository) FindByID(id uint) (*model.Task, error) {
	var task model.Task
	if err := r.DB.First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) FindByIDWithQuestions(id uint) (*model.Task, error) {
	var task model.Task
	err := r.DB.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("questions.created_at DESC")
	}).Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
		return db.Order("answer_options.rank")
	}).First(&task, id).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) List(page, limit int) ([]model.Task, int64, error) {
	var tasks []model.Task
	var total int64
	if err := r.DB.Model(&model.Task{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := r.DB.Order("`rank`, title, created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&tasks).Error
	return tasks, total, err
}

// QuestionsScore sums the max score over all questions attached to a task.
// It is the source of a passing's max_points snapshot.
func (r *TaskRepository) QuestionsScore(taskID uint) (int, error) {
	var total int
	err := r.DB.Model(&model.Question{}).
		Joins("JOIN task_questions ON task_questions.question_id = questions.id").
		Where("task_questions.task_id = ?", taskID).
		Select("COALESCE(SUM(questions.score), 0)").
		Scan(&total).Error
	return total, err
}

func (r *TaskRepository) QuestionCount(taskID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Question{}).
		Joins("JOIN task_questions ON task_questions.question_id = questions.id").
		Where("task_questions.task_id = ?", taskID).
		Count(&count).Error
	return count, err
}

func (r *TaskRepository) AttachQuestion(task *model.Task, question *model.Question) error {
	return r.DB.Model(task).Association("Questions").Append(question)
}

func (r *TaskRepository) DetachQuestion(task *model.Task, question *model.Question) error {
	return r.DB.Model(task).Association("Questions").Delete(question)
}

func (r *TaskRepository) HasQuestion(taskID, questionID uint) (bool, error) {
	var count int64
	err := r.DB.Table("task_questions").
		Where("task_id = ? AND question_id = ?", taskID, questionID).
		Count(&count).Error
	return count > 0, err
}
