package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"lms_testing_backend/internal/model"
	"lms_testing_backend/internal/repository"
	"lms_testing_backend/internal/util"
)

// TaskService is the management surface for tests: task and question
// CRUD, the task/question bindings and question media uploads.
type TaskService struct {
	tasks     *repository.TaskRepository
	questions *repository.QuestionRepository
	storage   *StorageService
}

func NewTaskService(tasks *repository.TaskRepository, questions *repository.QuestionRepository, storage *StorageService) *TaskService {
	return &TaskService{tasks: tasks, questions: questions, storage: storage}
}

type TaskInput struct {
	Title          string `json:"title" binding:"required"`
	Description    string `json:"description"`
	TravelTime     string `json:"travelTime" binding:"required"`
	RetakeSeconds  uint   `json:"retakeSeconds"`
	PassingPercent int    `json:"passingPercent" binding:"required"`
	Attempts       int    `json:"attempts"`
	TrialAttempts  int    `json:"trialAttempts"`
	IsFinal        bool   `json:"isFinal"`
	IsActive       bool   `json:"isActive"`
	IsHidden       bool   `json:"isHidden"`
	Rank           int    `json:"rank"`
}

func (in *TaskInput) validate() error {
	if in.PassingPercent < 1 || in.PassingPercent > 100 {
		return errors.New("passing percent must be between 1 and 100")
	}
	if _, err := time.Parse(util.TravelTimeFormat, in.TravelTime); err != nil {
		return fmt.Errorf("travel time must look like HH:MM:SS: %w", err)
	}
	return nil
}

func (in *TaskInput) apply(task *model.Task) {
	task.Title = in.Title
	task.Description = in.Description
	task.TravelTime = in.TravelTime
	task.RetakeSeconds = in.RetakeSeconds
	task.PassingPercent = in.PassingPercent
	task.Attempts = in.Attempts
	task.TrialAttempts = in.TrialAttempts
	task.IsFinal = in.IsFinal
	task.IsActive = in.IsActive
	task.IsHidden = in.IsHidden
	task.Rank = in.Rank
}

func (s *TaskService) CreateTask(in TaskInput) (*model.Task, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	task := &model.Task{}
	in.apply(task)
	if err := s.tasks.Create(task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) UpdateTask(id uint, in TaskInput) (*model.Task, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	task, err := s.getTask(id)
	if err != nil {
		return nil, err
	}
	in.apply(task)
	if err := s.tasks.Update(task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) DeleteTask(id uint) error {
	if _, err := s.getTask(id); err != nil {
		return err
	}
	return s.tasks.Delete(id)
}

func (s *TaskService) GetTask(id uint) (*model.Task, error) {
	task, err := s.tasks.FindByIDWithQuestions(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrTaskNotFound
		}
		return nil, err
	}
	return task, nil
}

func (s *TaskService) ListTasks(page, limit int) ([]model.Task, int64, error) {
	return s.tasks.List(page, limit)
}

func (s *TaskService) getTask(id uint) (*model.Task, error) {
	task, err := s.tasks.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrTaskNotFound
		}
		return nil, err
	}
	return task, nil
}

type QuestionInput struct {
	Text         string `json:"text" binding:"required"`
	IsFreeAnswer bool   `json:"isFreeAnswer"`
	Score        int    `json:"score"`
}

func (s *TaskService) CreateQuestion(in QuestionInput) (*model.Question, error) {
	if in.Score < 0 {
		return nil, errors.New("score cannot be negative")
	}
	if in.Score == 0 {
		in.Score = 1
	}
	question := &model.Question{
		Text:         in.Text,
		IsFreeAnswer: in.IsFreeAnswer,
		Score:        in.Score,
	}
	if err := s.questions.Create(question); err != nil {
		return nil, err
	}
	return question, nil
}

func (s *TaskService) UpdateQuestion(id uint, in QuestionInput) (*model.Question, error) {
	question, err := s.GetQuestion(id)
	if err != nil {
		return nil, err
	}
	if in.Score < 0 {
		return nil, errors.New("score cannot be negative")
	}
	question.Text = in.Text
	question.IsFreeAnswer = in.IsFreeAnswer
	if in.Score > 0 {
		question.Score = in.Score
	}
	if err := s.questions.Update(question); err != nil {
		return nil, err
	}
	return question, nil
}

func (s *TaskService) DeleteQuestion(id uint) error {
	if _, err := s.GetQuestion(id); err != nil {
		return err
	}
	return s.questions.Delete(id)
}

func (s *TaskService) GetQuestion(id uint) (*model.Question, error) {
	question, err := s.questions.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuestionNotFound
		}
		return nil, err
	}
	return question, nil
}

// AttachQuestion binds a question to a task. Attempts already underway
// keep the max score snapshotted at their creation.
func (s *TaskService) AttachQuestion(taskID, questionID uint) error {
	task, err := s.getTask(taskID)
	if err != nil {
		return err
	}
	question, err := s.GetQuestion(questionID)
	if err != nil {
		return err
	}
	return s.tasks.AttachQuestion(task, question)
}

func (s *TaskService) DetachQuestion(taskID, questionID uint) error {
	task, err := s.getTask(taskID)
	if err != nil {
		return err
	}
	question, err := s.GetQuestion(questionID)
	if err != nil {
		return err
	}
	return s.tasks.DetachQuestion(task, question)
}

type OptionInput struct {
	Text   string `json:"text" binding:"required"`
	IsTrue bool   `json:"isTrue"`
	Rank   int    `json:"rank"`
}

func (s *TaskService) CreateOption(questionID uint, in OptionInput) (*model.AnswerOption, error) {
	question, err := s.GetQuestion(questionID)
	if err != nil {
		return nil, err
	}
	if question.IsFreeAnswer {
		return nil, errors.New("free answer questions have no options")
	}
	opt := &model.AnswerOption{
		QuestionID: question.ID,
		Text:       in.Text,
		IsTrue:     in.IsTrue,
		Rank:       in.Rank,
	}
	if err := s.questions.CreateOption(opt); err != nil {
		return nil, err
	}
	return opt, nil
}

func (s *TaskService) UpdateOption(optionID uint, in OptionInput) (*model.AnswerOption, error) {
	opt, err := s.questions.FindOptionByID(optionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAnswerNotFound
		}
		return nil, err
	}
	opt.Text = in.Text
	opt.IsTrue = in.IsTrue
	opt.Rank = in.Rank
	if err := s.questions.UpdateOption(opt); err != nil {
		return nil, err
	}
	return opt, nil
}

func (s *TaskService) DeleteOption(optionID uint) error {
	if _, err := s.questions.FindOptionByID(optionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrAnswerNotFound
		}
		return err
	}
	return s.questions.DeleteOption(optionID)
}

// UploadQuestionMedia attaches an illustration (image, video or audio)
// to a question. Video and audio are probed with ffprobe so broken
// uploads are rejected before they reach storage.
func (s *TaskService) UploadQuestionMedia(ctx context.Context, questionID uint, file *multipart.FileHeader) (*model.Question, error) {
	question, err := s.GetQuestion(questionID)
	if err != nil {
		return nil, err
	}
	if !util.HasAllowedExtension(file.Filename, util.AllowedMediaExtensions) {
		return nil, fmt.Errorf("media extension not allowed: %s", filepath.Ext(file.Filename))
	}

	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "question-media-*"+filepath.Ext(file.Filename))
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())

	mimeType, err := util.ValidateMimeType(src, []string{util.MimeImage, util.MimeVideo, "audio/"})
	if err != nil {
		tmp.Close()
		return nil, err
	}
	if _, err := src.Seek(0, 0); err != nil {
		tmp.Close()
		return nil, err
	}
	if _, err := tmp.ReadFrom(src); err != nil {
		tmp.Close()
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}

	if !util.IsImage(mimeType) {
		if _, err := util.ProbeMedia(tmp.Name()); err != nil {
			return nil, err
		}
	}

	name := fmt.Sprintf("media/%s%s", uuid.New().String(), filepath.Ext(file.Filename))
	url, err := s.storage.UploadFile(ctx, name, tmp.Name(), mimeType)
	if err != nil {
		return nil, err
	}

	question.MediaURL = url
	if err := s.questions.Update(question); err != nil {
		return nil, err
	}
	return question, nil
}
