package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"lms_testing_backend/internal/model"
	"lms_testing_backend/internal/util"
)

// BlobUploader stores answer attachments. Satisfied by StorageService.
type BlobUploader interface {
	Upload(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error)
}

// AnswerService collects the user's answers for a passing and hands
// finished attempts over to the evaluation engine.
type AnswerService struct {
	answers   UserAnswerStore
	passings  PassingStore
	tasks     TaskStore
	questions QuestionStore
	engine    *PassingService
	storage   BlobUploader
}

func NewAnswerService(answers UserAnswerStore, passings PassingStore, tasks TaskStore, questions QuestionStore, engine *PassingService, storage BlobUploader) *AnswerService {
	return &AnswerService{
		answers:   answers,
		passings:  passings,
		tasks:     tasks,
		questions: questions,
		engine:    engine,
		storage:   storage,
	}
}

// SubmitAnswerInput is one answer to one question of an open passing.
// AnswerID and AnswerIDs may both be present; the single selection is
// folded into the set.
type SubmitAnswerInput struct {
	PassingID  uint
	QuestionID uint
	AnswerID   *uint
	AnswerIDs  []uint
	Text       string
	File       *multipart.FileHeader
}

// SubmitAnswer records or replaces the user's answer to a question.
// There is at most one answer per (passing, question) pair; resubmitting
// overwrites the previous one. Once every question of the task has an
// answer a graded passing is finished and scored; trials stay open.
func (s *AnswerService) SubmitAnswer(ctx context.Context, userID uint, in SubmitAnswerInput) (*model.UserAnswer, error) {
	passing, err := s.passings.FindByID(in.PassingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrPassingNotFound
		}
		return nil, err
	}
	if passing.UserID != userID {
		return nil, util.ErrPassingNotOwn
	}
	if passing.IsFinished() {
		return nil, util.ErrPassingFinished
	}

	question, err := s.questions.FindByID(in.QuestionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuestionNotFound
		}
		return nil, err
	}
	inTask, err := s.tasks.HasQuestion(passing.TaskID, question.ID)
	if err != nil {
		return nil, err
	}
	if !inTask {
		return nil, util.ErrQuestionNotInTask
	}

	var selections []model.AnswerOption
	if !question.IsFreeAnswer {
		ids := mergeSelectionIDs(in.AnswerID, in.AnswerIDs)
		if len(ids) > 0 {
			selections, err = s.questions.FindOptionsByIDs(ids)
			if err != nil {
				return nil, err
			}
			if len(selections) != len(ids) {
				return nil, util.ErrOptionNotInQuestion
			}
			for i := range selections {
				if selections[i].QuestionID != question.ID {
					return nil, util.ErrOptionNotInQuestion
				}
			}
		}
	}

	answer, err := s.answers.FindByPassingAndQuestion(passing.ID, question.ID)
	if err != nil {
		return nil, err
	}
	created := answer == nil
	if created {
		answer = &model.UserAnswer{
			PassingID:  passing.ID,
			QuestionID: question.ID,
		}
	}
	answer.Question = *question

	if question.IsFreeAnswer {
		answer.Text = in.Text
		if in.File != nil {
			url, err := s.uploadAttachment(ctx, in.File)
			if err != nil {
				return nil, err
			}
			answer.FileURL = url
		}
		// An edited free answer goes back to the grading queue.
		answer.UserPoints = nil
		answer.VerifierID = nil
	} else {
		answer.AnswerID = nil
		answer.Text = ""
	}

	if created {
		if err := s.answers.Create(answer); err != nil {
			return nil, err
		}
	} else if err := s.answers.Save(answer); err != nil {
		return nil, err
	}
	if !question.IsFreeAnswer {
		if err := s.answers.ReplaceSelections(answer, selections); err != nil {
			return nil, err
		}
		answer.Answers = selections
	}

	// Trial attempts are practice only: answering never finishes them.
	if !passing.IsTrial {
		if err := s.finishWhenComplete(passing); err != nil {
			return nil, err
		}
	}
	return answer, nil
}

// finishWhenComplete closes the passing as soon as every question of the
// task has an answer on file.
func (s *AnswerService) finishWhenComplete(passing *model.Passing) error {
	answered, err := s.answers.CountByPassing(passing.ID)
	if err != nil {
		return err
	}
	total, err := s.tasks.QuestionCount(passing.TaskID)
	if err != nil {
		return err
	}
	if total == 0 || answered < total {
		return nil
	}
	_, err = s.engine.Evaluate(passing.ID, true)
	return err
}

// GradeAnswer records a moderator's verdict on a free answer and
// re-checks the passing so it can leave the on-check status.
func (s *AnswerService) GradeAnswer(graderID, answerID uint, points int) (*model.UserAnswer, error) {
	answer, err := s.answers.FindByID(answerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAnswerNotFound
		}
		return nil, err
	}
	if !answer.Question.IsFreeAnswer {
		return nil, util.ErrNotFreeAnswer
	}
	if points < 0 || points > answer.Question.Score {
		return nil, util.ErrInvalidPoints
	}

	answer.UserPoints = &points
	answer.VerifierID = &graderID
	if err := s.answers.Save(answer); err != nil {
		return nil, err
	}
	passing, err := s.passings.FindByID(answer.PassingID)
	if err != nil {
		return nil, err
	}
	if !passing.IsTrial {
		if _, err := s.engine.Recheck(answer.PassingID); err != nil {
			return nil, err
		}
	}
	return answer, nil
}

// ListForPassing returns the answers of a passing, checking ownership
// unless the caller moderates.
func (s *AnswerService) ListForPassing(userID, passingID uint, moderator bool) ([]model.UserAnswer, error) {
	passing, err := s.passings.FindByID(passingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrPassingNotFound
		}
		return nil, err
	}
	if !moderator && passing.UserID != userID {
		return nil, util.ErrPassingNotOwn
	}
	return s.answers.ListByPassing(passingID)
}

// ListUngraded returns the free answers still waiting for a moderator,
// optionally narrowed to one task.
func (s *AnswerService) ListUngraded(taskID uint, page, limit int) ([]model.UserAnswer, int64, error) {
	return s.answers.ListUngradedFree(taskID, page, limit)
}

func (s *AnswerService) uploadAttachment(ctx context.Context, file *multipart.FileHeader) (string, error) {
	if !util.HasAllowedExtension(file.Filename, util.AllowedAnswerFileExtensions) {
		return "", fmt.Errorf("file extension not allowed: %s", filepath.Ext(file.Filename))
	}
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = util.MimeOctetStream
	}
	name := fmt.Sprintf("answers/%s%s", uuid.New().String(), filepath.Ext(file.Filename))
	return s.storage.Upload(ctx, name, src, file.Size, contentType)
}

func mergeSelectionIDs(single *uint, many []uint) []uint {
	seen := make(map[uint]struct{}, len(many)+1)
	out := make([]uint, 0, len(many)+1)
	for _, id := range many {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if single != nil {
		if _, ok := seen[*single]; !ok {
			out = append(out, *single)
		}
	}
	return out
}
