package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"lms_testing_backend/internal/model"
	"lms_testing_backend/internal/util"
)

type fakeUploader struct {
	uploads []string
}

func (f *fakeUploader) Upload(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	f.uploads = append(f.uploads, filename)
	return "/uploads/" + filename, nil
}

type answerFixture struct {
	*engineFixture
	questions *fakeQuestions
	uploader  *fakeUploader
	svc       *AnswerService
}

func newAnswerFixture() *answerFixture {
	fx := &answerFixture{
		engineFixture: newEngineFixture(),
		questions:     newFakeQuestions(),
		uploader:      &fakeUploader{},
	}
	fx.svc = NewAnswerService(fx.answers, fx.passings, fx.tasks, fx.questions, fx.engine, fx.uploader)
	return fx
}

func (fx *answerFixture) addTask(task model.Task, questions ...model.Question) {
	fx.tasks.add(task, questions...)
	fx.questions.add(questions...)
}

func rightOption(q model.Question) model.AnswerOption { return q.Options[0] }
func wrongOption(q model.Question) model.AnswerOption { return q.Options[1] }

func TestSubmitSingleChoiceMergesIntoSet(t *testing.T) {
	fx := newAnswerFixture()
	q := choiceQuestion(1, 5)
	fx.addTask(defaultTask(7), q)
	p := fx.mustCreate(t, 1, 7, false)

	rightID := rightOption(q).ID
	answer, err := fx.svc.SubmitAnswer(context.Background(), 1, SubmitAnswerInput{
		PassingID:  p.ID,
		QuestionID: q.ID,
		AnswerID:   &rightID,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(answer.Answers) != 1 || answer.Answers[0].ID != rightID {
		t.Fatalf("expected the single selection in the set, got %+v", answer.Answers)
	}

	// The last answer finishes and scores the attempt.
	got := fx.status(t, p.ID)
	if got.SuccessPassed != model.PassingPassed {
		t.Fatalf("expected the attempt to finish PASSED, got %d", got.SuccessPassed)
	}
	if !fx.sched.cancelled[p.ID] {
		t.Fatalf("expected the close deadline to be cancelled")
	}
}

func TestResubmitReplacesSelection(t *testing.T) {
	fx := newAnswerFixture()
	q1, q2 := choiceQuestion(1, 2), choiceQuestion(2, 3)
	fx.addTask(defaultTask(7), q1, q2)
	p := fx.mustCreate(t, 1, 7, false)

	ctx := context.Background()
	if _, err := fx.svc.SubmitAnswer(ctx, 1, SubmitAnswerInput{
		PassingID:  p.ID,
		QuestionID: q1.ID,
		AnswerIDs:  []uint{wrongOption(q1).ID},
	}); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	answer, err := fx.svc.SubmitAnswer(ctx, 1, SubmitAnswerInput{
		PassingID:  p.ID,
		QuestionID: q1.ID,
		AnswerIDs:  []uint{rightOption(q1).ID},
	})
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}

	count, _ := fx.answers.CountByPassing(p.ID)
	if count != 1 {
		t.Fatalf("expected one answer row per question, got %d", count)
	}
	if len(answer.Answers) != 1 || answer.Answers[0].ID != rightOption(q1).ID {
		t.Fatalf("expected the replacement selection, got %+v", answer.Answers)
	}
	// Only one of two questions is answered: still in progress.
	if got := fx.status(t, p.ID); got.IsFinished() {
		t.Fatalf("partial attempts must not auto-finish")
	}
}

func TestSubmitValidatesReferences(t *testing.T) {
	fx := newAnswerFixture()
	q := choiceQuestion(1, 5)
	stray := choiceQuestion(2, 3)
	fx.addTask(defaultTask(7), q)
	fx.questions.add(stray)
	p := fx.mustCreate(t, 1, 7, false)
	ctx := context.Background()

	if _, err := fx.svc.SubmitAnswer(ctx, 2, SubmitAnswerInput{PassingID: p.ID, QuestionID: q.ID}); !errors.Is(err, util.ErrPassingNotOwn) {
		t.Fatalf("expected ErrPassingNotOwn, got %v", err)
	}
	if _, err := fx.svc.SubmitAnswer(ctx, 1, SubmitAnswerInput{PassingID: p.ID, QuestionID: stray.ID}); !errors.Is(err, util.ErrQuestionNotInTask) {
		t.Fatalf("expected ErrQuestionNotInTask, got %v", err)
	}
	if _, err := fx.svc.SubmitAnswer(ctx, 1, SubmitAnswerInput{
		PassingID:  p.ID,
		QuestionID: q.ID,
		AnswerIDs:  []uint{rightOption(stray).ID},
	}); !errors.Is(err, util.ErrOptionNotInQuestion) {
		t.Fatalf("expected ErrOptionNotInQuestion, got %v", err)
	}
	if _, err := fx.svc.SubmitAnswer(ctx, 1, SubmitAnswerInput{PassingID: 999, QuestionID: q.ID}); !errors.Is(err, util.ErrPassingNotFound) {
		t.Fatalf("expected ErrPassingNotFound, got %v", err)
	}
}

func TestSubmitToFinishedPassingRejected(t *testing.T) {
	fx := newAnswerFixture()
	q := choiceQuestion(1, 5)
	fx.addTask(defaultTask(7), q)
	p := fx.mustCreate(t, 1, 7, false)

	if _, err := fx.engine.Evaluate(p.ID, true); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	_, err := fx.svc.SubmitAnswer(context.Background(), 1, SubmitAnswerInput{
		PassingID:  p.ID,
		QuestionID: q.ID,
	})
	if !errors.Is(err, util.ErrPassingFinished) {
		t.Fatalf("expected ErrPassingFinished, got %v", err)
	}
}

func TestTrialAnswersNeverFinishTheAttempt(t *testing.T) {
	fx := newAnswerFixture()
	q := choiceQuestion(1, 5)
	fx.addTask(defaultTask(7), q)
	p := fx.mustCreate(t, 1, 7, true)
	ctx := context.Background()

	rightID := rightOption(q).ID
	if _, err := fx.svc.SubmitAnswer(ctx, 1, SubmitAnswerInput{
		PassingID:  p.ID,
		QuestionID: q.ID,
		AnswerID:   &rightID,
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	got := fx.status(t, p.ID)
	if got.FinishTime != nil {
		t.Fatalf("answering must not finish a trial, got finish time %v", got.FinishTime)
	}
	if got.SuccessPassed != model.PassingNotFinished {
		t.Fatalf("expected the trial to stay in progress, got %d", got.SuccessPassed)
	}

	// Practice keeps going, even long past the task's time budget.
	fx.advance(31 * time.Minute)
	wrongID := wrongOption(q).ID
	if _, err := fx.svc.SubmitAnswer(ctx, 1, SubmitAnswerInput{
		PassingID:  p.ID,
		QuestionID: q.ID,
		AnswerID:   &wrongID,
	}); err != nil {
		t.Fatalf("resubmit after the budget: %v", err)
	}
	if got := fx.status(t, p.ID); got.SuccessPassed != model.PassingNotFinished {
		t.Fatalf("expected the trial to stay in progress, got %d", got.SuccessPassed)
	}
}

func TestGradingTrialAnswerSkipsRecheck(t *testing.T) {
	fx := newAnswerFixture()
	free := freeQuestion(1, 5)
	fx.addTask(defaultTask(7), free)
	p := fx.mustCreate(t, 1, 7, true)

	if _, err := fx.svc.SubmitAnswer(context.Background(), 1, SubmitAnswerInput{
		PassingID:  p.ID,
		QuestionID: free.ID,
		Text:       "draft reasoning",
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	answers, _ := fx.answers.ListByPassing(p.ID)
	if _, err := fx.svc.GradeAnswer(42, answers[0].ID, 5); err != nil {
		t.Fatalf("grade: %v", err)
	}

	got := fx.status(t, p.ID)
	if got.SuccessPassed != model.PassingNotFinished || got.FinishTime != nil {
		t.Fatalf("grading must not move a trial, got status %d finish %v", got.SuccessPassed, got.FinishTime)
	}
}

func TestGradeFreeAnswerMovesAttemptOffCheck(t *testing.T) {
	fx := newAnswerFixture()
	free := freeQuestion(1, 5)
	fx.addTask(defaultTask(7), free)
	p := fx.mustCreate(t, 1, 7, false)
	ctx := context.Background()

	if _, err := fx.svc.SubmitAnswer(ctx, 1, SubmitAnswerInput{
		PassingID:  p.ID,
		QuestionID: free.ID,
		Text:       "my essay",
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got := fx.status(t, p.ID); got.SuccessPassed != model.PassingOnCheck {
		t.Fatalf("expected ON_CHECK after auto-finish, got %d", got.SuccessPassed)
	}

	pending, total, err := fx.svc.ListUngraded(0, 1, 20)
	if err != nil {
		t.Fatalf("list ungraded: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected one pending answer, got %d", total)
	}

	graded, err := fx.svc.GradeAnswer(42, pending[0].ID, 4)
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if graded.VerifierID == nil || *graded.VerifierID != 42 {
		t.Fatalf("expected verifier 42, got %v", graded.VerifierID)
	}
	if got := fx.status(t, p.ID); got.SuccessPassed != model.PassingPassed {
		t.Fatalf("expected PASSED after grading, got %d", got.SuccessPassed)
	}

	if _, _, err := fx.svc.ListUngraded(0, 1, 20); err != nil {
		t.Fatalf("list ungraded: %v", err)
	}
	if _, total, _ := fx.svc.ListUngraded(0, 1, 20); total != 0 {
		t.Fatalf("expected the queue to drain, got %d", total)
	}
}

func TestGradeValidation(t *testing.T) {
	fx := newAnswerFixture()
	free := freeQuestion(1, 5)
	choice := choiceQuestion(2, 3)
	fx.addTask(defaultTask(7), free, choice)
	p := fx.mustCreate(t, 1, 7, false)
	ctx := context.Background()

	if _, err := fx.svc.SubmitAnswer(ctx, 1, SubmitAnswerInput{PassingID: p.ID, QuestionID: free.ID, Text: "x"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	choiceAnswer, err := fx.svc.SubmitAnswer(ctx, 1, SubmitAnswerInput{
		PassingID:  p.ID,
		QuestionID: choice.ID,
		AnswerIDs:  []uint{rightOption(choice).ID},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	pending, _, _ := fx.svc.ListUngraded(0, 1, 20)
	if _, err := fx.svc.GradeAnswer(42, pending[0].ID, 6); !errors.Is(err, util.ErrInvalidPoints) {
		t.Fatalf("expected ErrInvalidPoints, got %v", err)
	}
	if _, err := fx.svc.GradeAnswer(42, choiceAnswer.ID, 1); !errors.Is(err, util.ErrNotFreeAnswer) {
		t.Fatalf("expected ErrNotFreeAnswer, got %v", err)
	}
	if _, err := fx.svc.GradeAnswer(42, 999, 1); !errors.Is(err, util.ErrAnswerNotFound) {
		t.Fatalf("expected ErrAnswerNotFound, got %v", err)
	}
}

func TestEditedFreeAnswerLosesItsGrade(t *testing.T) {
	fx := newAnswerFixture()
	free := freeQuestion(1, 5)
	choice := choiceQuestion(2, 3)
	fx.addTask(defaultTask(7), free, choice)
	p := fx.mustCreate(t, 1, 7, false)
	ctx := context.Background()

	first, err := fx.svc.SubmitAnswer(ctx, 1, SubmitAnswerInput{PassingID: p.ID, QuestionID: free.ID, Text: "draft"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	// Pretend a moderator already graded the draft.
	stored, _ := fx.answers.FindByID(first.ID)
	points, verifier := 5, uint(42)
	stored.UserPoints = &points
	stored.VerifierID = &verifier
	if err := fx.answers.Save(stored); err != nil {
		t.Fatalf("save: %v", err)
	}

	edited, err := fx.svc.SubmitAnswer(ctx, 1, SubmitAnswerInput{PassingID: p.ID, QuestionID: free.ID, Text: "final version"})
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if edited.UserPoints != nil || edited.VerifierID != nil {
		t.Fatalf("an edited free answer must go back to the grading queue: %+v", edited)
	}
}

func TestListForPassingOwnership(t *testing.T) {
	fx := newAnswerFixture()
	q := choiceQuestion(1, 5)
	fx.addTask(defaultTask(7), q)
	p := fx.mustCreate(t, 1, 7, false)

	if _, err := fx.svc.ListForPassing(2, p.ID, false); !errors.Is(err, util.ErrPassingNotOwn) {
		t.Fatalf("expected ErrPassingNotOwn, got %v", err)
	}
	if _, err := fx.svc.ListForPassing(2, p.ID, true); err != nil {
		t.Fatalf("a moderator may read any passing, got %v", err)
	}
	if _, err := fx.svc.ListForPassing(1, p.ID, false); err != nil {
		t.Fatalf("the owner may read the passing, got %v", err)
	}
}
