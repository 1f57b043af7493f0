package service

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	"lms_testing_backend/internal/model"
	"lms_testing_backend/internal/util"
	"lms_testing_backend/pkg/monitoring"
)

// PassingService owns the attempt ledger and the passing state machine:
// admission of new attempts, scoring of finished ones and the terminal
// status transitions.
type PassingService struct {
	passings  PassingStore
	tasks     TaskStore
	answers   UserAnswerStore
	scheduler AttemptScheduler

	now func() time.Time
}

func NewPassingService(passings PassingStore, tasks TaskStore, answers UserAnswerStore, scheduler AttemptScheduler) *PassingService {
	return &PassingService{
		passings:  passings,
		tasks:     tasks,
		answers:   answers,
		scheduler: scheduler,
		now:       time.Now,
	}
}

// CreatePassing admits a new attempt at the task, enforcing the trial
// quota for trial attempts and the retake cooldown for graded ones.
// Admission failures come back as *util.AdmissionError.
func (s *PassingService) CreatePassing(userID, taskID uint, isTrial bool) (*model.Passing, error) {
	task, err := s.tasks.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrTaskNotFound
		}
		return nil, err
	}
	if !task.IsActive {
		return nil, util.ErrTaskNotActive
	}

	if isTrial {
		used, err := s.passings.CountTrial(taskID, userID)
		if err != nil {
			return nil, err
		}
		if used >= int64(task.TrialAttempts) {
			return nil, util.NewTrialQuotaError(taskID)
		}
	} else {
		wait, err := s.retakeWait(task, userID)
		if err != nil {
			return nil, err
		}
		if wait > 0 {
			return nil, util.NewRetakeError(wait)
		}
	}

	// Snapshot the maximum score now so later edits to the question set
	// cannot skew the percentage of an attempt already underway.
	maxPoints, err := s.tasks.QuestionsScore(taskID)
	if err != nil {
		return nil, err
	}

	passing := &model.Passing{
		TaskID:        taskID,
		UserID:        userID,
		StartTime:     s.now(),
		SuccessPassed: model.PassingNotFinished,
		IsTrial:       isTrial,
		MaxPoints:     maxPoints,
	}
	if err := s.passings.Create(passing); err != nil {
		return nil, err
	}

	if !isTrial {
		delay := time.Duration(task.TravelTimeSeconds()) * time.Second
		if err := s.scheduler.Schedule(passing.ID, delay); err != nil {
			return nil, fmt.Errorf("schedule close for passing %d: %w", passing.ID, err)
		}
	}

	monitoring.PassingsCreated.WithLabelValues(trialLabel(isTrial)).Inc()
	return passing, nil
}

// RetakeWait reports how many seconds remain before the user may start
// another graded attempt at the task. Zero means the task is open.
func (s *PassingService) RetakeWait(taskID, userID uint) (float64, error) {
	task, err := s.tasks.FindByID(taskID)
	if err != nil {
		return 0, err
	}
	return s.retakeWait(task, userID)
}

func (s *PassingService) retakeWait(task *model.Task, userID uint) (float64, error) {
	prev, err := s.passings.LatestNonTrial(task.ID, userID)
	if err != nil {
		return 0, err
	}
	if prev == nil || prev.FinishTime == nil || prev.OutOfTime {
		return 0, nil
	}
	elapsed := s.now().Sub(*prev.FinishTime)
	cooldown := time.Duration(task.RetakeSeconds) * time.Second
	if elapsed >= cooldown {
		return 0, nil
	}
	return (cooldown - elapsed).Seconds(), nil
}

// Evaluate runs the state machine over the passing. With finish set the
// attempt is stamped as finished (the stamp is written once and never
// moved) before scoring. It reports whether the attempt ended PASSED.
func (s *PassingService) Evaluate(passingID uint, finish bool) (bool, error) {
	return s.evaluate(passingID, finish, false)
}

// Recheck re-runs scoring on an attempt that already reached a terminal
// status, typically after a moderator graded or re-graded a free-text
// answer. It is the only path that bypasses the terminal guard.
func (s *PassingService) Recheck(passingID uint) (bool, error) {
	return s.evaluate(passingID, false, true)
}

func (s *PassingService) evaluate(passingID uint, finish, recheck bool) (bool, error) {
	var (
		passed bool
		status = -1
	)
	err := s.passings.UpdateLocked(passingID, func(p *model.Passing) (bool, error) {
		if p.IsTerminal() && !recheck {
			return false, nil
		}

		task, err := s.tasks.FindByID(p.TaskID)
		if err != nil {
			return false, err
		}

		if finish && p.FinishTime == nil {
			now := s.now()
			p.FinishTime = &now
		}

		// Overrunning the time budget trumps everything else, including
		// any score the user may have accumulated.
		if elapsed, ok := p.TravelTime(); ok && float64(task.TravelTimeSeconds())-elapsed < 0 {
			p.SuccessPassed = model.PassingLimit
			status = p.SuccessPassed
			return true, nil
		}

		if p.IsTrial {
			// Trials only keep the running score current; they never
			// leave the in-progress status.
			points, err := s.totalPoints(p.ID)
			if err != nil {
				return false, err
			}
			p.UserPoints = points
			status = p.SuccessPassed
			return true, nil
		}

		used, err := s.passings.Count(p.TaskID, p.UserID)
		if err != nil {
			return false, err
		}
		if used > int64(task.Attempts) {
			p.SuccessPassed = model.PassingAttempts
			status = p.SuccessPassed
			return true, nil
		}

		pending, err := s.answers.HasUngradedFreeAnswers(p.ID)
		if err != nil {
			return false, err
		}
		if pending {
			p.SuccessPassed = model.PassingOnCheck
			status = p.SuccessPassed
			return true, nil
		}

		points, err := s.totalPoints(p.ID)
		if err != nil {
			return false, err
		}
		p.UserPoints = points

		rate, known := percentRate(p.UserPoints, p.MaxPoints)
		threshold := float64(task.PassingPercent)
		switch {
		case known && rate != 0 && float64(rate) < threshold:
			p.SuccessPassed = model.PassingScore
		case known && rate != 0 && float64(rate) >= threshold-0.1:
			p.SuccessPassed = model.PassingPassed
			passed = true
		case known && rate == 0:
			p.SuccessPassed = model.PassingScore
		}
		status = p.SuccessPassed
		return true, nil
	})
	if err != nil {
		return false, err
	}

	if status >= 0 {
		monitoring.EvaluationsTotal.WithLabelValues(model.StatusText(status)).Inc()
	}
	if finish {
		// Consumes the pending deadline; a no-op if it already fired.
		_ = s.scheduler.Cancel(passingID)
	}
	return passed, nil
}

// SetOutOfTime flips the moderator flag that waives the retake cooldown
// after this attempt, letting the user start over without waiting.
func (s *PassingService) SetOutOfTime(passingID uint, value bool) (*model.Passing, error) {
	err := s.passings.UpdateLocked(passingID, func(p *model.Passing) (bool, error) {
		if p.OutOfTime == value {
			return false, nil
		}
		p.OutOfTime = value
		return true, nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrPassingNotFound
		}
		return nil, err
	}
	return s.passings.FindByID(passingID)
}

// ForceClose finishes an attempt whose time budget elapsed without the
// user completing it. A vanished passing is not an error, and one the
// user already finished is left alone.
func (s *PassingService) ForceClose(passingID uint) error {
	p, err := s.passings.FindByID(passingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if p.FinishTime != nil {
		return nil
	}
	if _, err := s.Evaluate(passingID, true); err != nil {
		return err
	}
	monitoring.ForceClosesTotal.Inc()
	return nil
}

// ResponseRate renders the human-facing score summary for an attempt:
// "correct:total" for trials and a rounded-up percentage otherwise.
func (s *PassingService) ResponseRate(p *model.Passing) (string, error) {
	if p.IsTrial {
		answers, err := s.answers.ListByPassing(p.ID)
		if err != nil {
			return "", err
		}
		correct := 0
		for i := range answers {
			if answers[i].Points() == answers[i].MaxPoints() {
				correct++
			}
		}
		return fmt.Sprintf("%d:%d", correct, len(answers)), nil
	}
	rate, known := percentRate(p.UserPoints, p.MaxPoints)
	if !known {
		return "no data", nil
	}
	return fmt.Sprintf("%d%%", rate), nil
}

func (s *PassingService) GetPassing(passingID uint) (*model.Passing, error) {
	p, err := s.passings.FindByID(passingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrPassingNotFound
		}
		return nil, err
	}
	return p, nil
}

// ListPassings pages through a user's own attempts, newest first, with
// an optional task filter.
func (s *PassingService) ListPassings(userID, taskID uint, page, limit int) ([]model.Passing, int64, error) {
	return s.passings.ListByUser(userID, taskID, page, limit)
}

func (s *PassingService) totalPoints(passingID uint) (int, error) {
	answers, err := s.answers.ListByPassing(passingID)
	if err != nil {
		return 0, err
	}
	total := 0
	for i := range answers {
		total += answers[i].Points()
	}
	return total, nil
}

// percentRate is the score as a whole percentage, rounded up. It is
// unknown when the attempt has no scorable questions.
func percentRate(userPoints, maxPoints int) (int, bool) {
	if maxPoints == 0 {
		return 0, false
	}
	return int(math.Ceil(float64(userPoints) / float64(maxPoints) * 100)), true
}

func trialLabel(isTrial bool) string {
	if isTrial {
		return "trial"
	}
	return "graded"
}
