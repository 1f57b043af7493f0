package service

import (
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"lms_testing_backend/internal/model"
)

// In-memory stores backing the engine tests.

type fakePassings struct {
	mu     sync.Mutex
	byID   map[uint]*model.Passing
	nextID uint
}

func newFakePassings() *fakePassings {
	return &fakePassings{byID: make(map[uint]*model.Passing)}
}

func (f *fakePassings) Create(p *model.Passing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	p.ID = f.nextID
	cp := *p
	f.byID[p.ID] = &cp
	return nil
}

func (f *fakePassings) FindByID(id uint) (*model.Passing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePassings) UpdateLocked(id uint, fn func(p *model.Passing) (bool, error)) error {
	f.mu.Lock()
	p, ok := f.byID[id]
	if !ok {
		f.mu.Unlock()
		return gorm.ErrRecordNotFound
	}
	cp := *p
	// The mutex is not reentrant and fn reads back through the store, so
	// release it while fn runs and re-acquire to persist.
	f.mu.Unlock()

	save, err := fn(&cp)
	if err != nil {
		return err
	}
	if save {
		f.mu.Lock()
		f.byID[id] = &cp
		f.mu.Unlock()
	}
	return nil
}

func (f *fakePassings) Count(taskID, userID uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, p := range f.byID {
		if p.TaskID == taskID && p.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (f *fakePassings) CountTrial(taskID, userID uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, p := range f.byID {
		if p.TaskID == taskID && p.UserID == userID && p.IsTrial {
			n++
		}
	}
	return n, nil
}

func (f *fakePassings) LatestNonTrial(taskID, userID uint) (*model.Passing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *model.Passing
	for _, p := range f.byID {
		if p.TaskID != taskID || p.UserID != userID || p.IsTrial {
			continue
		}
		if latest == nil || p.ID > latest.ID {
			latest = p
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (f *fakePassings) ListByUser(userID uint, taskID uint, page, limit int) ([]model.Passing, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Passing
	for _, p := range f.byID {
		if p.UserID != userID {
			continue
		}
		if taskID != 0 && p.TaskID != taskID {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, int64(len(out)), nil
}

type fakeTasks struct {
	byID      map[uint]*model.Task
	questions map[uint][]model.Question
}

func newFakeTasks() *fakeTasks {
	return &fakeTasks{
		byID:      make(map[uint]*model.Task),
		questions: make(map[uint][]model.Question),
	}
}

func (f *fakeTasks) add(task model.Task, questions ...model.Question) *model.Task {
	cp := task
	f.byID[cp.ID] = &cp
	f.questions[cp.ID] = questions
	return &cp
}

func (f *fakeTasks) FindByID(id uint) (*model.Task, error) {
	t, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTasks) QuestionsScore(taskID uint) (int, error) {
	total := 0
	for _, q := range f.questions[taskID] {
		total += q.Score
	}
	return total, nil
}

func (f *fakeTasks) QuestionCount(taskID uint) (int64, error) {
	return int64(len(f.questions[taskID])), nil
}

func (f *fakeTasks) HasQuestion(taskID, questionID uint) (bool, error) {
	for _, q := range f.questions[taskID] {
		if q.ID == questionID {
			return true, nil
		}
	}
	return false, nil
}

type fakeQuestions struct {
	byID map[uint]model.Question
}

func newFakeQuestions() *fakeQuestions {
	return &fakeQuestions{byID: make(map[uint]model.Question)}
}

func (f *fakeQuestions) add(questions ...model.Question) {
	for _, q := range questions {
		f.byID[q.ID] = q
	}
}

func (f *fakeQuestions) FindByID(id uint) (*model.Question, error) {
	q, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := q
	return &cp, nil
}

func (f *fakeQuestions) FindOptionsByIDs(ids []uint) ([]model.AnswerOption, error) {
	want := make(map[uint]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []model.AnswerOption
	for _, q := range f.byID {
		for _, opt := range q.Options {
			if want[opt.ID] {
				out = append(out, opt)
			}
		}
	}
	return out, nil
}

type fakeAnswers struct {
	mu     sync.Mutex
	byID   map[uint]*model.UserAnswer
	nextID uint
}

func newFakeAnswers() *fakeAnswers {
	return &fakeAnswers{byID: make(map[uint]*model.UserAnswer)}
}

func (f *fakeAnswers) Create(ua *model.UserAnswer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	ua.ID = f.nextID
	cp := *ua
	f.byID[ua.ID] = &cp
	return nil
}

func (f *fakeAnswers) Save(ua *model.UserAnswer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *ua
	f.byID[ua.ID] = &cp
	return nil
}

func (f *fakeAnswers) FindByID(id uint) (*model.UserAnswer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ua, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *ua
	return &cp, nil
}

func (f *fakeAnswers) FindByPassingAndQuestion(passingID, questionID uint) (*model.UserAnswer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ua := range f.byID {
		if ua.PassingID == passingID && ua.QuestionID == questionID {
			cp := *ua
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeAnswers) ListByPassing(passingID uint) ([]model.UserAnswer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.UserAnswer
	for _, ua := range f.byID {
		if ua.PassingID == passingID {
			out = append(out, *ua)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeAnswers) CountByPassing(passingID uint) (int64, error) {
	list, _ := f.ListByPassing(passingID)
	return int64(len(list)), nil
}

func (f *fakeAnswers) HasUngradedFreeAnswers(passingID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ua := range f.byID {
		if ua.PassingID == passingID && ua.Question.IsFreeAnswer && ua.UserPoints == nil {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAnswers) ReplaceSelections(ua *model.UserAnswer, options []model.AnswerOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.byID[ua.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Answers = append([]model.AnswerOption(nil), options...)
	return nil
}

func (f *fakeAnswers) ListUngradedFree(taskID uint, page, limit int) ([]model.UserAnswer, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.UserAnswer
	for _, ua := range f.byID {
		if ua.Question.IsFreeAnswer && ua.UserPoints == nil {
			out = append(out, *ua)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

type fakeScheduler struct {
	mu        sync.Mutex
	scheduled map[uint]time.Duration
	cancelled map[uint]bool
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{
		scheduled: make(map[uint]time.Duration),
		cancelled: make(map[uint]bool),
	}
}

func (f *fakeScheduler) Schedule(passingID uint, delay time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scheduled[passingID] = delay
	return nil
}

func (f *fakeScheduler) Cancel(passingID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled[passingID] = true
	return nil
}
