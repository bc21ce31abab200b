package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/and161185/peakflow/internal/errs"
	"github.com/and161185/peakflow/internal/limiter"
	"github.com/and161185/peakflow/internal/mailer"
	"github.com/and161185/peakflow/internal/model"
	"github.com/and161185/peakflow/internal/repository"
	"github.com/gofrs/uuid/v5"
)

/************ users ************/
type fakeUsers struct {
	byEmail map[string]*model.User

	createErr error
	getErr    error
	updateErr error
}

var _ repository.UserRepository = (*fakeUsers)(nil)

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	if f.byEmail == nil {
		f.byEmail = map[string]*model.User{}
	}
	if _, exists := f.byEmail[u.Email]; exists {
		return errs.ErrAlreadyExists
	}
	cpy := *u
	f.byEmail[u.Email] = &cpy
	return nil
}
func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			c := *u
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}
func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *u
	return &c, nil
}
func (f *fakeUsers) UpdatePassword(_ context.Context, id uuid.UUID, pwdHash, salt []byte) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	for _, u := range f.byEmail {
		if u.ID == id {
			u.PwdHash = append([]byte(nil), pwdHash...)
			u.SaltAuth = append([]byte(nil), salt...)
			return nil
		}
	}
	return errs.ErrNotFound
}

/************ limiter ************/
type fakeLimiter struct {
	allowOK  bool
	allowErr error

	failBlocked bool
	failErr     error

	successErr error

	allowCalls   int
	failureCalls int
	successCalls int
	lastSubject  string
}

var _ limiter.Limiter = (*fakeLimiter)(nil)

func (l *fakeLimiter) Allow(_ context.Context, subject string, _ []byte) (bool, time.Duration, error) {
	l.allowCalls++
	l.lastSubject = subject
	return l.allowOK, 0, l.allowErr
}
func (l *fakeLimiter) Success(context.Context, string, []byte) error {
	l.successCalls++
	return l.successErr
}
func (l *fakeLimiter) Failure(context.Context, string, []byte) (bool, time.Duration, error) {
	l.failureCalls++
	return l.failBlocked, 0, l.failErr
}

/************ readings ************/
type fakeReadings struct {
	mu   sync.Mutex
	rows map[uuid.UUID]model.Reading

	insertErr error
	deleteErr error
	listErr   error
	byDateErr error

	insertCalls int
}

var _ repository.ReadingRepository = (*fakeReadings)(nil)

func (f *fakeReadings) Insert(_ context.Context, r *model.Reading) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insertCalls++
	if f.insertErr != nil {
		return f.insertErr
	}
	if f.rows == nil {
		f.rows = map[uuid.UUID]model.Reading{}
	}
	if _, ok := f.rows[r.ID]; ok {
		return errs.ErrAlreadyExists
	}
	f.rows[r.ID] = *r
	return nil
}
func (f *fakeReadings) Delete(_ context.Context, userID, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	r, ok := f.rows[id]
	if !ok || r.UserID != userID {
		return errs.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}
func (f *fakeReadings) DeleteByDate(_ context.Context, userID uuid.UUID, date string) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.byDateErr != nil {
		return nil, f.byDateErr
	}
	var ids []uuid.UUID
	for id, r := range f.rows {
		if r.UserID == userID && r.Date == date {
			ids = append(ids, id)
			delete(f.rows, id)
		}
	}
	return ids, nil
}
func (f *fakeReadings) ReplaceDay(_ context.Context, r *model.Reading) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insertCalls++
	if f.byDateErr != nil {
		return nil, f.byDateErr
	}
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	if f.rows == nil {
		f.rows = map[uuid.UUID]model.Reading{}
	}
	if _, ok := f.rows[r.ID]; ok {
		return nil, errs.ErrAlreadyExists
	}
	var ids []uuid.UUID
	for id, old := range f.rows {
		if old.UserID == r.UserID && old.Date == r.Date {
			ids = append(ids, id)
			delete(f.rows, id)
		}
	}
	f.rows[r.ID] = *r
	return ids, nil
}
func (f *fakeReadings) ListByUser(_ context.Context, userID uuid.UUID) ([]model.Reading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []model.Reading
	for _, r := range f.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

func (f *fakeReadings) seed(rs ...model.Reading) {
	if f.rows == nil {
		f.rows = map[uuid.UUID]model.Reading{}
	}
	for _, r := range rs {
		f.rows[r.ID] = r
	}
}

/************ settings ************/
type fakeSettings struct {
	rows map[uuid.UUID]model.Settings

	getErr    error
	upsertErr error
}

var _ repository.SettingsRepository = (*fakeSettings)(nil)

func (f *fakeSettings) Get(_ context.Context, userID uuid.UUID) (*model.Settings, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	s, ok := f.rows[userID]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &s, nil
}
func (f *fakeSettings) Upsert(_ context.Context, userID uuid.UUID, s model.Settings) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	if f.rows == nil {
		f.rows = map[uuid.UUID]model.Settings{}
	}
	f.rows[userID] = s
	return nil
}

/************ reset codes ************/
type fakeCodes struct {
	rows []*model.ResetCode

	insertErr error
	findErr   error
	markErr   error
}

var _ repository.ResetCodeRepository = (*fakeCodes)(nil)

func (f *fakeCodes) Insert(_ context.Context, rc *model.ResetCode) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	c := *rc
	f.rows = append(f.rows, &c)
	return nil
}
func (f *fakeCodes) FindValid(_ context.Context, email, code string, now time.Time) (*model.ResetCode, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	for i := len(f.rows) - 1; i >= 0; i-- {
		rc := f.rows[i]
		if rc.Email == email && rc.Code == code && !rc.Used && rc.ExpiresAt.After(now) {
			c := *rc
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}
func (f *fakeCodes) MarkUsed(_ context.Context, id uuid.UUID) error {
	if f.markErr != nil {
		return f.markErr
	}
	for _, rc := range f.rows {
		if rc.ID == id && !rc.Used {
			rc.Used = true
			return nil
		}
	}
	return errs.ErrNotFound
}

/************ mailer ************/
type fakeMailer struct {
	sent []mailer.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg mailer.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}
