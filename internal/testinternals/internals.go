// Package testinternals provides in-memory stand-ins for the MySQL-backed
// repositories, the identity issuer and the mail relay.  They mirror the
// sentinel errors of the real implementations so service, handler and router
// tests can run without a database.
package testinternals

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/guru-1432/workout-app/internal/model"
	"github.com/guru-1432/workout-app/internal/repository"
)

// DB is the shared in-memory state.  The typed stores returned by its
// accessors enforce the same references the schema does.
type DB struct {
	mu sync.Mutex

	nextID    uint64
	users     map[uint64]*model.User
	muscles   map[uint64]model.Muscle
	exercises map[uint64]model.Exercise
	sessions  map[uint64]*model.WorkoutSession

	// FailSetInsertAfter makes CreateSession fail once that many sets have
	// been staged.  Zero disables it.
	FailSetInsertAfter int
}

func NewDB() *DB {
	return &DB{
		users:     map[uint64]*model.User{},
		muscles:   map[uint64]model.Muscle{},
		exercises: map[uint64]model.Exercise{},
		sessions:  map[uint64]*model.WorkoutSession{},
	}
}

func (d *DB) id() uint64 {
	d.nextID++
	return d.nextID
}

func (d *DB) Users() *UserStore         { return &UserStore{db: d} }
func (d *DB) Muscles() *MuscleStore     { return &MuscleStore{db: d} }
func (d *DB) Exercises() *ExerciseStore { return &ExerciseStore{db: d} }
func (d *DB) Workouts() *WorkoutStore   { return &WorkoutStore{db: d} }

// SessionCount returns how many sessions are stored, across all users.
func (d *DB) SessionCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sessions)
}

// SetCount returns how many sets are stored, across all users.
func (d *DB) SetCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, s := range d.sessions {
		n += len(s.Sets)
	}
	return n
}

// ---- users ----

type UserStore struct{ db *DB }

func (s *UserStore) Create(_ context.Context, email string, passwordHash sql.NullString) (model.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.db.users {
		if u.Email == email {
			return model.User{}, repository.ErrEmailExists
		}
	}
	now := time.Now().UTC()
	u := &model.User{
		ID:           s.db.id(),
		Email:        email,
		PasswordHash: passwordHash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.db.users[u.ID] = u
	return *u, nil
}

func (s *UserStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.db.users {
		if u.Email == email {
			return *u, nil
		}
	}
	return model.User{}, repository.ErrUserNotFound
}

func (s *UserStore) GetByID(_ context.Context, id uint64) (model.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if u, ok := s.db.users[id]; ok {
		return *u, nil
	}
	return model.User{}, repository.ErrUserNotFound
}

func (s *UserStore) SetResetToken(_ context.Context, userID uint64, tokenHash string, issuedAt time.Time) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.ResetTokenHash = sql.NullString{String: tokenHash, Valid: true}
	u.ResetTokenIssuedAt = sql.NullTime{Time: issuedAt, Valid: true}
	return nil
}

func (s *UserStore) ConsumeResetToken(_ context.Context, tokenHash, newPasswordHash string, notBefore time.Time) (model.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, u := range s.db.users {
		if !u.ResetTokenHash.Valid || u.ResetTokenHash.String != tokenHash {
			continue
		}
		expired := !u.ResetTokenIssuedAt.Valid || u.ResetTokenIssuedAt.Time.Before(notBefore)
		u.ResetTokenHash = sql.NullString{}
		u.ResetTokenIssuedAt = sql.NullTime{}
		if expired {
			return model.User{}, repository.ErrResetTokenInvalid
		}
		u.PasswordHash = sql.NullString{String: newPasswordHash, Valid: true}
		return *u, nil
	}
	return model.User{}, repository.ErrResetTokenInvalid
}

// Deactivate flips is_active off for the user with id.
func (s *UserStore) Deactivate(id uint64) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if u, ok := s.db.users[id]; ok {
		u.IsActive = false
	}
}

// ---- muscles ----

type MuscleStore struct{ db *DB }

func (s *MuscleStore) List(_ context.Context) ([]model.Muscle, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []model.Muscle{}
	for _, m := range s.db.muscles {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MuscleStore) Create(_ context.Context, name string) (model.Muscle, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	name = strings.TrimSpace(name)
	for _, m := range s.db.muscles {
		if m.Name == name {
			return model.Muscle{}, repository.ErrDuplicate
		}
	}
	m := model.Muscle{ID: s.db.id(), Name: name}
	s.db.muscles[m.ID] = m
	return m, nil
}

func (s *MuscleStore) Ensure(ctx context.Context, name string) (model.Muscle, bool, error) {
	m, err := s.Create(ctx, name)
	if errors.Is(err, repository.ErrDuplicate) {
		s.db.mu.Lock()
		defer s.db.mu.Unlock()
		for _, existing := range s.db.muscles {
			if existing.Name == strings.TrimSpace(name) {
				return existing, false, nil
			}
		}
	}
	return m, err == nil, err
}

func (s *MuscleStore) Delete(_ context.Context, id uint64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.muscles[id]; !ok {
		return repository.ErrMuscleNotFound
	}
	for _, e := range s.db.exercises {
		if e.MuscleID == id {
			return repository.ErrConflict
		}
	}
	delete(s.db.muscles, id)
	return nil
}

// ---- exercises ----

type ExerciseStore struct{ db *DB }

func (s *ExerciseStore) List(_ context.Context) ([]model.Exercise, error) {
	return s.filter(func(model.Exercise) bool { return true }), nil
}

func (s *ExerciseStore) ListByMuscle(_ context.Context, muscleID uint64) ([]model.Exercise, error) {
	return s.filter(func(e model.Exercise) bool { return e.MuscleID == muscleID }), nil
}

func (s *ExerciseStore) filter(keep func(model.Exercise) bool) []model.Exercise {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []model.Exercise{}
	for _, e := range s.db.exercises {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *ExerciseStore) Create(_ context.Context, name string, muscleID uint64) (model.Exercise, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	name = strings.TrimSpace(name)
	if _, ok := s.db.muscles[muscleID]; !ok {
		return model.Exercise{}, repository.ErrUnknownReference
	}
	for _, e := range s.db.exercises {
		if e.MuscleID == muscleID && e.Name == name {
			return model.Exercise{}, repository.ErrDuplicate
		}
	}
	e := model.Exercise{ID: s.db.id(), Name: name, MuscleID: muscleID}
	s.db.exercises[e.ID] = e
	return e, nil
}

func (s *ExerciseStore) Ensure(ctx context.Context, name string, muscleID uint64) (model.Exercise, bool, error) {
	e, err := s.Create(ctx, name, muscleID)
	if errors.Is(err, repository.ErrDuplicate) {
		found := s.filter(func(x model.Exercise) bool {
			return x.MuscleID == muscleID && x.Name == strings.TrimSpace(name)
		})
		if len(found) > 0 {
			return found[0], false, nil
		}
	}
	return e, err == nil, err
}

func (s *ExerciseStore) Delete(_ context.Context, id uint64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.exercises[id]; !ok {
		return repository.ErrExerciseNotFound
	}
	for _, sess := range s.db.sessions {
		for _, set := range sess.Sets {
			if set.ExerciseID == id {
				return repository.ErrConflict
			}
		}
	}
	delete(s.db.exercises, id)
	return nil
}

// ---- workouts ----

type WorkoutStore struct{ db *DB }

func (s *WorkoutStore) CreateSession(_ context.Context, userID uint64, date time.Time, sets []model.NewWorkoutSet) (model.WorkoutSession, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.users[userID]; !ok {
		return model.WorkoutSession{}, repository.ErrUnknownReference
	}

	// stage everything first; nothing is visible until all sets pass
	sess := &model.WorkoutSession{ID: s.db.id(), UserID: userID, Date: date.UTC(), Sets: []model.WorkoutSet{}}
	for i, ns := range sets {
		if s.db.FailSetInsertAfter > 0 && i == s.db.FailSetInsertAfter {
			return model.WorkoutSession{}, errors.New("set insert failed")
		}
		ex, ok := s.db.exercises[ns.ExerciseID]
		if !ok {
			return model.WorkoutSession{}, repository.ErrUnknownReference
		}
		exCopy := ex
		sess.Sets = append(sess.Sets, model.WorkoutSet{
			ID:         s.db.id(),
			SessionID:  sess.ID,
			ExerciseID: ns.ExerciseID,
			Weight:     ns.Weight,
			Reps:       ns.Reps,
			Exercise:   &exCopy,
		})
	}
	s.db.sessions[sess.ID] = sess
	return copySession(sess), nil
}

func (s *WorkoutStore) History(_ context.Context, userID uint64) ([]model.WorkoutSession, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []model.WorkoutSession{}
	for _, sess := range s.db.sessions {
		if sess.UserID == userID {
			out = append(out, copySession(sess))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *WorkoutStore) LastSetForExercise(ctx context.Context, userID, exerciseID uint64) (model.WorkoutSet, error) {
	history, _ := s.History(ctx, userID)
	for _, sess := range history {
		for i := len(sess.Sets) - 1; i >= 0; i-- {
			if sess.Sets[i].ExerciseID == exerciseID {
				return sess.Sets[i], nil
			}
		}
	}
	return model.WorkoutSet{}, repository.ErrNoHistory
}

func copySession(s *model.WorkoutSession) model.WorkoutSession {
	out := *s
	out.Sets = append([]model.WorkoutSet{}, s.Sets...)
	return out
}

// ---- collaborators ----

// IdentityVerifier accepts the tokens listed in Tokens, mapping each to the
// email it asserts.  Err, when set, is returned for every call.
type IdentityVerifier struct {
	Tokens map[string]string
	Err    error
}

func (v *IdentityVerifier) Verify(_ context.Context, token string) (string, error) {
	if v.Err != nil {
		return "", v.Err
	}
	email, ok := v.Tokens[token]
	if !ok {
		return "", errors.New("token not recognised")
	}
	return email, nil
}

// SentMail is one reset mail captured by Mailer.
type SentMail struct {
	To   string
	Link string
}

// Mailer records reset mails instead of sending them.
type Mailer struct {
	mu   sync.Mutex
	Sent []SentMail
	Err  error
}

func (m *Mailer) SendPasswordReset(_ context.Context, to, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, SentMail{To: to, Link: link})
	return nil
}

// Last returns the most recent mail, or false when none was sent.
func (m *Mailer) Last() (SentMail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return SentMail{}, false
	}
	return m.Sent[len(m.Sent)-1], true
}
