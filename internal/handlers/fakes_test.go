package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"companion-backend/internal/auth"
	"companion-backend/internal/common"
	"companion-backend/internal/dto"
	"companion-backend/internal/logging"
	"companion-backend/internal/middleware"
	"companion-backend/internal/models"
	"companion-backend/internal/services"
	"companion-backend/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// fakeUsers is an in-memory user table. Passwords are kept in clear; the
// hashing path is covered by the services tests.
type fakeUsers struct {
	mu        sync.Mutex
	users     map[uuid.UUID]*models.User
	passwords map[uuid.UUID]string
	avatars   map[uuid.UUID][]byte
	avatarCT  map[uuid.UUID]string
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		users:     map[uuid.UUID]*models.User{},
		passwords: map[uuid.UUID]string{},
		avatars:   map[uuid.UUID][]byte{},
		avatarCT:  map[uuid.UUID]string{},
	}
}

func (f *fakeUsers) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) List(ctx context.Context, q dto.UserListQuery) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.User
	for _, u := range f.users {
		if q.Role != "" && u.Role != q.Role {
			continue
		}
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUsers) UpdateProfile(ctx context.Context, id uuid.UUID, req *dto.UpdateProfileRequest) (*models.User, error) {
	return f.mutate(id, func(u *models.User) error {
		req.Apply(u)
		return u.Validate()
	})
}

func (f *fakeUsers) UpdateNotifications(ctx context.Context, id uuid.UUID, req *dto.UpdateNotificationsRequest) (*models.User, error) {
	return f.mutate(id, func(u *models.User) error {
		req.Apply(&u.NotificationSettings)
		return nil
	})
}

func (f *fakeUsers) UpdatePrivacy(ctx context.Context, id uuid.UUID, req *dto.UpdatePrivacyRequest) (*models.User, error) {
	return f.mutate(id, func(u *models.User) error {
		req.Apply(&u.PrivacySettings)
		if !u.ProfileVisibility.Valid() {
			return common.Invalid("profile_visibility", "must be one of public, friends, private")
		}
		return nil
	})
}

func (f *fakeUsers) UpdateRoleStatus(ctx context.Context, id uuid.UUID, req *dto.UpdateRoleRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return f.mutate(id, func(u *models.User) error {
		if req.Role != nil {
			u.Role = *req.Role
		}
		if req.Status != nil {
			u.Status = *req.Status
		}
		return nil
	})
}

func (f *fakeUsers) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return common.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUsers) SetAvatar(ctx context.Context, id uuid.UUID, contentType string, data io.Reader) (*models.User, error) {
	b, err := io.ReadAll(data)
	if err != nil {
		return nil, err
	}
	return f.mutate(id, func(u *models.User) error {
		key := "avatars/" + id.String()
		u.AvatarKey = &key
		f.avatars[id] = b
		f.avatarCT[id] = contentType
		return nil
	})
}

func (f *fakeUsers) Avatar(ctx context.Context, id uuid.UUID) (io.ReadCloser, *storage.Object, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.avatars[id]
	if !ok {
		return nil, nil, common.ErrNotFound
	}
	obj := &storage.Object{Key: "avatars/" + id.String(), Size: int64(len(b)), ContentType: f.avatarCT[id], Hash: "abc"}
	return io.NopCloser(bytes.NewReader(b)), obj, nil
}

func (f *fakeUsers) mutate(id uuid.UUID, fn func(*models.User) error) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *u
	if err := fn(&cp); err != nil {
		return nil, err
	}
	f.users[id] = &cp
	out := cp
	return &out, nil
}

func (f *fakeUsers) add(username string, role models.UserRole, status models.UserStatus, password string) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &models.User{
		ID:              uuid.New(),
		Username:        username,
		Email:           username + "@example.com",
		Role:            role,
		Status:          status,
		PrivacySettings: models.PrivacySettings{ProfileVisibility: models.VisibilityPrivate},
	}
	f.users[u.ID] = u
	f.passwords[u.ID] = password
	return u
}

func (f *fakeUsers) setStatus(id uuid.UUID, status models.UserStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[id].Status = status
}

// fakeAuth signs real tokens so the gate in front of the routes can be
// exercised end to end.
type fakeAuth struct {
	users *fakeUsers
	codec *auth.Codec
}

func (f *fakeAuth) RegisterUser(ctx context.Context, req *dto.RegisterUserRequest) (*models.User, error) {
	v := &common.ValidationError{}
	models.ValidateUsername(v, req.Username)
	models.ValidateEmail(v, req.Email)
	models.ValidatePassword(v, req.Password)
	if err := v.Err(); err != nil {
		return nil, err
	}

	f.users.mu.Lock()
	for _, u := range f.users.users {
		if u.Username == req.Username || u.Email == models.NormalizeEmail(req.Email) {
			f.users.mu.Unlock()
			return nil, common.ErrDuplicateIdentity
		}
	}
	f.users.mu.Unlock()

	u := f.users.add(req.Username, models.UserRoleUser, models.UserStatusActive, req.Password)
	f.users.mutate(u.ID, func(u *models.User) error {
		u.Email = models.NormalizeEmail(req.Email)
		return nil
	})
	return f.users.GetByID(ctx, u.ID)
}

func (f *fakeAuth) LoginUser(ctx context.Context, req *dto.LoginUserRequest) (*models.User, *auth.TokenPair, error) {
	identifier := req.LoginIdentifier()
	if identifier == "" || req.Password == "" {
		return nil, nil, common.Invalid("identifier", "is required")
	}

	f.users.mu.Lock()
	var found *models.User
	for _, u := range f.users.users {
		if u.Email == models.NormalizeEmail(identifier) || u.Username == identifier {
			found = u
		}
	}
	var password string
	if found != nil {
		password = f.users.passwords[found.ID]
	}
	f.users.mu.Unlock()

	if found == nil || password != req.Password {
		return nil, nil, common.ErrInvalidCredentials
	}
	if !found.IsActive() {
		return nil, nil, common.ErrForbidden
	}
	pair, err := f.codec.IssuePair(found.ID)
	if err != nil {
		return nil, nil, err
	}
	cp := *found
	return &cp, pair, nil
}

func (f *fakeAuth) RefreshToken(ctx context.Context, token string) (*auth.TokenPair, error) {
	if token == "" {
		return nil, common.ErrNoToken
	}
	id, err := f.codec.Verify(token, auth.KindRefresh)
	if err != nil {
		return nil, err
	}
	return f.codec.IssuePair(id)
}

func (f *fakeAuth) VerifyToken(token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, common.ErrUnauthorized
	}
	return f.codec.Verify(token, auth.KindAccess)
}

// fakeTasks is an owner-scoped in-memory task table that applies the same
// DTO conversions and validation as the real service.
type fakeTasks struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*models.Task
}

func (f *fakeTasks) visible(scope services.Scope, t *models.Task) bool {
	return scope.Admin || t.UserID == scope.SubjectID
}

func (f *fakeTasks) Create(ctx context.Context, scope services.Scope, req *dto.CreateTaskRequest) (*models.Task, error) {
	task := req.ToModel(scope.SubjectID, time.Now())
	if err := task.Validate(); err != nil {
		return nil, err
	}
	task.ID = uuid.New()

	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks[task.ID] = task
	cp := *task
	return &cp, nil
}

func (f *fakeTasks) List(ctx context.Context, scope services.Scope, q dto.TaskListQuery) ([]models.Task, error) {
	owner := scope.SubjectID
	if scope.Admin && q.UserID != uuid.Nil {
		owner = q.UserID
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Task
	for _, t := range f.tasks {
		if t.UserID == owner && (q.Status == "" || q.Status == t.Status) {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeTasks) Get(ctx context.Context, scope services.Scope, id uuid.UUID) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok || !f.visible(scope, t) {
		return nil, common.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTasks) Update(ctx context.Context, scope services.Scope, id uuid.UUID, req *dto.UpdateTaskRequest) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok || !f.visible(scope, t) {
		return nil, common.ErrNotFound
	}
	cp := *t
	req.Apply(&cp, time.Now())
	if err := cp.Validate(); err != nil {
		return nil, err
	}
	f.tasks[id] = &cp
	out := cp
	return &out, nil
}

func (f *fakeTasks) Delete(ctx context.Context, scope services.Scope, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok || !f.visible(scope, t) {
		return common.ErrNotFound
	}
	delete(f.tasks, id)
	return nil
}

// emptyResource answers every call as if the table had no rows.
type emptyResource[T, C, U, Q any] struct {
	scopes []services.Scope
}

func (e *emptyResource[T, C, U, Q]) Create(ctx context.Context, scope services.Scope, req *C) (*T, error) {
	e.scopes = append(e.scopes, scope)
	return new(T), nil
}

func (e *emptyResource[T, C, U, Q]) List(ctx context.Context, scope services.Scope, q Q) ([]T, error) {
	e.scopes = append(e.scopes, scope)
	return nil, nil
}

func (e *emptyResource[T, C, U, Q]) Get(ctx context.Context, scope services.Scope, id uuid.UUID) (*T, error) {
	return nil, common.ErrNotFound
}

func (e *emptyResource[T, C, U, Q]) Update(ctx context.Context, scope services.Scope, id uuid.UUID, req *U) (*T, error) {
	return nil, common.ErrNotFound
}

func (e *emptyResource[T, C, U, Q]) Delete(ctx context.Context, scope services.Scope, id uuid.UUID) error {
	return common.ErrNotFound
}

type fakeHealth struct {
	emptyResource[models.HealthMetric, dto.CreateHealthMetricRequest, dto.UpdateHealthMetricRequest, dto.HealthListQuery]
	latest []models.HealthMetric
}

func (f *fakeHealth) Summary(ctx context.Context, scope services.Scope, owner dto.ListOwner) ([]models.HealthMetric, error) {
	var out []models.HealthMetric
	for _, m := range f.latest {
		if m.UserID == scope.SubjectID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

type testEnv struct {
	t       *testing.T
	handler http.Handler
	codec   *auth.Codec
	users   *fakeUsers
	tasks   *fakeTasks
	health  *fakeHealth
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	codec := auth.NewCodec("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
	users := newFakeUsers()
	tasks := &fakeTasks{tasks: map[uuid.UUID]*models.Task{}}
	health := &fakeHealth{}
	errs := NewErrorWriter(logging.Nop{}, false)

	router := &Router{
		Auth:   NewAuthHandler(&fakeAuth{users: users, codec: codec}, errs),
		Users:  NewUserHandler(users, errs, 1024),
		Tasks:  NewTaskHandler(tasks, errs),
		Events: NewEventHandler(&emptyResource[models.CalendarEvent, dto.CreateEventRequest, dto.UpdateEventRequest, dto.EventListQuery]{}, errs),
		Health: NewHealthHandler(health, errs),
		Mood:   NewMoodHandler(&emptyResource[models.MoodLog, dto.CreateMoodLogRequest, dto.UpdateMoodLogRequest, dto.MoodListQuery]{}, errs),
		Status: NewStatusHandler(fakePinger{}),
		Gate:   middleware.NewAuthMiddleware(codec),
		Policy: middleware.NewPolicy(users, logging.Nop{}),
		Log:    logging.Nop{},
	}

	return &testEnv{t: t, handler: router.Handler(), codec: codec, users: users, tasks: tasks, health: health}
}

// token returns a fresh access token for id.
func (e *testEnv) token(id uuid.UUID) string {
	e.t.Helper()
	token, _, err := e.codec.Issue(id, auth.KindAccess)
	require.NoError(e.t, err)
	return token
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	}

	r := httptest.NewRequest(method, path, reader)
	r.Header.Set("Content-Type", "application/json")
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, r)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Code    int             `json:"code"`
	Details []string        `json:"details"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data), string(env.Data))
	}
	return env
}

var errBoom = errors.New("boom")
