package application

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"
)

var stubReference = time.Date(2024, time.March, 4, 9, 30, 0, 0, time.UTC)

var (
	adminPrincipal   = Principal{UserID: "admin-1", Role: RoleAdmin}
	studentPrincipal = Principal{UserID: "student-1", Role: RoleStudent}
)

type userStoreStub struct {
	mu        sync.Mutex
	users     map[string]UserCredentials
	getErr    error
	updateErr error
	createErr error
	updates   []UserCredentials
}

func newUserStoreStub(users ...UserCredentials) *userStoreStub {
	stub := &userStoreStub{users: make(map[string]UserCredentials)}
	for _, u := range users {
		stub.users[u.User.ID] = u
	}
	return stub
}

func (s *userStoreStub) GetUser(_ context.Context, id string) (UserCredentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return UserCredentials{}, s.getErr
	}
	creds, ok := s.users[id]
	if !ok {
		return UserCredentials{}, ErrNotFound
	}
	return creds, nil
}

func (s *userStoreStub) GetUserByUsername(_ context.Context, username string) (UserCredentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return UserCredentials{}, s.getErr
	}
	for _, creds := range s.users {
		if creds.User.Username == username {
			return creds, nil
		}
	}
	return UserCredentials{}, ErrNotFound
}

func (s *userStoreStub) UpdateUser(_ context.Context, creds UserCredentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	if _, ok := s.users[creds.User.ID]; !ok {
		return ErrNotFound
	}
	s.users[creds.User.ID] = creds
	s.updates = append(s.updates, creds)
	return nil
}

func (s *userStoreStub) CreateUser(_ context.Context, creds UserCredentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	for _, existing := range s.users {
		if existing.User.Username == creds.User.Username {
			return ErrAlreadyExists
		}
	}
	s.users[creds.User.ID] = creds
	return nil
}

func (s *userStoreStub) EnsureUser(ctx context.Context, creds UserCredentials) (bool, error) {
	if _, err := s.GetUserByUsername(ctx, creds.User.Username); err == nil {
		return false, nil
	}
	if err := s.CreateUser(ctx, creds); err != nil {
		return false, err
	}
	return true, nil
}

func (s *userStoreStub) ListUsersByRole(_ context.Context, role Role) ([]User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []User
	for _, creds := range s.users {
		if creds.User.Role == role {
			out = append(out, creds.User)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *userStoreStub) get(id string) UserCredentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id]
}

// stubHasher stores "hash:<password>" and counts comparisons.
type stubHasher struct {
	mu          sync.Mutex
	verifyCalls int
	hashErr     error
}

func (h *stubHasher) Hash(_ context.Context, password string) (string, error) {
	if h.hashErr != nil {
		return "", h.hashErr
	}
	return "hash:" + password, nil
}

func (h *stubHasher) Verify(_ context.Context, hashed, password string) error {
	h.mu.Lock()
	h.verifyCalls++
	h.mu.Unlock()
	if hashed != "hash:"+password {
		return ErrInvalidCredentials
	}
	return nil
}

func (h *stubHasher) calls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.verifyCalls
}

func newCredentials(id, username string, role Role, password string, mustChange bool) UserCredentials {
	return UserCredentials{
		User: User{
			ID:                 id,
			Username:           username,
			Role:               role,
			MustChangePassword: mustChange,
			CreatedAt:          stubReference,
			UpdatedAt:          stubReference,
		},
		PasswordHash: "hash:" + password,
	}
}

type sessionRepositoryStub struct {
	mu          sync.Mutex
	sessions    map[string]Session
	deleteCalls []time.Time
	deleted     []string
	createErr   error
	getErr      error
	deleteErr   error
	pruneErr    error
}

func newSessionRepositoryStub() *sessionRepositoryStub {
	return &sessionRepositoryStub{sessions: make(map[string]Session)}
}

func (s *sessionRepositoryStub) CreateSession(_ context.Context, session Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	s.sessions[session.ID] = session
	return nil
}

func (s *sessionRepositoryStub) GetSession(_ context.Context, id string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return Session{}, s.getErr
	}
	session, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return session, nil
}

func (s *sessionRepositoryStub) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, id)
	delete(s.sessions, id)
	return nil
}

func (s *sessionRepositoryStub) DeleteExpiredSessions(_ context.Context, reference time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteCalls = append(s.deleteCalls, reference)
	if s.pruneErr != nil {
		return s.pruneErr
	}
	for id, session := range s.sessions {
		if !session.ExpiresAt.After(reference) {
			delete(s.sessions, id)
		}
	}
	return nil
}

type sessionIssuerStub struct {
	created   []Session
	destroyed []string
	createErr error
}

func (s *sessionIssuerStub) CreateSession(_ context.Context, userID string, role Role) (Session, error) {
	if s.createErr != nil {
		return Session{}, s.createErr
	}
	session := Session{ID: "sid-" + userID, UserID: userID, Role: role, CreatedAt: stubReference, ExpiresAt: stubReference.Add(DefaultSessionTTL)}
	s.created = append(s.created, session)
	return session, nil
}

func (s *sessionIssuerStub) DestroySession(_ context.Context, sessionID string) error {
	s.destroyed = append(s.destroyed, sessionID)
	return nil
}

type materialRepositoryStub struct {
	mu        sync.Mutex
	materials []Material
	createErr error
}

func (s *materialRepositoryStub) CreateMaterial(_ context.Context, material Material) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	s.materials = append(s.materials, material)
	return nil
}

func (s *materialRepositoryStub) GetMaterial(_ context.Context, id string) (Material, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.materials {
		if m.ID == id {
			return m, nil
		}
	}
	return Material{}, ErrNotFound
}

func (s *materialRepositoryStub) ListMaterials(_ context.Context) ([]Material, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Material, 0, len(s.materials))
	for i := len(s.materials) - 1; i >= 0; i-- {
		out = append(out, s.materials[i])
	}
	return out, nil
}

type nopSeekCloser struct {
	*bytes.Reader
}

func (nopSeekCloser) Close() error { return nil }

type fileStoreStub struct {
	mu       sync.Mutex
	files    map[string][]byte
	counter  int
	maxBytes int64
	saveErr  error
	removed  []string
}

func newFileStoreStub() *fileStoreStub {
	return &fileStoreStub{files: make(map[string][]byte)}
}

func (s *fileStoreStub) Save(_ context.Context, content io.Reader, ext string) (string, int64, error) {
	if s.saveErr != nil {
		return "", 0, s.saveErr
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return "", 0, err
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return "", 0, ErrContentTooLarge
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter++
	name := fmt.Sprintf("stored-%d.%s", s.counter, ext)
	s.files[name] = data
	return name, int64(len(data)), nil
}

func (s *fileStoreStub) Open(name string) (MaterialFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[name]
	if !ok {
		return MaterialFile{}, ErrFileMissing
	}
	return MaterialFile{Content: nopSeekCloser{bytes.NewReader(data)}, Size: int64(len(data)), ModTime: stubReference}, nil
}

func (s *fileStoreStub) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, name)
	delete(s.files, name)
	return nil
}

func (s *fileStoreStub) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

type announcementRepositoryStub struct {
	items     []AnnouncementView
	usernames map[string]string
	createErr error
}

func (s *announcementRepositoryStub) CreateAnnouncement(_ context.Context, a Announcement) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.items = append(s.items, AnnouncementView{Announcement: a, CreatorUsername: s.usernames[a.CreatorID]})
	return nil
}

func (s *announcementRepositoryStub) ListAnnouncements(_ context.Context) ([]AnnouncementView, error) {
	out := make([]AnnouncementView, 0, len(s.items))
	for i := len(s.items) - 1; i >= 0; i-- {
		out = append(out, s.items[i])
	}
	return out, nil
}

func sequence(values ...string) func() string {
	var mu sync.Mutex
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		if len(values) == 0 {
			return "fallback"
		}
		v := values[0]
		values = values[1:]
		return v
	}
}
