package aquamate

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

// testConfig keeps argon2 at the parameter floors so engine tests stay
// fast while exercising the real hasher.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Password = PasswordConfig{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	}
	return cfg
}

func newTestEngine(t *testing.T, rdb *redis.Client, up UserProvider, opts ...func(*Builder)) *Engine {
	t.Helper()

	b := New().
		WithConfig(testConfig()).
		WithRedis(rdb).
		WithUserProvider(up)
	for _, opt := range opts {
		opt(b)
	}

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

const testPassword = "Old-Password-123"
const testNewPassword = "New-Password-456"

// seedUser registers an account through the engine and returns its record.
func seedUser(t *testing.T, engine *Engine, username, email string) UserRecord {
	t.Helper()

	sess, err := engine.Register(context.Background(), RegisterInput{
		Username: username,
		Email:    email,
		Password: testPassword,
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return sess.User
}

// ---------------------------------------------------------------------------
// mockUserProvider
// ---------------------------------------------------------------------------

type mockUserProvider struct {
	mu      sync.Mutex
	users   map[string]UserRecord
	byIdent map[string]string

	updateHashCalls int
	failLookups     bool
}

func newMockUserProvider() *mockUserProvider {
	return &mockUserProvider{
		users:   make(map[string]UserRecord),
		byIdent: make(map[string]string),
	}
}

func (m *mockUserProvider) put(u UserRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.UserID] = u
	if u.Username != "" {
		m.byIdent[strings.ToLower(u.Username)] = u.UserID
	}
	if u.Email != "" {
		m.byIdent[strings.ToLower(u.Email)] = u.UserID
	}
}

func (m *mockUserProvider) get(userID string) (UserRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	return u, ok
}

func (m *mockUserProvider) setStatus(userID string, status AccountStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.users[userID]
	u.Status = status
	m.users[userID] = u
}

func (m *mockUserProvider) GetUserByID(_ context.Context, userID string) (UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failLookups {
		return UserRecord{}, errors.New("provider down")
	}
	u, ok := m.users[userID]
	if !ok {
		return UserRecord{}, ErrUserNotFound
	}
	return u, nil
}

func (m *mockUserProvider) GetUserByIdentifier(_ context.Context, identifier string) (UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failLookups {
		return UserRecord{}, errors.New("provider down")
	}
	id, ok := m.byIdent[strings.ToLower(strings.TrimSpace(identifier))]
	if !ok {
		return UserRecord{}, ErrUserNotFound
	}
	return m.users[id], nil
}

func (m *mockUserProvider) CreateUser(_ context.Context, input CreateUserInput) (UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, ident := range []string{strings.ToLower(input.Username), strings.ToLower(input.Email)} {
		if ident == "" {
			continue
		}
		if _, ok := m.byIdent[ident]; ok {
			return UserRecord{}, ErrAccountExists
		}
	}

	id := input.UserID
	if id == "" {
		id = uuid.NewString()
	}
	u := UserRecord{
		UserID:       id,
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: input.PasswordHash,
		Role:         input.Role,
		Status:       input.Status,
		CreatedAt:    time.Now(),
	}
	m.users[u.UserID] = u
	if input.Username != "" {
		m.byIdent[strings.ToLower(input.Username)] = u.UserID
	}
	if input.Email != "" {
		m.byIdent[strings.ToLower(input.Email)] = u.UserID
	}
	return u, nil
}

func (m *mockUserProvider) UpdatePasswordHash(_ context.Context, userID, newHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateHashCalls++

	u, ok := m.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	u.PasswordHash = newHash
	m.users[userID] = u
	return nil
}

// ---------------------------------------------------------------------------
// captureSender
// ---------------------------------------------------------------------------

type sentMessage struct {
	Contact string
	Subject string
	Body    string
}

type captureSender struct {
	mu       sync.Mutex
	messages []sentMessage
	fail     bool
}

func (s *captureSender) Send(contact, subject, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("delivery failed")
	}
	s.messages = append(s.messages, sentMessage{Contact: contact, Subject: subject, Body: body})
	return nil
}

func (s *captureSender) sent() []sentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]sentMessage, len(s.messages))
	copy(out, s.messages)
	return out
}
