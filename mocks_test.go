package auth_test

import (
	"context"
	"database/sql"
	"strings"
	"sync"

	auth "github.com/edutech/lms-auth"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

// MockAuthenticator implements auth.Authenticator
type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Login(ctx context.Context, identifier, password string) (string, auth.Identity, error) {
	args := m.Called(ctx, identifier, password)
	identity, _ := args.Get(1).(auth.Identity)
	return args.String(0), identity, args.Error(2)
}

// MockRegisterer implements auth.RegisterUserExecutor
type MockRegisterer struct {
	mock.Mock
}

func (m *MockRegisterer) Execute(ctx context.Context, event auth.RegisterUserMessage) (*auth.User, error) {
	args := m.Called(ctx, event)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

// MockMailer implements auth.Mailer, handing every message to a channel so
// tests can wait on asynchronous delivery
type MockMailer struct {
	Messages chan auth.Message
	Err      error
}

func NewMockMailer() *MockMailer {
	return &MockMailer{Messages: make(chan auth.Message, 1)}
}

func (m *MockMailer) Send(_ context.Context, msg auth.Message) error {
	m.Messages <- msg
	return m.Err
}

// memAccounts is an in-memory auth.AccountStore and auth.AccountLoader
type memAccounts struct {
	mu      sync.Mutex
	byID    map[string]*auth.User
	listErr error
}

func newMemAccounts(users ...*auth.User) *memAccounts {
	s := &memAccounts{byID: map[string]*auth.User{}}
	for _, u := range users {
		s.byID[u.ID.String()] = u
	}
	return s
}

func (s *memAccounts) GetByID(_ context.Context, id string, _ ...repository.SelectCriteria) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.byID[id]; ok {
		return u, nil
	}
	return nil, repository.NewRecordNotFound()
}

func (s *memAccounts) ConfirmEmail(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.byID[id.String()]; ok {
		u.Confirmed = true
	}
	return nil
}

func (s *memAccounts) List(_ context.Context, params auth.ListUsersParams) ([]*auth.User, int, error) {
	if s.listErr != nil {
		return nil, 0, s.listErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	records := []*auth.User{}
	for _, u := range s.byID {
		if params.Role != "" && u.Role != params.Role {
			continue
		}
		records = append(records, u)
	}
	return records, len(records), nil
}

// memUserStore is an in-memory auth.UserStore keyed by lowercased email
type memUserStore struct {
	byEmail map[string]*auth.User
}

func newMemUserStore(users ...*auth.User) *memUserStore {
	s := &memUserStore{byEmail: map[string]*auth.User{}}
	for _, u := range users {
		s.byEmail[strings.ToLower(u.Email)] = u
	}
	return s
}

func (s *memUserStore) GetByEmail(_ context.Context, email string) (*auth.User, error) {
	if u, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]; ok {
		return u, nil
	}
	return nil, repository.NewRecordNotFound()
}

// memUsers fakes the slice of auth.Users the registration handler touches.
// The embedded interface stays nil; anything outside that slice panics,
// which is exactly what we want from a test double.
type memUsers struct {
	auth.Users
	existing  map[string]*auth.User
	created   *auth.User
	createErr error
}

func newMemUsers(users ...*auth.User) *memUsers {
	s := &memUsers{existing: map[string]*auth.User{}}
	for _, u := range users {
		s.existing[strings.ToLower(u.Email)] = u
	}
	return s
}

func (s *memUsers) GetByEmailTx(_ context.Context, _ bun.IDB, email string) (*auth.User, error) {
	if u, ok := s.existing[strings.ToLower(strings.TrimSpace(email))]; ok {
		return u, nil
	}
	return nil, repository.NewRecordNotFound()
}

func (s *memUsers) CreateTx(_ context.Context, _ bun.IDB, record *auth.User, _ ...repository.InsertCriteria) (*auth.User, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	s.created = record
	s.existing[strings.ToLower(record.Email)] = record
	return record, nil
}

// memRepoManager satisfies auth.RepositoryManager without a database; the
// transaction callback runs against a zero bun.Tx the fakes never touch.
type memRepoManager struct {
	users *memUsers
}

func (m *memRepoManager) Validate() error { return nil }

func (m *memRepoManager) MustValidate() {}

func (m *memRepoManager) RunInTx(ctx context.Context, _ *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}

func (m *memRepoManager) Users() auth.Users { return m.users }

var (
	_ auth.Authenticator        = (*MockAuthenticator)(nil)
	_ auth.RegisterUserExecutor = (*MockRegisterer)(nil)
	_ auth.Mailer               = (*MockMailer)(nil)
	_ auth.AccountStore         = (*memAccounts)(nil)
	_ auth.AccountLoader        = (*memAccounts)(nil)
	_ auth.UserStore            = (*memUserStore)(nil)
	_ auth.RepositoryManager    = (*memRepoManager)(nil)
)
