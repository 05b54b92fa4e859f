package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/todolist/todo-service/internal/core/domain"
)

// ---------------------------------------------------------------------------
// In-memory credential store with a unique email index
// ---------------------------------------------------------------------------

type stubCredentialStore struct {
	mu      sync.Mutex
	byID    map[string]*domain.User
	byEmail map[string]string
	nextID  int

	findErr    error // if set, reads return this error
	insertErr  error // if set, Insert returns this error
	findCalls  int
	insertHook func() // runs before Insert takes the lock
}

func newStubCredentialStore() *stubCredentialStore {
	return &stubCredentialStore{
		byID:    make(map[string]*domain.User),
		byEmail: make(map[string]string),
	}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (s *stubCredentialStore) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findCalls++
	if s.findErr != nil {
		return nil, s.findErr
	}
	id, ok := s.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(s.byID[id]), nil
}

func (s *stubCredentialStore) FindByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findCalls++
	if s.findErr != nil {
		return nil, s.findErr
	}
	u, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (s *stubCredentialStore) FindPrincipal(ctx context.Context, id string) (*domain.Principal, error) {
	u, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.Principal(), nil
}

func (s *stubCredentialStore) Insert(_ context.Context, email, credential string) (*domain.User, error) {
	if s.insertHook != nil {
		s.insertHook()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	if _, exists := s.byEmail[email]; exists {
		return nil, domain.ErrEmailTaken
	}
	s.nextID++
	u := &domain.User{ID: fmt.Sprintf("u%d", s.nextID), Email: email, Credential: credential}
	s.byID[u.ID] = u
	s.byEmail[email] = u.ID
	return cloneUser(u), nil
}

func (s *stubCredentialStore) UpdateCredential(_ context.Context, id, credential string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Credential = credential
	return nil
}

func (s *stubCredentialStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

func (s *stubCredentialStore) credentialOf(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byID[s.byEmail[email]].Credential
}

func (s *stubCredentialStore) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.byID[id]; ok {
		delete(s.byEmail, u.Email)
		delete(s.byID, id)
	}
}

// ---------------------------------------------------------------------------
// In-memory session store
// ---------------------------------------------------------------------------

type stubSessionStore struct {
	mu      sync.Mutex
	records map[string][]byte
	loadErr error
	saveErr error
}

func newStubSessionStore() *stubSessionStore {
	return &stubSessionStore{records: make(map[string][]byte)}
}

func (s *stubSessionStore) Load(_ context.Context, token string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	data, ok := s.records[token]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return append([]byte(nil), data...), nil
}

func (s *stubSessionStore) Save(_ context.Context, token string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.records[token] = append([]byte(nil), data...)
	return nil
}

func (s *stubSessionStore) Destroy(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, token)
	return nil
}

// ---------------------------------------------------------------------------
// In-memory task repository
// ---------------------------------------------------------------------------

type stubTaskRepo struct {
	tasks     map[string]*domain.Task
	nextID    int
	mutations []string
}

func newStubTaskRepo() *stubTaskRepo {
	return &stubTaskRepo{tasks: make(map[string]*domain.Task)}
}

func (r *stubTaskRepo) ListByOwner(_ context.Context, ownerID string) ([]*domain.Task, error) {
	var out []*domain.Task
	for _, t := range r.tasks {
		if t.OwnerID == ownerID {
			clone := *t
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *stubTaskRepo) Create(_ context.Context, task *domain.Task) (*domain.Task, error) {
	r.nextID++
	clone := *task
	clone.ID = fmt.Sprintf("t%d", r.nextID)
	r.tasks[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubTaskRepo) FindByID(_ context.Context, id string) (*domain.Task, error) {
	t, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	clone := *t
	return &clone, nil
}

func (r *stubTaskRepo) SetCompleted(_ context.Context, id, ownerID string) error {
	t, ok := r.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return domain.ErrTaskNotFound
	}
	t.Completed = true
	r.mutations = append(r.mutations, "complete:"+id)
	return nil
}

func (r *stubTaskRepo) Delete(_ context.Context, id, ownerID string) error {
	t, ok := r.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return domain.ErrTaskNotFound
	}
	delete(r.tasks, id)
	r.mutations = append(r.mutations, "delete:"+id)
	return nil
}
