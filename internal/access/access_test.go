package access_test

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/staysuite/guestgate/internal/domain"
)

// ---------- Mocks ----------

type mockTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*domain.AccessToken // by token string
	getErr error
}

func newMockTokenRepo() *mockTokenRepo {
	return &mockTokenRepo{tokens: make(map[string]*domain.AccessToken)}
}

func (m *mockTokenRepo) Create(_ context.Context, t *domain.AccessToken) (*domain.AccessToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	m.tokens[cp.Token] = &cp
	out := cp
	return &out, nil
}

func (m *mockTokenRepo) GetByToken(_ context.Context, token string) (*domain.AccessToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	t, ok := m.tokens[token]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (m *mockTokenRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.AccessToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, t := range m.tokens {
		if t.ID == id {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockTokenRepo) Deactivate(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if t.ID == id && t.IsActive {
			t.IsActive = false
			return true, nil
		}
	}
	return false, nil
}

func (m *mockTokenRepo) FindActiveByGuestEmail(_ context.Context, email string, propertyID uuid.UUID, now time.Time) (*domain.AccessToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if strings.EqualFold(t.GuestEmail, email) && t.PropertyID == propertyID && t.IsActive && !t.ValidUntil.Before(now) {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockTokenRepo) TightenExpiredWindows(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

type mockPropertyRepo struct {
	byID   map[uuid.UUID]*domain.Property
	bySlug map[string]*domain.Property
}

func newMockPropertyRepo(props ...*domain.Property) *mockPropertyRepo {
	m := &mockPropertyRepo{
		byID:   make(map[uuid.UUID]*domain.Property),
		bySlug: make(map[string]*domain.Property),
	}
	for _, p := range props {
		m.byID[p.ID] = p
		m.bySlug[p.Slug] = p
	}
	return m
}

func (m *mockPropertyRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Property, error) {
	return m.byID[id], nil
}

func (m *mockPropertyRepo) GetBySlug(_ context.Context, slug string) (*domain.Property, error) {
	return m.bySlug[slug], nil
}

type mockActivityRepo struct {
	mu      sync.Mutex
	records []*domain.SuspiciousActivity
}

func (m *mockActivityRepo) Record(_ context.Context, a *domain.SuspiciousActivity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, a)
	return nil
}

// waitFor polls until a record of the given type lands; the auditor writes
// asynchronously.
func (m *mockActivityRepo) waitFor(typ domain.ActivityType) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		m.mu.Lock()
		for _, rec := range m.records {
			if rec.ActivityType == typ {
				m.mu.Unlock()
				return true
			}
		}
		m.mu.Unlock()
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

type mockMailer struct {
	mu           sync.Mutex
	lastTo       string
	lastCode     string
	lastLink     string
	guideLinks   int
	reaccessSent int
}

func (m *mockMailer) Send(toEmail, toName, subject, text, html string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastTo = toEmail
	return "mock-id", nil
}

func (m *mockMailer) SendGuideLink(email, guestName, propertyName, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastTo = email
	m.lastLink = link
	m.guideLinks++
	return nil
}

func (m *mockMailer) SendReaccessCode(email, code, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastTo = email
	m.lastCode = code
	m.lastLink = link
	m.reaccessSent++
	return nil
}
