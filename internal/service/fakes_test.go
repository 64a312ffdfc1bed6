package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/pestiq-backend/internal/mailer"
	"github.com/iliyamo/pestiq-backend/internal/model"
	"github.com/iliyamo/pestiq-backend/internal/queue"
	"github.com/iliyamo/pestiq-backend/internal/repository"
)

// memStore is an in-memory UserStore and OTPStore.
type memStore struct {
	mu        sync.Mutex
	users     map[string]*model.User // by email
	companies map[string]uint64      // lower(name) -> id
	nextUser  uint64
	nextComp  uint64
	links     int
}

func newMemStore() *memStore {
	return &memStore{users: map[string]*model.User{}, companies: map[string]uint64{}}
}

func clone(u *model.User) *model.User {
	c := *u
	return &c
}

func (m *memStore) put(u *model.User) *model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextUser++
	u.ID = m.nextUser
	m.users[u.Email] = clone(u)
	return u
}

func (m *memStore) FindByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clone(u), nil
}

func (m *memStore) GetByID(_ context.Context, id uint64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id && !u.IsDeleted {
			return clone(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memStore) CompanyNameExists(_ context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.companies[strings.ToLower(name)]
	return ok, nil
}

func (m *memStore) CreateOwner(_ context.Context, u *model.User, companyName string) (uint64, uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.Email]; ok {
		return 0, 0, repository.ErrEmailExists
	}
	if _, ok := m.companies[strings.ToLower(companyName)]; ok {
		return 0, 0, repository.ErrCompanyNameExists
	}
	m.nextUser++
	m.nextComp++
	cid := m.nextComp
	c := clone(u)
	c.ID = m.nextUser
	c.CompanyID = &cid
	c.IsCompanyOwner = true
	m.users[c.Email] = c
	m.companies[strings.ToLower(companyName)] = cid
	return c.ID, cid, nil
}

func (m *memStore) Activate(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok || u.IsDeleted {
		return repository.ErrNotFound
	}
	u.IsActive = true
	return nil
}

func (m *memStore) UpdatePassword(_ context.Context, email, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = &hash
	return nil
}

func (m *memStore) LinkProvider(_ context.Context, id uint64, provider, providerID, avatar string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id && u.ProviderID(provider) == "" {
			setProvider(u, provider, providerID, avatar)
			m.links++
		}
	}
	return nil
}

func (m *memStore) SaveOTP(_ context.Context, email, code string, exp time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok || u.IsDeleted {
		return repository.ErrNotFound
	}
	u.OTPCode, u.OTPExpiry = &code, &exp
	return nil
}

func (m *memStore) LoadOTP(_ context.Context, email string) (string, time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok || u.OTPCode == nil || u.OTPExpiry == nil {
		return "", time.Time{}, false, nil
	}
	return *u.OTPCode, *u.OTPExpiry, true, nil
}

func (m *memStore) ClearOTP(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[email]; ok {
		u.OTPCode, u.OTPExpiry = nil, nil
	}
	return nil
}

func (m *memStore) user(email string) *model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return clone(m.users[email])
}

type sentMail struct {
	to, code string
	purpose  mailer.Purpose
}

type fakeMailer struct {
	sent []sentMail
	fail bool
}

func (f *fakeMailer) SendOTP(_ context.Context, to, code string, purpose mailer.Purpose) error {
	if f.fail {
		return errors.New("smtp down")
	}
	f.sent = append(f.sent, sentMail{to, code, purpose})
	return nil
}

func (f *fakeMailer) last() sentMail { return f.sent[len(f.sent)-1] }

type recordPublisher struct{ events []queue.Event }

func (r *recordPublisher) Publish(_ context.Context, ev queue.Event) error {
	r.events = append(r.events, ev)
	return nil
}

// clock is a settable time source.
type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }
func (c *clock) add(d time.Duration) { c.t = c.t.Add(d) }
