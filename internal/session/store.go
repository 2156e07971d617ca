// Package session holds the authenticated delivery partner for the lifetime
// of the process.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/chrisdamba/partnerconsole/internal/models"
)

var (
	ErrUnauthenticated = errors.New("no partner is signed in")
	// ErrForbidden is returned for an authenticated account whose role is not
	// delivery_partner.
	ErrForbidden = errors.New("this console is for delivery partners only")
)

// Backend is the identity API the store drives.
type Backend interface {
	Register(ctx context.Context, form models.RegistrationForm) (*models.PartnerProfile, error)
	Login(ctx context.Context, creds models.Credentials) (*models.PartnerProfile, error)
	Logout(ctx context.Context) error
	Profile(ctx context.Context) (*models.PartnerProfile, error)
	UpdateProfile(ctx context.Context, update models.ProfileUpdate) (json.RawMessage, error)
}

type Store struct {
	backend Backend

	mu        sync.RWMutex
	current   *models.PartnerProfile
	loading   bool
	probeOnce sync.Once
	listeners []func(*models.PartnerProfile)
}

func NewStore(backend Backend) *Store {
	return &Store{backend: backend, loading: true}
}

// Current returns a copy of the signed-in profile, or nil.
func (s *Store) Current() *models.PartnerProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneProfile(s.current)
}

func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Subscribe registers fn to run after every session change, with the new
// profile or nil once signed out.
func (s *Store) Subscribe(fn func(*models.PartnerProfile)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// RequirePartner gates partner-only views.
func (s *Store) RequirePartner() (*models.PartnerProfile, error) {
	p := s.Current()
	if p == nil {
		return nil, ErrUnauthenticated
	}
	if !p.IsPartner() {
		return nil, ErrForbidden
	}
	return p, nil
}

// FetchCurrentProfile probes the backend for an existing session. Every
// failure is folded into the unauthenticated outcome.
func (s *Store) FetchCurrentProfile(ctx context.Context) (*models.PartnerProfile, bool) {
	p, err := s.backend.Profile(ctx)
	if err != nil {
		log.Printf("Profile probe failed, continuing signed out: %v", err)
		p = nil
	}
	s.probeOnce.Do(func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	})
	s.set(p)
	return cloneProfile(p), p != nil
}

func (s *Store) Register(ctx context.Context, form models.RegistrationForm) (*models.PartnerProfile, error) {
	form.Role = models.RoleDeliveryPartner
	p, err := s.backend.Register(ctx, form)
	if err != nil {
		return nil, err
	}
	s.set(p)
	return cloneProfile(p), nil
}

func (s *Store) Login(ctx context.Context, creds models.Credentials) (*models.PartnerProfile, error) {
	p, err := s.backend.Login(ctx, creds)
	if err != nil {
		s.set(nil)
		return nil, err
	}
	s.set(p)
	return cloneProfile(p), nil
}

// Logout always clears the local session, even when the backend call fails.
func (s *Store) Logout(ctx context.Context) {
	if err := s.backend.Logout(ctx); err != nil {
		log.Printf("Logout request failed, clearing local session anyway: %v", err)
	}
	s.set(nil)
}

// UpdateProfile sends a partial update and merges the backend's answer into
// the current profile. Fields absent from the answer keep their old values.
// Errors are returned so a caller can abort its own flow.
func (s *Store) UpdateProfile(ctx context.Context, update models.ProfileUpdate) (*models.PartnerProfile, error) {
	current := s.Current()
	if current == nil {
		return nil, ErrUnauthenticated
	}
	raw, err := s.backend.UpdateProfile(ctx, update)
	if err != nil {
		return nil, err
	}
	merged, err := mergeProfile(current, raw)
	if err != nil {
		return nil, fmt.Errorf("merge profile update: %w", err)
	}
	s.set(merged)
	return cloneProfile(merged), nil
}

func (s *Store) set(p *models.PartnerProfile) {
	s.mu.Lock()
	s.current = cloneProfile(p)
	listeners := make([]func(*models.PartnerProfile), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(cloneProfile(p))
	}
}

func mergeProfile(current *models.PartnerProfile, raw json.RawMessage) (*models.PartnerProfile, error) {
	base, err := json.Marshal(current)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(base, &fields); err != nil {
		return nil, err
	}
	var patch map[string]json.RawMessage
	if err := json.Unmarshal(raw, &patch); err != nil {
		return nil, err
	}
	for k, v := range patch {
		fields[k] = v
	}
	combined, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	var out models.PartnerProfile
	if err := json.Unmarshal(combined, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func cloneProfile(p *models.PartnerProfile) *models.PartnerProfile {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Address = append([]models.Address(nil), p.Address...)
	return &cp
}
