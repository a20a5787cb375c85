package infra

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"deviceauth/internal/modules/auth/domain"
)

// In-memory реализации всех репозиториев. Семантика та же, что у pg-версий:
// все conditional-мутации выполняются под мьютексом как единый check-and-set.

var (
	_ domain.UserRepo    = (*MemUserRepo)(nil)
	_ domain.SessionRepo = (*MemSessionRepo)(nil)
	_ domain.DeviceRepo  = (*MemDeviceRepo)(nil)
	_ domain.HandoffRepo = (*MemHandoffRepo)(nil)
)

type MemUserRepo struct {
	mu      sync.RWMutex
	users   map[string]*domain.User // id -> user
	byProv  map[string]string       // provider_id -> id
	byEmail map[string]string       // email -> id
}

func NewMemUserRepo() *MemUserRepo {
	return &MemUserRepo{
		users:   make(map[string]*domain.User),
		byProv:  make(map[string]string),
		byEmail: make(map[string]string),
	}
}

func (r *MemUserRepo) Create(_ context.Context, p domain.CreateUserParams) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byProv[p.ProviderID]; ok {
		// идемпотентный upsert: строка уже есть
		cp := *r.users[id]
		return &cp, nil
	}
	now := time.Now().UTC()
	u := &domain.User{
		ID:         uuid.New().String(),
		ProviderID: p.ProviderID,
		Email:      strings.ToLower(p.Email),
		FirstName:  p.FirstName,
		LastName:   p.LastName,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	r.users[u.ID] = u
	r.byProv[u.ProviderID] = u.ID
	if u.Email != "" {
		r.byEmail[u.Email] = u.ID
	}
	cp := *u
	return &cp, nil
}

func (r *MemUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *MemUserRepo) GetByProviderID(_ context.Context, providerID string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byProv[providerID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r.users[id]
	return &cp, nil
}

func (r *MemUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r.users[id]
	return &cp, nil
}

func (r *MemUserRepo) Restore(_ context.Context, id, providerID string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	delete(r.byProv, u.ProviderID)
	u.ProviderID = providerID
	u.DeletedAt = nil
	u.UpdatedAt = time.Now().UTC()
	r.byProv[providerID] = u.ID
	cp := *u
	return &cp, nil
}

// SoftDelete — только для тестов валидатора.
func (r *MemUserRepo) SoftDelete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		now := time.Now().UTC()
		u.DeletedAt = &now
	}
}

type MemSessionRepo struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
}

func NewMemSessionRepo() *MemSessionRepo {
	return &MemSessionRepo{sessions: make(map[string]*domain.Session)}
}

func (r *MemSessionRepo) Create(_ context.Context, s domain.Session) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	for _, other := range r.sessions {
		if other.RefreshTokenHash == s.RefreshTokenHash {
			return nil, domain.ErrUnavailable // дубликат секрета; как unique violation
		}
	}
	now := time.Now().UTC()
	s.CreatedAt = now
	s.LastActiveAt = now
	cp := s
	r.sessions[s.ID] = &cp
	out := cp
	return &out, nil
}

func (r *MemSessionRepo) GetByID(_ context.Context, id string) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *MemSessionRepo) Rotate(_ context.Context, oldHash, newHash string, expiresAt, refreshExpiresAt time.Time) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for _, s := range r.sessions {
		if s.RefreshTokenHash == oldHash && s.RevokedAt == nil && s.RefreshExpiresAt.After(now) {
			prev := oldHash
			s.PreviousRefreshTokenHash = &prev
			s.RefreshTokenHash = newHash
			s.ExpiresAt = expiresAt
			s.RefreshExpiresAt = refreshExpiresAt
			s.LastActiveAt = now.UTC()
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MemSessionRepo) FindByRefreshHash(_ context.Context, hash string) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sessions {
		if s.RefreshTokenHash == hash {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MemSessionRepo) FindByPreviousHash(_ context.Context, hash string) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sessions {
		if s.PreviousRefreshTokenHash != nil && *s.PreviousRefreshTokenHash == hash {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MemSessionRepo) Revoke(_ context.Context, sessionID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return domain.ErrNotFound
	}
	if s.RevokedAt == nil {
		t := at.UTC()
		s.RevokedAt = &t
	}
	return nil
}

func (r *MemSessionRepo) RevokeAllForUser(_ context.Context, userID string, at time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	t := at.UTC()
	for _, s := range r.sessions {
		if s.UserID == userID && s.RevokedAt == nil {
			s.RevokedAt = &t
			count++
		}
	}
	return count, nil
}

func (r *MemSessionRepo) RevokeAllForDevice(_ context.Context, deviceID string, at time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	t := at.UTC()
	for _, s := range r.sessions {
		if s.DeviceID == deviceID && s.RevokedAt == nil {
			s.RevokedAt = &t
			count++
		}
	}
	return count, nil
}

func (r *MemSessionRepo) RevokeForUserDevice(_ context.Context, userID, deviceID string, at time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	t := at.UTC()
	for _, s := range r.sessions {
		if s.UserID == userID && s.DeviceID == deviceID && s.RevokedAt == nil {
			s.RevokedAt = &t
			count++
		}
	}
	return count, nil
}

func (r *MemSessionRepo) Touch(_ context.Context, sessionID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return domain.ErrNotFound
	}
	s.LastActiveAt = at.UTC()
	return nil
}

type MemDeviceRepo struct {
	mu      sync.RWMutex
	devices map[string]*domain.Device
}

func NewMemDeviceRepo() *MemDeviceRepo {
	return &MemDeviceRepo{devices: make(map[string]*domain.Device)}
}

func (r *MemDeviceRepo) Upsert(_ context.Context, p domain.UpsertDeviceParams) (*domain.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	d, ok := r.devices[p.ID]
	if !ok {
		d = &domain.Device{
			ID:           p.ID,
			UserID:       p.UserID,
			Name:         p.Name,
			UserAgent:    p.UserAgent,
			IsActive:     true,
			LastActiveAt: now,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		r.devices[p.ID] = d
	} else {
		d.UserID = p.UserID
		if p.Name != nil {
			d.Name = p.Name
		}
		if p.UserAgent != nil {
			d.UserAgent = p.UserAgent
		}
		d.IsActive = true
		d.RevokedAt = nil
		d.UpdatedAt = now
	}
	cp := *d
	return &cp, nil
}

func (r *MemDeviceRepo) GetByID(_ context.Context, id string) (*domain.Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.devices[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *MemDeviceRepo) ListByUser(_ context.Context, userID string) ([]domain.Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []domain.Device{}
	for _, d := range r.devices {
		if d.UserID == userID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r *MemDeviceRepo) Revoke(_ context.Context, deviceID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[deviceID]
	if !ok {
		return domain.ErrNotFound
	}
	if d.RevokedAt == nil {
		t := at.UTC()
		d.RevokedAt = &t
	}
	d.IsActive = false
	d.UpdatedAt = at.UTC()
	return nil
}

func (r *MemDeviceRepo) Touch(_ context.Context, deviceID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[deviceID]
	if !ok {
		return domain.ErrNotFound
	}
	d.LastActiveAt = at.UTC()
	return nil
}

type MemHandoffRepo struct {
	mu    sync.Mutex
	codes map[string]*domain.HandoffCode // id -> attempt
}

func NewMemHandoffRepo() *MemHandoffRepo {
	return &MemHandoffRepo{codes: make(map[string]*domain.HandoffCode)}
}

func (r *MemHandoffRepo) StartAttempt(_ context.Context, h domain.HandoffCode) (*domain.HandoffCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.codes {
		if c.DeviceID == h.DeviceID && !c.Used {
			delete(r.codes, id)
		}
	}
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	h.CreatedAt = time.Now().UTC()
	cp := h
	r.codes[h.ID] = &cp
	out := cp
	return &out, nil
}

func (r *MemHandoffRepo) Attach(_ context.Context, p domain.AttachCodeParams) (*domain.HandoffCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for _, c := range r.codes {
		if c.DeviceID == p.DeviceID && !c.Used && now.Before(c.ExpiresAt) {
			code := p.Code
			uid := p.UserID
			c.Code = &code
			c.UserID = &uid
			c.ProviderSessionID = p.ProviderSessionID
			c.ExpiresAt = p.ExpiresAt
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MemHandoffRepo) Latest(_ context.Context, deviceID string) (*domain.HandoffCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *domain.HandoffCode
	for _, c := range r.codes {
		if c.DeviceID != deviceID || c.Used {
			continue
		}
		if latest == nil || c.CreatedAt.After(latest.CreatedAt) {
			latest = c
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (r *MemHandoffRepo) Consume(_ context.Context, code, deviceID string, at time.Time) (*domain.HandoffCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.codes {
		if c.Code == nil || *c.Code != code {
			continue
		}
		if c.Used {
			return nil, domain.ErrCodeUsed
		}
		if c.DeviceID != deviceID {
			return nil, domain.ErrDeviceMismatch
		}
		if at.After(c.ExpiresAt) {
			return nil, domain.ErrCodeExpired
		}
		c.Used = true
		t := at.UTC()
		c.UsedAt = &t
		cp := *c
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MemHandoffRepo) PurgeExpired(_ context.Context, before time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for id, c := range r.codes {
		if c.ExpiresAt.Before(before) {
			delete(r.codes, id)
			count++
		}
	}
	return count, nil
}
