package usecase

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nearest-locations/internal/domain"
)

// Session - одна открытая страница поиска со своим SelectionSync
type Session struct {
	ID        uuid.UUID
	Sync      *SelectionSync
	CreatedAt time.Time

	mu       sync.Mutex
	lastSeen time.Time
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// LastSeen - время последнего обращения
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// SessionUseCase управляет сессиями. Каталог разбирается один раз,
// каждая сессия получает свою копию реестра.
type SessionUseCase struct {
	catalog  *LocationRegistry
	ranker   Ranker
	resolver OriginResolver
	cfg      SelectionSyncConfig
	idleTTL  time.Duration
	logger   *zap.Logger
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewSessionUseCase создает менеджер сессий
func NewSessionUseCase(
	catalog *LocationRegistry,
	ranker Ranker,
	resolver OriginResolver,
	cfg SelectionSyncConfig,
	idleTTL time.Duration,
	logger *zap.Logger,
) *SessionUseCase {
	return &SessionUseCase{
		catalog:  catalog,
		ranker:   ranker,
		resolver: resolver,
		cfg:      cfg,
		idleTTL:  idleTTL,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Create открывает новую сессию с порядком регистрации и без выбора
func (uc *SessionUseCase) Create() *Session {
	id := uuid.New()
	now := uc.now()

	sessionLogger := uc.logger.With(zap.String("session_id", id.String()))
	renderer := ViewRendererFunc(func(view domain.ViewState) {
		sessionLogger.Debug("View updated",
			zap.Uint64("version", view.Version),
			zap.Uint64("applied_request_id", view.AppliedRequestID),
			zap.Int("active", view.ActiveCount()))
	})

	session := &Session{
		ID:        id,
		CreatedAt: now,
		lastSeen:  now,
		Sync: NewSelectionSync(
			uc.catalog.Clone(),
			uc.ranker,
			uc.resolver,
			renderer,
			uc.cfg,
			sessionLogger,
		),
	}

	uc.mu.Lock()
	uc.sessions[id] = session
	total := len(uc.sessions)
	uc.mu.Unlock()

	uc.logger.Info("Session created",
		zap.String("session_id", id.String()),
		zap.Int("active_sessions", total))

	return session
}

// Get возвращает сессию и продлевает ее жизнь
func (uc *SessionUseCase) Get(id uuid.UUID) (*Session, error) {
	uc.mu.RLock()
	session, ok := uc.sessions[id]
	uc.mu.RUnlock()

	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	session.touch(uc.now())
	return session, nil
}

// Delete закрывает сессию
func (uc *SessionUseCase) Delete(id uuid.UUID) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if _, ok := uc.sessions[id]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(uc.sessions, id)
	return nil
}

// EvictIdle удаляет сессии, простаивающие дольше idleTTL
func (uc *SessionUseCase) EvictIdle(now time.Time) int {
	if uc.idleTTL <= 0 {
		return 0
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	evicted := 0
	for id, session := range uc.sessions {
		if now.Sub(session.LastSeen()) > uc.idleTTL {
			delete(uc.sessions, id)
			evicted++
		}
	}

	if evicted > 0 {
		uc.logger.Info("Idle sessions evicted",
			zap.Int("evicted", evicted),
			zap.Int("remaining", len(uc.sessions)))
	}
	return evicted
}

// Count - число открытых сессий
func (uc *SessionUseCase) Count() int {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return len(uc.sessions)
}

// Catalog - локации в порядке регистрации, без расстояний
func (uc *SessionUseCase) Catalog() []domain.Candidate {
	return uc.catalog.SnapshotOrderedByRegistration()
}
