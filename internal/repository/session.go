package repository

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/pkg"
)

const maxCodeAttempts = 64

var ErrCodeSpaceExhausted = errors.New("could not find a free session code")

type CodeGenerator func() (string, error)

// SessionRepository is the process-wide registry of live sessions.
//
// Callbacks passed to Create, Update and View run while holding the lock of
// that one session, so they are serialized per code; different codes never
// wait for each other.
type SessionRepository interface {
	Create(fn func(session *entity.Session) error) (string, error)
	Update(code string, fn func(session *entity.Session) error) error
	View(code string, fn func(session *entity.Session) error) error
	Remove(code string) bool
	Count() int
}

type sessionEntry struct {
	mu      sync.Mutex
	session *entity.Session
	removed bool
}

type memSessions struct {
	mu       sync.RWMutex
	entries  map[string]*sessionEntry
	generate CodeGenerator
}

func NewSessionRepository(generate CodeGenerator) SessionRepository {
	if generate == nil {
		generate = pkg.GenerateSessionCode
	}

	return &memSessions{
		entries:  make(map[string]*sessionEntry),
		generate: generate,
	}
}

// Create stores a new empty session under a fresh code and runs fn on it
// before anyone else can see it. If fn fails the session is discarded.
func (that *memSessions) Create(fn func(session *entity.Session) error) (string, error) {
	that.mu.Lock()

	code, err := that.freeCode()
	if err != nil {
		that.mu.Unlock()
		return "", err
	}

	entry := &sessionEntry{session: entity.NewSession(code)}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	that.entries[code] = entry
	that.mu.Unlock()

	if err = fn(entry.session); err != nil {
		entry.removed = true

		that.mu.Lock()
		delete(that.entries, code)
		that.mu.Unlock()

		return "", err
	}

	return code, nil
}

// freeCode must be called with that.mu held for writing.
func (that *memSessions) freeCode() (string, error) {
	for range maxCodeAttempts {
		code, err := that.generate()
		if err != nil {
			return "", fmt.Errorf("failed to generate session code: %w", err)
		}

		code = pkg.CanonicalCode(code)
		if _, taken := that.entries[code]; !taken {
			return code, nil
		}
	}

	return "", ErrCodeSpaceExhausted
}

func (that *memSessions) Update(code string, fn func(session *entity.Session) error) error {
	entry, err := that.lookup(code)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	// removed between lookup and lock
	if entry.removed {
		return fmt.Errorf("%w: %s", apperror.ErrSessionNotFound, entry.session.Code)
	}

	return fn(entry.session)
}

func (that *memSessions) View(code string, fn func(session *entity.Session) error) error {
	return that.Update(code, fn)
}

// Remove deletes the session and reports whether it existed. Removing an
// unknown code is a no-op.
func (that *memSessions) Remove(code string) bool {
	code = pkg.CanonicalCode(code)

	that.mu.Lock()
	entry, ok := that.entries[code]
	delete(that.entries, code)
	that.mu.Unlock()

	if !ok {
		return false
	}

	entry.mu.Lock()
	entry.removed = true
	entry.mu.Unlock()

	return true
}

func (that *memSessions) Count() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.entries)
}

func (that *memSessions) lookup(code string) (*sessionEntry, error) {
	code = pkg.CanonicalCode(code)

	that.mu.RLock()
	entry, ok := that.entries[code]
	that.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrSessionNotFound, code)
	}

	return entry, nil
}
