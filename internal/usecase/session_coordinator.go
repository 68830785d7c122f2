package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/pkg"
)

const defaultMaxNameLength = 32

type sessionRepo interface {
	Create(fn func(session *entity.Session) error) (string, error)
	Update(code string, fn func(session *entity.Session) error) error
	View(code string, fn func(session *entity.Session) error) error
	Remove(code string) bool
	Count() int
}

// Broadcaster delivers snapshots to everyone following a session.
// Broadcast is called while the session is locked, so it must not block.
type Broadcaster interface {
	Broadcast(ctx context.Context, snapshot entity.Snapshot)
	Forget(ctx context.Context, code string)
}

type Admission struct {
	Code          string `json:"code"`
	ParticipantID string `json:"participant_id"`
}

type StartResult struct {
	Started      bool            `json:"started"`
	CurrentMover string          `json:"current_mover"`
	Snapshot     entity.Snapshot `json:"snapshot"`
}

type CoordinatorOption func(*SessionCoordinator)

func WithRandomizer(random entity.Randomizer) CoordinatorOption {
	return func(that *SessionCoordinator) {
		that.random = random
	}
}

func WithIDGenerator(newID func() string) CoordinatorOption {
	return func(that *SessionCoordinator) {
		that.newID = newID
	}
}

func WithMaxNameLength(length int) CoordinatorOption {
	return func(that *SessionCoordinator) {
		if length > 0 {
			that.maxNameLength = length
		}
	}
}

type SessionCoordinator struct {
	logger       *slog.Logger
	sessions     sessionRepo
	broadcasters []Broadcaster

	random        entity.Randomizer
	newID         func() string
	validate      *validator.Validate
	maxNameLength int
}

func NewSessionCoordinator(
	logger *slog.Logger,
	sessions sessionRepo,
	broadcasters []Broadcaster,
	opts ...CoordinatorOption,
) *SessionCoordinator {
	coordinator := &SessionCoordinator{
		logger:       logger.With("component", "coordinator"),
		sessions:     sessions,
		broadcasters: broadcasters,

		random:        entity.DefaultRandomizer(),
		newID:         pkg.GenerateParticipantID,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
		maxNameLength: defaultMaxNameLength,
	}

	for _, opt := range opts {
		opt(coordinator)
	}

	return coordinator
}

func (that *SessionCoordinator) CreateSession(ctx context.Context, name string) (Admission, error) {
	log := that.logger.With("method", "CreateSession")

	name, err := that.validName(name)
	if err != nil {
		log.Warn("rejected", "error", err)
		return Admission{}, err
	}

	participantID := that.newID()

	code, err := that.sessions.Create(func(session *entity.Session) error {
		if _, err := session.Join(participantID, name); err != nil {
			return err
		}

		that.broadcast(ctx, session)
		return nil
	})
	if err != nil {
		log.Error("failed to create session", "error", err)
		return Admission{}, fmt.Errorf("failed to create session: %w", err)
	}

	log.Info("session created", "code", code)

	return Admission{Code: code, ParticipantID: participantID}, nil
}

func (that *SessionCoordinator) JoinSession(ctx context.Context, code, name string) (Admission, error) {
	log := that.logger.With("method", "JoinSession", "code", code)

	name, err := that.validName(name)
	if err != nil {
		log.Warn("rejected", "error", err)
		return Admission{}, err
	}

	participantID := that.newID()

	var canonical string
	err = that.sessions.Update(code, func(session *entity.Session) error {
		if _, err := session.Join(participantID, name); err != nil {
			return err
		}

		canonical = session.Code
		that.broadcast(ctx, session)
		return nil
	})
	if err != nil {
		log.Warn("rejected", "error", err)
		return Admission{}, fmt.Errorf("failed to join session: %w", err)
	}

	log.Info("participant joined")

	return Admission{Code: canonical, ParticipantID: participantID}, nil
}

// StartSession starts a game where the requester plays first.
func (that *SessionCoordinator) StartSession(ctx context.Context, code, participantID string) (StartResult, error) {
	log := that.logger.With("method", "StartSession", "code", code, "participantID", participantID)

	var result StartResult
	err := that.sessions.Update(code, func(session *entity.Session) error {
		startingSlot := entity.SlotA
		if requester := session.ParticipantByID(participantID); requester != nil {
			startingSlot = requester.Slot
		}

		if err := session.Start(participantID, startingSlot); err != nil {
			return err
		}

		snapshot := that.broadcast(ctx, session)
		result = StartResult{
			Started:  session.Started,
			Snapshot: snapshot,
		}
		if mover := session.CurrentMover(); mover != nil {
			result.CurrentMover = mover.Name
		}

		return nil
	})
	if err != nil {
		log.Warn("rejected", "error", err)
		return StartResult{}, fmt.Errorf("failed to start session: %w", err)
	}

	log.Info("game started", "currentMover", result.CurrentMover)

	return result, nil
}

func (that *SessionCoordinator) SubmitMove(ctx context.Context, code, participantID string, cell int) (entity.Snapshot, error) {
	log := that.logger.With("method", "SubmitMove", "code", code, "participantID", participantID, "cell", cell)

	var snapshot entity.Snapshot
	err := that.sessions.Update(code, func(session *entity.Session) error {
		if err := session.ApplyTurn(participantID, cell); err != nil {
			return err
		}

		snapshot = that.broadcast(ctx, session)
		return nil
	})
	if err != nil {
		log.Warn("rejected", "error", err)
		return entity.Snapshot{}, fmt.Errorf("failed to submit move: %w", err)
	}

	if snapshot.Board.Outcome != nil {
		log.Info("game finished", "outcome", snapshot.Board.Outcome.Kind, "winner", snapshot.Board.Outcome.Winner)
	} else {
		log.Info("move accepted")
	}

	return snapshot, nil
}

func (that *SessionCoordinator) ResetSession(ctx context.Context, code string) error {
	log := that.logger.With("method", "ResetSession", "code", code)

	err := that.sessions.Update(code, func(session *entity.Session) error {
		if err := session.Reset(that.random); err != nil {
			return err
		}

		that.broadcast(ctx, session)
		return nil
	})
	if err != nil {
		log.Warn("rejected", "error", err)
		return fmt.Errorf("failed to reset session: %w", err)
	}

	log.Info("session reset")

	return nil
}

func (that *SessionCoordinator) GetSnapshot(_ context.Context, code string) (entity.Snapshot, error) {
	var snapshot entity.Snapshot
	err := that.sessions.View(code, func(session *entity.Session) error {
		snapshot = session.Snapshot()
		return nil
	})
	if err != nil {
		return entity.Snapshot{}, fmt.Errorf("failed to get snapshot: %w", err)
	}

	return snapshot, nil
}

// RemoveSession drops the session and its subscribers. Removing an unknown
// code is not an error.
func (that *SessionCoordinator) RemoveSession(ctx context.Context, code string) {
	code = pkg.CanonicalCode(code)

	if !that.sessions.Remove(code) {
		return
	}

	for _, broadcaster := range that.broadcasters {
		broadcaster.Forget(ctx, code)
	}

	that.logger.Info("session removed", "code", code)
}

func (that *SessionCoordinator) SessionCount() int {
	return that.sessions.Count()
}

// broadcast must be called inside the session callback, after the mutation.
func (that *SessionCoordinator) broadcast(ctx context.Context, session *entity.Session) entity.Snapshot {
	snapshot := session.Snapshot()

	for _, broadcaster := range that.broadcasters {
		broadcaster.Broadcast(ctx, snapshot)
	}

	return snapshot
}

func (that *SessionCoordinator) validName(name string) (string, error) {
	name = strings.TrimSpace(name)

	rules := fmt.Sprintf("required,max=%d", that.maxNameLength)
	if err := that.validate.Var(name, rules); err != nil {
		return "", fmt.Errorf("%w: player name must be 1-%d characters", apperror.ErrInvalidInput, that.maxNameLength)
	}

	return name, nil
}
