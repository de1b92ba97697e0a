package registeruser

import (
	"context"

	"github.com/pericialabs/coordination-go/coordination"
	"github.com/pericialabs/coordination-go/example/shared/core"
	"github.com/pericialabs/coordination-go/example/shared/shell"
)

const operation = "RegisterUser"

// Handler orchestrates the register user use case. Each invocation opens a
// unit-of-work scope, enlists a user session, stages the new user, raises
// the UserRegistered event, and commits through the scope guard.
type Handler struct {
	bus              *coordination.EventBus
	store            coordination.TransactionalStore
	users            *shell.Store[string, shell.User]
	metricsCollector coordination.MetricsCollector
}

// Option configures a Handler using the functional options pattern.
type Option func(*Handler) error

// WithStore sets the transactional store the scope should coordinate with.
func WithStore(store coordination.TransactionalStore) Option {
	return func(h *Handler) error {
		if store == nil {
			return coordination.ErrNilStore
		}

		h.store = store

		return nil
	}
}

// WithMetrics sets the metrics collector for retry instrumentation.
func WithMetrics(collector coordination.MetricsCollector) Option {
	return func(h *Handler) error {
		if collector == nil {
			return shell.ErrNilMetricsCollector
		}

		h.metricsCollector = collector

		return nil
	}
}

// NewHandler creates a new Handler with the provided dependencies and options.
func NewHandler(
	bus *coordination.EventBus,
	users *shell.Store[string, shell.User],
	options ...Option,
) (Handler, error) {
	if bus == nil {
		return Handler{}, coordination.ErrNilEventBus
	}

	h := Handler{bus: bus, users: users}

	for _, option := range options {
		if err := option(&h); err != nil {
			return Handler{}, err
		}
	}

	return h, nil
}

// Handle executes the register user use case, retrying the whole scope on
// storage conflicts.
func (h Handler) Handle(ctx context.Context, command Command) error {
	return shell.RetryOnConflict(ctx, func(ctx context.Context) error {
		return h.handleOnce(ctx, command)
	}, h.retryOptions()...)
}

func (h Handler) retryOptions() []shell.RetryOption {
	if h.metricsCollector == nil {
		return nil
	}

	return []shell.RetryOption{shell.WithRetryMetrics(h.metricsCollector, operation)}
}

func (h Handler) handleOnce(ctx context.Context, command Command) error {
	uow, err := coordination.Begin(h.bus, h.scopeOptions()...)
	if err != nil {
		return err
	}

	return uow.Execute(ctx, func(uow *coordination.UnitOfWork) error {
		session := h.users.OpenSession()
		if enlistErr := uow.Enlist(session); enlistErr != nil {
			return enlistErr
		}

		_, exists, readErr := session.GetByID(ctx, command.UserID.String())
		if readErr != nil {
			return readErr
		}
		if exists {
			return nil // idempotency, the user is already registered
		}

		user := shell.User{
			ID:    command.UserID.String(),
			Name:  command.Name,
			Email: command.Email,
			TaxID: command.TaxID,
			Role:  command.Role,
		}

		if _, addErr := session.Add(ctx, user); addErr != nil {
			return addErr
		}

		return uow.Raise(core.BuildUserRegistered(
			command.UserID,
			command.Name,
			command.Email,
			command.TaxID,
			command.Role,
			command.OccurredAt,
		))
	})
}

func (h Handler) scopeOptions() []coordination.UnitOfWorkOption {
	if h.store == nil {
		return nil
	}

	return []coordination.UnitOfWorkOption{coordination.WithStore(h.store)}
}
