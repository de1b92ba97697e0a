package registerbuffet

import (
	"context"
	"errors"

	"github.com/pericialabs/coordination-go/coordination"
	"github.com/pericialabs/coordination-go/example/shared/core"
	"github.com/pericialabs/coordination-go/example/shared/shell"
)

const operation = "RegisterBuffet"

// ErrOwnerUserNotFound is returned when the designated owner is not a registered user.
var ErrOwnerUserNotFound = errors.New("owner user does not exist")

// Handler orchestrates the register buffet use case. The owner must already
// be a registered user; the validation read goes through the same scope's
// user session so it sees a consistent view.
type Handler struct {
	bus              *coordination.EventBus
	store            coordination.TransactionalStore
	users            *shell.Store[string, shell.User]
	buffets          *shell.Store[string, shell.Buffet]
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
	buffets *shell.Store[string, shell.Buffet],
	options ...Option,
) (Handler, error) {
	if bus == nil {
		return Handler{}, coordination.ErrNilEventBus
	}

	h := Handler{bus: bus, users: users, buffets: buffets}

	for _, option := range options {
		if err := option(&h); err != nil {
			return Handler{}, err
		}
	}

	return h, nil
}

// Handle executes the register buffet use case, retrying the whole scope on
// storage conflicts.
func (h Handler) Handle(ctx context.Context, command Command) error {
	return shell.RetryOnConflict(ctx, func(ctx context.Context) error {
		return h.handleOnce(ctx, command)
	}, h.retryOptions()...)
}

func (h Handler) handleOnce(ctx context.Context, command Command) error {
	uow, err := coordination.Begin(h.bus, h.scopeOptions()...)
	if err != nil {
		return err
	}

	return uow.Execute(ctx, func(uow *coordination.UnitOfWork) error {
		userSession := h.users.OpenSession()
		buffetSession := h.buffets.OpenSession()

		if enlistErr := uow.Enlist(userSession); enlistErr != nil {
			return enlistErr
		}
		if enlistErr := uow.Enlist(buffetSession); enlistErr != nil {
			return enlistErr
		}

		_, ownerExists, readErr := userSession.GetByID(ctx, command.OwnerUserID.String())
		if readErr != nil {
			return readErr
		}
		if !ownerExists {
			return ErrOwnerUserNotFound
		}

		_, exists, readErr := buffetSession.GetByID(ctx, command.BuffetID.String())
		if readErr != nil {
			return readErr
		}
		if exists {
			return nil // idempotency, the buffet is already registered
		}

		buffet := shell.Buffet{
			ID:          command.BuffetID.String(),
			Name:        command.Name,
			CNPJ:        command.CNPJ,
			OwnerUserID: command.OwnerUserID.String(),
		}

		if _, addErr := buffetSession.Add(ctx, buffet); addErr != nil {
			return addErr
		}

		return uow.Raise(core.BuildBuffetRegistered(
			command.BuffetID,
			command.Name,
			command.CNPJ,
			command.OwnerUserID,
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

func (h Handler) retryOptions() []shell.RetryOption {
	if h.metricsCollector == nil {
		return nil
	}

	return []shell.RetryOption{shell.WithRetryMetrics(h.metricsCollector, operation)}
}
