package openinvestigation

import (
	"context"
	"errors"

	"github.com/pericialabs/coordination-go/coordination"
	"github.com/pericialabs/coordination-go/example/shared/core"
	"github.com/pericialabs/coordination-go/example/shared/shell"
)

const operation = "OpenInvestigation"

// ErrBuffetNotFound is returned when the requesting law firm is not registered.
var ErrBuffetNotFound = errors.New("buffet does not exist")

// Handler orchestrates the open investigation use case. The requesting
// buffet must exist; the new case starts in the open status.
type Handler struct {
	bus              *coordination.EventBus
	store            coordination.TransactionalStore
	buffets          *shell.Store[string, shell.Buffet]
	investigations   *shell.Store[string, shell.Investigation]
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
	buffets *shell.Store[string, shell.Buffet],
	investigations *shell.Store[string, shell.Investigation],
	options ...Option,
) (Handler, error) {
	if bus == nil {
		return Handler{}, coordination.ErrNilEventBus
	}

	h := Handler{bus: bus, buffets: buffets, investigations: investigations}

	for _, option := range options {
		if err := option(&h); err != nil {
			return Handler{}, err
		}
	}

	return h, nil
}

// Handle executes the open investigation use case, retrying the whole scope
// on storage conflicts.
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
		buffetSession := h.buffets.OpenSession()
		investigationSession := h.investigations.OpenSession()

		if enlistErr := uow.Enlist(buffetSession); enlistErr != nil {
			return enlistErr
		}
		if enlistErr := uow.Enlist(investigationSession); enlistErr != nil {
			return enlistErr
		}

		_, buffetExists, readErr := buffetSession.GetByID(ctx, command.BuffetID.String())
		if readErr != nil {
			return readErr
		}
		if !buffetExists {
			return ErrBuffetNotFound
		}

		_, exists, readErr := investigationSession.GetByID(ctx, command.InvestigationID.String())
		if readErr != nil {
			return readErr
		}
		if exists {
			return nil // idempotency, the case is already open
		}

		investigation := shell.Investigation{
			ID:                command.InvestigationID.String(),
			Plate:             command.Plate,
			VIN:               command.VIN,
			BuffetID:          command.BuffetID.String(),
			RequestedByUserID: command.RequestedByUserID.String(),
			Status:            shell.InvestigationStatusOpen,
		}

		if _, addErr := investigationSession.Add(ctx, investigation); addErr != nil {
			return addErr
		}

		return uow.Raise(core.BuildInvestigationOpened(
			command.InvestigationID,
			command.Plate,
			command.VIN,
			command.BuffetID,
			command.RequestedByUserID,
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
