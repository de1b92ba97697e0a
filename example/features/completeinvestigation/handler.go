package completeinvestigation

import (
	"context"
	"errors"

	"github.com/pericialabs/coordination-go/coordination"
	"github.com/pericialabs/coordination-go/example/shared/core"
	"github.com/pericialabs/coordination-go/example/shared/shell"
)

const operation = "CompleteInvestigation"

var (
	// ErrInvestigationNotFound is returned when the case does not exist.
	ErrInvestigationNotFound = errors.New("investigation does not exist")

	// ErrInvestigationNotOpen is returned when the case is not in the open status.
	ErrInvestigationNotOpen = errors.New("investigation is not open")
)

// Handler orchestrates the complete investigation use case. Only an open
// case can be completed; completion records the report summary and raises
// the InvestigationCompleted event.
type Handler struct {
	bus              *coordination.EventBus
	store            coordination.TransactionalStore
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
	investigations *shell.Store[string, shell.Investigation],
	options ...Option,
) (Handler, error) {
	if bus == nil {
		return Handler{}, coordination.ErrNilEventBus
	}

	h := Handler{bus: bus, investigations: investigations}

	for _, option := range options {
		if err := option(&h); err != nil {
			return Handler{}, err
		}
	}

	return h, nil
}

// Handle executes the complete investigation use case, retrying the whole
// scope on storage conflicts.
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
		session := h.investigations.OpenSession()
		if enlistErr := uow.Enlist(session); enlistErr != nil {
			return enlistErr
		}

		investigation, exists, readErr := session.GetByID(ctx, command.InvestigationID.String())
		if readErr != nil {
			return readErr
		}
		if !exists {
			return ErrInvestigationNotFound
		}

		if investigation.Status == shell.InvestigationStatusCompleted {
			return nil // idempotency, the case is already completed
		}
		if investigation.Status != shell.InvestigationStatusOpen {
			return ErrInvestigationNotOpen
		}

		investigation.Status = shell.InvestigationStatusCompleted
		investigation.ReportSummary = command.ReportSummary

		if _, updateErr := session.Update(ctx, investigation); updateErr != nil {
			return updateErr
		}

		return uow.Raise(core.BuildInvestigationCompleted(
			command.InvestigationID,
			command.CompletedByUserID,
			command.ReportSummary,
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
