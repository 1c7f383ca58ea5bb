// Package service orchestrates the will lifecycle: creation, funding,
// beneficiary configuration, the dead man's switch, execution, and claims.
//
// All mutation rules live on the models.Will aggregate; this layer sequences
// store access, ledger calls, event emission, and metrics. Caller identity is
// always an explicit parameter or taken from the authenticated request
// context, never inferred here.
package service

import (
	"context"
	"errors"
	"log/slog"

	"testament/internal/audit"
	"testament/internal/ledger"
	willmetrics "testament/internal/will/metrics"
	"testament/internal/will/models"
	id "testament/pkg/domain"
	dErrors "testament/pkg/domain-errors"
	"testament/pkg/platform/sentinel"
	"testament/pkg/requestcontext"
)

// WillStore is the registry of wills keyed by owner.
//
// Execute must run fn under the will's lock with all-or-nothing commit: an
// error from fn leaves the stored will exactly as it was. The claim path
// relies on this to keep the claimed flag and the ledger debit atomic.
type WillStore interface {
	Create(ctx context.Context, will *models.Will) error
	FindByOwner(ctx context.Context, owner id.AccountID) (*models.Will, error)
	Execute(ctx context.Context, owner id.AccountID, fn func(*models.Will) error) (*models.Will, error)
}

// EventPublisher receives the domain event trail.
type EventPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// WillService exposes the public operation surface of the registry.
type WillService struct {
	wills   WillStore
	ledger  ledger.Ledger
	events  *eventEmitter
	metrics *willmetrics.Metrics
	logger  *slog.Logger
}

type Option func(*serviceConfig)

type serviceConfig struct {
	logger    *slog.Logger
	publisher EventPublisher
	metrics   *willmetrics.Metrics
}

func WithLogger(logger *slog.Logger) Option {
	return func(cfg *serviceConfig) {
		cfg.logger = logger
	}
}

func WithEventPublisher(publisher EventPublisher) Option {
	return func(cfg *serviceConfig) {
		cfg.publisher = publisher
	}
}

func WithMetrics(m *willmetrics.Metrics) Option {
	return func(cfg *serviceConfig) {
		cfg.metrics = m
	}
}

// New constructs a WillService over the given registry and settlement ledger.
func New(wills WillStore, settlement ledger.Ledger, opts ...Option) *WillService {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}
	return &WillService{
		wills:   wills,
		ledger:  settlement,
		events:  &eventEmitter{publisher: cfg.publisher, logger: logger},
		metrics: cfg.metrics,
		logger:  logger,
	}
}

// wrapRegistryErr translates store sentinels into domain errors.
func wrapRegistryErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "no will exists for this owner")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeAlreadyExists, "a will already exists for this owner")
	default:
		return err
	}
}

// eventEmitter converts domain events to audit events, stamping request
// metadata from context. Emission failures are logged, never surfaced: the
// mutation has already committed and must not be failed retroactively.
type eventEmitter struct {
	publisher EventPublisher
	logger    *slog.Logger
}

func (e *eventEmitter) emit(ctx context.Context, event audit.Event) {
	if e.publisher == nil {
		return
	}
	event.Timestamp = requestcontext.Now(ctx)
	event.RequestID = requestcontext.RequestID(ctx)
	if err := e.publisher.Emit(ctx, event); err != nil {
		e.logger.ErrorContext(ctx, "failed to emit domain event",
			"action", event.Action,
			"owner", event.Owner.String(),
			"error", err.Error(),
		)
	}
}
