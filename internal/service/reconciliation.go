package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"go.uber.org/zap"

	"payrecon/internal/domain"
	"payrecon/internal/gateway"
	"payrecon/internal/redis"
	"payrecon/internal/repository"
)

const (
	defaultLockWaitTimeout   = 5 * time.Second
	defaultStoreWriteTimeout = 5 * time.Second
)

// ReconciliationConfig tunes the write path of the ReconciliationService.
type ReconciliationConfig struct {
	LockWaitTimeout   time.Duration    // Maximum wait for the record lock
	StoreWriteTimeout time.Duration    // Bound on a started write, independent of the caller
	Now               func() time.Time // Optional: defaults to time.Now in UTC
}

// ReconciliationService manages payment statuses for the admin console.
// Updates by payment id and by transaction id resolve to the same record
// before entering one critical section per record.
type ReconciliationService struct {
	repo       repository.PaymentRepository
	gateways   *gateway.Registry
	locker     redis.PaymentLockInterface
	statsCache redis.StatsCacheInterface
	logger     *zap.Logger

	now          func() time.Time
	lockWait     time.Duration
	writeTimeout time.Duration
}

// NewReconciliationService creates a new ReconciliationService.
// statsCache may be nil, in which case stats are always computed by the store.
func NewReconciliationService(
	repo repository.PaymentRepository,
	gateways *gateway.Registry,
	locker redis.PaymentLockInterface,
	statsCache redis.StatsCacheInterface,
	logger *zap.Logger,
	cfg ReconciliationConfig,
) *ReconciliationService {
	s := &ReconciliationService{
		repo:         repo,
		gateways:     gateways,
		locker:       locker,
		statsCache:   statsCache,
		logger:       logger,
		now:          cfg.Now,
		lockWait:     cfg.LockWaitTimeout,
		writeTimeout: cfg.StoreWriteTimeout,
	}

	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	if s.lockWait <= 0 {
		s.lockWait = defaultLockWaitTimeout
	}
	if s.writeTimeout <= 0 {
		s.writeTimeout = defaultStoreWriteTimeout
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// List returns one page of payments with statistics over every match.
func (s *ReconciliationService) List(ctx context.Context, filter domain.PaymentFilter) (*domain.PaymentPage, error) {
	filter = filter.Normalize()
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, fmt.Errorf("%w: status %q", domain.ErrInvalidFilter, filter.Status)
	}
	if filter.PaymentMethod != "" && !filter.PaymentMethod.IsValid() {
		return nil, fmt.Errorf("%w: payment method %q", domain.ErrInvalidFilter, filter.PaymentMethod)
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return nil, fmt.Errorf("%w: end date before start date", domain.ErrInvalidFilter)
	}

	payments, total, err := s.repo.Find(ctx, filter)
	if err != nil {
		return nil, err
	}

	stats, err := s.stats(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &domain.PaymentPage{
		Payments:   payments,
		Stats:      stats,
		Pagination: domain.NewPagination(filter.Page, filter.Limit, total),
	}, nil
}

// Get retrieves a payment by ID.
func (s *ReconciliationService) Get(ctx context.Context, paymentID string) (*domain.Payment, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return nil, ErrInvalidPaymentID
	}

	return s.repo.GetByID(ctx, paymentID)
}

// UpdateStatus sets the status of a payment addressed by its id.
func (s *ReconciliationService) UpdateStatus(ctx context.Context, paymentID string, status domain.PaymentStatus) (*domain.Payment, error) {
	if !status.IsValid() {
		return nil, ErrInvalidStatus
	}

	id, err := s.resolve(ctx, paymentID, "")
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, id, status, domain.TransitionManual, "")
}

// UpdateStatusByTranID sets the status of a payment addressed by its
// gateway transaction id.
func (s *ReconciliationService) UpdateStatusByTranID(ctx context.Context, tranID string, status domain.PaymentStatus) (*domain.Payment, error) {
	if !status.IsValid() {
		return nil, ErrInvalidStatus
	}
	if strings.TrimSpace(tranID) == "" {
		return nil, ErrInvalidTranID
	}

	id, err := s.resolve(ctx, "", tranID)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, id, status, domain.TransitionManual, "")
}

// UpdateStatusWithFallback addresses the payment by id and, when that id is
// empty or unknown, by tranID. If both fail the transaction id lookup error
// is returned.
func (s *ReconciliationService) UpdateStatusWithFallback(ctx context.Context, paymentID, tranID string, status domain.PaymentStatus) (*domain.Payment, error) {
	if !status.IsValid() {
		return nil, ErrInvalidStatus
	}

	id, err := s.resolve(ctx, paymentID, tranID)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, id, status, domain.TransitionManual, "")
}

// Validate queries the gateway for the payment with tranID and applies the
// gateway's status verbatim, including over a terminal status. A blank
// tranID is ErrNoTransactionID, as for a record without one.
func (s *ReconciliationService) Validate(ctx context.Context, tranID string) (*domain.Payment, error) {
	tranID = strings.TrimSpace(tranID)
	if tranID == "" {
		return nil, ErrNoTransactionID
	}

	payment, err := s.repo.GetByTranID(ctx, tranID)
	if err != nil {
		return nil, err
	}
	return s.validate(ctx, payment)
}

// ValidateByPaymentID is Validate for a payment addressed by its id.
func (s *ReconciliationService) ValidateByPaymentID(ctx context.Context, paymentID string) (*domain.Payment, error) {
	payment, err := s.Get(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !payment.HasTranID() {
		return nil, ErrNoTransactionID
	}
	return s.validate(ctx, payment)
}

// validate runs the gateway query outside the record lock.
func (s *ReconciliationService) validate(ctx context.Context, payment *domain.Payment) (*domain.Payment, error) {
	route := s.gateways.For(payment.PaymentMethod)

	native, err := route.Adapter.QueryStatus(ctx, payment.TranID)
	if err != nil {
		s.logger.Warn("gateway query failed",
			zap.String("payment_id", payment.ID),
			zap.String("tran_id", payment.TranID),
			zap.String("gateway", route.Adapter.Name()),
			zap.Error(err),
		)
		if !errors.Is(err, gateway.ErrUnavailable) {
			err = fmt.Errorf("%w: %s: %w", gateway.ErrUnavailable, route.Adapter.Name(), err)
		}
		return nil, err
	}

	return s.apply(ctx, payment.ID, route.Mapping.Map(native), domain.TransitionGateway, native)
}

// resolve maps either key to the canonical payment id. The transaction id is
// only consulted when the payment id is empty or unknown.
func (s *ReconciliationService) resolve(ctx context.Context, paymentID, tranID string) (string, error) {
	paymentID = strings.TrimSpace(paymentID)
	tranID = strings.TrimSpace(tranID)

	if paymentID != "" {
		payment, err := s.repo.GetByID(ctx, paymentID)
		if err == nil {
			return payment.ID, nil
		}
		if !errors.Is(err, repository.ErrNotFound) || tranID == "" {
			return "", err
		}
		s.logger.Info("payment id not found, resolving by transaction id",
			zap.String("payment_id", paymentID),
			zap.String("tran_id", tranID),
		)
	} else if tranID == "" {
		return "", ErrInvalidPaymentID
	}

	payment, err := s.repo.GetByTranID(ctx, tranID)
	if err != nil {
		return "", err
	}
	return payment.ID, nil
}

// apply is the single critical section for every status write.
func (s *ReconciliationService) apply(ctx context.Context, id string, status domain.PaymentStatus, source domain.TransitionSource, native gateway.Status) (*domain.Payment, error) {
	lockCtx, cancelLock := context.WithTimeout(ctx, s.lockWait)
	unlock, err := s.locker.Lock(lockCtx, id)
	cancelLock()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: payment %s", ErrLockTimeout, id)
		}
		return nil, err
	}
	defer unlock()

	// A started write completes even if the caller goes away.
	writeCtx, cancelWrite := context.WithTimeout(context.WithoutCancel(ctx), s.writeTimeout)
	defer cancelWrite()

	current, err := s.repo.GetByID(writeCtx, id)
	if err != nil {
		return nil, err
	}

	updated := current.Clone()
	updated.ApplyStatus(status, s.now())

	if err := s.repo.UpdateStatus(writeCtx, id, updated.Status, updated.PaymentDate, updated.UpdatedAt); err != nil {
		return nil, fmt.Errorf("update payment %s: %w", id, err)
	}

	if s.statsCache != nil {
		if err := s.statsCache.Invalidate(writeCtx); err != nil {
			s.logger.Warn("stats cache invalidation failed", zap.Error(err))
		}
	}

	fields := []zap.Field{
		zap.String("payment_id", id),
		zap.String("tran_id", updated.TranID),
		zap.String("from", string(current.Status)),
		zap.String("to", string(updated.Status)),
		zap.String("source", string(source)),
	}
	if native != "" {
		fields = append(fields, zap.String("gateway_status", string(native)))
	}
	s.logger.Info("payment status updated", fields...)

	txn := newrelic.FromContext(ctx)
	txn.AddAttribute("payment_id", id)
	txn.AddAttribute("payment_status", string(updated.Status))
	txn.AddAttribute("transition_source", string(source))

	return updated, nil
}

// stats reads statistics through the cache. Cache failures fall back to the store.
func (s *ReconciliationService) stats(ctx context.Context, filter domain.PaymentFilter) (domain.PaymentStats, error) {
	var (
		version  int64
		cachable bool
	)

	if s.statsCache != nil {
		cached, v, err := s.statsCache.Get(ctx, filter)
		switch {
		case err != nil:
			s.logger.Warn("stats cache read failed", zap.Error(err))
		case cached != nil:
			return *cached, nil
		default:
			version, cachable = v, true
		}
	}

	totals, err := s.repo.Totals(ctx, filter)
	if err != nil {
		return domain.PaymentStats{}, err
	}
	stats := NewTally(totals).Summary()

	if cachable {
		if err := s.statsCache.Set(ctx, filter, version, stats); err != nil {
			s.logger.Warn("stats cache write failed", zap.Error(err))
		}
	}
	return stats, nil
}
