package refunds

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"finrota.com/app/internal/connector"
	"finrota.com/app/internal/gsm"
	"finrota.com/app/internal/integrity"
	"finrota.com/app/internal/metrics"
	"finrota.com/app/internal/modules/payments"
	"finrota.com/app/internal/scheduler"
	"finrota.com/app/internal/shared/apperr"
)

// Collaborator contracts, narrowed so tests can fake them.

type RefundStore interface {
	Insert(ctx context.Context, ref *Refund) error
	Update(ctx context.Context, refundID string, updates map[string]any) error
	FindByID(ctx context.Context, merchantID, refundID string) (Refund, error)
	FindForWorkflow(ctx context.Context, refundID string) (Refund, error)
	Aggregate(ctx context.Context, paymentID, connectorTransactionID string) (TransactionAggregate, error)
	List(ctx context.Context, merchantID string, f ListFilters) ([]Refund, int64, error)
}

type PaymentStore interface {
	FindByID(ctx context.Context, merchantID, paymentID string) (payments.Payment, error)
	LastSuccessfulAttempt(ctx context.Context, paymentID string) (payments.PaymentAttempt, error)
}

type Resolver interface {
	Resolve(name string) (connector.Connector, error)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, conn connector.Connector, rd *connector.RouterData) error
}

type TaskQueue interface {
	Schedule(ctx context.Context, operation string, payload scheduler.WorkflowPayload, at time.Time) error
}

type Config struct {
	Validation ValidationConfig
	SyncDelay  time.Duration // wait before the post-create reconciliation poll
}

func DefaultConfig() Config {
	return Config{
		Validation: DefaultValidationConfig(),
		SyncDelay:  10 * time.Minute,
	}
}

type Service struct {
	refunds    RefundStore
	payments   PaymentStore
	resolver   Resolver
	dispatcher Dispatcher
	statusMap  gsm.Lookup
	tasks      TaskQueue
	metrics    *metrics.Counters
	logger     *slog.Logger
	cfg        Config
}

func NewService(
	refunds RefundStore,
	payments PaymentStore,
	resolver Resolver,
	dispatcher Dispatcher,
	statusMap gsm.Lookup,
	tasks TaskQueue,
	m *metrics.Counters,
	logger *slog.Logger,
	cfg Config,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = &metrics.Counters{}
	}
	return &Service{
		refunds:    refunds,
		payments:   payments,
		resolver:   resolver,
		dispatcher: dispatcher,
		statusMap:  statusMap,
		tasks:      tasks,
		metrics:    m,
		logger:     logger,
		cfg:        cfg,
	}
}

type CreateRequest struct {
	PaymentID   string
	Amount      *int64
	ReferenceID *string
	ExternalID  *string // merchant-facing alias, echoed back verbatim
	Reason      *string
	Metadata    json.RawMessage
	RefundType  string // instant (default) | scheduled
}

// Create validates the request, persists the refund (the unique index rejects
// duplicates), and either dispatches now (instant) or leaves it to the task
// queue (scheduled). Task enqueue only ever happens after a successful insert.
func (s *Service) Create(ctx context.Context, merchantID string, req CreateRequest) (View, error) {
	pay, err := s.payments.FindByID(ctx, merchantID, req.PaymentID)
	if err != nil {
		if errors.Is(err, payments.ErrPaymentNotFound) {
			return View{}, apperr.NotFoundErr(CodePaymentNotFound, "payment not found")
		}
		return View{}, apperr.Wrap(err)
	}

	attempt, err := s.payments.LastSuccessfulAttempt(ctx, pay.ID)
	if err != nil {
		if errors.Is(err, payments.ErrAttemptNotFound) {
			return View{}, apperr.InvalidErr(CodeNotRefundable,
				"payment has no successful attempt to refund against", nil)
		}
		return View{}, apperr.Wrap(err)
	}
	if attempt.ConnectorTransactionID == nil || *attempt.ConnectorTransactionID == "" {
		return View{}, apperr.InvalidErr(CodeNotRefundable,
			"payment attempt has no connector transaction reference", nil)
	}

	agg, err := s.refunds.Aggregate(ctx, pay.ID, *attempt.ConnectorTransactionID)
	if err != nil {
		return View{}, apperr.Wrap(err)
	}

	amount, err := validateCreate(createCheck{
		Payment:         pay,
		RequestedAmount: req.Amount,
		Prior:           agg,
		Now:             time.Now(),
		Config:          s.cfg.Validation,
	})
	if err != nil {
		return View{}, err
	}

	refundType := TypeInstant
	if req.RefundType == TypeScheduled {
		refundType = TypeScheduled
	}

	now := time.Now()
	ref := Refund{
		ID:                     uuid.NewString(),
		MerchantID:             merchantID,
		PaymentID:              pay.ID,
		AttemptID:              attempt.ID,
		Connector:              attempt.Connector,
		MerchantConnectorID:    attempt.MerchantConnectorID,
		ConnectorTransactionID: *attempt.ConnectorTransactionID,
		TotalAmount:            pay.AmountCaptured,
		RefundAmount:           amount,
		Currency:               pay.Currency,
		RefundType:             refundType,
		Status:                 StatusPending,
		SentToGateway:          false,
		Reason:                 req.Reason,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	ref.ReferenceID = ref.ID
	if req.ReferenceID != nil && *req.ReferenceID != "" {
		ref.ReferenceID = *req.ReferenceID
	}
	if req.ExternalID != nil && *req.ExternalID != "" {
		ref.ExternalID = req.ExternalID
	}
	if len(req.Metadata) > 0 {
		ref.Metadata = []byte(req.Metadata)
	}

	if err := s.refunds.Insert(ctx, &ref); err != nil {
		if errors.Is(err, ErrDuplicateRefund) {
			return View{}, apperr.ConflictErr(CodeDuplicateRequest,
				"a refund with this reference id already exists for this payment")
		}
		return View{}, apperr.Wrap(err)
	}

	payload := scheduler.WorkflowPayload{
		RefundID:               ref.ID,
		PaymentID:              ref.PaymentID,
		ConnectorTransactionID: ref.ConnectorTransactionID,
	}

	if refundType == TypeScheduled {
		if err := s.enqueue(ctx, scheduler.TaskExecuteRefund, payload, now); err != nil {
			return View{}, apperr.Wrap(err)
		}
		return NewView(ref), nil
	}

	// Instant: dispatch inline. A dispatch-level infra failure leaves the
	// refund Pending; the sync task below reconciles it either way.
	ref, derr := s.dispatchAndReconcile(ctx, connector.FlowExecute, ref)
	if derr != nil {
		s.logger.ErrorContext(ctx, "instant refund dispatch unresolved",
			"refund_id", ref.ID, "connector", ref.Connector, "err", derr)
	}

	if err := s.enqueue(ctx, scheduler.TaskSyncRefund, payload, time.Now().Add(s.cfg.SyncDelay)); err != nil {
		return View{}, apperr.Wrap(err)
	}

	return NewView(ref), nil
}

// Retrieve returns the refund, reconciling against the connector first when
// the record is still live (or the caller forces it).
func (s *Service) Retrieve(ctx context.Context, merchantID, refundID string, forceSync bool) (View, error) {
	ref, err := s.refunds.FindByID(ctx, merchantID, refundID)
	if err != nil {
		if errors.Is(err, ErrRefundNotFound) {
			return View{}, apperr.NotFoundErr(CodeRefundNotFound, "refund not found")
		}
		return View{}, apperr.Wrap(err)
	}

	if !ShouldCallRefund(ref, forceSync) {
		return NewView(ref), nil
	}

	ref, err = s.dispatchAndReconcile(ctx, connector.FlowRSync, ref)
	if err != nil {
		return View{}, err
	}
	return NewView(ref), nil
}

func (s *Service) List(ctx context.Context, merchantID string, f ListFilters) (ListResult, error) {
	items, total, err := s.refunds.List(ctx, merchantID, f)
	if err != nil {
		return ListResult{}, apperr.Wrap(err)
	}
	out := ListResult{Items: make([]View, 0, len(items)), TotalCount: total}
	for _, r := range items {
		out.Items = append(out.Items, NewView(r))
	}
	return out, nil
}

// ShouldCallRefund: poll the connector only when it has accepted the refund
// and the record is still live (or the caller forces a re-sync). Repeated
// polling of terminal refunds is a no-op.
func ShouldCallRefund(r Refund, forceSync bool) bool {
	if r.ConnectorRefundID == nil || *r.ConnectorRefundID == "" {
		return false
	}
	return forceSync || !r.Terminal()
}

// dispatchAndReconcile is the single reconciliation path shared by instant
// execution, scheduled execution, background sync, and force-sync: dispatch,
// integrity check, error unification, state-machine update.
func (s *Service) dispatchAndReconcile(ctx context.Context, flow connector.Flow, ref Refund) (Refund, error) {
	s.metrics.IncAttempts()

	conn, err := s.resolver.Resolve(ref.Connector)
	if err != nil {
		return ref, apperr.Wrap(err)
	}

	rd := routerData(flow, ref)
	t := s.reconcile(ctx, ref, rd, s.dispatcher.Dispatch(ctx, conn, rd))

	if len(t.Updates) > 0 {
		if uerr := s.refunds.Update(ctx, ref.ID, t.Updates); uerr != nil {
			return ref, apperr.Wrap(uerr)
		}
		updated, ferr := s.refunds.FindForWorkflow(ctx, ref.ID)
		if ferr != nil {
			return ref, apperr.Wrap(ferr)
		}
		ref = updated
	}

	switch t.Status {
	case StatusSuccess:
		s.metrics.IncSuccesses()
	case StatusFailure:
		s.metrics.IncFailures()
	}

	if t.Infra != nil {
		return ref, apperr.Wrap(t.Infra)
	}
	return ref, nil
}

// reconcile maps the raw dispatch outcome onto a state transition.
func (s *Service) reconcile(ctx context.Context, ref Refund, rd *connector.RouterData, dispatchErr error) transition {
	if dispatchErr != nil {
		var ce *connector.Error
		if errors.As(dispatchErr, &ce) {
			t := outcomeFromDispatchError(ce)
			if t.Status == StatusFailure {
				s.logger.WarnContext(ctx, "refund dispatch refused by adapter",
					"refund_id", ref.ID, "connector", ref.Connector, "kind", string(ce.Kind))
			}
			return t
		}
		return transition{Infra: dispatchErr}
	}

	if rd.Error != nil {
		uc, um := gsm.Unify(ctx, s.statusMap, ref.Connector, rd.Error.Code, rd.Error.Message, s.logger)
		s.logger.InfoContext(ctx, "refund declined by connector",
			"refund_id", ref.ID, "connector", ref.Connector,
			"code", rd.Error.Code, "unified_code", uc)
		return outcomeFromErrorResponse(rd.Error, uc, um)
	}

	check := integrity.CheckRefund(rd.Request, *rd.Response)
	if !check.OK() {
		s.metrics.IncIntegrityFailures()
		s.logger.ErrorContext(ctx, "refund integrity check failed",
			"refund_id", ref.ID, "connector", ref.Connector, "fields", check.FieldList())
	}
	return outcomeFromResponse(rd.Response, check)
}

// errStillPending makes the worker re-poll a live refund instead of dropping
// the sync task.
var errStillPending = errors.New("refund not yet terminal")

// HandleTask implements scheduler.Handler: the background workers re-enter
// the same orchestration functions the inline path uses.
func (s *Service) HandleTask(ctx context.Context, operation string, payload scheduler.WorkflowPayload) error {
	ref, err := s.refunds.FindForWorkflow(ctx, payload.RefundID)
	if err != nil {
		if errors.Is(err, ErrRefundNotFound) {
			// Row gone means there is nothing left to drive.
			s.logger.WarnContext(ctx, "task references missing refund", "refund_id", payload.RefundID)
			return nil
		}
		return err
	}

	switch operation {
	case scheduler.TaskExecuteRefund:
		if ref.Terminal() {
			return nil
		}
		ref, err = s.dispatchAndReconcile(ctx, connector.FlowExecute, ref)
		if err != nil {
			return err
		}
		// Reconcile later regardless of the verdict; sync is the authority.
		return s.enqueue(ctx, scheduler.TaskSyncRefund, payload, time.Now().Add(s.cfg.SyncDelay))

	case scheduler.TaskSyncRefund:
		if !ShouldCallRefund(ref, false) {
			return nil
		}
		ref, err = s.dispatchAndReconcile(ctx, connector.FlowRSync, ref)
		if err != nil {
			return err
		}
		if !ref.Terminal() {
			return errStillPending
		}
		return nil

	default:
		return fmt.Errorf("unknown task operation: %s", operation)
	}
}

// enqueue tolerates a duplicate task: one pending task per (refund,
// operation) is the invariant, not an error worth surfacing.
func (s *Service) enqueue(ctx context.Context, operation string, payload scheduler.WorkflowPayload, at time.Time) error {
	err := s.tasks.Schedule(ctx, operation, payload, at)
	if err != nil {
		if errors.Is(err, scheduler.ErrDuplicateTask) {
			return nil
		}
		return err
	}
	s.metrics.IncTasksEnqueued()
	return nil
}

func routerData(flow connector.Flow, r Refund) *connector.RouterData {
	rd := &connector.RouterData{
		Flow:                flow,
		Connector:           r.Connector,
		MerchantID:          r.MerchantID,
		MerchantConnectorID: r.MerchantConnectorID,
		RefundID:            r.ID,
		PaymentID:           r.PaymentID,
		Request: connector.RefundRequestData{
			RefundID:               r.ID,
			ConnectorTransactionID: r.ConnectorTransactionID,
			Amount:                 r.RefundAmount,
			PaymentAmount:          r.TotalAmount,
			Currency:               r.Currency,
		},
	}
	if r.Reason != nil {
		rd.Request.Reason = *r.Reason
	}
	if flow == connector.FlowRSync && r.ConnectorRefundID != nil {
		rd.Request.ConnectorRefundID = *r.ConnectorRefundID
	}
	return rd
}
