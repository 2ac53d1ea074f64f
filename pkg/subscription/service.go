package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/legacyvault/billing/pkg/logger"
)

// Service mirrors gateway subscription state into the record store and
// answers entitlement questions from it.
type Service struct {
	gateway  Gateway
	store    Store
	users    UserDirectory
	events   EventLog
	delivery DeliveryTrigger
	logger   *slog.Logger
	prices   map[Plan]string
	baseURL  string
	now      func() time.Time
}

// NewService creates a new Service with the given dependencies.
// Panics if gateway, store or users is nil to fail fast during initialization.
func NewService(gateway Gateway, store Store, users UserDirectory, opts ...ServiceOption) *Service {
	if gateway == nil {
		panic("subscription: Gateway is required")
	}
	if store == nil {
		panic("subscription: Store is required")
	}
	if users == nil {
		panic("subscription: UserDirectory is required")
	}

	s := &Service{
		gateway: gateway,
		store:   store,
		users:   users,
		logger:  logger.Discard(),
		prices:  make(map[Plan]string),
		now:     func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(s)
	}

	s.logger = s.logger.With(logger.Component("subscription"))
	if s.delivery == nil {
		s.delivery = NewLogDeliveryTrigger(s.logger)
	}

	return s
}

// Checkout opens a hosted checkout session for the user.
// The plan and price are validated before the gateway is contacted.
func (s *Service) Checkout(ctx context.Context, userID string, params CheckoutParams) (*CheckoutSession, error) {
	plan, err := ParsePlan(params.Plan)
	if err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, ErrMissingUserID
	}

	priceID, err := s.resolvePrice(plan, params.PriceID)
	if err != nil {
		return nil, err
	}

	customerRef, err := s.resolveCustomer(ctx, userID, true)
	if err != nil {
		return nil, err
	}

	base := strings.TrimRight(s.baseURL, "/")
	session, err := s.gateway.CreateCheckoutSession(ctx, CheckoutRequest{
		UserID:      userID,
		Plan:        plan,
		CustomerRef: customerRef,
		PriceID:     priceID,
		SuccessURL:  base + "/subscription/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:   base + "/subscription/cancel",
	})
	if err != nil {
		return nil, upstream(err)
	}

	s.logger.InfoContext(ctx, "checkout session created",
		logger.UserID(userID),
		logger.Plan(string(plan)),
	)

	return session, nil
}

// HandleWebhook verifies and applies a gateway notification.
//
// Events that can never be applied are logged and acknowledged.
// Store or gateway failures return ErrProcessingFailed so the gateway redelivers;
// every transition is an overwrite, which makes redelivery safe.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.gateway.ParseEvent(ctx, payload, signature)
	if err != nil {
		if errors.Is(err, ErrInvalidEvent) {
			s.logger.WarnContext(ctx, "unreadable webhook event acknowledged", logger.Error(err))
			return nil
		}
		return err
	}

	log := s.logger.With(
		logger.EventID(event.ID),
		logger.EventType(event.ProviderEvent),
	)

	if s.events != nil && event.ID != "" {
		done, err := s.events.Processed(ctx, event.ID)
		switch {
		case err != nil:
			log.WarnContext(ctx, "event log lookup failed", logger.Error(err))
		case done:
			log.DebugContext(ctx, "webhook event already processed")
			return nil
		}
	}

	if err := s.apply(ctx, log, event); err != nil {
		if errors.Is(err, ErrInvalidEvent) {
			log.WarnContext(ctx, "webhook event dropped", logger.Error(err))
			return nil
		}
		log.ErrorContext(ctx, "webhook event processing failed", logger.Error(err))
		return errors.Join(ErrProcessingFailed, err)
	}

	if s.events != nil && event.ID != "" {
		if err := s.events.MarkProcessed(ctx, event.ID); err != nil {
			log.WarnContext(ctx, "failed to mark webhook event processed", logger.Error(err))
		}
	}

	return nil
}

func (s *Service) apply(ctx context.Context, log *slog.Logger, event *Event) error {
	switch event.Type {
	case EventCheckoutCompleted:
		return s.applyCheckoutCompleted(ctx, log, event)
	case EventSubscriptionUpdated:
		return s.applySubscriptionUpdated(ctx, log, event)
	case EventSubscriptionDeleted:
		return s.applySubscriptionDeleted(ctx, log, event)
	default:
		log.DebugContext(ctx, "webhook event ignored")
		return nil
	}
}

func (s *Service) applyCheckoutCompleted(ctx context.Context, log *slog.Logger, event *Event) error {
	if event.UserID == "" || event.Plan == "" || event.SubscriptionRef == "" {
		return errors.Join(ErrInvalidEvent, ErrMissingMetadata)
	}
	plan, err := ParsePlan(event.Plan)
	if err != nil {
		return errors.Join(ErrInvalidEvent, err)
	}

	// The event body may be stale; the gateway holds the current state.
	gs, err := s.gateway.GetSubscription(ctx, event.SubscriptionRef)
	if err != nil {
		return upstream(err)
	}

	now := s.now()
	record, err := s.store.FindLatestByUser(ctx, event.UserID)
	switch {
	case errors.Is(err, ErrRecordNotFound):
		record = &Record{UserID: event.UserID, CreatedAt: now}
	case err != nil:
		return fmt.Errorf("failed to load subscription: %w", err)
	}

	if record.CustomerRef == "" {
		record.CustomerRef = event.CustomerRef
		if record.CustomerRef == "" {
			record.CustomerRef = gs.CustomerRef
		}
	}
	record.SubscriptionRef = event.SubscriptionRef
	record.Plan = plan
	record.mirror(gs)
	record.UpdatedAt = now

	if err := s.store.Save(ctx, record); err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}

	log.InfoContext(ctx, "subscription activated",
		logger.UserID(record.UserID),
		logger.SubscriptionRef(record.SubscriptionRef),
		logger.Plan(string(record.Plan)),
		slog.String("status", string(record.Status)),
	)
	return nil
}

func (s *Service) applySubscriptionUpdated(ctx context.Context, log *slog.Logger, event *Event) error {
	if event.SubscriptionRef == "" || event.Subscription == nil {
		return errors.Join(ErrInvalidEvent, errors.New("subscription payload is missing"))
	}

	record, err := s.store.FindBySubscriptionRef(ctx, event.SubscriptionRef)
	if errors.Is(err, ErrRecordNotFound) {
		log.InfoContext(ctx, "no record for updated subscription", logger.SubscriptionRef(event.SubscriptionRef))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load subscription: %w", err)
	}

	record.mirror(event.Subscription)
	record.UpdatedAt = s.now()

	if err := s.store.Save(ctx, record); err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}

	log.InfoContext(ctx, "subscription updated",
		logger.UserID(record.UserID),
		logger.SubscriptionRef(record.SubscriptionRef),
		slog.String("status", string(record.Status)),
	)
	return nil
}

func (s *Service) applySubscriptionDeleted(ctx context.Context, log *slog.Logger, event *Event) error {
	if event.SubscriptionRef == "" {
		return errors.Join(ErrInvalidEvent, errors.New("subscription reference is missing"))
	}

	record, err := s.store.FindBySubscriptionRef(ctx, event.SubscriptionRef)
	if errors.Is(err, ErrRecordNotFound) {
		log.InfoContext(ctx, "no record for deleted subscription", logger.SubscriptionRef(event.SubscriptionRef))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load subscription: %w", err)
	}

	if event.Subscription != nil {
		record.mirror(event.Subscription)
	}
	record.Status = StatusCanceled
	record.UpdatedAt = s.now()

	if err := s.store.Save(ctx, record); err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}

	log.InfoContext(ctx, "subscription ended",
		logger.UserID(record.UserID),
		logger.SubscriptionRef(record.SubscriptionRef),
	)

	if err := s.delivery.SubscriptionEnded(ctx, record); err != nil {
		log.WarnContext(ctx, "delivery trigger failed", logger.Error(err))
	}
	return nil
}

// Cancel stops renewal of the user's entitled subscription at the end of the period.
// The local record is only touched after the gateway accepted the request.
func (s *Service) Cancel(ctx context.Context, userID string) (*Record, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}

	record, err := s.store.FindLatestByUser(ctx, userID, EntitledStatuses...)
	if err != nil {
		return nil, err
	}
	if record.SubscriptionRef == "" {
		return nil, errors.Join(ErrRecordNotFound, errors.New("record has no gateway subscription"))
	}

	if err := s.gateway.CancelAtPeriodEnd(ctx, record.SubscriptionRef); err != nil {
		return nil, upstream(err)
	}

	record.CancelAtPeriodEnd = true
	record.UpdatedAt = s.now()
	if err := s.store.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save subscription: %w", err)
	}

	s.logger.InfoContext(ctx, "subscription set to cancel at period end",
		logger.UserID(userID),
		logger.SubscriptionRef(record.SubscriptionRef),
	)

	return record, nil
}

// Current reports the user's entitlement. It never writes.
func (s *Service) Current(ctx context.Context, userID string) (*Entitlement, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}

	record, err := s.store.FindLatestByUser(ctx, userID, EntitledStatuses...)
	if errors.Is(err, ErrRecordNotFound) {
		return &Entitlement{Active: false}, nil
	}
	if err != nil {
		return nil, err
	}

	return record.Entitlement(), nil
}

// Subscription returns the user's most recent record regardless of status.
func (s *Service) Subscription(ctx context.Context, userID string) (*Record, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}
	return s.store.FindLatestByUser(ctx, userID)
}

// PaymentHistory lists the charges of the user's billing profile.
// Users without a billing profile have an empty history.
func (s *Service) PaymentHistory(ctx context.Context, userID string) ([]Payment, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}

	customerRef, err := s.resolveCustomer(ctx, userID, false)
	if errors.Is(err, ErrUserNotFound) {
		return []Payment{}, nil
	}
	if err != nil {
		return nil, err
	}
	if customerRef == "" {
		return []Payment{}, nil
	}

	payments, err := s.gateway.ListPayments(ctx, customerRef)
	if err != nil {
		return nil, upstream(err)
	}
	if payments == nil {
		payments = []Payment{}
	}
	return payments, nil
}

func (s *Service) resolvePrice(plan Plan, requested string) (string, error) {
	configured := s.prices[plan]
	switch {
	case configured == "" && requested == "":
		return "", ErrMissingPriceID
	case configured == "":
		return requested, nil
	case requested != "" && requested != configured:
		return "", ErrPriceMismatch
	}
	return configured, nil
}

// resolveCustomer finds the user's billing profile reference.
// When create is set and none exists, one is registered at the gateway and
// stored on the user; a concurrent writer's reference wins if it got there first.
func (s *Service) resolveCustomer(ctx context.Context, userID string, create bool) (string, error) {
	record, err := s.store.FindLatestByUser(ctx, userID)
	switch {
	case err == nil && record.CustomerRef != "":
		return record.CustomerRef, nil
	case err != nil && !errors.Is(err, ErrRecordNotFound):
		return "", fmt.Errorf("failed to load subscription: %w", err)
	}

	profile, err := s.users.GetProfile(ctx, userID)
	if err != nil {
		return "", err
	}
	if profile.CustomerRef != "" || !create {
		return profile.CustomerRef, nil
	}

	ref, err := s.gateway.CreateCustomer(ctx, CustomerRequest{
		UserID: userID,
		Name:   profile.FullName(),
		Email:  profile.Email,
	})
	if err != nil {
		return "", upstream(err)
	}

	stored, err := s.users.SetCustomerRef(ctx, userID, ref)
	if err != nil {
		return "", fmt.Errorf("failed to store customer reference: %w", err)
	}
	if stored != ref {
		s.logger.WarnContext(ctx, "customer reference already set by a concurrent request",
			logger.UserID(userID),
			slog.String("discarded_customer", ref),
		)
	}
	return stored, nil
}
