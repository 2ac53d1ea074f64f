// Package subscription mirrors a payment gateway's subscription state into a
// local record store and answers entitlement questions from it.
//
// The gateway is the system of record. The service never computes a status or
// billing period itself; it copies what the gateway reports, either from a
// webhook event or by fetching the subscription. Every write is a whole-record
// overwrite, so at-least-once webhook delivery and replays leave the store in
// the same final state.
//
// # Components
//
//   - Gateway: injected payment provider capability (StripeGateway for Stripe)
//   - Store: subscription records (MongoStore, MemoryStore)
//   - UserDirectory: read access to user profiles plus the billing customer reference
//   - EventLog: optional record of applied webhook events (RedisEventLog)
//   - DeliveryTrigger: notified when a subscription ends (LogDeliveryTrigger)
//
// # Usage
//
//	gateway, err := subscription.NewStripeGateway(cfg.Stripe)
//	if err != nil {
//		return err
//	}
//
//	svc := subscription.NewService(gateway,
//		subscription.NewMongoStore(db),
//		subscription.NewMongoUserDirectory(db),
//		subscription.WithPrices(cfg.Stripe.Prices()),
//		subscription.WithBaseURL(cfg.ClientURL),
//		subscription.WithEventLog(subscription.NewRedisEventLog(redisClient, 0)),
//		subscription.WithLogger(log),
//	)
//
//	session, err := svc.Checkout(ctx, userID, subscription.CheckoutParams{Plan: "premium"})
//
// # Webhooks
//
// HandleWebhook verifies the signature before reading the payload. A bad
// signature returns ErrInvalidSignature and changes nothing. Events that can
// never be applied (missing metadata, unknown plan) are logged and acknowledged.
// Store or gateway failures return ErrProcessingFailed so the gateway redelivers.
//
// Out-of-order subscription updates resolve as last write wins.
//
// # Errors
//
// Failures are reported with the sentinel errors in errors.go, joined with the
// underlying cause. IsUpstream reports whether an error came from the gateway.
package subscription
