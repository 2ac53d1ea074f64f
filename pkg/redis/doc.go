// Package redis connects to a Redis server with retries and exposes a
// ping-based health check. The webhook event log is its main consumer.
//
//	var cfg redis.Config
//	config.MustLoad(&cfg)
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	ready := redis.Healthcheck(client)
//
// Errors are sentinel values joined with the go-redis cause, so errors.Is
// works against both.
package redis
