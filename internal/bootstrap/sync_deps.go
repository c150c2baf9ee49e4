// Package bootstrap wires configuration, adapters, and services into a
// running API.
package bootstrap

import (
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"airsync_server/adapter/out/airmeet"
	"airsync_server/adapter/out/devrev"
	"airsync_server/config"
	"airsync_server/core/service/activity"
	"airsync_server/core/service/identity"
	"airsync_server/core/service/notification"
	"airsync_server/core/service/webhook"
	"airsync_server/pkg/apperr"
)

// Dependencies holds every wired component of the service.
type Dependencies struct {
	Redis *redis.Client

	Airmeet *airmeet.Client
	DevRev  *devrev.Client

	Resolver   *identity.Resolver
	Recorder   *activity.Recorder
	Notifier   *notification.Notifier
	Dispatcher *webhook.Dispatcher
	Registrar  *webhook.Registrar
}

// NewDependencies builds the full dependency graph. The returned cleanup
// closes everything that holds connections.
func NewDependencies(cfg *config.Config, log zerolog.Logger) (*Dependencies, func(), error) {
	deps := &Dependencies{}

	// Redis is optional: without it, delivery dedupe falls through to the
	// record store's unique keys.
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, apperr.ConfigError("invalid REDIS_URL").WithError(err)
		}
		deps.Redis = redis.NewClient(opts)
		log.Info().Msg("redis delivery dedupe enabled")
	} else {
		log.Info().Msg("redis not configured, delivery dedupe disabled")
	}

	deps.Airmeet = airmeet.NewClient(airmeet.Config{
		BaseURL:     cfg.AirmeetBaseURL,
		AccessKey:   cfg.AirmeetAccessKey,
		SecretKey:   cfg.AirmeetSecretKey,
		CommunityID: cfg.AirmeetCommunityID,
	}, log)

	deps.DevRev = devrev.NewClient(devrev.Config{
		BaseURL: cfg.DevRevBaseURL,
		Token:   cfg.DevRevAPIToken,
	}, log)

	rules := identity.NewDomainRules()
	if len(cfg.GenericDomains) > 0 {
		rules = identity.NewDomainRulesWith(cfg.GenericDomains)
	}

	deps.Resolver = identity.NewResolver(deps.DevRev, rules, log)
	deps.Recorder = activity.NewRecorder(deps.DevRev, log)
	deps.Notifier = notification.NewNotifier(deps.DevRev, cfg.DevRevDefaultOwnerID, log)
	deps.Dispatcher = webhook.NewDispatcher(deps.Resolver, deps.Recorder, deps.Notifier, deps.Airmeet, log)
	deps.Registrar = webhook.NewRegistrar(deps.Airmeet, cfg.WebhookBaseURL, log)

	cleanup := func() {
		if deps.Redis != nil {
			_ = deps.Redis.Close()
		}
	}

	return deps, cleanup, nil
}
