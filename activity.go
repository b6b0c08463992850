package autoconf

import "github.com/goliatone/go-autoconf/pkg/activity"

// WithActivityHooks emits component events to hooks on the default
// "autoconf" channel. Nil hooks are dropped.
func WithActivityHooks(hooks activity.Hooks) ResolverOption {
	cloned := hooks.Clone()
	return func(cfg *resolverConfig) {
		cfg.activityHooks = cloned
	}
}

// WithActivityChannel overrides the channel stamped on emitted events.
func WithActivityChannel(channel string) ResolverOption {
	return func(cfg *resolverConfig) {
		cfg.activityChannel = channel
	}
}

func (cfg resolverConfig) emitter() *activity.Emitter {
	return activity.NewEmitter(cfg.activityHooks, activity.Config{
		Enabled: cfg.activityHooks.Enabled(),
		Channel: cfg.activityChannel,
	})
}
