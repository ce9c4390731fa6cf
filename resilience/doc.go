// Package resilience provides a context-based timeout wrapper used to
// bound the duration of flush/shutdown operations against OTel
// providers.
//
// # Quick Start
//
//	timeout := resilience.NewTimeout(resilience.TimeoutConfig{
//	    Timeout: 30 * time.Second,
//	})
//
//	err := timeout.Execute(ctx, func(ctx context.Context) error {
//	    return provider.ForceFlush(ctx)
//	})
//	if errors.Is(err, resilience.ErrTimeout) {
//	    // Deadline exceeded; provider may still be flushing in the background.
//	}
//
// # Thread Safety
//
// [Timeout].Execute is stateless and safe for concurrent use.
package resilience
