package notify

import (
	"context"
	"os"
	"os/signal"
)

// RelaySignals posts the notification mapped to each received signal until ctx
// is done. Delivery goes through post so observers run on the caller's
// execution context; post == nil delivers from the relay goroutine.
func RelaySignals(ctx context.Context, c *Center, mapping map[os.Signal]Notification, post func(func()) bool) {
	if len(mapping) == 0 {
		return
	}

	sigs := make([]os.Signal, 0, len(mapping))
	for sig := range mapping {
		sigs = append(sigs, sig)
	}

	ch := make(chan os.Signal, len(sigs))
	signal.Notify(ch, sigs...)

	go func() {
		defer signal.Stop(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-ch:
				n, ok := mapping[sig]
				if !ok {
					continue
				}
				if post == nil {
					c.Post(n)
					continue
				}
				post(func() { c.Post(n) })
			}
		}
	}()
}
