// Package shutdown provides graceful shutdown coordination.
//
// This package handles process termination signals:
//
//   - Signal handling (SIGINT, SIGTERM)
//   - Cleanup callback registration, run in reverse order
//   - One context timeout shared by all callbacks (callbacks are not
//     interrupted when it elapses; they see the context's deadline)
//   - Shutdown coordination
//
// Usage:
//
//	h := shutdown.NewHandler(10 * time.Second)
//	h.OnShutdown(func(ctx context.Context) error { return srv.Shutdown(ctx) })
//	err := h.Wait() // blocks until SIGINT/SIGTERM, then runs the hooks
package shutdown
