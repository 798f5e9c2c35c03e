package vm

import "context"

type fuelKey struct{}

// WithFuel returns a context carrying a starting fuel budget: Invoke will
// consume it at each OpConsumeFuel placeholder and trap OutOfFuel before
// any instruction in a block whose charge it can't afford executes. A
// context with no fuel budget runs unmetered: OpConsumeFuel becomes a
// no-op.
func WithFuel(ctx context.Context, n int64) context.Context {
	return context.WithValue(ctx, fuelKey{}, n)
}

func fuelFromContext(ctx context.Context) (int64, bool) {
	n, ok := ctx.Value(fuelKey{}).(int64)
	return n, ok
}
