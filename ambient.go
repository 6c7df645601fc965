package owdb

import (
	"context"
)

// WithCoordinator возвращает производный по отношению к ctx контекст с координатором единицы работы.
func WithCoordinator[S any](ctx context.Context, c *Coordinator[S]) context.Context {
	return context.WithValue(ctx, contextKey[*Coordinator[S]]{}, c)
}

// CurrentCoordinator возвращает координатор единицы работы из ctx или nil.
func CurrentCoordinator[S any](ctx context.Context) *Coordinator[S] {
	c, ok := ctx.Value(contextKey[*Coordinator[S]]{}).(*Coordinator[S])
	if !ok {
		return nil
	}
	return c
}

// RunInContext выполняет fn как [Coordinator.Run] координатора из ctx.
// Возвращает ErrInvalidOperation, если в ctx нет координатора с сессией типа S.
func RunInContext[S any](ctx context.Context, fn func(context.Context, *Scope[S]) error, opts ...ScopeOption) error {
	c := CurrentCoordinator[S](ctx)
	if c == nil {
		return ErrInvalidOperation
	}
	return c.Run(ctx, fn, opts...)
}
