package owdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/qbixus/owdb-go/internal"
	"go.uber.org/zap"
	"runtime"
	"sync"
)

// Coordinator - реестр транзакций одной единицы работы (например, одного запроса).
//
// Открытые транзакции образуют стек: JoinOrCreate присоединяется только к вершине стека, AlwaysCreate
// кладет на вершину новую транзакцию. Независимая транзакция снимается со стека и завершается, как только
// из нее вышла последняя зона; корневая - только при Close.
//
// Координатор должен быть закрыт вызовом Close.
type Coordinator[S any] struct {
	connString    string
	connect       ConnectionFactory
	newSession    SessionFactory[S]
	isolation     sql.IsolationLevel
	notifications []Notification
	log           *zap.Logger
	newID         func() uuid.UUID

	mu     sync.Mutex
	stack  []uuid.UUID
	txs    map[uuid.UUID]*Transaction[S]
	closed bool
	leak   *leakWatch
}

// NewCoordinator создает координатор единицы работы. newSession может быть nil, если сессия не нужна.
func NewCoordinator[S any](
	connString string, connect ConnectionFactory, newSession SessionFactory[S], opts ...Option,
) *Coordinator[S] {
	internal.Assert(connect != nil, "#args: connect")
	options := coordinatorOptions{
		isolation: sql.LevelReadCommitted,
		log:       zap.NewNop(),
		newID:     uuid.New,
	}
	for _, opt := range opts {
		opt(&options)
	}

	c := &Coordinator[S]{
		connString:    connString,
		connect:       connect,
		newSession:    newSession,
		isolation:     options.isolation,
		notifications: options.notifications,
		log:           options.log,
		newID:         options.newID,
		txs:           make(map[uuid.UUID]*Transaction[S]),
	}
	c.leak = &leakWatch{log: c.log, msg: "coordinator collected without Close"}
	runtime.AddCleanup(c, (*leakWatch).check, c.leak)
	return c
}

// JoinOrCreate открывает зону в текущей транзакции (вершине стека) или, если стек пуст, в новой корневой
// транзакции.
//
// Возвращает ErrIsolationConflict, если WithIsolation задает уровень, отличный от уровня текущей
// транзакции; состояние координатора при этом не меняется.
func (c *Coordinator[S]) JoinOrCreate(ctx context.Context, opts ...ScopeOption) (*Scope[S], error) {
	return c.joinOrCreate(ctx, newScopeOptions(opts), internal.Caller(1))
}

// AlwaysCreate открывает зону в новой независимой транзакции с собственным соединением.
func (c *Coordinator[S]) AlwaysCreate(ctx context.Context, opts ...ScopeOption) (*Scope[S], error) {
	return c.create(ctx, newScopeOptions(opts), false, internal.Caller(1))
}

// Begin открывает зону согласно опциям: по умолчанию как JoinOrCreate, с WithRequiresNewTx - как
// AlwaysCreate.
func (c *Coordinator[S]) Begin(ctx context.Context, opts ...ScopeOption) (*Scope[S], error) {
	return c.begin(ctx, newScopeOptions(opts), internal.Caller(1))
}

// Run выполняет fn в зоне, открытой как Begin. Зона голосует за фиксацию, если fn вернула nil, и за отмену
// в остальных случаях, включая панику. fn не должна голосовать сама.
func (c *Coordinator[S]) Run(ctx context.Context, fn func(context.Context, *Scope[S]) error, opts ...ScopeOption) (err error) {
	scope, err := c.begin(ctx, newScopeOptions(opts), internal.Caller(1))
	if err != nil {
		return err
	}
	defer func() {
		if scope.Vote() == VoteUnset {
			_ = scope.VoteRollback()
		}
		if relErr := scope.Release(); relErr != nil {
			err = errors.Join(err, relErr)
		}
	}()

	if err = fn(WithCoordinator(ctx, c), scope); err != nil {
		return err
	}
	return scope.VoteCommit()
}

// Depth возвращает число открытых транзакций.
func (c *Coordinator[S]) Depth() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.stack)
}

// Current возвращает транзакцию на вершине стека или nil.
func (c *Coordinator[S]) Current() *Transaction[S] {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.stack) == 0 {
		return nil
	}
	return c.txs[c.stack[len(c.stack)-1]]
}

// Close снимает со стека и завершает все оставшиеся транзакции, начиная с вершины. Повторный вызов ничего
// не делает.
func (c *Coordinator[S]) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.leak.done.Store(true)
	c.log.Info("closing coordinator", zap.Int("depth", len(c.stack)))

	var (
		errs      []error
		summaries []Summary
	)
	for len(c.stack) > 0 {
		id := c.pop()
		t, ok := c.txs[id]
		if !ok {
			c.log.Info("transaction already removed", zap.Stringer("tx", id))
			continue
		}
		delete(c.txs, id)
		s := t.dispose()
		summaries = append(summaries, s)
		errs = append(errs, s.Err)
	}
	c.mu.Unlock()

	notify(c.notifications, summaries...)
	c.log.Info("coordinator closed")
	return errors.Join(errs...)
}

func (c *Coordinator[S]) begin(ctx context.Context, options scopeOptions, caller string) (*Scope[S], error) {
	if options.requiresNew {
		return c.create(ctx, options, false, caller)
	}
	return c.joinOrCreate(ctx, options, caller)
}

func (c *Coordinator[S]) joinOrCreate(ctx context.Context, options scopeOptions, caller string) (*Scope[S], error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrCoordinatorClosed
	}
	if len(c.stack) == 0 {
		c.mu.Unlock()
		return c.create(ctx, options, true, caller)
	}
	top := c.stack[len(c.stack)-1]
	t, ok := c.txs[top]
	c.mu.Unlock()

	if !ok {
		c.log.Error("lost transaction", zap.Stringer("tx", top))
		return nil, fmt.Errorf("%w: lost transaction %s", ErrStackCorrupted, top)
	}
	if options.isolation != nil && *options.isolation != t.isolation {
		return nil, fmt.Errorf("%w: requested %s, existing transaction %s is %s",
			ErrIsolationConflict, *options.isolation, t.id, t.isolation)
	}
	return t.openScope(ctx, caller)
}

// create регистрирует новую транзакцию и открывает в ней первую зону. promoted - создание корневой
// транзакции при присоединении к пустому стеку.
func (c *Coordinator[S]) create(
	ctx context.Context, options scopeOptions, promoted bool, caller string,
) (*Scope[S], error) {
	isolation := c.isolation
	if options.isolation != nil {
		isolation = *options.isolation
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrCoordinatorClosed
	}
	if promoted && len(c.stack) > 0 {
		// Другая зона успела создать корневую транзакцию - присоединяемся к ней.
		c.mu.Unlock()
		return c.joinOrCreate(ctx, options, caller)
	}
	ordinal := RootOrdinal()
	if !promoted {
		ordinal = IndependentOrdinal(len(c.txs))
	}
	t := newTransaction(c, c.newID(), ordinal, isolation)
	if _, exists := c.txs[t.id]; exists {
		c.mu.Unlock()
		c.log.Error("duplicate transaction id", zap.Stringer("tx", t.id))
		return nil, fmt.Errorf("%w: %s", ErrDuplicateTx, t.id)
	}
	c.txs[t.id] = t
	c.stack = append(c.stack, t.id)
	depth := len(c.stack)
	c.mu.Unlock()

	t.log.Info("transaction created", zap.Stringer("isolation", isolation), zap.Int("depth", depth))

	scope, err := t.openScope(ctx, caller)
	if err != nil {
		return nil, errors.Join(err, c.discard(t))
	}
	return scope, nil
}

// discard снимает со стека транзакцию, в которой не удалось открыть первую зону.
func (c *Coordinator[S]) discard(t *Transaction[S]) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	if len(c.stack) == 0 || c.stack[len(c.stack)-1] != t.id {
		c.mu.Unlock()
		return fmt.Errorf("%w: cannot discard transaction %s", ErrStackCorrupted, t.id)
	}
	c.pop()
	delete(c.txs, t.id)
	s := t.dispose()
	c.mu.Unlock()

	notify(c.notifications, s)
	return s.Err
}

// finalize снимает с вершины стека и завершает независимую транзакцию id, из которой вышла последняя зона.
// Транзакция обязана быть на вершине: вложенные в нее транзакции к этому моменту уже завершены.
func (c *Coordinator[S]) finalize(id uuid.UUID) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.log.Error("transaction left after coordinator close", zap.Stringer("tx", id))
		return fmt.Errorf("%w: transaction %s left after close", ErrCoordinatorClosed, id)
	}
	if len(c.stack) == 0 {
		c.mu.Unlock()
		c.log.Error("finalizing on empty stack", zap.Stringer("tx", id))
		return fmt.Errorf("%w: finalizing %s on empty stack", ErrStackCorrupted, id)
	}
	if top := c.stack[len(c.stack)-1]; top != id {
		c.mu.Unlock()
		c.log.Error("finalizing transaction is not on top", zap.Stringer("tx", id), zap.Stringer("top", top))
		return fmt.Errorf("%w: finalizing %s, top is %s", ErrStackCorrupted, id, top)
	}
	c.pop()
	t, ok := c.txs[id]
	if !ok {
		c.mu.Unlock()
		c.log.Info("transaction already removed", zap.Stringer("tx", id))
		return nil
	}
	delete(c.txs, id)
	s := t.dispose()
	c.mu.Unlock()

	notify(c.notifications, s)
	return s.Err
}

func (c *Coordinator[S]) pop() uuid.UUID {
	id := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	return id
}

// ---

type Option func(*coordinatorOptions)

// WithLogger задает журнал координатора. По умолчанию журнал отключен.
func WithLogger(log *zap.Logger) Option {
	internal.Assert(log != nil, "#args: log")
	return func(options *coordinatorOptions) { options.log = log }
}

// WithDefaultIsolation задает уровень изоляции новых транзакций, открываемых без WithIsolation.
// По умолчанию sql.LevelReadCommitted.
func WithDefaultIsolation(level sql.IsolationLevel) Option {
	return func(options *coordinatorOptions) { options.isolation = level }
}

// WithNotification подписывает n на итоги транзакций.
func WithNotification(n Notification) Option {
	internal.Assert(n != nil, "#args: n")
	return func(options *coordinatorOptions) { options.notifications = append(options.notifications, n) }
}

func withIDGenerator(newID func() uuid.UUID) Option {
	return func(options *coordinatorOptions) { options.newID = newID }
}

type coordinatorOptions struct {
	isolation     sql.IsolationLevel
	notifications []Notification
	log           *zap.Logger
	newID         func() uuid.UUID
}
