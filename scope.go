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
	"sync/atomic"
)

// Scope - одноразовая транзакционная зона, выданная участнику транзакции [Transaction].
// Через зону участник получает общие для транзакции соединение, транзакцию драйвера и сессию.
//
// До Release зона должна проголосовать ровно один раз: VoteCommit или VoteRollback.
type Scope[S any] struct {
	id      ScopeID
	owner   *Transaction[S]
	conn    Conn
	tx      Tx
	session S
	caller  string
	log     *zap.Logger

	mu       sync.Mutex
	voted    bool
	released bool
	leak     *leakWatch
}

func newScope[S any](owner *Transaction[S], id ScopeID, conn Conn, tx Tx, session S, caller string) *Scope[S] {
	s := &Scope[S]{
		id:      id,
		owner:   owner,
		conn:    conn,
		tx:      tx,
		session: session,
		caller:  caller,
		log:     owner.log.With(zap.Uint64("scope", uint64(id)), zap.String("caller", caller)),
	}
	s.leak = &leakWatch{log: s.log, msg: "scope collected without Release"}
	runtime.AddCleanup(s, (*leakWatch).check, s.leak)
	return s
}

func (s *Scope[S]) ID() ScopeID {
	return s.id
}

func (s *Scope[S]) TransactionID() uuid.UUID {
	return s.owner.id
}

func (s *Scope[S]) Ordinal() Ordinal {
	return s.owner.ordinal
}

func (s *Scope[S]) Isolation() sql.IsolationLevel {
	return s.owner.isolation
}

// Conn возвращает общее для транзакции физическое соединение.
func (s *Scope[S]) Conn() Conn {
	return s.conn
}

// Tx возвращает общую для транзакции транзакцию драйвера.
func (s *Scope[S]) Tx() Tx {
	return s.tx
}

// Session возвращает общую для транзакции сессию или нулевое значение S, если фабрика сессий не задана.
func (s *Scope[S]) Session() S {
	return s.session
}

// Committable истинно, пока ни одна зона транзакции не проголосовала за отмену.
// Это моментальный снимок, а не блокировка.
func (s *Scope[S]) Committable() bool {
	return s.owner.rollbacks() == 0
}

// Vote возвращает голос зоны.
func (s *Scope[S]) Vote() Vote {
	return s.owner.voteOf(s.id)
}

// VoteCommit голосует за фиксацию.
// Возвращает ErrAlreadyVoted, если зона уже голосовала.
func (s *Scope[S]) VoteCommit() error {
	return s.cast(true)
}

// VoteRollback голосует за отмену.
// Возвращает ErrAlreadyVoted, если зона уже голосовала.
func (s *Scope[S]) VoteRollback() error {
	return s.cast(false)
}

func (s *Scope[S]) cast(commit bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return fmt.Errorf("%w: scope %d already released", ErrInvalidOperation, s.id)
	}
	if s.owner.vote(s.id, commit) == VoteAlreadyCast {
		s.log.Error("already voted", zap.Bool("commit", commit))
		return fmt.Errorf("%w: scope %d of transaction %s", ErrAlreadyVoted, s.id, s.owner.id)
	}
	s.voted = true
	if commit {
		s.log.Info("vote commit")
	} else {
		s.log.Warn("vote rollback")
	}
	return nil
}

// Release выводит зону из транзакции. Последняя зона независимой транзакции завершает ее.
//
// Зона, не проголосовавшая до Release, голосует за отмену, и Release возвращает ErrNotVoted.
// Зона при этом все равно покидает транзакцию, так что независимая транзакция завершается.
// Повторный Release возвращает ErrInvalidOperation.
func (s *Scope[S]) Release() error {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return ErrInvalidOperation
	}
	s.released = true
	var errNotVoted error
	if !s.voted {
		res := s.owner.vote(s.id, false)
		internal.Assert(res == VoteAccepted, "#scope: implicit rollback rejected", s.id)
		s.log.Error("not voting")
		errNotVoted = fmt.Errorf("%w: scope %d opened at %s", ErrNotVoted, s.id, s.caller)
	}
	s.mu.Unlock()
	s.leak.done.Store(true)

	if err := s.owner.leave(); err != nil {
		return errors.Join(errNotVoted, err)
	}
	return errNotVoted
}

// ExecContext выполняет запрос в общей транзакции драйвера.
func (s *Scope[S]) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.tx.ExecContext(ctx, query, args...)
}

// QueryContext выполняет запрос в общей транзакции драйвера.
func (s *Scope[S]) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.tx.QueryContext(ctx, query, args...)
}

// QueryRowContext выполняет запрос в общей транзакции драйвера.
func (s *Scope[S]) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return s.tx.QueryRowContext(ctx, query, args...)
}

// Query выполняет запрос в общей транзакции драйвера зоны s и отображает каждую строку функцией mapper.
func Query[T, S any](
	ctx context.Context, s *Scope[S], mapper func(*sql.Rows) (T, error), query string, args ...any,
) ([]T, error) {
	internal.Assert(mapper != nil, "#args: mapper")
	rows, err := s.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []T
	for rows.Next() {
		v, err := mapper(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, v)
	}
	return results, rows.Err()
}

// ---

// leakWatch сообщает об объектах, собранных сборщиком мусора без явного освобождения. Только диагностика.
type leakWatch struct {
	done atomic.Bool
	log  *zap.Logger
	msg  string
}

func (w *leakWatch) check() {
	if !w.done.Load() {
		w.log.Warn(w.msg)
	}
}

// ---

type ScopeOption func(*scopeOptions)

// WithIsolation задает уровень изоляции. При присоединении уровень должен совпадать с уровнем текущей
// транзакции; без этой опции новая транзакция открывается с уровнем координатора по умолчанию.
func WithIsolation(level sql.IsolationLevel) ScopeOption {
	return func(options *scopeOptions) { options.isolation = &level }
}

// WithTxRequired открывает зону либо в текущей транзакции, либо в новой.
func WithTxRequired() ScopeOption {
	return func(options *scopeOptions) { options.requiresNew = false }
}

// WithRequiresNewTx открывает зону в новой транзакции.
func WithRequiresNewTx() ScopeOption {
	return func(options *scopeOptions) { options.requiresNew = true }
}

type scopeOptions struct {
	isolation   *sql.IsolationLevel
	requiresNew bool
}

func newScopeOptions(opts []ScopeOption) scopeOptions {
	options := scopeOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
