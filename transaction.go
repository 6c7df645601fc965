package owdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/qbixus/owdb-go/internal"
	"go.uber.org/zap"
	"io"
	"strconv"
	"sync"
)

// Ordinal различает два класса транзакций с разными путями завершения: корневую, созданную
// автоматически при присоединении к пустому стеку (завершается только при закрытии координатора), и
// независимую, созданную явно (завершается, как только из нее вышла последняя зона).
type Ordinal struct {
	independent bool
	seq         int
}

// RootOrdinal - порядок автоматически созданной корневой транзакции.
func RootOrdinal() Ordinal {
	return Ordinal{}
}

// IndependentOrdinal - порядок явно созданной транзакции; seq - число транзакций координатора на момент
// создания.
func IndependentOrdinal(seq int) Ordinal {
	internal.Assert(seq >= 0, "#args: seq", seq)
	return Ordinal{independent: true, seq: seq}
}

func (o Ordinal) IsRoot() bool {
	return !o.independent
}

// Seq возвращает порядковый номер независимой транзакции и false для корневой.
func (o Ordinal) Seq() (int, bool) {
	return o.seq, o.independent
}

func (o Ordinal) String() string {
	if o.IsRoot() {
		return "root"
	}
	return "#" + strconv.Itoa(o.seq)
}

// ---

// Transaction владеет одной парой физических соединения и транзакции драйвера (и, возможно, сессией),
// общими для всех выданных ею зон, и ведет учет их голосов.
// Соединение, транзакция драйвера и сессия создаются лениво, при открытии первой зоны, и ровно один раз.
type Transaction[S any] struct {
	id        uuid.UUID
	ordinal   Ordinal
	isolation sql.IsolationLevel
	coord     *Coordinator[S]
	log       *zap.Logger

	mu         sync.Mutex
	conn       Conn
	tx         Tx
	session    S
	hasSession bool
	live       int
	lastScope  ScopeID
	ledger     voteLedger
	disposed   bool
}

func newTransaction[S any](
	coord *Coordinator[S], id uuid.UUID, ordinal Ordinal, isolation sql.IsolationLevel,
) *Transaction[S] {
	return &Transaction[S]{
		id:        id,
		ordinal:   ordinal,
		isolation: isolation,
		coord:     coord,
		log:       coord.log.With(zap.Stringer("tx", id), zap.Stringer("ordinal", ordinal)),
		ledger:    newVoteLedger(),
	}
}

func (t *Transaction[S]) ID() uuid.UUID {
	return t.id
}

func (t *Transaction[S]) Ordinal() Ordinal {
	return t.ordinal
}

func (t *Transaction[S]) Isolation() sql.IsolationLevel {
	return t.isolation
}

// openScope выдает новую зону, при необходимости открывая соединение, транзакцию драйвера и сессию.
func (t *Transaction[S]) openScope(ctx context.Context, caller string) (*Scope[S], error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.disposed {
		return nil, fmt.Errorf("%w: transaction %s already finalized", ErrTxError, t.id)
	}

	if t.conn == nil {
		conn, err := t.coord.connect(ctx, t.coord.connString)
		if err != nil {
			return nil, fmt.Errorf("open connection: %w", err)
		}
		t.conn = conn
	}
	if t.tx == nil {
		tx, err := t.conn.BeginTx(ctx, t.isolation)
		if err != nil {
			return nil, fmt.Errorf("begin transaction (%s): %w", t.isolation, err)
		}
		t.tx = tx
	}
	if !t.hasSession && t.coord.newSession != nil {
		session, err := t.coord.newSession(ctx, t.conn, t.tx)
		if err != nil {
			return nil, fmt.Errorf("create session: %w", err)
		}
		t.session = session
		t.hasSession = true
	}

	t.lastScope++
	id := t.lastScope
	t.ledger.register(id)
	t.live++

	t.log.Debug("scope opened",
		zap.Uint64("scope", uint64(id)), zap.Int("live", t.live), zap.String("caller", caller))
	return newScope(t, id, t.conn, t.tx, t.session, caller), nil
}

func (t *Transaction[S]) vote(id ScopeID, commit bool) VoteResult {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ledger.cast(id, commit)
}

func (t *Transaction[S]) voteOf(id ScopeID) Vote {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ledger.vote(id)
}

// rollbacks возвращает число голосов за отмену на текущий момент.
func (t *Transaction[S]) rollbacks() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ledger.rolledBack
}

// Counters возвращает число выданных зон, голосов за фиксацию и голосов за отмену.
func (t *Transaction[S]) Counters() (scopes, commits, rollbacks int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ledger.total, t.ledger.committed, t.ledger.rolledBack
}

// leave учитывает выход зоны. Независимая транзакция, из которой вышла последняя зона, завершается
// координатором.
func (t *Transaction[S]) leave() error {
	t.mu.Lock()
	t.live--
	internal.Assert(t.live >= 0, "#tx: live scopes below zero", t.id)
	vacated := t.live == 0 && !t.ordinal.IsRoot()
	t.mu.Unlock()

	if vacated {
		return t.coord.finalize(t.id)
	}
	return nil
}

// dispose фиксирует транзакцию драйвера при единогласии и отменяет в противном случае, после чего
// закрывает сессию и соединение. Любой из ресурсов может отсутствовать.
func (t *Transaction[S]) dispose() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	internal.Assert(!t.disposed, "#tx: disposed twice", t.id)
	t.disposed = true

	summary := Summary{
		ID:        t.id,
		Ordinal:   t.ordinal,
		Isolation: t.isolation,
		Scopes:    t.ledger.total,
		Commits:   t.ledger.committed,
		Rollbacks: t.ledger.rolledBack,
		Live:      t.live,
	}
	t.log.Info("disposing transaction",
		zap.Int("scopes", summary.Scopes), zap.Int("commits", summary.Commits),
		zap.Int("rollbacks", summary.Rollbacks), zap.Int("live", summary.Live))

	var errs []error
	if t.ledger.total > 0 && t.ledger.unanimous() {
		summary.Outcome = OutcomeCommitted
		if t.tx != nil {
			if err := t.tx.Commit(); err != nil {
				summary.Outcome = OutcomeRolledBack
				errs = append(errs, fmt.Errorf("commit: %w", err))
			}
		}
	} else {
		summary.Outcome = OutcomeRolledBack
		if t.tx != nil {
			if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
				errs = append(errs, fmt.Errorf("rollback: %w", err))
			}
		}
	}
	t.log.Info("transaction "+summary.Outcome.String(), zap.Bool("physical", t.tx != nil))

	if closer, ok := any(t.session).(io.Closer); ok && t.hasSession {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close session: %w", err))
		}
	}
	if t.conn != nil {
		if err := t.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close connection: %w", err))
		}
	}

	summary.Err = errors.Join(errs...)
	if summary.Err != nil {
		t.log.Error("transaction disposed with errors", zap.Error(summary.Err))
	}
	return summary
}
