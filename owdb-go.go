// Package owdb координирует вложенные транзакции единицы работы поверх database/sql.
//
// Независимые участки кода открывают транзакционные зоны ([Scope]), не зная, есть ли уже открытая транзакция:
// зона либо присоединяется к текущей (окружающей) транзакции, либо открывает новую, изолированную. Физическая
// транзакция фиксируется только если все зоны, когда-либо открытые в ней, проголосовали за фиксацию.
package owdb

import (
	"errors"
	"fmt"
)

var (
	ErrTxError           = errors.New("#TX_ILLEGAL_STATE")
	ErrStackCorrupted    = fmt.Errorf("#TX_STACK_CORRUPTED: %w", ErrTxError)
	ErrDuplicateTx       = fmt.Errorf("#TX_DUPLICATE_ID: %w", ErrTxError)
	ErrIsolationConflict = errors.New("#TX_ISOLATION_CONFLICT")
	ErrAlreadyVoted      = errors.New("#TX_ALREADY_VOTED")
	ErrNotVoted          = errors.New("#TX_NOT_VOTED")
	ErrInvalidOperation  = errors.New("#TX_INVALID_OPERATION")
	ErrCoordinatorClosed = fmt.Errorf("#TX_COORDINATOR_CLOSED: %w", ErrInvalidOperation)
)

type contextKey[T any] struct{}
