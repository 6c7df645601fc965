package owdb

import (
	"database/sql"
	"github.com/google/uuid"
)

// Outcome - физический итог транзакции.
type Outcome int

const (
	OutcomeCommitted Outcome = iota
	OutcomeRolledBack
)

func (o Outcome) String() string {
	if o == OutcomeCommitted {
		return "committed"
	}
	return "rolled back"
}

// Summary описывает завершенную транзакцию.
type Summary struct {
	ID        uuid.UUID
	Ordinal   Ordinal
	Isolation sql.IsolationLevel
	// Scopes - число зон, когда-либо выданных транзакцией.
	Scopes    int
	Commits   int
	Rollbacks int
	// Live - число зон, не вышедших из транзакции к моменту завершения. Отлично от нуля только для
	// транзакций, завершенных закрытием координатора.
	Live    int
	Outcome Outcome
	// Err - ошибки фиксации/отмены и освобождения ресурсов.
	Err error
}

// Notification получает итоги завершенных транзакций.
// Вызывается после освобождения внутренних блокировок координатора, но синхронно с завершением
// транзакции - в том числе из Scope.Release и Coordinator.Close.
type Notification interface {
	Committed(s Summary)
	RolledBack(s Summary)
}

func notify(ns []Notification, summaries ...Summary) {
	for _, s := range summaries {
		for _, n := range ns {
			if s.Outcome == OutcomeCommitted {
				n.Committed(s)
			} else {
				n.RolledBack(s)
			}
		}
	}
}
