package owdb

import (
	"github.com/qbixus/owdb-go/internal"
)

// ScopeID - непрозрачный идентификатор зоны внутри транзакции.
type ScopeID uint64

// Vote - голос зоны.
type Vote int

const (
	VoteUnset Vote = iota
	VoteCommit
	VoteRollback
)

func (v Vote) String() string {
	switch v {
	case VoteCommit:
		return "commit"
	case VoteRollback:
		return "rollback"
	default:
		return "unset"
	}
}

// VoteResult - результат попытки проголосовать.
type VoteResult int

const (
	VoteAccepted VoteResult = iota
	VoteAlreadyCast
)

// ---

// voteLedger учитывает голоса зон транзакции. Не потокобезопасен: защищается мьютексом транзакции.
type voteLedger struct {
	votes      map[ScopeID]Vote
	total      int
	committed  int
	rolledBack int
}

func newVoteLedger() voteLedger {
	return voteLedger{votes: make(map[ScopeID]Vote)}
}

func (l *voteLedger) register(id ScopeID) {
	_, exists := l.votes[id]
	internal.Assert(!exists, "#ledger: scope registered twice", id)
	l.votes[id] = VoteUnset
	l.total++
}

func (l *voteLedger) cast(id ScopeID, commit bool) VoteResult {
	v, ok := l.votes[id]
	internal.Assert(ok, "#ledger: unknown scope", id)
	if v != VoteUnset {
		return VoteAlreadyCast
	}
	if commit {
		l.votes[id] = VoteCommit
		l.committed++
	} else {
		l.votes[id] = VoteRollback
		l.rolledBack++
	}
	internal.AssertFunc(l.consistent, "#ledger: more votes than scopes", l.committed, l.rolledBack, l.total)
	return VoteAccepted
}

func (l *voteLedger) vote(id ScopeID) Vote {
	return l.votes[id]
}

func (l *voteLedger) consistent() bool {
	return l.committed+l.rolledBack <= l.total
}

// unanimous истинно, если все когда-либо зарегистрированные зоны проголосовали за фиксацию.
func (l *voteLedger) unanimous() bool {
	return l.committed == l.total
}
