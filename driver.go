package owdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Queryer - общая для *sql.Conn и *sql.Tx поверхность выполнения запросов.
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Tx - физическая транзакция драйвера. *sql.Tx удовлетворяет Tx.
type Tx interface {
	Queryer
	Commit() error
	Rollback() error
}

// Conn - физическое соединение, в котором открывается не более одной транзакции драйвера.
type Conn interface {
	BeginTx(ctx context.Context, isolation sql.IsolationLevel) (Tx, error)
	Close() error
}

// ConnectionFactory создает физическое соединение. Строка соединения передается без изменений.
type ConnectionFactory func(ctx context.Context, connString string) (Conn, error)

// SessionFactory создает сессию (репозиторий, ORM-контекст и т.п.), привязанную к соединению и транзакции
// драйвера. Если сессия реализует io.Closer, она закрывается при завершении транзакции.
type SessionFactory[S any] func(ctx context.Context, conn Conn, tx Tx) (S, error)

// NoSession - тип сессии для координаторов, которым сессия не нужна.
type NoSession = struct{}

var isolationNames = map[string]sql.IsolationLevel{
	"default":          sql.LevelDefault,
	"read-uncommitted": sql.LevelReadUncommitted,
	"read-committed":   sql.LevelReadCommitted,
	"write-committed":  sql.LevelWriteCommitted,
	"repeatable-read":  sql.LevelRepeatableRead,
	"snapshot":         sql.LevelSnapshot,
	"serializable":     sql.LevelSerializable,
	"linearizable":     sql.LevelLinearizable,
}

// ParseIsolation разбирает имя уровня изоляции: "read-committed", "ReadCommitted", "read_committed" и
// "Read Committed" равнозначны.
func ParseIsolation(name string) (sql.IsolationLevel, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.NewReplacer("_", "-", " ", "-").Replace(key)
	if level, ok := isolationNames[key]; ok {
		return level, nil
	}
	for k, level := range isolationNames {
		if strings.ReplaceAll(k, "-", "") == key {
			return level, nil
		}
	}
	return sql.LevelDefault, fmt.Errorf("%w: unknown isolation level %q", ErrInvalidOperation, name)
}
