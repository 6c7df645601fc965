package owdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// DBConnector выдает каждой транзакции выделенное соединение из общего пула db. Строка соединения
// игнорируется: она уже учтена при открытии db.
func DBConnector(db *sql.DB) ConnectionFactory {
	return func(ctx context.Context, _ string) (Conn, error) {
		conn, err := db.Conn(ctx)
		if err != nil {
			return nil, fmt.Errorf("acquire connection: %w", err)
		}
		return &sqlConn{conn: conn}, nil
	}
}

// DriverConnector открывает для каждой транзакции собственный *sql.DB драйвера driverName по строке
// соединения и закрывает его вместе с соединением.
func DriverConnector(driverName string) ConnectionFactory {
	return func(ctx context.Context, connString string) (Conn, error) {
		db, err := sql.Open(driverName, connString)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", driverName, err)
		}
		db.SetMaxOpenConns(1)
		conn, err := db.Conn(ctx)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("acquire connection: %w", err), db.Close())
		}
		return &sqlConn{conn: conn, owned: db}, nil
	}
}

type sqlConn struct {
	conn  *sql.Conn
	owned *sql.DB
}

func (c *sqlConn) BeginTx(ctx context.Context, isolation sql.IsolationLevel) (Tx, error) {
	tx, err := c.conn.BeginTx(ctx, &sql.TxOptions{Isolation: isolation})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func (c *sqlConn) Close() error {
	err := c.conn.Close()
	if c.owned != nil {
		err = errors.Join(err, c.owned.Close())
	}
	return err
}
