// Package testutil provides a stub database/sql driver for postgres opener tests.
package testutil

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"sync/atomic"
)

var seq atomic.Int64

// StubConn records pings and can be told to fail them.
type StubConn struct {
	FailPing bool
	Pings    int
	DSN      string
}

// NewStubDB registers a uniquely named driver and opens a *sql.DB over it.
func NewStubDB(conn *StubConn) *sql.DB {
	name := fmt.Sprintf("stubpg%d", seq.Add(1))
	sql.Register(name, &stubDriver{conn: conn})
	db, err := sql.Open(name, "stub")
	if err != nil {
		panic(err)
	}
	return db
}

type stubDriver struct {
	conn *StubConn
}

func (d *stubDriver) Open(dsn string) (driver.Conn, error) {
	d.conn.DSN = dsn
	return d.conn, nil
}

// Prepare implements driver.Conn.
func (c *StubConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not implemented") }

// Close implements driver.Conn.
func (c *StubConn) Close() error { return nil }

// Begin implements driver.Conn.
func (c *StubConn) Begin() (driver.Tx, error) { return nil, errors.New("read-only stub") }

// Ping implements driver.Pinger.
func (c *StubConn) Ping(context.Context) error {
	c.Pings++
	if c.FailPing {
		return errors.New("ping fail")
	}
	return nil
}
