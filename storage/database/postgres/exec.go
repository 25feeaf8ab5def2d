package pgrepos

import (
	"database/sql"
	"database/sql/driver"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/coaching/core"
)

const adminShutdown = "57P01"

// wrapErr wraps err with op; a lost database connection becomes a core shutdown error.
func wrapErr(err error, op string) error {
	if err == nil {
		return nil
	}
	if connLost(err) {
		return errors.Wrap(core.NewShutdownError("database connection lost: "+err.Error()), op)
	}
	return errors.Wrap(err, op)
}

func connLost(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Class() == "08" || pqErr.Code == adminShutdown // connection_exception
	}
	return false
}

func rowsAffected(res sql.Result, err error, op string) (int, error) {
	if err != nil {
		return 0, wrapErr(err, op)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrapErr(err, op)
	}
	return int(n), nil
}
