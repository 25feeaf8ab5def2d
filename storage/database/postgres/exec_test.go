package pgrepos

import (
	"database/sql"
	"database/sql/driver"
	"testing"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/coaching/core"
)

func Test_wrapErr(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantShutdown bool
	}{
		{name: "bad conn", err: driver.ErrBadConn, wantShutdown: true},
		{name: "conn done", err: errors.Wrap(sql.ErrConnDone, "querying"), wantShutdown: true},
		{name: "connection failure", err: &pq.Error{Code: "08006"}, wantShutdown: true},
		{name: "admin shutdown", err: &pq.Error{Code: adminShutdown}, wantShutdown: true},
		{name: "unique violation", err: &pq.Error{Code: uniqueViolation}},
		{name: "no rows", err: sql.ErrNoRows},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := wrapErr(tt.err, "op")
			if got := core.IsShutdown(err); got != tt.wantShutdown {
				t.Errorf("IsShutdown(wrapErr(%v)) = %v, want %v", tt.err, got, tt.wantShutdown)
			}
		})
	}

	if err := wrapErr(nil, "op"); err != nil {
		t.Errorf("wrapErr(nil) = %v, want nil", err)
	}
}
