// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrConflict is returned when a delete cannot be performed because other
// rows still reference the target (e.g. deleting an exercise that has logged
// sets). Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrDuplicate is returned when an insert violates a unique key.
var ErrDuplicate = errors.New("duplicate")

// ErrUnknownReference is returned when an insert points at a parent row that
// does not exist (unknown muscle for an exercise, unknown exercise for a set).
var ErrUnknownReference = errors.New("unknown reference")

// MySQL server error numbers the repositories care about.
const (
	mysqlErrDupEntry          = 1062
	mysqlErrRowIsReferenced   = 1451
	mysqlErrNoReferencedRow   = 1452
	mysqlErrRowIsReferencedV1 = 1217
	mysqlErrNoReferencedRowV1 = 1216
)

func mysqlErrNumber(err error) uint16 {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number
	}
	return 0
}

func isDuplicate(err error) bool {
	return mysqlErrNumber(err) == mysqlErrDupEntry
}

func isReferenced(err error) bool {
	n := mysqlErrNumber(err)
	return n == mysqlErrRowIsReferenced || n == mysqlErrRowIsReferencedV1
}

func isMissingParent(err error) bool {
	n := mysqlErrNumber(err)
	return n == mysqlErrNoReferencedRow || n == mysqlErrNoReferencedRowV1
}
