// Package repository holds the MySQL data access layer. Sentinel errors
// below let the service layer distinguish failure scenarios without
// depending on driver details.
package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a row does not exist, is soft-deleted, or
// belongs to another user.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a unique constraint rejects a write.
var ErrConflict = errors.New("conflict")

var (
	ErrEmailExists    = fmt.Errorf("%w: email already exists", ErrConflict)
	ErrUsernameExists = fmt.Errorf("%w: username already exists", ErrConflict)
)

// ErrStaleTransition is returned when a status update finds the row in a
// state other than the expected previous one.
var ErrStaleTransition = errors.New("stale status transition")

const mysqlDuplicateEntry = 1062

// duplicateKey reports whether err is a unique-key violation and returns
// the driver message naming the key.
func duplicateKey(err error) (string, bool) {
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
		return strings.ToLower(me.Message), true
	}
	return "", false
}
