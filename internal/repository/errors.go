package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// uniqueViolation はPostgreSQLの一意制約違反のSQLSTATE。
const uniqueViolation = pq.ErrorCode("23505")

// DuplicateError は一意制約違反となったフィールドを保持するエラー。
// errors.Is(err, ErrDuplicate) で判定できる。
type DuplicateError struct {
	Field string // name, mail, phone
}

// Error はerrorインターフェースを実装する。
func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s: %s", ErrDuplicate.Error(), e.Field)
}

// Unwrap はErrDuplicateを返す。
func (e *DuplicateError) Unwrap() error {
	return ErrDuplicate
}

// asDuplicateError はpq.Errorが一意制約違反であればDuplicateErrorに変換する。
// 制約名は "<table>_<column>_key" 形式を前提とする。
func asDuplicateError(err error) (*DuplicateError, bool) {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
		return nil, false
	}

	field := strings.TrimSuffix(pqErr.Constraint, "_key")
	if i := strings.Index(field, "_"); i >= 0 {
		field = field[i+1:]
	}
	return &DuplicateError{Field: field}, true
}
