package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	pkgerrors "github.com/2302304/3d-tulostinvaraus/pkg/errors"
)

// PostgreSQL SQLSTATE
const (
	pgUniqueViolation    = "23505"
	pgExclusionViolation = "23P01"
)

var (
	// ErrOverlapConstraint 排他约束拒绝了重叠的活跃预约
	ErrOverlapConstraint = pkgerrors.New(pkgerrors.KindTimeSlotTaken, "time slot is already reserved")
	// ErrDuplicate 唯一约束冲突
	ErrDuplicate = pkgerrors.New(pkgerrors.KindConflict, "record already exists")
)

// translateError 将驱动层约束错误转换为业务错误，其余原样返回
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgExclusionViolation:
			return ErrOverlapConstraint
		case pgUniqueViolation:
			return ErrDuplicate
		}
		return err
	}
	// sqlite (modernc) 只能从错误文本识别
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ErrDuplicate
	}
	return err
}
