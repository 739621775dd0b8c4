package errors

import (
	"errors"
	"fmt"
)

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = New(KindConflict, "record was modified by another operation, reload and retry")

// Kind 业务错误类别，调用方按类别分支而不是匹配文案
type Kind string

const (
	KindInvalidStartTime        Kind = "INVALID_START_TIME"
	KindInvalidTimeRange        Kind = "INVALID_TIME_RANGE"
	KindDurationExceeded        Kind = "DURATION_EXCEEDED"
	KindWeekendNotAllowed       Kind = "WEEKEND_NOT_ALLOWED"
	KindPrinterNotFound         Kind = "PRINTER_NOT_FOUND"
	KindPrinterNotAvailable     Kind = "PRINTER_NOT_AVAILABLE"
	KindTimeSlotTaken           Kind = "TIME_SLOT_TAKEN"
	KindMaxReservationsExceeded Kind = "MAX_RESERVATIONS_EXCEEDED"
	KindReservationNotFound     Kind = "RESERVATION_NOT_FOUND"
	KindNotOwner                Kind = "NOT_OWNER"
	KindPrinterInUse            Kind = "PRINTER_IN_USE"

	KindValidation   Kind = "VALIDATION_ERROR"
	KindConflict     Kind = "CONFLICT"
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindForbidden    Kind = "FORBIDDEN"
	KindNotFound     Kind = "NOT_FOUND"
	KindInternal     Kind = "INTERNAL_ERROR"
)

// Error 带类别的业务错误
type Error struct {
	Kind    Kind
	Message string
}

// New 创建业务错误
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf 创建带格式化文案的业务错误
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	return e.Message
}

// Is 同类别即视为相等，便于 errors.Is 匹配带动态文案的错误
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// KindOf 提取错误类别；非业务错误一律视为 KindInternal
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
