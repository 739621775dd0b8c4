package service

import (
	pkgerrors "github.com/2302304/3d-tulostinvaraus/pkg/errors"
)

// ── 预约调度业务错误 ──

var (
	ErrInvalidStartTime        = pkgerrors.New(pkgerrors.KindInvalidStartTime, "start time cannot be in the past")
	ErrInvalidTimeRange        = pkgerrors.New(pkgerrors.KindInvalidTimeRange, "end time must be after start time")
	ErrDurationExceeded        = pkgerrors.New(pkgerrors.KindDurationExceeded, "reservation exceeds the maximum duration")
	ErrWeekendNotAllowed       = pkgerrors.New(pkgerrors.KindWeekendNotAllowed, "weekend reservations are not allowed")
	ErrPrinterNotFound         = pkgerrors.New(pkgerrors.KindPrinterNotFound, "printer not found")
	ErrPrinterNotAvailable     = pkgerrors.New(pkgerrors.KindPrinterNotAvailable, "printer is not available")
	ErrTimeSlotTaken           = pkgerrors.New(pkgerrors.KindTimeSlotTaken, "time slot is already reserved")
	ErrMaxReservationsExceeded = pkgerrors.New(pkgerrors.KindMaxReservationsExceeded, "maximum number of active reservations reached")
	ErrReservationNotFound     = pkgerrors.New(pkgerrors.KindReservationNotFound, "reservation not found")
	ErrNotOwner                = pkgerrors.New(pkgerrors.KindNotOwner, "you can only modify your own reservations")
)

// ── 打印机 / 策略 / 用户 / 认证 ──

var (
	ErrPrinterInUse        = pkgerrors.New(pkgerrors.KindPrinterInUse, "printer has upcoming reservations")
	ErrPrinterNameTaken    = pkgerrors.New(pkgerrors.KindConflict, "printer name already exists")
	ErrInvalidDateFilter   = pkgerrors.New(pkgerrors.KindValidation, "invalid date, use YYYY-MM-DD or RFC3339")
	ErrUserNotFound        = pkgerrors.New(pkgerrors.KindNotFound, "user not found")
	ErrCannotModifySelf    = pkgerrors.New(pkgerrors.KindForbidden, "you cannot change your own role or status")
	ErrAccountDisabled     = pkgerrors.New(pkgerrors.KindForbidden, "account is disabled")
	ErrEmailTaken          = pkgerrors.New(pkgerrors.KindConflict, "email is already registered")
	ErrWeakPassword        = pkgerrors.New(pkgerrors.KindValidation, "password must be at least 8 characters and contain upper case, lower case and a digit")
	ErrInvalidCredentials  = pkgerrors.New(pkgerrors.KindUnauthorized, "invalid email or password")
	ErrInvalidRefreshToken = pkgerrors.New(pkgerrors.KindUnauthorized, "invalid or expired refresh token")
)
