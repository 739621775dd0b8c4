package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	pkgerrors "github.com/2302304/3d-tulostinvaraus/pkg/errors"
	"github.com/2302304/3d-tulostinvaraus/pkg/response"
)

type errorMapping struct {
	status int
	code   int
}

// ── 业务错误类别 → HTTP 状态码 / 业务码 ──

var errorTable = map[pkgerrors.Kind]errorMapping{
	pkgerrors.KindValidation:   {http.StatusBadRequest, 10001},
	pkgerrors.KindUnauthorized: {http.StatusUnauthorized, 10002},
	pkgerrors.KindForbidden:    {http.StatusForbidden, 10003},
	pkgerrors.KindNotFound:     {http.StatusNotFound, 10006},
	pkgerrors.KindConflict:     {http.StatusConflict, 10007},

	pkgerrors.KindInvalidStartTime:        {http.StatusBadRequest, 20001},
	pkgerrors.KindInvalidTimeRange:        {http.StatusBadRequest, 20002},
	pkgerrors.KindDurationExceeded:        {http.StatusBadRequest, 20003},
	pkgerrors.KindWeekendNotAllowed:       {http.StatusBadRequest, 20004},
	pkgerrors.KindPrinterNotFound:         {http.StatusNotFound, 20005},
	pkgerrors.KindPrinterNotAvailable:     {http.StatusBadRequest, 20006},
	pkgerrors.KindTimeSlotTaken:           {http.StatusConflict, 20007},
	pkgerrors.KindMaxReservationsExceeded: {http.StatusBadRequest, 20008},
	pkgerrors.KindReservationNotFound:     {http.StatusNotFound, 20009},
	pkgerrors.KindNotOwner:                {http.StatusForbidden, 20010},
	pkgerrors.KindPrinterInUse:            {http.StatusConflict, 20011},
}

// writeError 按错误类别写响应；未知错误一律 500 且不暴露内部信息
func writeError(c *gin.Context, err error) {
	kind := pkgerrors.KindOf(err)
	m, ok := errorTable[kind]
	if !ok {
		_ = c.Error(err)
		response.InternalError(c)
		return
	}
	response.Fail(c, m.status, m.code, string(kind), err.Error())
}

// bindFailed 请求参数校验失败
func bindFailed(c *gin.Context, err error) {
	_ = c.Error(err).SetType(gin.ErrorTypeBind)
	response.BadRequest(c, 10001, "invalid request parameters")
}
