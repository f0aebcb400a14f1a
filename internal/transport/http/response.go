package http

import (
	"errors"
	nethttp "net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"IslandWar/internal/shared/errx"
	"IslandWar/internal/shared/logs"
)

type envelope struct {
	Code string `json:"code"`
	Msg  string `json:"msg,omitempty"`
	Data any    `json:"data,omitempty"`
}

func ok(c *gin.Context, data any) {
	c.JSON(nethttp.StatusOK, envelope{Code: "OK", Data: data})
}

// fail maps a coded error onto an HTTP status: business codes speak for
// themselves, system codes become 5xx and are logged here, once.
func fail(c *gin.Context, err error) {
	var e *errx.Error
	if !errors.As(err, &e) {
		logs.Error("unhandled error", zap.String("route", c.FullPath()), zap.Error(err))
		c.JSON(nethttp.StatusInternalServerError, envelope{
			Code: string(errx.CodeInternal), Msg: "internal server error",
		})
		return
	}

	status := statusFor(e.Code())
	if status >= nethttp.StatusInternalServerError {
		logs.Error("request failed",
			zap.String("route", c.FullPath()),
			zap.String("code", string(e.Code())),
			zap.Error(err))
	}
	c.JSON(status, envelope{Code: string(e.Code()), Msg: e.Msg(), Data: e.Data()})
}

func statusFor(code errx.Code) int {
	switch code {
	case errx.CodeInternal:
		return nethttp.StatusInternalServerError
	case errx.CodeUnavailable:
		return nethttp.StatusServiceUnavailable
	case errx.CodeTimeout:
		return nethttp.StatusGatewayTimeout
	case errx.CodeReqParamError:
		return nethttp.StatusBadRequest
	}
	s := string(code)
	switch {
	case s == "AUTH_USER_EXIST":
		return nethttp.StatusConflict
	case strings.HasPrefix(s, "AUTH_"):
		return nethttp.StatusUnauthorized
	case strings.HasSuffix(s, "_NOT_FOUND"):
		return nethttp.StatusNotFound
	default:
		return nethttp.StatusBadRequest
	}
}
