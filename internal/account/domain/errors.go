package domain

import "IslandWar/internal/shared/errx"

type Code = errx.Code

const (
	CodeAccountNotFound   Code = "ACCOUNT_NOT_FOUND"
	CodeInvalidPassword   Code = "ACCOUNT_INVALID_PASSWORD"
	CodeAccountDisabled   Code = "ACCOUNT_DISABLED"
	CodeSystemUnavailable Code = errx.CodeUnavailable
)

type Error = errx.Error

var (
	ErrAccountNotFound   = errx.NewBiz(CodeAccountNotFound, "")
	ErrInvalidPassword   = errx.NewBiz(CodeInvalidPassword, "")
	ErrAccountDisabled   = errx.NewBiz(CodeAccountDisabled, "")
	ErrSystemUnavailable = errx.ErrUnavailable
)
