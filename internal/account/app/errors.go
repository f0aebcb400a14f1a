package app

import "IslandWar/internal/shared/errx"

type Code = errx.Code

const (
	CodeInvalidCredentials Code = "AUTH_INVALID_CREDENTIAL"
	CodeUserExist          Code = "AUTH_USER_EXIST"
	CodeInternalServer     Code = errx.CodeInternal
	CodeUnavailable        Code = errx.CodeUnavailable
)

type Error = errx.Error

// Sentinel errors; derive with WithData/WithCause, never mutate.
var (
	ErrInvalidCredentials = errx.NewBiz(CodeInvalidCredentials, "invalid username or password")
	ErrUserExist          = errx.NewBiz(CodeUserExist, "username already taken")
	ErrInternalServer     = errx.ErrInternal
	ErrUnavailable        = errx.ErrUnavailable
)
