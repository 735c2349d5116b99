package utils

import (
	pkgError "github.com/AzielCF/az-posts/pkg/error"
)

// ResponseData is the envelope returned by every REST endpoint.
type ResponseData struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Results any    `json:"results,omitempty"`
}

// PanicIfNeeded hands err to the recovery middleware.
func PanicIfNeeded(err error) {
	if err == nil {
		return
	}
	if _, ok := err.(pkgError.GenericError); ok {
		panic(err)
	}
	panic(pkgError.InternalServerError(err.Error()))
}
