package main

import (
	"errors"

	"github.com/utilibill/portal-sdk/pkg/portalhttp"
)

type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string {
	return e.err.Error()
}

func (e *cliError) Unwrap() error {
	return e.err
}

const (
	exitOK         = 0
	exitValidation = 2
	exitUsage      = 3
	exitAPI        = 4
	exitNetwork    = 5
)

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &cliError{code: code, err: err}
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ce *cliError
	if errors.As(err, &ce) {
		return ce.code
	}
	if portalhttp.IsNetworkError(err) {
		return exitNetwork
	}
	if portalhttp.IsAPIError(err) {
		return exitAPI
	}
	return 1
}
