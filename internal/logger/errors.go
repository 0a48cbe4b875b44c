package logger

import (
	"errors"
	"fmt"
	"os"
)

var (
	// ErrAppNameIsEmpty is returned if Log.AppName was not defined.
	ErrAppNameIsEmpty = errors.New("identilink config Log.AppName can not be empty")

	// ErrServiceNameIsEmpty is returned if Log.ServiceName was not defined.
	ErrServiceNameIsEmpty = errors.New("identilink config Log.ServiceName can not be empty")
)

// ErrorHandler reports log events the configured sinks could not write.
func ErrorHandler(err error) {
	_, _ = fmt.Fprintf(os.Stderr, "identilink logger: could not write event: %v\n", err)
}
