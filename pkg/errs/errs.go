package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind классифицирует отказ. Решение "фатально или нет" принимает вызывающий.
type Kind string

const (
	KindTransport             Kind = "transport_error"
	KindExchangeRejected      Kind = "exchange_rejected"
	KindMalformedResponse     Kind = "malformed_response"
	KindInsufficientData      Kind = "insufficient_data"
	KindInvalidInput          Kind = "invalid_input"
	KindDependencyUnavailable Kind = "dependency_unavailable"
)

// Error ошибка с тегом Kind и именем операции.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Cause для совместимости с errors.Cause.
func (e *Error) Cause() error { return e.Err }

func New(kind Kind, op string, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: errors.Errorf(format, args...)}
}

func Wrap(err error, kind Kind, op string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: errors.WithStack(err)}
}

// KindOf возвращает Kind первой *Error в цепочке или "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
