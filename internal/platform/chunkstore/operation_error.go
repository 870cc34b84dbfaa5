package chunkstore

import "fmt"

type OperationErrorCode string

const (
	OperationErrorValidation      OperationErrorCode = "validation_failed"
	OperationErrorNotFound        OperationErrorCode = "not_found"
	OperationErrorTimeout         OperationErrorCode = "timeout"
	OperationErrorTransportFailed OperationErrorCode = "transport_failed"
	OperationErrorQueryFailed     OperationErrorCode = "query_failed"
)

type OperationError struct {
	Code      OperationErrorCode
	Operation string
	Message   string
	Cause     error
}

func (e *OperationError) Error() string {
	if e == nil {
		return "chunkstore operation failed"
	}
	if e.Message != "" {
		return fmt.Sprintf("chunkstore operation failed (op=%s code=%s): %s", e.Operation, e.Code, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("chunkstore operation failed (op=%s code=%s): %v", e.Operation, e.Code, e.Cause)
	}
	return fmt.Sprintf("chunkstore operation failed (op=%s code=%s)", e.Operation, e.Code)
}

func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func opErr(op string, code OperationErrorCode, msg string, cause error) error {
	return &OperationError{Code: code, Operation: op, Message: msg, Cause: cause}
}
