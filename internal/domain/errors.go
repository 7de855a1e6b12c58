package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the domain layer.
var (
	ErrConfiguration   = fmt.Errorf("configuration error")
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrModelInvocation = fmt.Errorf("model invocation failed")
	ErrMalformedAction = fmt.Errorf("action block is not valid JSON")
	ErrSchemaViolation = fmt.Errorf("action does not match any known kind")
	ErrNotFound        = fmt.Errorf("not found")
	ErrStorage         = fmt.Errorf("storage operation failed")
	ErrVectorStore     = fmt.Errorf("vector store operation failed")
	ErrEmbeddingFailed = fmt.Errorf("embedding generation failed")
	ErrProviderNotFound = fmt.Errorf("llm provider not found")

	// Resilience errors surfaced by LLM adapters.
	ErrRateLimit   = fmt.Errorf("rate limit exceeded")
	ErrAuthInvalid = fmt.Errorf("authentication failed")
)

// DomainError wraps a sentinel error with operation context.
type DomainError struct {
	Op     string // operation name (e.g., "Applier.Apply")
	Err    error  // underlying sentinel or wrapped error
	Detail string // human-readable detail
}

func (e *DomainError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *DomainError) Unwrap() error { return e.Err }

// NewDomainError creates a new DomainError.
func NewDomainError(op string, err error, detail string) *DomainError {
	return &DomainError{Op: op, Err: err, Detail: detail}
}

// WrapOp adds operation context to an error using fmt.Errorf wrapping.
// Returns nil if err is nil, enabling idiomatic use: return domain.WrapOp("op", err)
func WrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

// ErrorCode is a machine-parseable error category for monitoring.
type ErrorCode string

const (
	CodeUnknown         ErrorCode = "UNKNOWN"
	CodeConfiguration   ErrorCode = "CONFIGURATION"
	CodeInvalidInput    ErrorCode = "INVALID_INPUT"
	CodeModelInvocation ErrorCode = "MODEL_INVOCATION"
	CodeMalformedAction ErrorCode = "MALFORMED_ACTION"
	CodeSchemaViolation ErrorCode = "SCHEMA_VIOLATION"
	CodeNotFound        ErrorCode = "NOT_FOUND"
	CodeStorage         ErrorCode = "STORAGE"
	CodeVectorStore     ErrorCode = "VECTOR_STORE"
	CodeEmbeddingFailed ErrorCode = "EMBEDDING_FAILED"
	CodeProviderNotFound ErrorCode = "PROVIDER_NOT_FOUND"
	CodeRateLimit       ErrorCode = "RATE_LIMIT"
	CodeAuthInvalid     ErrorCode = "AUTH_INVALID"
)

// errorCodeMap maps sentinel errors to their machine-parseable codes.
var errorCodeMap = map[error]ErrorCode{
	ErrConfiguration:    CodeConfiguration,
	ErrInvalidInput:     CodeInvalidInput,
	ErrModelInvocation:  CodeModelInvocation,
	ErrMalformedAction:  CodeMalformedAction,
	ErrSchemaViolation:  CodeSchemaViolation,
	ErrNotFound:         CodeNotFound,
	ErrStorage:          CodeStorage,
	ErrVectorStore:      CodeVectorStore,
	ErrEmbeddingFailed:  CodeEmbeddingFailed,
	ErrProviderNotFound: CodeProviderNotFound,
	ErrRateLimit:        CodeRateLimit,
	ErrAuthInvalid:      CodeAuthInvalid,
}

// ErrorCodeOf returns the machine-parseable error code for the given error.
// It unwraps DomainError and uses errors.Is to match sentinel errors.
// Returns CodeUnknown if no matching sentinel is found.
func ErrorCodeOf(err error) ErrorCode {
	if err == nil {
		return CodeUnknown
	}

	if code, ok := errorCodeMap[err]; ok {
		return code
	}

	var de *DomainError
	if errors.As(err, &de) {
		if code, ok := errorCodeMap[de.Err]; ok {
			return code
		}
	}

	for sentinel, code := range errorCodeMap {
		if errors.Is(err, sentinel) {
			return code
		}
	}

	return CodeUnknown
}
