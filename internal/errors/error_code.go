package errors

// ErrorCode identifies a class of failure.
type ErrorCode string

const (
	ErrCodeUnknown ErrorCode = "UNKNOWN"

	// Payload errors
	ErrCodeUnrecognizedPayloadShape ErrorCode = "UNRECOGNIZED_PAYLOAD_SHAPE"
	ErrCodePartialRowDropped        ErrorCode = "PARTIAL_ROW_DROPPED"

	// Indicator errors
	ErrCodeInsufficientHistory ErrorCode = "INSUFFICIENT_HISTORY"

	// Fetch errors
	ErrCodeMissingCredential     ErrorCode = "MISSING_CREDENTIAL"
	ErrCodeTransientFetchFailure ErrorCode = "TRANSIENT_FETCH_FAILURE"
	ErrCodeProviderRejected      ErrorCode = "PROVIDER_REJECTED"
	ErrCodeUnknownProvider       ErrorCode = "UNKNOWN_PROVIDER"
	ErrCodeInvalidRequest        ErrorCode = "INVALID_REQUEST"
)

// Retryable reports whether a failure with this code may succeed on a later
// attempt.
func (c ErrorCode) Retryable() bool {
	return c == ErrCodeTransientFetchFailure || c == ErrCodeUnknown
}
