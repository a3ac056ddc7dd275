package txfile

// ErrorCode classifies a file operation failure. The code tells the caller
// whether a retry is safe: failures before the commit point leave the target
// untouched and may be retried; failures at or after the commit point must
// not be, because the state change already happened.
type ErrorCode int

const (
	// CodeInvalidInput indicates a malformed operation (empty target,
	// nil stream provider). Never retried.
	CodeInvalidInput ErrorCode = iota

	// CodeTransientIO indicates an I/O failure before the commit point.
	// The target is intact; the caller may retry the whole operation.
	CodeTransientIO

	// CodeCommitFailed indicates the commit rename itself failed. For a
	// save the original content has been restored on a best-effort
	// basis; the caller must not blindly retry.
	CodeCommitFailed
)

func (c ErrorCode) String() string {
	switch c {
	case CodeInvalidInput:
		return "invalid input"
	case CodeTransientIO:
		return "transient I/O"
	case CodeCommitFailed:
		return "commit failed"
	}
	return "unknown"
}

// OpError is the error type returned by save and delete operations.
type OpError struct {
	Code ErrorCode
	Path string
	Err  error
}

func (e *OpError) Error() string {
	return e.Code.String() + " on " + e.Path + ": " + e.Err.Error()
}

func (e *OpError) Unwrap() error { return e.Err }

// Retryable reports whether the caller may safely re-run the operation.
func (e *OpError) Retryable() bool { return e.Code == CodeTransientIO }
