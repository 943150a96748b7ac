package contract

import "errors"

// Turn-level taxonomy. Gateway failures are carried inside ToolResult.Error
// with the matching kind string; these sentinels cover the Go error paths.
var (
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrRoutingLoop          = errors.New("routing hop limit exceeded")
	ErrRetrievalUnavailable = errors.New("retrieval backend unavailable")
	ErrNotFound             = errors.New("not found")

	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
)

// Error kind strings used on the tool-call wire contract.
const (
	KindInvalidArgument      = "InvalidArgument"
	KindRetrievalUnavailable = "RetrievalUnavailable"
	KindNotFound             = "NotFound"
)

// KindOf maps a backend error to its wire kind. Unknown errors degrade to
// RetrievalUnavailable so capabilities can proceed with degraded context.
func KindOf(err error) string {
	switch {
	case errors.Is(err, ErrInvalidArgument):
		return KindInvalidArgument
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	default:
		return KindRetrievalUnavailable
	}
}
