package logger

import (
	"fmt"
	"log/slog"
)

// Standard field keys for structured logging. Use these keys consistently
// across all log statements for log aggregation and querying.
const (
	// Distributed tracing
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// Facade operations
	KeyRequestID = "request_id" // Per-operation request id
	KeyUsername  = "username"   // Authenticated caller
	KeyOperation = "operation"  // Facade operation: upload_file, share_file, ...
	KeyFilename  = "filename"   // Target filename
	KeyRecipient = "recipient"  // Share/revoke counterparty
	KeySender    = "sender"     // Receive counterparty
	KeySize      = "size"       // Payload size in bytes
	KeyChunks    = "chunks"     // Chunk count of a file

	// Operation metadata
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeyErrorCode  = "error_code"  // Internal ErrorCode name

	// Storage backends
	KeyHandle    = "handle"     // Dataserver handle (hex)
	KeyStoreType = "store_type" // Backend type: memory, badger, s3, sqlite, postgres
	KeyBucket    = "bucket"     // S3 bucket name
	KeyPath      = "path"       // Local backend path (badger dir, sqlite file)
	KeyName      = "name"       // Keyserver name
)

// ============================================================================
// Field constructors for type safety
// ============================================================================

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// RequestID returns a slog.Attr for the per-operation request id
func RequestID(id string) slog.Attr {
	return slog.String(KeyRequestID, id)
}

// Username returns a slog.Attr for the authenticated caller
func Username(name string) slog.Attr {
	return slog.String(KeyUsername, name)
}

// Operation returns a slog.Attr for the facade operation name
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Filename returns a slog.Attr for the target filename
func Filename(name string) slog.Attr {
	return slog.String(KeyFilename, name)
}

// Recipient returns a slog.Attr for the share/revoke counterparty
func Recipient(name string) slog.Attr {
	return slog.String(KeyRecipient, name)
}

// Sender returns a slog.Attr for the receive counterparty
func Sender(name string) slog.Attr {
	return slog.String(KeySender, name)
}

// Size returns a slog.Attr for a payload size in bytes
func Size(n int) slog.Attr {
	return slog.Int(KeySize, n)
}

// DurationMs returns a slog.Attr for an operation duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error message
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for the internal error code name
func ErrorCode(code fmt.Stringer) slog.Attr {
	return slog.String(KeyErrorCode, code.String())
}

// Handle returns a slog.Attr for a dataserver handle, hex-encoded
func Handle(h []byte) slog.Attr {
	return slog.String(KeyHandle, fmt.Sprintf("%x", h))
}

// StoreType returns a slog.Attr for a storage backend type
func StoreType(t string) slog.Attr {
	return slog.String(KeyStoreType, t)
}

// Bucket returns a slog.Attr for an S3 bucket name
func Bucket(name string) slog.Attr {
	return slog.String(KeyBucket, name)
}

// Path returns a slog.Attr for a local backend path
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}
