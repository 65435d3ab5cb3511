package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for vaultbox operations. These follow OpenTelemetry
// semantic conventions where applicable; vaultbox-specific keys use the
// "vault." prefix, storage-backend keys use "store." / "storage.".
const (
	// Facade operation attributes
	AttrOperation = "vault.operation" // Facade operation: upload_file, share_file, ...
	AttrUsername  = "user.name"       // Authenticated caller
	AttrFilename  = "vault.filename"  // Target filename
	AttrRecipient = "vault.recipient" // Share/revoke counterparty
	AttrSender    = "vault.sender"    // Receive counterparty
	AttrSize      = "vault.size"      // Payload size in bytes
	AttrChunks    = "vault.chunks"    // Chunk count of a file
	AttrErrorCode = "vault.error_code"

	// Dataserver / keyserver attributes
	AttrHandle    = "store.handle" // Dataserver handle, hex-encoded
	AttrStoreType = "store.type"   // memory, badger, s3, sqlite, postgres
	AttrBucket    = "storage.bucket"
	AttrKey       = "storage.key"
	AttrRegion    = "storage.region"
)

// Span names for operations.
// Format: vault.<operation> for facade spans, <backend>.<operation> for
// storage backend spans.
const (
	SpanCreateUser       = "vault.create_user"
	SpanAuthenticateUser = "vault.authenticate_user"
	SpanUpload           = "vault.upload_file"
	SpanDownload         = "vault.download_file"
	SpanAppend           = "vault.append_file"
	SpanShare            = "vault.share_file"
	SpanReceive          = "vault.receive_file"
	SpanRevoke           = "vault.revoke_file"

	SpanDataserverGet    = "dataserver.get"
	SpanDataserverSet    = "dataserver.set"
	SpanKeyserverGet     = "keyserver.get"
	SpanKeyserverSet     = "keyserver.set"
)

// Operation returns an attribute for the facade operation name
func Operation(op string) attribute.KeyValue {
	return attribute.String(AttrOperation, op)
}

// Username returns an attribute for the authenticated caller
func Username(name string) attribute.KeyValue {
	return attribute.String(AttrUsername, name)
}

// Filename returns an attribute for the target filename
func Filename(name string) attribute.KeyValue {
	return attribute.String(AttrFilename, name)
}

// Recipient returns an attribute for the share/revoke counterparty
func Recipient(name string) attribute.KeyValue {
	return attribute.String(AttrRecipient, name)
}

// Sender returns an attribute for the receive counterparty
func Sender(name string) attribute.KeyValue {
	return attribute.String(AttrSender, name)
}

// Size returns an attribute for a payload size in bytes
func Size(n int) attribute.KeyValue {
	return attribute.Int(AttrSize, n)
}

// ErrorCode returns an attribute for the internal error code name
func ErrorCode(code fmt.Stringer) attribute.KeyValue {
	return attribute.String(AttrErrorCode, code.String())
}

// Handle returns an attribute for a dataserver handle, hex-encoded
func Handle(h []byte) attribute.KeyValue {
	return attribute.String(AttrHandle, fmt.Sprintf("%x", h))
}

// StoreType returns an attribute for a storage backend type
func StoreType(t string) attribute.KeyValue {
	return attribute.String(AttrStoreType, t)
}

// Bucket returns an attribute for an S3 bucket name
func Bucket(name string) attribute.KeyValue {
	return attribute.String(AttrBucket, name)
}

// StorageKey returns an attribute for an S3 object key
func StorageKey(key string) attribute.KeyValue {
	return attribute.String(AttrKey, key)
}

// Region returns an attribute for a cloud region
func Region(region string) attribute.KeyValue {
	return attribute.String(AttrRegion, region)
}

// StartOperationSpan starts a span for a facade operation. This is a
// convenience function that sets the common caller attributes.
func StartOperationSpan(ctx context.Context, operation, username string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		Operation(operation),
		Username(username),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, "vault."+operation, trace.WithAttributes(allAttrs...))
}

// StartStoreSpan starts a span for a storage backend operation.
func StartStoreSpan(ctx context.Context, backend, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		StoreType(backend),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, backend+"."+operation, trace.WithAttributes(allAttrs...))
}
