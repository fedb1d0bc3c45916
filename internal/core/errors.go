// ABOUTME: Error taxonomy for ingestion and query answering
// ABOUTME: Sentinel kinds are matched with errors.Is; ServiceError wraps backend failures
package core

import (
	"errors"
	"fmt"
)

var (
	// ErrValidationRejected marks a query classified as non-educational
	ErrValidationRejected = errors.New("query rejected as non-educational")
	// ErrIngestionPartialFailure marks a document where some chunks failed to embed or store
	ErrIngestionPartialFailure = errors.New("some chunks failed to ingest")
	// ErrNoRelevantContent marks a query with nothing above the relevance threshold
	ErrNoRelevantContent = errors.New("no relevant content found")
	// ErrServiceUnavailable marks an embedding, generative, or vector store failure
	ErrServiceUnavailable = errors.New("service unavailable")
	// ErrMalformedDocument marks a document with no usable text after cleaning
	ErrMalformedDocument = errors.New("document has no extractable educational text")
)

// ServiceError records which backend call failed
type ServiceError struct {
	Service string
	Op      string
	Err     error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Service, e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Is makes every ServiceError match ErrServiceUnavailable
func (e *ServiceError) Is(target error) bool {
	return target == ErrServiceUnavailable
}

func serviceError(service, op string, err error) error {
	if err == nil {
		return nil
	}
	return &ServiceError{Service: service, Op: op, Err: err}
}

// PartialFailureError reports per-document chunk counts when some chunks failed
type PartialFailureError struct {
	SourceFile string
	Succeeded  int
	Failed     int
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%s: %d of %d chunks failed to ingest", e.SourceFile, e.Failed, e.Succeeded+e.Failed)
}

func (e *PartialFailureError) Is(target error) bool {
	return target == ErrIngestionPartialFailure
}
