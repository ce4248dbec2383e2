package services

import (
	"errors"

	"github.com/SAP-F-2025/exam-assembly-service/internal/diagnostics"
	"github.com/SAP-F-2025/exam-assembly-service/internal/loader"
	"github.com/SAP-F-2025/exam-assembly-service/internal/registry"
)

// ===== ERROR TAXONOMY =====
// Only ErrUnknownQuestionType is returned to callers of Assemble. The rest are
// recovered inside the call and reported through its diagnostics.

var (
	ErrMetadataUnavailable     = errors.New("test metadata unavailable")
	ErrQuestionListUnavailable = errors.New("question list unavailable")
	ErrUnknownQuestionType     = registry.ErrUnknownQuestionType

	// Returned by FetchAnswersForQuestion
	ErrQuestionUnavailable  = errors.New("question unavailable")
	ErrQuestionTypeMismatch = errors.New("question type mismatch")
)

type (
	AnswerPartitionError = loader.AnswerPartitionError
	TimeoutError         = loader.TimeoutError
)

// ClassifyError maps service errors onto diagnostics kinds
func ClassifyError(err error) diagnostics.ErrorKind {
	var timeoutErr *TimeoutError
	var partitionErr *AnswerPartitionError
	switch {
	case errors.As(err, &timeoutErr):
		return diagnostics.KindTimeout
	case errors.Is(err, ErrMetadataUnavailable):
		return diagnostics.KindMetadataUnavailable
	case errors.Is(err, ErrQuestionListUnavailable):
		return diagnostics.KindQuestionListUnavailable
	case errors.As(err, &partitionErr):
		return diagnostics.KindAnswerPartition
	default:
		return diagnostics.KindOther
	}
}
