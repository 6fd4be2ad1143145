package contract

import (
	"errors"

	"github.com/alexanderramin/upf/internal/domain"
	"github.com/alexanderramin/upf/internal/format"
)

// Stage names the pipeline step a conversion failed in.
type Stage string

const (
	StageSniff  Stage = "sniff"
	StageDecode Stage = "decode"
	StageEncode Stage = "encode"
)

type ErrorKind string

const (
	KindUnrecognizedFormat ErrorKind = "UNRECOGNIZED_FORMAT"
	KindCorruptStructure   ErrorKind = "CORRUPT_STRUCTURE"
	KindUnrepresentable    ErrorKind = "UNREPRESENTABLE"
	KindIOFailure          ErrorKind = "IO_FAILURE"
	KindInternal           ErrorKind = "INTERNAL_ERROR"
)

// ConversionError is the single failure shape the core reports to adapters.
// Format is empty when the failure happened before detection succeeded.
type ConversionError struct {
	Stage   Stage
	Kind    ErrorKind
	Message string
	Format  format.Format
	Err     error
}

func (e *ConversionError) Error() string {
	return string(e.Stage) + "/" + string(e.Kind) + ": " + e.Message
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// NewConversionError wraps err for stage, classifying its kind from the
// domain sentinel errors.
func NewConversionError(stage Stage, err error) *ConversionError {
	return &ConversionError{
		Stage:   stage,
		Kind:    KindOf(err),
		Message: err.Error(),
		Err:     err,
	}
}

// KindOf maps an error onto its ErrorKind.
func KindOf(err error) ErrorKind {
	var ce *ConversionError
	switch {
	case errors.As(err, &ce):
		return ce.Kind
	case errors.Is(err, domain.ErrUnrecognizedFormat):
		return KindUnrecognizedFormat
	case errors.Is(err, domain.ErrCorruptStructure):
		return KindCorruptStructure
	case errors.Is(err, domain.ErrUnrepresentable):
		return KindUnrepresentable
	case errors.Is(err, domain.ErrIOFailure):
		return KindIOFailure
	default:
		return KindInternal
	}
}

// AsConversionError extracts a *ConversionError from err's chain.
func AsConversionError(err error) (*ConversionError, bool) {
	var ce *ConversionError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
