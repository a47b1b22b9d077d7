package exporter

import "errors"

var (
	ErrBatchOverflow     = errors.New("exporter: batch received more mappings than announced")
	ErrBatchUnderflow    = errors.New("exporter: batch closed before all announced mappings were exported")
	ErrBatchInProgress   = errors.New("exporter: a batch is already in progress")
	ErrNoBatch           = errors.New("exporter: no batch in progress")
	ErrBatchKindMismatch = errors.New("exporter: mapping kind does not match batch kind")
	ErrUnsupportedResult = errors.New("exporter: unsupported mapping result type")
)
