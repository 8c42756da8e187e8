package fetch

import (
	"errors"
	"fmt"
)

var (
	// ErrDownloadFailed covers network and transport failures, including
	// timeouts. The only error kind in this package that is safe to retry.
	ErrDownloadFailed = errors.New("download failed")

	// ErrIntegrityMismatch means the downloaded bytes did not hash to the
	// pinned digest. Security-relevant: never retried against the same bytes.
	ErrIntegrityMismatch = errors.New("integrity verification failed")
)

// IntegrityError carries both digests for forensic logging.
type IntegrityError struct {
	URL      string
	Expected string
	Actual   string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%v for %s: expected sha256 %s, got %s",
		ErrIntegrityMismatch, e.URL, e.Expected, e.Actual)
}

func (e *IntegrityError) Unwrap() error { return ErrIntegrityMismatch }
