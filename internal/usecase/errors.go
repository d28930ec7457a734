package usecase

import "errors"

// Stage error taxonomy. Acquisition, reconciliation, and planning errors
// are fatal and abort the run. A render error after a successful base
// encode is recoverable: the run completes with a captionless clip and a
// degraded status.
var (
	ErrAcquisition    = errors.New("acquisition failed")
	ErrReconciliation = errors.New("reconciliation failed")
	ErrPlanning       = errors.New("planning failed")
	ErrRender         = errors.New("render failed")
)
