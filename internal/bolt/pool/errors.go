package pool

import "errors"

var (
	errClosed             = errors.New("pool is closed")
	errAddressDeactivated = errors.New("address deactivated")
	errAcquisitionTimeout = errors.New("timed out waiting for a connection to become available")
)
