package packstream

import (
	"fmt"

	psErrors "github.com/alxayo/boltgo/internal/errors"
)

func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return psErrors.NewProtocolError(op, err)
}

func errMarker(marker byte) error {
	return fmt.Errorf("unexpected marker 0x%02x", marker)
}
