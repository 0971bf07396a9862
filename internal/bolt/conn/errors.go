package conn

import (
	"fmt"

	boltErrors "github.com/alxayo/boltgo/internal/errors"
)

func newAuthError(op string, metadata map[string]any) error {
	return boltErrors.NewAuthError(op, failureCause(metadata))
}

func newServiceUnavailable(op string, metadata map[string]any) error {
	return boltErrors.NewServiceUnavailable(op, failureCause(metadata))
}

func newProtocolError(op string, metadata map[string]any) error {
	return boltErrors.NewProtocolError(op, failureCause(metadata))
}

func newCypherError(metadata map[string]any) error {
	return boltErrors.HydrateCypherError(metadata)
}

func failureCause(metadata map[string]any) error {
	code, _ := metadata["code"].(string)
	message, _ := metadata["message"].(string)
	return fmt.Errorf("%s: %s", code, message)
}
