//go:build !((linux && cgo) || windows || darwin)

package audio

import "fmt"

// OpenOto is unavailable in builds without a native audio driver.
func OpenOto(cfg BackendConfig) (Backend, error) {
	return nil, fmt.Errorf("%w: built without native audio support", ErrBackendUnavailable)
}
