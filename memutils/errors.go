package memutils

import "github.com/pkg/errors"

// PowerOfTwoError is wrapped by CheckPow2 when a pitch or plane alignment is not a power of two
var PowerOfTwoError error = errors.New("alignment must be a power of two")
