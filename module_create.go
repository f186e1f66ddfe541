package gralloc

import (
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/gralloc/hal"
)

// CreateFlags indicate specific module behaviors to activate or deactivate
type CreateFlags int32

var moduleCreateFlagsMapping = common.NewFlagStringMapping[CreateFlags]()

func (f CreateFlags) Register(str string) {
	moduleCreateFlagsMapping.Register(f, str)
}
func (f CreateFlags) String() string {
	return moduleCreateFlagsMapping.FlagsToString(f)
}

const (
	// ModuleCreateExternallySynchronized ensures that this module and all objects created from it
	// will not be synchronized internally. The consumer must guarantee they are used from only one
	// goroutine at a time or are synchronized by some other mechanism, but performance may improve
	// because internal mutexes are not used.
	ModuleCreateExternallySynchronized CreateFlags = 1 << iota
)

func init() {
	ModuleCreateExternallySynchronized.Register("ModuleCreateExternallySynchronized")
}

const (
	// defaultRegistrySize is the initial capacity of the buffer registry when none is specified
	defaultRegistrySize = 64
)

// CreateOptions contains optional settings when creating a module
type CreateOptions struct {
	// Flags indicates specific module behaviors to activate or deactivate
	Flags CreateFlags
	// DefaultFormat is substituted for hal.FormatImplementationDefined in allocation requests. If left
	// 0, hal.FormatRGBA8888 is used.
	DefaultFormat hal.PixelFormat
	// RegistrySizeHint is the number of live buffers the registry is initially sized for. If left
	// 0, a small default is used.
	RegistrySizeHint int
}
