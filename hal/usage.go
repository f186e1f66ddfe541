package hal

import (
	"fmt"
	"strings"

	"github.com/vkngwrapper/core/v2/common"
)

// Usage is a bitmask indicating how the producer and consumers of a buffer intend to access it.
// The software read and write fields are two-bit enumerations rather than independent flags.
type Usage uint32

var usageMapping = common.NewFlagStringMapping[Usage]()

func (u Usage) Register(str string) {
	usageMapping.Register(u, str)
}

const (
	UsageSWReadNever  Usage = 0
	UsageSWReadRarely Usage = 0x2
	UsageSWReadOften  Usage = 0x3
	UsageSWReadMask   Usage = 0xf

	UsageSWWriteNever  Usage = 0
	UsageSWWriteRarely Usage = 0x20
	UsageSWWriteOften  Usage = 0x30
	UsageSWWriteMask   Usage = 0xf0

	UsageSWMask = UsageSWReadMask | UsageSWWriteMask
)

const (
	UsageHWTexture Usage = 0x100 << iota
	UsageHWRender
	UsageHW2D
	UsageHWComposer
	UsageHWFB
	UsageExternalDisp
	UsageProtected
	UsageCursor
	UsageHWVideoEncoder
	UsageHWCameraWrite
	UsageHWCameraRead
	_
	UsageRenderScript
)

func init() {
	UsageHWTexture.Register("UsageHWTexture")
	UsageHWRender.Register("UsageHWRender")
	UsageHW2D.Register("UsageHW2D")
	UsageHWComposer.Register("UsageHWComposer")
	UsageHWFB.Register("UsageHWFB")
	UsageExternalDisp.Register("UsageExternalDisp")
	UsageProtected.Register("UsageProtected")
	UsageCursor.Register("UsageCursor")
	UsageHWVideoEncoder.Register("UsageHWVideoEncoder")
	UsageHWCameraWrite.Register("UsageHWCameraWrite")
	UsageHWCameraRead.Register("UsageHWCameraRead")
	UsageRenderScript.Register("UsageRenderScript")
}

var swReadNames = map[Usage]string{
	UsageSWReadRarely: "UsageSWReadRarely",
	UsageSWReadOften:  "UsageSWReadOften",
}

var swWriteNames = map[Usage]string{
	UsageSWWriteRarely: "UsageSWWriteRarely",
	UsageSWWriteOften:  "UsageSWWriteOften",
}

func (u Usage) String() string {
	var parts []string

	if read := u & UsageSWReadMask; read != 0 {
		name, ok := swReadNames[read]
		if !ok {
			name = fmt.Sprintf("UsageSWRead(0x%x)", uint32(read))
		}
		parts = append(parts, name)
	}

	if write := u & UsageSWWriteMask; write != 0 {
		name, ok := swWriteNames[write]
		if !ok {
			name = fmt.Sprintf("UsageSWWrite(0x%x)", uint32(write))
		}
		parts = append(parts, name)
	}

	if hw := u &^ UsageSWMask; hw != 0 {
		parts = append(parts, usageMapping.FlagsToString(hw))
	}

	if len(parts) == 0 {
		return "None"
	}

	return strings.Join(parts, "|")
}

// SWRead returns true if the usage requests CPU read access
func (u Usage) SWRead() bool {
	return u&UsageSWReadMask != 0
}

// SWWrite returns true if the usage requests CPU write access
func (u Usage) SWWrite() bool {
	return u&UsageSWWriteMask != 0
}

// SW returns only the CPU access fields of the usage
func (u Usage) SW() Usage {
	return u & UsageSWMask
}

// Permits returns true if every CPU access requested by other is also granted by u. Access
// frequency is ignored: a buffer allocated for rare reads may be locked for frequent reads.
func (u Usage) Permits(other Usage) bool {
	if other.SWRead() && !u.SWRead() {
		return false
	}
	if other.SWWrite() && !u.SWWrite() {
		return false
	}

	return true
}
