package goadssim

import (
	"strings"

	"github.com/mrpasztoradam/goadssim/internal/ads"
)

const (
	// DefaultIndexGroup is assigned to variables created through name
	// resolution rather than explicit index addressing.
	DefaultIndexGroup uint32 = 12345

	// defaultValueSize is the buffer size of implicitly created variables.
	defaultValueSize = 16

	// variableHandleBase is the first handle issued for variables.
	variableHandleBase uint32 = 10000

	// notificationHandleBase is the first handle issued for notifications.
	notificationHandleBase uint32 = 10
)

// Variable is a simulated PLC symbol: a named, addressable byte buffer with
// type metadata. Instances are owned by a Store; all access beyond initial
// construction goes through Store methods.
type Variable struct {
	Name        string
	Value       []byte
	DataType    uint32
	TypeName    string
	Comment     string
	IndexGroup  uint32
	IndexOffset uint32
	Handle      uint32

	subs []*Subscription
}

// NewVariable creates a variable with an explicit address and a zero-filled
// buffer of the given size. The handle is assigned when the variable is
// added to a Store.
func NewVariable(name string, indexGroup, indexOffset uint32, dataType uint32, size int) *Variable {
	return &Variable{
		Name:        sanitizeName(name),
		Value:       make([]byte, size),
		DataType:    dataType,
		TypeName:    typeNameFor(dataType),
		IndexGroup:  indexGroup,
		IndexOffset: indexOffset,
	}
}

// Size returns the variable's buffer size in bytes.
func (v *Variable) Size() uint32 {
	return uint32(len(v.Value))
}

// SymbolEntry builds the upload entry describing this variable.
func (v *Variable) SymbolEntry() ads.SymbolEntry {
	return ads.SymbolEntry{
		IndexGroup:  v.IndexGroup,
		IndexOffset: v.IndexOffset,
		Size:        v.Size(),
		DataType:    v.DataType,
		Name:        v.Name,
		TypeName:    v.TypeName,
		Comment:     v.Comment,
	}
}

// Subscription is a registered device notification on a variable. Samples
// are delivered to the sink whenever the variable's value changes.
type Subscription struct {
	Handle uint32
	Length uint32
	Sink   NotificationSink
}

// sanitizeName strips NUL bytes and surrounding whitespace from a symbol
// name as received on the wire.
func sanitizeName(name string) string {
	return strings.TrimSpace(strings.ReplaceAll(name, "\x00", ""))
}

// typeNameFor maps an ADS data type tag back to a PLC type name for
// symbol info responses. Unknown tags report an empty name.
func typeNameFor(dataType uint32) string {
	switch dataType {
	case ads.TypeBit:
		return "BOOL"
	case ads.TypeInt8:
		return "SINT"
	case ads.TypeUInt8:
		return "USINT"
	case ads.TypeInt16:
		return "INT"
	case ads.TypeUInt16:
		return "UINT"
	case ads.TypeInt32:
		return "DINT"
	case ads.TypeUInt32:
		return "UDINT"
	case ads.TypeInt64:
		return "LINT"
	case ads.TypeUInt64:
		return "ULINT"
	case ads.TypeReal32:
		return "REAL"
	case ads.TypeReal64:
		return "LREAL"
	case ads.TypeString:
		return "STRING"
	default:
		return ""
	}
}
