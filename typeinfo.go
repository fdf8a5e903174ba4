package goadssim

import (
	"strings"

	"github.com/mrpasztoradam/goadssim/internal/ads"
)

// TypePattern describes the symbol metadata reported for names matching
// a substring. Patterns are checked in order; the first match wins.
type TypePattern struct {
	Substring string
	DataType  uint32
	Size      uint32
}

// typePatterns lets a client steer the reported symbol info by choosing
// variable names, which is handy when exercising client-side type handling.
var typePatterns = []TypePattern{
	{Substring: "str_", DataType: ads.TypeString, Size: 5},
	{Substring: "no_type", DataType: 1, Size: 5},
	{Substring: "ar_", DataType: ads.TypeUInt8, Size: 2},
}

// defaultPattern applies when no substring matches.
var defaultPattern = TypePattern{DataType: ads.TypeUInt8, Size: 1}

func lookupTypePattern(name string) TypePattern {
	for _, p := range typePatterns {
		if strings.Contains(name, p.Substring) {
			return p
		}
	}
	return defaultPattern
}

// plcType describes a named PLC data type accepted in configuration files.
type plcType struct {
	DataType uint32
	Size     uint32
}

var plcTypes = map[string]plcType{
	"BOOL":   {ads.TypeBit, 1},
	"BYTE":   {ads.TypeUInt8, 1},
	"SINT":   {ads.TypeInt8, 1},
	"USINT":  {ads.TypeUInt8, 1},
	"INT":    {ads.TypeInt16, 2},
	"UINT":   {ads.TypeUInt16, 2},
	"WORD":   {ads.TypeUInt16, 2},
	"DINT":   {ads.TypeInt32, 4},
	"UDINT":  {ads.TypeUInt32, 4},
	"DWORD":  {ads.TypeUInt32, 4},
	"LINT":   {ads.TypeInt64, 8},
	"ULINT":  {ads.TypeUInt64, 8},
	"REAL":   {ads.TypeReal32, 4},
	"LREAL":  {ads.TypeReal64, 8},
	"STRING": {ads.TypeString, 81},
}

// TypeForName resolves a PLC type name (e.g. "UINT", "LREAL") to its ADS
// data type tag and default size in bytes.
func TypeForName(name string) (dataType uint32, size uint32, ok bool) {
	t, ok := plcTypes[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return 0, 0, false
	}
	return t.DataType, t.Size, true
}
