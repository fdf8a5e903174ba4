package ads

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Symbol-related index groups as per ADS specification.
const (
	IndexGroupSymbolHandleByName  uint32 = 0xF003 // Get symbol handle by name
	IndexGroupSymbolValueByName   uint32 = 0xF004 // Read/write symbol by name directly
	IndexGroupSymbolValueByHandle uint32 = 0xF005 // Read/write symbol by handle
	IndexGroupSymbolReleaseHandle uint32 = 0xF006 // Release symbol handle
	IndexGroupSymbolInfoByName    uint32 = 0xF007 // Get symbol info by name
	IndexGroupSymbolVersion       uint32 = 0xF008 // Get symbol version
	IndexGroupSymbolInfoByNameEx  uint32 = 0xF009 // Get extended symbol info by name
	IndexGroupSymbolUpload        uint32 = 0xF00B // Upload symbol table
	IndexGroupSymbolUploadInfo    uint32 = 0xF00C // Get upload info (symbol count)
	IndexGroupSymbolNote          uint32 = 0xF010 // Notification of symbol changes
	IndexGroupSymbolUploadInfo2   uint32 = 0xF00F // Extended upload info
)

// ADS data-type tags (ADST_*).
const (
	TypeVoid   uint32 = 0
	TypeInt16  uint32 = 2
	TypeInt32  uint32 = 3
	TypeReal32 uint32 = 4
	TypeReal64 uint32 = 5
	TypeInt8   uint32 = 16
	TypeUInt8  uint32 = 17
	TypeUInt16 uint32 = 18
	TypeUInt32 uint32 = 19
	TypeInt64  uint32 = 20
	TypeUInt64 uint32 = 21
	TypeString uint32 = 30
	TypeBit    uint32 = 33
)

// UploadEntryStride is the fixed per-symbol stride of the SYM_UPLOAD
// listing produced by the simulator: a 12-byte (entry size, index group,
// index offset) triple padded with zeros.
const UploadEntryStride = 120

// SymbolEntry is the packed symbol metadata returned for
// SYM_INFOBYNAMEEX requests and parsed from upload listings.
type SymbolEntry struct {
	IndexGroup  uint32
	IndexOffset uint32
	Size        uint32
	DataType    uint32
	Flags       uint32
	Name        string
	TypeName    string
	Comment     string
}

// symbolEntryFixedLen is the fixed-width prefix of a packed symbol entry:
// six uint32 fields and three uint16 string lengths.
const symbolEntryFixedLen = 6*4 + 3*2

// EntryLength returns the packed size of the entry, including the
// terminators after each string.
func (e *SymbolEntry) EntryLength() uint32 {
	return uint32(symbolEntryFixedLen + len(e.Name) + 1 + len(e.TypeName) + 1 + len(e.Comment))
}

// MarshalBinary packs the entry: entry length, index group, index offset,
// size, data type, flags, the three string lengths, then the strings, each
// of the first two followed by a terminator byte.
func (e *SymbolEntry) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	fixed := make([]byte, symbolEntryFixedLen)
	binary.LittleEndian.PutUint32(fixed[0:4], e.EntryLength())
	binary.LittleEndian.PutUint32(fixed[4:8], e.IndexGroup)
	binary.LittleEndian.PutUint32(fixed[8:12], e.IndexOffset)
	binary.LittleEndian.PutUint32(fixed[12:16], e.Size)
	binary.LittleEndian.PutUint32(fixed[16:20], e.DataType)
	binary.LittleEndian.PutUint32(fixed[20:24], e.Flags)
	binary.LittleEndian.PutUint16(fixed[24:26], uint16(len(e.Name)))
	binary.LittleEndian.PutUint16(fixed[26:28], uint16(len(e.TypeName)))
	binary.LittleEndian.PutUint16(fixed[28:30], uint16(len(e.Comment)))
	buf.Write(fixed)
	buf.WriteString(e.Name)
	buf.WriteByte(0)
	buf.WriteString(e.TypeName)
	buf.WriteByte(0)
	buf.WriteString(e.Comment)
	return buf.Bytes(), nil
}

// UnmarshalBinary parses one packed symbol entry.
func (e *SymbolEntry) UnmarshalBinary(data []byte) error {
	if len(data) < symbolEntryFixedLen {
		return fmt.Errorf("ads: symbol entry requires at least %d bytes, got %d", symbolEntryFixedLen, len(data))
	}
	entryLen := binary.LittleEndian.Uint32(data[0:4])
	if entryLen < symbolEntryFixedLen || uint32(len(data)) < entryLen {
		return fmt.Errorf("ads: symbol entry length %d out of range for %d bytes", entryLen, len(data))
	}
	e.IndexGroup = binary.LittleEndian.Uint32(data[4:8])
	e.IndexOffset = binary.LittleEndian.Uint32(data[8:12])
	e.Size = binary.LittleEndian.Uint32(data[12:16])
	e.DataType = binary.LittleEndian.Uint32(data[16:20])
	e.Flags = binary.LittleEndian.Uint32(data[20:24])
	nameLen := int(binary.LittleEndian.Uint16(data[24:26]))
	typeLen := int(binary.LittleEndian.Uint16(data[26:28]))
	commentLen := int(binary.LittleEndian.Uint16(data[28:30]))

	pos := symbolEntryFixedLen
	if pos+nameLen+1+typeLen+1+commentLen > int(entryLen) {
		return fmt.Errorf("ads: symbol entry string lengths exceed entry length %d", entryLen)
	}
	e.Name = string(data[pos : pos+nameLen])
	pos += nameLen + 1
	e.TypeName = string(data[pos : pos+typeLen])
	pos += typeLen + 1
	e.Comment = string(data[pos : pos+commentLen])
	return nil
}

// UploadInfo is the SYM_UPLOADINFO2 response body: the number of symbols
// and an estimate of the total upload size.
type UploadInfo struct {
	SymbolCount  uint32
	UploadLength uint32
}

func (u *UploadInfo) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf[0:4], u.SymbolCount)
	binary.LittleEndian.PutUint32(buf[4:8], u.UploadLength)
	return buf, nil
}

func (u *UploadInfo) UnmarshalBinary(data []byte) error {
	if len(data) < 8 {
		return fmt.Errorf("ads: upload info requires 8 bytes, got %d", len(data))
	}
	u.SymbolCount = binary.LittleEndian.Uint32(data[0:4])
	u.UploadLength = binary.LittleEndian.Uint32(data[4:8])
	return nil
}
