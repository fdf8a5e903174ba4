// Package ams implements AMS (Automation Message Specification) framing,
// the envelope layer ADS commands ride on.
package ams

import (
	"encoding/binary"
	"fmt"
)

// NetID represents a 6-byte AMS NetID address (e.g., 192.168.1.100.1.1).
// Each byte is stored separately and has no direct relation to IP addresses.
type NetID [6]byte

// String returns the dot-separated string representation of the NetID.
func (n NetID) String() string {
	return fmt.Sprintf("%d.%d.%d.%d.%d.%d", n[0], n[1], n[2], n[3], n[4], n[5])
}

// ParseNetID parses a dot-separated NetID string ("5.18.77.4.1.1").
func ParseNetID(s string) (NetID, error) {
	var n NetID
	if _, err := fmt.Sscanf(s, "%d.%d.%d.%d.%d.%d", &n[0], &n[1], &n[2], &n[3], &n[4], &n[5]); err != nil {
		return NetID{}, fmt.Errorf("ams: invalid NetID %q: %w", s, err)
	}
	return n, nil
}

// Port represents a 2-byte AMS port identifier.
type Port uint16

// TCPHeader is the 6-byte AMS/TCP header preceding every AMS packet on a
// TCP stream. It carries the length of the following AMS header plus data.
type TCPHeader struct {
	Reserved uint16 // Must be 0
	Length   uint32 // Length of AMS header + ADS data in bytes
}

// MarshalBinary encodes the TCPHeader into a 6-byte slice (little-endian).
func (h *TCPHeader) MarshalBinary() ([]byte, error) {
	buf := make([]byte, TCPHeaderLen)
	binary.LittleEndian.PutUint16(buf[0:2], h.Reserved)
	binary.LittleEndian.PutUint32(buf[2:6], h.Length)
	return buf, nil
}

// UnmarshalBinary decodes a 6-byte slice into the TCPHeader (little-endian).
func (h *TCPHeader) UnmarshalBinary(data []byte) error {
	if len(data) < TCPHeaderLen {
		return fmt.Errorf("ams: TCP header requires %d bytes, got %d", TCPHeaderLen, len(data))
	}
	h.Reserved = binary.LittleEndian.Uint16(data[0:2])
	h.Length = binary.LittleEndian.Uint32(data[2:6])
	return nil
}

// Header is the 32-byte AMS header following the AMS/TCP header.
// All multi-byte fields are little-endian.
type Header struct {
	TargetNetID NetID  // Destination AMS NetID (6 bytes, offset 0)
	TargetPort  Port   // Destination AMS port (2 bytes, offset 6)
	SourceNetID NetID  // Source AMS NetID (6 bytes, offset 8)
	SourcePort  Port   // Source AMS port (2 bytes, offset 14)
	CommandID   uint16 // ADS command ID (2 bytes, offset 16)
	StateFlags  uint16 // Request/response and protocol flags (2 bytes, offset 18)
	DataLength  uint32 // Size of ADS data in bytes (4 bytes, offset 20)
	ErrorCode   uint32 // AMS error number (4 bytes, offset 24)
	InvokeID    uint32 // Free usable ID for request/response matching (4 bytes, offset 28)
}

// MarshalBinary encodes the AMS header into a 32-byte slice (little-endian).
func (h *Header) MarshalBinary() ([]byte, error) {
	buf := make([]byte, HeaderLen)
	copy(buf[0:6], h.TargetNetID[:])
	binary.LittleEndian.PutUint16(buf[6:8], uint16(h.TargetPort))
	copy(buf[8:14], h.SourceNetID[:])
	binary.LittleEndian.PutUint16(buf[14:16], uint16(h.SourcePort))
	binary.LittleEndian.PutUint16(buf[16:18], h.CommandID)
	binary.LittleEndian.PutUint16(buf[18:20], h.StateFlags)
	binary.LittleEndian.PutUint32(buf[20:24], h.DataLength)
	binary.LittleEndian.PutUint32(buf[24:28], h.ErrorCode)
	binary.LittleEndian.PutUint32(buf[28:32], h.InvokeID)
	return buf, nil
}

// UnmarshalBinary decodes a 32-byte slice into the AMS header (little-endian).
func (h *Header) UnmarshalBinary(data []byte) error {
	if len(data) < HeaderLen {
		return fmt.Errorf("ams: header requires %d bytes, got %d", HeaderLen, len(data))
	}
	copy(h.TargetNetID[:], data[0:6])
	h.TargetPort = Port(binary.LittleEndian.Uint16(data[6:8]))
	copy(h.SourceNetID[:], data[8:14])
	h.SourcePort = Port(binary.LittleEndian.Uint16(data[14:16]))
	h.CommandID = binary.LittleEndian.Uint16(data[16:18])
	h.StateFlags = binary.LittleEndian.Uint16(data[18:20])
	h.DataLength = binary.LittleEndian.Uint32(data[20:24])
	h.ErrorCode = binary.LittleEndian.Uint32(data[24:28])
	h.InvokeID = binary.LittleEndian.Uint32(data[28:32])
	return nil
}

// IsRequest returns true if the StateFlags indicate a request packet.
func (h *Header) IsRequest() bool {
	return (h.StateFlags & StateFlagResponse) == 0
}

// IsResponse returns true if the StateFlags indicate a response packet.
func (h *Header) IsResponse() bool {
	return (h.StateFlags & StateFlagResponse) != 0
}
