package ams

// Fixed frame sizes.
const (
	// TCPHeaderLen is the size of the AMS/TCP header in bytes.
	TCPHeaderLen = 6

	// HeaderLen is the size of the AMS header in bytes.
	HeaderLen = 32

	// MinPacketLen is the smallest valid frame: both headers, no data.
	MinPacketLen = TCPHeaderLen + HeaderLen
)

// State flag bits for the StateFlags field in the AMS header.
const (
	// StateFlagResponse indicates a response packet (bit 0).
	// 0 = Request, 1 = Response
	StateFlagResponse uint16 = 0x0001

	// StateFlagADS must be set for ADS commands (bit 2).
	StateFlagADS uint16 = 0x0004

	// StateFlagUDP indicates UDP protocol (bit 7).
	// 0 = TCP, 1 = UDP
	StateFlagUDP uint16 = 0x0080
)

// Predefined state flag combinations for common use cases.
const (
	// StateFlagsTCPRequest represents a TCP request (0x0004).
	StateFlagsTCPRequest = StateFlagADS

	// StateFlagsTCPResponse represents a TCP response (0x0005).
	StateFlagsTCPResponse = StateFlagADS | StateFlagResponse
)

// Common AMS port numbers used by TwinCAT runtime.
const (
	PortLogger        Port = 100   // Logger
	PortEventLogger   Port = 110   // EventLogger
	PortRouter        Port = 1     // AMS Router
	PortSystemService Port = 10000 // System Service
	PortPLCRuntime1   Port = 851   // First PLC runtime
	PortPLCRuntime2   Port = 852   // Second PLC runtime
)

// DefaultTCPPort is the TCP port an ADS/AMS server listens on (0xBF02).
const DefaultTCPPort = 48898
