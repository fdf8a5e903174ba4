package ads

import "fmt"

// Error is an ADS numeric error code as carried in AMS headers and
// command result fields.
type Error uint32

const (
	ErrNoError               Error = 0x0000
	ErrInternal              Error = 0x0001
	ErrTargetPortNotFound    Error = 0x0006
	ErrTargetMachineNotFound Error = 0x0007
	ErrUnknownCommandID      Error = 0x0008
	ErrInvalidTaskID         Error = 0x0009

	ErrDeviceServiceNotSupported Error = 0x0701
	ErrDeviceInvalidIndexGroup   Error = 0x0702
	ErrDeviceInvalidIndexOffset  Error = 0x0703
	ErrDeviceNotFound            Error = 0x0707
	ErrDeviceSymbolNotFound      Error = 0x0710
	ErrDeviceSymbolVersion       Error = 0x0711
	ErrDeviceNotifyHandleInvalid Error = 0x0714
)

func (e Error) Error() string {
	switch e {
	case ErrNoError:
		return "no error"
	case ErrInternal:
		return "internal error"
	case ErrTargetPortNotFound:
		return "target port not found"
	case ErrTargetMachineNotFound:
		return "target machine not found"
	case ErrUnknownCommandID:
		return "unknown command ID"
	case ErrDeviceServiceNotSupported:
		return "service is not supported by device"
	case ErrDeviceInvalidIndexGroup:
		return "invalid index group"
	case ErrDeviceInvalidIndexOffset:
		return "invalid index offset"
	case ErrDeviceSymbolNotFound:
		return "symbol not found"
	case ErrDeviceNotifyHandleInvalid:
		return "notification handle is invalid"
	default:
		return fmt.Sprintf("ADS error 0x%04X", uint32(e))
	}
}

func (e Error) IsError() bool {
	return e != ErrNoError
}
