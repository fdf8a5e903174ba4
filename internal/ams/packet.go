package ams

import (
	"errors"
	"fmt"
	"io"
)

// ErrShortFrame reports a frame whose declared length cannot hold an AMS
// header. The stream itself stays aligned; the caller may keep reading.
var ErrShortFrame = errors.New("ams: frame below minimum size")

// ErrDataLengthMismatch reports a frame whose AMS header declares more data
// than the frame carries. The whole frame has been consumed when this is
// returned, so the stream stays aligned.
var ErrDataLengthMismatch = errors.New("ams: declared data length exceeds frame")

// Packet represents a complete AMS packet: TCP header, AMS header, and data.
type Packet struct {
	TCPHeader TCPHeader
	Header    Header
	Data      []byte
}

// NewRequestPacket creates a request packet with the given parameters.
func NewRequestPacket(targetNetID NetID, targetPort Port, sourceNetID NetID, sourcePort Port, commandID uint16, invokeID uint32, data []byte) *Packet {
	return &Packet{
		TCPHeader: TCPHeader{
			Reserved: 0,
			Length:   HeaderLen + uint32(len(data)),
		},
		Header: Header{
			TargetNetID: targetNetID,
			TargetPort:  targetPort,
			SourceNetID: sourceNetID,
			SourcePort:  sourcePort,
			CommandID:   commandID,
			StateFlags:  StateFlagsTCPRequest,
			DataLength:  uint32(len(data)),
			ErrorCode:   0,
			InvokeID:    invokeID,
		},
		Data: data,
	}
}

// NewResponsePacket builds the response to a request packet. Target and
// source are swapped relative to the request; command ID and invoke ID are
// carried over unchanged.
func NewResponsePacket(req *Packet, stateFlags uint16, errorCode uint32, data []byte) *Packet {
	return &Packet{
		TCPHeader: TCPHeader{
			Reserved: 0,
			Length:   HeaderLen + uint32(len(data)),
		},
		Header: Header{
			TargetNetID: req.Header.SourceNetID,
			TargetPort:  req.Header.SourcePort,
			SourceNetID: req.Header.TargetNetID,
			SourcePort:  req.Header.TargetPort,
			CommandID:   req.Header.CommandID,
			StateFlags:  stateFlags,
			DataLength:  uint32(len(data)),
			ErrorCode:   errorCode,
			InvokeID:    req.Header.InvokeID,
		},
		Data: data,
	}
}

// MarshalBinary encodes the complete packet (TCP header + AMS header + data).
func (p *Packet) MarshalBinary() ([]byte, error) {
	tcpBuf, err := p.TCPHeader.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("ams: marshal TCP header: %w", err)
	}

	amsBuf, err := p.Header.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("ams: marshal AMS header: %w", err)
	}

	buf := make([]byte, 0, len(tcpBuf)+len(amsBuf)+len(p.Data))
	buf = append(buf, tcpBuf...)
	buf = append(buf, amsBuf...)
	buf = append(buf, p.Data...)
	return buf, nil
}

// UnmarshalBinary decodes a complete packet from a byte slice. Anything
// after the two headers is taken as opaque payload, sized by the declared
// data length.
func (p *Packet) UnmarshalBinary(data []byte) error {
	if len(data) < MinPacketLen {
		return fmt.Errorf("ams: packet requires at least %d bytes, got %d", MinPacketLen, len(data))
	}

	if err := p.TCPHeader.UnmarshalBinary(data[0:TCPHeaderLen]); err != nil {
		return fmt.Errorf("ams: unmarshal TCP header: %w", err)
	}
	if err := p.Header.UnmarshalBinary(data[TCPHeaderLen:MinPacketLen]); err != nil {
		return fmt.Errorf("ams: unmarshal AMS header: %w", err)
	}

	payload := data[MinPacketLen:]
	dataLen := int(p.Header.DataLength)
	if dataLen > len(payload) {
		return fmt.Errorf("ams: declared data length %d exceeds available %d bytes", dataLen, len(payload))
	}
	if dataLen > 0 {
		p.Data = make([]byte, dataLen)
		copy(p.Data, payload[:dataLen])
	} else {
		p.Data = nil
	}
	return nil
}

// ReadPacket reads one complete AMS packet from an io.Reader. It first
// reads the TCP header to determine the frame size, then the remainder.
func ReadPacket(r io.Reader) (*Packet, error) {
	tcpBuf := make([]byte, TCPHeaderLen)
	if _, err := io.ReadFull(r, tcpBuf); err != nil {
		return nil, fmt.Errorf("ams: read TCP header: %w", err)
	}

	var tcpHeader TCPHeader
	if err := tcpHeader.UnmarshalBinary(tcpBuf); err != nil {
		return nil, fmt.Errorf("ams: unmarshal TCP header: %w", err)
	}

	if tcpHeader.Length < HeaderLen {
		// Frame too short to carry an AMS header. Consume it so the
		// stream stays aligned, then report it.
		if tcpHeader.Length > 0 {
			if _, err := io.CopyN(io.Discard, r, int64(tcpHeader.Length)); err != nil {
				return nil, fmt.Errorf("ams: discard short frame: %w", err)
			}
		}
		return nil, fmt.Errorf("%w: frame of %d bytes, need at least %d", ErrShortFrame, TCPHeaderLen+tcpHeader.Length, MinPacketLen)
	}

	payloadBuf := make([]byte, tcpHeader.Length)
	if _, err := io.ReadFull(r, payloadBuf); err != nil {
		return nil, fmt.Errorf("ams: read AMS payload: %w", err)
	}

	var amsHeader Header
	if err := amsHeader.UnmarshalBinary(payloadBuf[0:HeaderLen]); err != nil {
		return nil, fmt.Errorf("ams: unmarshal AMS header: %w", err)
	}

	var data []byte
	if amsHeader.DataLength > 0 {
		if uint32(len(payloadBuf)) < HeaderLen+amsHeader.DataLength {
			return nil, fmt.Errorf("%w: declared %d bytes, frame carries %d", ErrDataLengthMismatch, amsHeader.DataLength, uint32(len(payloadBuf))-HeaderLen)
		}
		data = payloadBuf[HeaderLen : HeaderLen+amsHeader.DataLength]
	}

	return &Packet{
		TCPHeader: tcpHeader,
		Header:    amsHeader,
		Data:      data,
	}, nil
}

// WritePacket writes one complete AMS packet to an io.Writer.
func WritePacket(w io.Writer, p *Packet) error {
	buf, err := p.MarshalBinary()
	if err != nil {
		return fmt.Errorf("ams: marshal packet: %w", err)
	}
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("ams: write packet: %w", err)
	}
	return nil
}
