package storage

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// Record header layout (little-endian):
//
//	0-3:   magic
//	4-7:   format version
//	8-11:  payload length
//	12-15: CRC-32 (IEEE) of the payload
const (
	HeaderSize    = 16
	FormatVersion = 1
)

// Magic values of the records the firmware keeps.
const (
	ProfileMagic uint32 = 0x42474743 // "BGGC"
	FlagMagic    uint32 = 0x42474721 // "BGG!"
)

// erased is what an erased sector reads as in the magic field.
const erased uint32 = 0xFFFFFFFF

// Checksum returns the CRC-32 of data using the standard IEEE table.
func Checksum(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

// EncodeRecord frames payload with a header.
func EncodeRecord(magic uint32, payload []byte) []byte {
	b := make([]byte, HeaderSize+len(payload))
	binary.LittleEndian.PutUint32(b[0:4], magic)
	binary.LittleEndian.PutUint32(b[4:8], FormatVersion)
	binary.LittleEndian.PutUint32(b[8:12], uint32(len(payload)))
	binary.LittleEndian.PutUint32(b[12:16], Checksum(payload))
	copy(b[HeaderSize:], payload)
	return b
}

// DecodeRecord validates raw (a whole sector or more) and returns the payload.
// Nothing in the payload is trusted unless the checksum matches.
func DecodeRecord(magic uint32, raw []byte) ([]byte, error) {
	if len(raw) < HeaderSize {
		return nil, &CorruptionError{Reason: ReasonLength, Detail: "short header"}
	}
	gotMagic := binary.LittleEndian.Uint32(raw[0:4])
	if gotMagic == erased {
		return nil, &CorruptionError{Reason: ReasonEmpty}
	}
	if gotMagic != magic {
		return nil, &CorruptionError{Reason: ReasonMagic, Detail: fmt.Sprintf("0x%08x", gotMagic)}
	}
	if v := binary.LittleEndian.Uint32(raw[4:8]); v != FormatVersion {
		return nil, &CorruptionError{Reason: ReasonVersion, Detail: fmt.Sprintf("%d", v)}
	}
	n := binary.LittleEndian.Uint32(raw[8:12])
	if n == 0 || int64(n) > int64(len(raw)-HeaderSize) {
		return nil, &CorruptionError{Reason: ReasonLength, Detail: fmt.Sprintf("%d", n)}
	}
	payload := raw[HeaderSize : HeaderSize+int(n)]
	if sum := Checksum(payload); sum != binary.LittleEndian.Uint32(raw[12:16]) {
		return nil, &CorruptionError{Reason: ReasonChecksum, Detail: fmt.Sprintf("0x%08x", sum)}
	}
	return append([]byte(nil), payload...), nil
}
