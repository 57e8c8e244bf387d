// Package codec defines cinder's on-disk record framing: a fixed header
// followed by the key and value bytes. Every data file is a sequence of
// these frames, written once and never modified in place.
package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/zeebo/xxh3"
)

// RecordType distinguishes a live write from a tombstone.
type RecordType byte

const (
	// RecordNormal marks a live key/value write.
	RecordNormal RecordType = 1

	// RecordDeleted marks a tombstone: the key is logically removed.
	RecordDeleted RecordType = 2
)

// HeaderSize is the fixed number of bytes preceding the key and value:
// 8 bytes checksum + 1 byte type + 4 bytes key length + 4 bytes value length.
const HeaderSize = 17

// Header is the fixed-width portion of a record, decoded without yet
// reading the variable-length key/value payload.
type Header struct {
	Checksum  uint64
	Type      RecordType
	KeySize   uint32
	ValueSize uint32
}

// PayloadSize returns how many bytes of key+value follow this header.
func (h Header) PayloadSize() int64 {
	return int64(h.KeySize) + int64(h.ValueSize)
}

// Record is a single decoded log entry.
type Record struct {
	Type  RecordType
	Key   []byte
	Value []byte
}

// Size returns the total on-disk footprint of the record, header included.
func (r Record) Size() int64 {
	return int64(HeaderSize) + int64(len(r.Key)) + int64(len(r.Value))
}

// Encode serializes r into its on-disk frame.
func Encode(r Record) []byte {
	buf := make([]byte, HeaderSize+len(r.Key)+len(r.Value))

	buf[8] = byte(r.Type)
	binary.LittleEndian.PutUint32(buf[9:13], uint32(len(r.Key)))
	binary.LittleEndian.PutUint32(buf[13:17], uint32(len(r.Value)))
	copy(buf[HeaderSize:], r.Key)
	copy(buf[HeaderSize+len(r.Key):], r.Value)

	checksum := xxh3.Hash(buf[8:])
	binary.LittleEndian.PutUint64(buf[0:8], checksum)

	return buf
}

// DecodeHeader parses the fixed-width header from the first HeaderSize
// bytes of buf. It does not validate the checksum, since the payload has
// not been read yet; call VerifyChecksum once the payload is available.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, fmt.Errorf("codec: header requires %d bytes, got %d", HeaderSize, len(buf))
	}

	return Header{
		Checksum:  binary.LittleEndian.Uint64(buf[0:8]),
		Type:      RecordType(buf[8]),
		KeySize:   binary.LittleEndian.Uint32(buf[9:13]),
		ValueSize: binary.LittleEndian.Uint32(buf[13:17]),
	}, nil
}

// Decode parses a complete frame (header + key + value) from buf and
// verifies its checksum.
func Decode(buf []byte) (Record, error) {
	header, err := DecodeHeader(buf)
	if err != nil {
		return Record{}, err
	}

	want := HeaderSize + int(header.KeySize) + int(header.ValueSize)
	if len(buf) < want {
		return Record{}, fmt.Errorf("codec: frame requires %d bytes, got %d", want, len(buf))
	}

	if !VerifyChecksum(header, buf[HeaderSize:want]) {
		return Record{}, fmt.Errorf("codec: checksum mismatch")
	}

	key := make([]byte, header.KeySize)
	copy(key, buf[HeaderSize:HeaderSize+int(header.KeySize)])

	value := make([]byte, header.ValueSize)
	copy(value, buf[HeaderSize+int(header.KeySize):want])

	return Record{Type: header.Type, Key: key, Value: value}, nil
}

// VerifyChecksum recomputes the checksum over the type/length fields and
// payload, comparing it against the checksum recorded in header.
func VerifyChecksum(header Header, payload []byte) bool {
	buf := make([]byte, 9+len(payload))
	buf[0] = byte(header.Type)
	binary.LittleEndian.PutUint32(buf[1:5], header.KeySize)
	binary.LittleEndian.PutUint32(buf[5:9], header.ValueSize)
	copy(buf[9:], payload)

	return xxh3.Hash(buf) == header.Checksum
}
