// Package wire encodes sync operations into the binary message layout
// exchanged between an authority and its replicas.
//
// A message is big-endian:
//
//	int32   operation kind
//	int32   entry count
//	entries, sorted by key:
//	  uvarint key length, key bytes (UTF-8)
//	  byte    value tag
//	  value   bool: 1 byte, int32/float32: 4 bytes, int64/float64: 8 bytes,
//	          string: uvarint length then bytes
//
// The codec knows nothing about schemas. Values come out with the kind
// they went in with, and the receiver coerces them.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/artpar/confsync/domain/value"
)

// OpKind identifies an operation. Bit 0 is the direction (0 toward the
// authority, 1 toward the requester) and bit 1 marks a resync exchange.
type OpKind int32

const (
	// OpNone is an uninitialized operation. It decodes cleanly and is
	// ignored by receivers.
	OpNone OpKind = -1

	// OpClientUpdate carries edited values from a replica to the authority.
	OpClientUpdate OpKind = 0

	// OpFullSync carries the authority's syncable snapshot to a replica.
	OpFullSync OpKind = 1

	// OpResyncRequest asks the authority for defaults. Its payload is empty.
	OpResyncRequest OpKind = 2

	// OpResyncResponse answers a resync request with the defaults.
	OpResyncResponse OpKind = 3
)

const (
	dirBit    = 1 << 0
	resyncBit = 1 << 1
)

// String returns the operation name.
func (k OpKind) String() string {
	switch k {
	case OpNone:
		return "none"
	case OpClientUpdate:
		return "client_update"
	case OpFullSync:
		return "full_sync"
	case OpResyncRequest:
		return "resync_request"
	case OpResyncResponse:
		return "resync_response"
	}
	return fmt.Sprintf("op(%d)", int32(k))
}

// Valid reports whether k is one of the four defined operations.
func (k OpKind) Valid() bool {
	return k >= OpClientUpdate && k <= OpResyncResponse
}

// TowardAuthority reports whether operations of this kind are handled by
// the authority.
func (k OpKind) TowardAuthority() bool {
	return k.Valid() && k&dirBit == 0
}

// IsResync reports whether k belongs to the resync exchange.
func (k OpKind) IsResync() bool {
	return k.Valid() && k&resyncBit != 0
}

// Reply returns the kind answering k, flipping the direction bit.
func (k OpKind) Reply() OpKind {
	return k ^ dirBit
}

// Operation is one protocol message.
type Operation struct {
	Kind    OpKind
	Payload value.Map
}

// Value tags on the wire.
const (
	tagBool byte = iota
	tagInt32
	tagInt64
	tagFloat32
	tagFloat64
	tagString
)

// ErrMalformed is wrapped by every decode failure other than an unknown
// value tag.
var ErrMalformed = errors.New("malformed message")

// UnknownWireTypeError reports a value tag outside the defined set. The
// whole message is discarded.
type UnknownWireTypeError struct {
	Key string
	Tag byte
}

func (e *UnknownWireTypeError) Error() string {
	return fmt.Sprintf("unknown wire type %d for key %q", e.Tag, e.Key)
}

func tagFor(k value.Kind) (byte, bool) {
	switch k {
	case value.KindBool:
		return tagBool, true
	case value.KindInt32:
		return tagInt32, true
	case value.KindInt64:
		return tagInt64, true
	case value.KindFloat32:
		return tagFloat32, true
	case value.KindFloat64:
		return tagFloat64, true
	case value.KindString:
		return tagString, true
	}
	return 0, false
}

// Encode serializes op. Entries are written in key order so equal
// operations produce identical bytes.
func Encode(op Operation) ([]byte, error) {
	if !op.Kind.Valid() && op.Kind != OpNone {
		return nil, fmt.Errorf("encode: unknown operation kind %d", int32(op.Kind))
	}

	keys := op.Payload.Keys()
	if len(keys) > math.MaxInt32 {
		return nil, fmt.Errorf("encode: too many entries (%d)", len(keys))
	}

	buf := make([]byte, 0, 8+len(keys)*16)
	buf = binary.BigEndian.AppendUint32(buf, uint32(op.Kind))
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(keys)))

	for _, key := range keys {
		if !utf8.ValidString(key) {
			return nil, fmt.Errorf("encode: key %q is not valid UTF-8", key)
		}
		v := op.Payload[key]
		tag, ok := tagFor(v.Kind())
		if !ok {
			return nil, fmt.Errorf("encode: key %q has no value", key)
		}

		buf = appendString(buf, key)
		buf = append(buf, tag)

		switch tag {
		case tagBool:
			if v.AsBool() {
				buf = append(buf, 1)
			} else {
				buf = append(buf, 0)
			}
		case tagInt32:
			buf = binary.BigEndian.AppendUint32(buf, uint32(v.AsInt32()))
		case tagInt64:
			buf = binary.BigEndian.AppendUint64(buf, uint64(v.AsInt64()))
		case tagFloat32:
			buf = binary.BigEndian.AppendUint32(buf, math.Float32bits(v.AsFloat32()))
		case tagFloat64:
			buf = binary.BigEndian.AppendUint64(buf, math.Float64bits(v.AsFloat64()))
		case tagString:
			if !utf8.ValidString(v.AsString()) {
				return nil, fmt.Errorf("encode: value of %q is not valid UTF-8", key)
			}
			buf = appendString(buf, v.AsString())
		}
	}

	return buf, nil
}

func appendString(buf []byte, s string) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(s)))
	return append(buf, s...)
}

// Decode parses one message. On any error no partial operation is
// returned.
func Decode(data []byte) (Operation, error) {
	r := reader{data: data}

	kind := OpKind(int32(r.uint32()))
	count := int32(r.uint32())
	if r.err != nil {
		return Operation{}, r.err
	}
	if !kind.Valid() && kind != OpNone {
		return Operation{}, fmt.Errorf("%w: unknown operation kind %d", ErrMalformed, int32(kind))
	}
	if count < 0 {
		return Operation{}, fmt.Errorf("%w: negative entry count %d", ErrMalformed, count)
	}
	// Each entry needs at least three bytes.
	if int(count) > r.remaining()/3 {
		return Operation{}, fmt.Errorf("%w: entry count %d exceeds message size", ErrMalformed, count)
	}

	payload := make(value.Map, count)
	for i := int32(0); i < count; i++ {
		key := r.string()
		tag := r.byte()
		if r.err != nil {
			return Operation{}, r.err
		}

		var v value.Value
		switch tag {
		case tagBool:
			b := r.byte()
			if r.err == nil && b > 1 {
				return Operation{}, fmt.Errorf("%w: bool byte %d for key %q", ErrMalformed, b, key)
			}
			v = value.Bool(b == 1)
		case tagInt32:
			v = value.Int32(int32(r.uint32()))
		case tagInt64:
			v = value.Int64(int64(r.uint64()))
		case tagFloat32:
			v = value.Float32(math.Float32frombits(r.uint32()))
		case tagFloat64:
			v = value.Float64(math.Float64frombits(r.uint64()))
		case tagString:
			v = value.String(r.string())
		default:
			return Operation{}, &UnknownWireTypeError{Key: key, Tag: tag}
		}
		if r.err != nil {
			return Operation{}, r.err
		}

		if _, dup := payload[key]; dup {
			return Operation{}, fmt.Errorf("%w: duplicate key %q", ErrMalformed, key)
		}
		payload[key] = v
	}

	if r.remaining() != 0 {
		return Operation{}, fmt.Errorf("%w: %d trailing bytes", ErrMalformed, r.remaining())
	}

	return Operation{Kind: kind, Payload: payload}, nil
}

// reader consumes a message and records the first failure.
type reader struct {
	data []byte
	off  int
	err  error
}

func (r *reader) remaining() int { return len(r.data) - r.off }

func (r *reader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if r.remaining() < n {
		r.err = fmt.Errorf("%w: truncated at offset %d", ErrMalformed, r.off)
		return false
	}
	return true
}

func (r *reader) byte() byte {
	if !r.need(1) {
		return 0
	}
	b := r.data[r.off]
	r.off++
	return b
}

func (r *reader) uint32() uint32 {
	if !r.need(4) {
		return 0
	}
	v := binary.BigEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v
}

func (r *reader) uint64() uint64 {
	if !r.need(8) {
		return 0
	}
	v := binary.BigEndian.Uint64(r.data[r.off:])
	r.off += 8
	return v
}

func (r *reader) string() string {
	if r.err != nil {
		return ""
	}
	n, size := binary.Uvarint(r.data[r.off:])
	if size <= 0 {
		r.err = fmt.Errorf("%w: bad length prefix at offset %d", ErrMalformed, r.off)
		return ""
	}
	r.off += size
	if n > uint64(r.remaining()) {
		r.err = fmt.Errorf("%w: truncated string at offset %d", ErrMalformed, r.off)
		return ""
	}
	s := r.data[r.off : r.off+int(n)]
	r.off += int(n)
	if !utf8.Valid(s) {
		r.err = fmt.Errorf("%w: invalid UTF-8 at offset %d", ErrMalformed, r.off-int(n))
		return ""
	}
	return string(s)
}
