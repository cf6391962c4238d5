// internal/webauthn/cbor.go
package webauthn

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"
)

// FormatError reports a structurally invalid binary payload: malformed CBOR,
// a truncated authenticator-data buffer, or a length prefix pointing past the
// end of its buffer. Format errors are terminal for the current ceremony and
// are never retried.
type FormatError struct {
	msg string
}

func (e *FormatError) Error() string { return "webauthn: " + e.msg }

func formatErrorf(format string, args ...any) error {
	return &FormatError{msg: fmt.Sprintf(format, args...)}
}

// CBOR major types (RFC 8949 §3).
const (
	cborTypeByteString = 2
	cborTypeTextString = 3
	cborTypeMap        = 5
)

type cborKind int

const (
	cborBytes cborKind = iota
	cborText
	cborEmptyMap
)

type cborValue struct {
	kind  cborKind
	bytes []byte
	text  string
}

// decodeCBORMap decodes exactly the CBOR subset that "none"-attestation
// objects use: a single definite-length map (major type 5, at most 31
// entries) with short-form text-string keys, whose values are byte strings
// (short-form, 1-byte, or 2-byte length prefix), short-form text strings
// (the "fmt" field), or the empty map (a "none" attStmt). Any other major
// type, indefinite length, or longer length encoding is a FormatError.
//
// This scoping is contractual: the engine only consumes attestation objects
// from authenticators operating under the "none" trust model, and the
// decoder must not silently grow into a general CBOR parser.
func decodeCBORMap(buf []byte) (map[string]cborValue, error) {
	if len(buf) == 0 {
		return nil, formatErrorf("empty cbor payload")
	}

	head := buf[0]
	if head>>5 != cborTypeMap {
		return nil, formatErrorf("expected cbor map, got major type %d", head>>5)
	}
	count := int(head & 0x1f)
	if count > 23 {
		// 24..27 are extended length forms, 31 is indefinite; neither occurs
		// in attestation objects.
		return nil, formatErrorf("unsupported cbor map length encoding 0x%02x", head)
	}

	pos := 1
	out := make(map[string]cborValue, count)
	for i := 0; i < count; i++ {
		key, n, err := readCBORTextShort(buf[pos:])
		if err != nil {
			return nil, err
		}
		pos += n

		val, n, err := readCBORValue(buf[pos:])
		if err != nil {
			return nil, err
		}
		pos += n
		out[key] = val
	}
	if pos != len(buf) {
		return nil, formatErrorf("%d trailing bytes after cbor map", len(buf)-pos)
	}
	return out, nil
}

// readCBORTextShort reads a short-form text string (length encoded directly
// in the initial byte, at most 31).
func readCBORTextShort(buf []byte) (string, int, error) {
	if len(buf) == 0 {
		return "", 0, formatErrorf("truncated cbor map key")
	}
	head := buf[0]
	if head>>5 != cborTypeTextString {
		return "", 0, formatErrorf("cbor map key must be a text string, got major type %d", head>>5)
	}
	length := int(head & 0x1f)
	if length > 23 {
		return "", 0, formatErrorf("unsupported cbor text length encoding 0x%02x", head)
	}
	if len(buf) < 1+length {
		return "", 0, formatErrorf("truncated cbor text string")
	}
	s := buf[1 : 1+length]
	if !utf8.Valid(s) {
		return "", 0, formatErrorf("cbor text string is not valid utf-8")
	}
	return string(s), 1 + length, nil
}

func readCBORValue(buf []byte) (cborValue, int, error) {
	if len(buf) == 0 {
		return cborValue{}, 0, formatErrorf("truncated cbor map value")
	}
	head := buf[0]
	switch head >> 5 {
	case cborTypeByteString:
		b, n, err := readCBORBytes(buf)
		if err != nil {
			return cborValue{}, 0, err
		}
		return cborValue{kind: cborBytes, bytes: b}, n, nil
	case cborTypeTextString:
		s, n, err := readCBORTextShort(buf)
		if err != nil {
			return cborValue{}, 0, err
		}
		return cborValue{kind: cborText, text: s}, n, nil
	case cborTypeMap:
		// Only the empty map is permitted as a value ("none" attStmt).
		if head != 0xa0 {
			return cborValue{}, 0, formatErrorf("nested cbor maps are not supported")
		}
		return cborValue{kind: cborEmptyMap}, 1, nil
	default:
		return cborValue{}, 0, formatErrorf("unsupported cbor major type %d in map value", head>>5)
	}
}

// readCBORBytes reads a byte string with a short-form, 1-byte, or 2-byte
// length prefix.
func readCBORBytes(buf []byte) ([]byte, int, error) {
	head := buf[0]
	info := head & 0x1f

	var length, offset int
	switch {
	case info < 24:
		length = int(info)
		offset = 1
	case info == 24:
		if len(buf) < 2 {
			return nil, 0, formatErrorf("truncated cbor byte-string length")
		}
		length = int(buf[1])
		offset = 2
	case info == 25:
		if len(buf) < 3 {
			return nil, 0, formatErrorf("truncated cbor byte-string length")
		}
		length = int(binary.BigEndian.Uint16(buf[1:3]))
		offset = 3
	default:
		return nil, 0, formatErrorf("unsupported cbor byte-string length encoding 0x%02x", head)
	}

	if len(buf) < offset+length {
		return nil, 0, formatErrorf("cbor byte string of %d bytes overruns buffer", length)
	}
	b := make([]byte, length)
	copy(b, buf[offset:offset+length])
	return b, offset + length, nil
}
