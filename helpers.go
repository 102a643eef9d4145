package nostr

import (
	"encoding/hex"
	"hash/fnv"
	"strconv"
	"strings"
	"sync"
	"unsafe"
)

const MAX_LOCKS = 50

var namedMutexPool = make([]sync.Mutex, MAX_LOCKS)

func namedLock(name string) (unlock func()) {
	h := fnv.New32a()
	h.Write([]byte(name))
	idx := h.Sum32() % MAX_LOCKS
	namedMutexPool[idx].Lock()
	return namedMutexPool[idx].Unlock
}

// subIdToSerial takes the "<counter>:<label>" subscription id and returns the counter part.
func subIdToSerial(subId string) int64 {
	n := strings.Index(subId, ":")
	if n < 0 || n > len(subId) {
		return -1
	}
	serialId, _ := strconv.ParseInt(subId[0:n], 10, 64)
	return serialId
}

// extractSubID peeks at an ["EVENT","<subid>",...] message without parsing it.
func extractSubID(jsonStr string) string {
	// look for "EVENT" pattern
	start := strings.Index(jsonStr, `"EVENT"`)
	if start == -1 {
		return ""
	}

	// move to the next quote
	offset := strings.Index(jsonStr[start+7:], `"`)
	if offset == -1 {
		return ""
	}

	start += 7 + offset + 1

	// find the ending quote
	end := strings.Index(jsonStr[start:], `"`)
	if end == -1 {
		return ""
	}

	// get the contents
	return jsonStr[start : start+end]
}

// extractEventID finds the "id" field of the event object in jsonStr, or returns ZeroID.
func extractEventID(jsonStr string) ID {
	// look for "id" pattern
	start := strings.Index(jsonStr, `"id"`)
	if start == -1 {
		return ZeroID
	}

	// move to the next quote
	offset := strings.IndexRune(jsonStr[start+4:], '"')
	if offset == -1 || len(jsonStr) < start+4+offset+1+64 {
		return ZeroID
	}
	start += 4 + offset + 1

	// get 64 characters of the id
	var id ID
	if _, err := hex.Decode(id[:], unsafe.Slice(unsafe.StringData(jsonStr[start:start+64]), 64)); err != nil {
		return ZeroID
	}
	return id
}

// escapeString appends the JSON-escaped version of st to dst, following the NIP-01 serialization rules.
func escapeString(dst []byte, st string) []byte {
	dst = append(dst, '"')
	for i := 0; i < len(st); i++ {
		c := st[i]
		switch {
		case c == '"':
			dst = append(dst, '\\', '"')
		case c == '\\':
			dst = append(dst, '\\', '\\')
		case c == '\n':
			dst = append(dst, '\\', 'n')
		case c == '\r':
			dst = append(dst, '\\', 'r')
		case c == '\t':
			dst = append(dst, '\\', 't')
		case c == '\b':
			dst = append(dst, '\\', 'b')
		case c == '\f':
			dst = append(dst, '\\', 'f')
		case c < 0x20:
			dst = append(dst, '\\', 'u', '0', '0', hexDigit(c>>4), hexDigit(c&0xf))
		default:
			dst = append(dst, c)
		}
	}
	dst = append(dst, '"')
	return dst
}

func hexDigit(b byte) byte {
	const digits = "0123456789abcdef"
	return digits[b]
}
