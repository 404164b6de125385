package tracecore

import "github.com/pkg/errors"

// errESPUnknown is the cause wrapped into a KindESPUnknown DecodeError when
// neither candidate trailer blob length verifies.
var errESPUnknown = errors.New("neither 12- nor 16-byte ESP trailer blob verified")

// espTrailerBlobLengths are the two candidate security/integrity blob
// lengths an ESP trailer may carry (§4.D.1).
var espTrailerBlobLengths = [...]int{12, 16}

// espTrailer implements §4.D.1: probes the 12-byte blob length first, then
// the 16-byte one, verifying the padding run reads 1,2,3,...,padLen
// backwards from the pad-length byte. On success it returns the
// encapsulated next-protocol and the total trailer length
// (blobLen + 2 + padLen); on failure for both lengths it returns
// errESPUnknown.
func espTrailer(data []byte, lastByteOffset int) (nextProto uint8, trailerLen int, err error) {
	for _, blobLen := range espTrailerBlobLengths {
		protoIdx := lastByteOffset - blobLen
		padLenIdx := protoIdx - 1
		if protoIdx < 0 || padLenIdx < 0 || protoIdx >= len(data) || padLenIdx >= len(data) {
			continue
		}

		padLen := int(data[padLenIdx])
		if !verifyESPPadding(data, padLenIdx, padLen) {
			continue
		}

		return data[protoIdx], blobLen + 2 + padLen, nil
	}
	return 0, 0, errESPUnknown
}

// verifyESPPadding checks that the padLen bytes immediately preceding
// padLenIdx read padLen, padLen-1, ..., 1 going backwards.
func verifyESPPadding(data []byte, padLenIdx, padLen int) bool {
	for i := 0; i < padLen; i++ {
		idx := padLenIdx - 1 - i
		if idx < 0 || idx >= len(data) {
			return false
		}
		expected := byte(padLen - i)
		if data[idx] != expected {
			return false
		}
	}
	return true
}
