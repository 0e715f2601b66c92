// Package wire implements the bit-exact little-endian encoding of the
// quote and after-trade instruction frames that cross the executor
// boundary.
package wire

import "encoding/binary"

// StorageSize is the fixed length of an AMM's opaque per-strategy storage
// buffer.
const StorageSize = 1024

// QuoteFrameSize is the encoded length of a Quote frame.
const QuoteFrameSize = 1 + 8 + 8 + 8 + StorageSize

// AfterTradeFrameSize is the encoded length of an AfterTrade frame.
const AfterTradeFrameSize = 1 + 1 + 8 + 8 + 8 + 8 + StorageSize

// afterTradeTag is the constant tag byte that opens an AfterTrade frame.
const afterTradeTag = 2

// Side identifies which direction a quote or trade moves token X.
type Side uint8

const (
	// SideBuyX quotes or trades buying X with Y.
	SideBuyX Side = 0
	// SideSellX quotes or trades selling X for Y.
	SideSellX Side = 1
)

// QuoteFrame is the 1049-byte input to a quote call: side, input amount,
// current reserves, and the AMM's read-only storage snapshot.
type QuoteFrame struct {
	Side        Side
	InputAmount uint64
	ReserveX    uint64
	ReserveY    uint64
	Storage     [StorageSize]byte
}

// EncodeQuoteFrame packs f into its wire representation.
func EncodeQuoteFrame(f QuoteFrame) []byte {
	buf := make([]byte, QuoteFrameSize)
	buf[0] = byte(f.Side)
	binary.LittleEndian.PutUint64(buf[1:9], f.InputAmount)
	binary.LittleEndian.PutUint64(buf[9:17], f.ReserveX)
	binary.LittleEndian.PutUint64(buf[17:25], f.ReserveY)
	copy(buf[25:25+StorageSize], f.Storage[:])
	return buf
}

// DecodeQuoteFrame unpacks buf into a QuoteFrame. buf must be at least
// QuoteFrameSize bytes; extra trailing bytes are ignored.
func DecodeQuoteFrame(buf []byte) (QuoteFrame, bool) {
	var f QuoteFrame
	if len(buf) < QuoteFrameSize {
		return f, false
	}
	f.Side = Side(buf[0])
	f.InputAmount = binary.LittleEndian.Uint64(buf[1:9])
	f.ReserveX = binary.LittleEndian.Uint64(buf[9:17])
	f.ReserveY = binary.LittleEndian.Uint64(buf[17:25])
	copy(f.Storage[:], buf[25:25+StorageSize])
	return f, true
}

// AfterTradeFrame is the 1058-byte input to the after-trade hook: the
// realized trade plus post-trade reserves and storage snapshot.
type AfterTradeFrame struct {
	Side         Side
	InputAmount  uint64
	OutputAmount uint64
	PostReserveX uint64
	PostReserveY uint64
	Storage      [StorageSize]byte
}

// EncodeAfterTradeFrame packs f into its wire representation, including
// the leading tag byte.
func EncodeAfterTradeFrame(f AfterTradeFrame) []byte {
	buf := make([]byte, AfterTradeFrameSize)
	buf[0] = afterTradeTag
	buf[1] = byte(f.Side)
	binary.LittleEndian.PutUint64(buf[2:10], f.InputAmount)
	binary.LittleEndian.PutUint64(buf[10:18], f.OutputAmount)
	binary.LittleEndian.PutUint64(buf[18:26], f.PostReserveX)
	binary.LittleEndian.PutUint64(buf[26:34], f.PostReserveY)
	copy(buf[34:34+StorageSize], f.Storage[:])
	return buf
}

// DecodeAfterTradeFrame unpacks buf into an AfterTradeFrame. Returns false
// if buf is too short or the tag byte is not 2.
func DecodeAfterTradeFrame(buf []byte) (AfterTradeFrame, bool) {
	var f AfterTradeFrame
	if len(buf) < AfterTradeFrameSize || buf[0] != afterTradeTag {
		return f, false
	}
	f.Side = Side(buf[1])
	f.InputAmount = binary.LittleEndian.Uint64(buf[2:10])
	f.OutputAmount = binary.LittleEndian.Uint64(buf[10:18])
	f.PostReserveX = binary.LittleEndian.Uint64(buf[18:26])
	f.PostReserveY = binary.LittleEndian.Uint64(buf[26:34])
	copy(f.Storage[:], buf[34:34+StorageSize])
	return f, true
}
