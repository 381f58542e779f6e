// Package codec provides Borsh-style binary serialization for borshkit.
//
// The codec package implements a deterministic, bit-exact binary layout for
// fixed-width integers and ordered composite records. It is the foundation every
// other borshkit package builds on: the registry describes layouts with it, the
// payload store frames entries with it, and the CLI and REST API are thin callers
// around it.
//
// # Wire Format
//
// Every value is written with no tags, no length prefixes and no padding:
//
//	u8/i8    1 byte
//	u16/i16  2 bytes, little-endian
//	u32/i32  4 bytes, little-endian
//	u64/i64  8 bytes, little-endian
//	bytes[N] N bytes, copied verbatim
//	struct   concatenation of its fields in declared order
//
// Signed kinds use two's complement within the same width. A record made of
// `bet: u64` followed by `fee: u64` is therefore always exactly 16 bytes:
//
//	00 e1 f5 05 00 00 00 00 | 10 27 00 00 00 00 00 00
//	bet = 100000000         | fee = 10000
//
// # Schemas
//
// A [Schema] is an ordered, immutable list of [Field] descriptors. Order is the
// single source of truth for both encode output and decode consumption:
//
//	joinQuiz := codec.MustSchema("join_quiz",
//	    codec.NewField("bet", codec.U64),
//	    codec.NewField("fee", codec.U64),
//	)
//
// Nested records reference a previously built schema with [StructField]. Since a
// schema can only embed schemas that already exist, layouts form a tree and can
// never be recursive.
//
// # Usage
//
// Decoding and encoding:
//
//	record, err := codec.Decode(joinQuiz, data)
//	if err != nil {
//	    return err
//	}
//	bet, _ := record.Get("bet") // uint64(100000000)
//
//	encoded, err := codec.Encode(joinQuiz, codec.Map{"bet": uint64(1), "fee": uint64(2)})
//
// [Decode] tolerates trailing bytes and reports how many were consumed through
// [Record.Consumed]. [DecodeStrict] rejects them with a [TrailingBytesError].
//
// # Error Handling
//
// All failures are deterministic and returned to the caller with full context:
//   - [TruncatedInputError]: the buffer ends inside a field (field path and offset)
//   - [ValueOutOfRangeError]: an encode value does not fit its kind
//   - [TypeMismatchError]: an encode value is not a number, byte string or record
//   - [MissingFieldError]: an encode input lacks a schema field
//   - [DuplicateFieldNameError]: a schema declares the same name twice
//   - [TrailingBytesError]: strict decode left bytes unread
//
// Each error type matches its sentinel (for example [ErrTruncatedInput]) with
// errors.Is. Decode and encode never return partial results.
//
// # Thread Safety
//
// The codec keeps no state between calls. Schemas are immutable after
// construction and may be shared by any number of goroutines. Records are owned
// by the caller that decoded them.
package codec
