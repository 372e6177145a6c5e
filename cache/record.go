package cache

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/pellucid/sparsefeed/sample"
)

// Samples are stored as protobuf wire-format records, hand-encoded with
// protowire so the layout stays self-describing without generated code:
//
//	sample: 1 label   fixed32
//	        2 entries length-delimited, repeated
//	entry:  1 field   varint (omitted when zero)
//	        2 index   varint
//	        3 value   fixed32
const (
	fieldLabel   = protowire.Number(1)
	fieldEntries = protowire.Number(2)

	entryField = protowire.Number(1)
	entryIndex = protowire.Number(2)
	entryValue = protowire.Number(3)
)

func appendSample(b []byte, s sample.Sample) []byte {
	b = protowire.AppendTag(b, fieldLabel, protowire.Fixed32Type)
	b = protowire.AppendFixed32(b, math.Float32bits(s.Label))
	for _, e := range s.Entries {
		b = protowire.AppendTag(b, fieldEntries, protowire.BytesType)
		b = protowire.AppendVarint(b, uint64(entrySize(e)))
		b = appendEntry(b, e)
	}
	return b
}

func appendEntry(b []byte, e sample.Entry) []byte {
	if e.Field != 0 {
		b = protowire.AppendTag(b, entryField, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(e.Field))
	}
	b = protowire.AppendTag(b, entryIndex, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(e.Index))
	b = protowire.AppendTag(b, entryValue, protowire.Fixed32Type)
	b = protowire.AppendFixed32(b, math.Float32bits(e.Value))
	return b
}

func entrySize(e sample.Entry) int {
	n := 0
	if e.Field != 0 {
		n += protowire.SizeTag(entryField) + protowire.SizeVarint(uint64(e.Field))
	}
	n += protowire.SizeTag(entryIndex) + protowire.SizeVarint(uint64(e.Index))
	n += protowire.SizeTag(entryValue) + protowire.SizeFixed32()
	return n
}

func decodeSample(rec []byte, s *sample.Sample) error {
	s.Label = 0
	s.Entries = s.Entries[:0]
	for len(rec) > 0 {
		num, typ, n := protowire.ConsumeTag(rec)
		if n < 0 {
			return protowire.ParseError(n)
		}
		rec = rec[n:]
		switch {
		case num == fieldLabel && typ == protowire.Fixed32Type:
			v, n := protowire.ConsumeFixed32(rec)
			if n < 0 {
				return protowire.ParseError(n)
			}
			rec = rec[n:]
			s.Label = math.Float32frombits(v)
		case num == fieldEntries && typ == protowire.BytesType:
			sub, n := protowire.ConsumeBytes(rec)
			if n < 0 {
				return protowire.ParseError(n)
			}
			rec = rec[n:]
			e, err := decodeEntry(sub)
			if err != nil {
				return err
			}
			s.Entries = append(s.Entries, e)
		default:
			return fmt.Errorf("cache: unexpected record field %d (wire type %d)", num, typ)
		}
	}
	return nil
}

func decodeEntry(rec []byte) (sample.Entry, error) {
	var e sample.Entry
	for len(rec) > 0 {
		num, typ, n := protowire.ConsumeTag(rec)
		if n < 0 {
			return e, protowire.ParseError(n)
		}
		rec = rec[n:]
		switch {
		case num == entryField && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(rec)
			if n < 0 {
				return e, protowire.ParseError(n)
			}
			rec = rec[n:]
			e.Field = uint32(v)
		case num == entryIndex && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(rec)
			if n < 0 {
				return e, protowire.ParseError(n)
			}
			rec = rec[n:]
			e.Index = uint32(v)
		case num == entryValue && typ == protowire.Fixed32Type:
			v, n := protowire.ConsumeFixed32(rec)
			if n < 0 {
				return e, protowire.ParseError(n)
			}
			rec = rec[n:]
			e.Value = math.Float32frombits(v)
		default:
			return e, fmt.Errorf("cache: unexpected entry field %d (wire type %d)", num, typ)
		}
	}
	return e, nil
}
