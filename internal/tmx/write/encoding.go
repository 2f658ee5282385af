package write

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"

	"github.com/shawnli329/SLTMX-Editor/internal/tmx"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// encodeOutput converts the rendered UTF-8 bytes back to the document's
// source encoding and restores its byte order mark, so the declaration and
// the bytes on disk agree.
func encodeOutput(doc *tmx.Document, out []byte) ([]byte, error) {
	switch strings.ToUpper(doc.SourceEncoding) {
	case "", "UTF-8":
		if doc.ByteOrderMark {
			return append(append([]byte{}, bomUTF8...), out...), nil
		}
		return out, nil

	case "UTF-16LE":
		return encodeUTF16(out, unicode.LittleEndian, doc.ByteOrderMark, bomUTF16LE)

	case "UTF-16", "UTF-16BE":
		return encodeUTF16(out, unicode.BigEndian, doc.ByteOrderMark, bomUTF16BE)
	}

	enc, err := ianaindex.IANA.Encoding(doc.SourceEncoding)
	if err != nil || enc == nil {
		return nil, &WriteError{
			Kind: KindEncoding,
			Err:  fmt.Errorf("unsupported encoding %q", doc.SourceEncoding),
		}
	}
	encoded, err := enc.NewEncoder().Bytes(out)
	if err != nil {
		return nil, &WriteError{
			Kind: KindEncoding,
			Err:  fmt.Errorf("encoding output as %s: %w", doc.SourceEncoding, err),
		}
	}
	return encoded, nil
}

func encodeUTF16(out []byte, endian unicode.Endianness, bom bool, mark []byte) ([]byte, error) {
	enc := unicode.UTF16(endian, unicode.IgnoreBOM).NewEncoder()
	encoded, err := enc.Bytes(out)
	if err != nil {
		return nil, &WriteError{
			Kind: KindEncoding,
			Err:  fmt.Errorf("encoding output as UTF-16: %w", err),
		}
	}
	if bom {
		return append(append([]byte{}, mark...), encoded...), nil
	}
	return encoded, nil
}
