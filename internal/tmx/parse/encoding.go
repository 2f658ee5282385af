package parse

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// decodeSource converts raw file bytes to UTF-8 for tokenization. It
// detects the encoding from a byte order mark first, then from the XML
// declaration, defaulting to UTF-8. The returned name is the IANA name the
// document was read with; bom reports whether a mark was consumed.
func decodeSource(data []byte) (src []byte, name string, bom bool, err error) {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return data[len(bomUTF8):], "UTF-8", true, nil
	case bytes.HasPrefix(data, bomUTF16LE):
		src, err = decodeUTF16(data[2:], unicode.LittleEndian)
		return src, "UTF-16LE", true, err
	case bytes.HasPrefix(data, bomUTF16BE):
		src, err = decodeUTF16(data[2:], unicode.BigEndian)
		return src, "UTF-16BE", true, err
	}

	declared := declaredEncoding(data)
	switch strings.ToUpper(declared) {
	case "", "UTF-8":
		return data, "UTF-8", false, nil
	case "UTF-16", "UTF-16BE":
		// BOM-less UTF-16 is big-endian per the XML recommendation.
		src, err = decodeUTF16(data, unicode.BigEndian)
		return src, "UTF-16BE", false, err
	case "UTF-16LE":
		src, err = decodeUTF16(data, unicode.LittleEndian)
		return src, "UTF-16LE", false, err
	}

	enc, err := ianaindex.IANA.Encoding(declared)
	if err != nil || enc == nil {
		return nil, "", false, fmt.Errorf("unsupported encoding %q", declared)
	}
	src, err = enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, "", false, fmt.Errorf("decoding %s input: %w", declared, err)
	}
	return src, declared, false, nil
}

func decodeUTF16(data []byte, endian unicode.Endianness) ([]byte, error) {
	dec := unicode.UTF16(endian, unicode.IgnoreBOM).NewDecoder()
	out, err := dec.Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("decoding UTF-16 input: %w", err)
	}
	return out, nil
}

// declaredEncoding extracts the encoding pseudo-attribute from the XML
// declaration, or "" when the input has no declaration or no encoding.
// Declarations are ASCII by construction, so a byte scan is enough.
func declaredEncoding(data []byte) string {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	if !bytes.HasPrefix(head, []byte("<?xml")) {
		return ""
	}
	end := bytes.Index(head, []byte("?>"))
	if end < 0 {
		return ""
	}
	decl := string(head[:end])
	idx := strings.Index(decl, "encoding")
	if idx < 0 {
		return ""
	}
	rest := decl[idx+len("encoding"):]
	rest = strings.TrimLeft(rest, " \t\r\n")
	if !strings.HasPrefix(rest, "=") {
		return ""
	}
	rest = strings.TrimLeft(rest[1:], " \t\r\n")
	if len(rest) == 0 {
		return ""
	}
	quote := rest[0]
	if quote != '"' && quote != '\'' {
		return ""
	}
	rest = rest[1:]
	close := strings.IndexByte(rest, quote)
	if close < 0 {
		return ""
	}
	return rest[:close]
}
