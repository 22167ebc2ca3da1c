package xmltree

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// decodeBytes turns uploaded payload bytes into a UTF-8 string. Issuer
// software in the wild emits UTF-8 with and without BOM, UTF-16 both ways,
// and the occasional Windows-1252 export.
func decodeBytes(data []byte) (string, error) {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return string(data[3:]), nil
	}

	if len(data) >= 2 && data[0] == 0xFF && data[1] == 0xFE {
		decoder := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		decoded, _, err := transform.Bytes(decoder, data)
		if err != nil {
			return "", err
		}
		return string(decoded), nil
	}

	if len(data) >= 2 && data[0] == 0xFE && data[1] == 0xFF {
		decoder := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()
		decoded, _, err := transform.Bytes(decoder, data)
		if err != nil {
			return "", err
		}
		return string(decoded), nil
	}

	if utf8.Valid(data) {
		return string(data), nil
	}

	decoder := charmap.Windows1252.NewDecoder()
	decoded, _, err := transform.Bytes(decoder, data)
	if err == nil {
		return string(decoded), nil
	}

	decoder = charmap.ISO8859_1.NewDecoder()
	decoded, _, err = transform.Bytes(decoder, data)
	if err == nil {
		return string(decoded), nil
	}

	return string(data), nil
}
