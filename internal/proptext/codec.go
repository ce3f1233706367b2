package proptext

import (
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/xxxsen/dtxorg/internal/constant"
)

// decode tries Shift-JIS, then UTF-16LE. A byte order mark overrides either guess.
func decode(data []byte) (string, error) {
	candidates := []transform.Transformer{
		unicode.BOMOverride(japanese.ShiftJIS.NewDecoder()),
		unicode.BOMOverride(unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()),
	}
	for _, tr := range candidates {
		out, _, err := transform.Bytes(tr, data)
		if err != nil {
			continue
		}
		if _, ok := locate(string(out), constant.PropTitle); ok {
			return string(out), nil
		}
	}
	return "", ErrTitleMissing
}

// encode writes Shift-JIS; runes outside the charset become the ASCII substitute
// byte instead of failing the save.
func encode(s string) ([]byte, error) {
	enc := encoding.ReplaceUnsupported(japanese.ShiftJIS.NewEncoder())
	out, _, err := transform.Bytes(enc, []byte(s))
	if err != nil {
		return nil, err
	}
	return out, nil
}
