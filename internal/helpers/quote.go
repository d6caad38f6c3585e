package helpers

import "unicode/utf8"

const hexChars = "0123456789ABCDEF"
const firstASCII = 0x20
const lastASCII = 0x7E
const firstHighSurrogate = 0xD800
const firstLowSurrogate = 0xDC00

func canPrintWithoutEscape(c rune, asciiOnly bool) bool {
	if c <= lastASCII {
		return c >= firstASCII && c != '\\' && c != '"'
	}
	return !asciiOnly && c != '\uFEFF' && c != '\u2028' && c != '\u2029'
}

// QuoteForJSON returns text as a JSON string literal, including the quotes.
// Source map files are JSON, and the paths and contents stored in them are
// quoted with this.
func QuoteForJSON(text string, asciiOnly bool) []byte {
	bytes := make([]byte, 0, len(text)+2)
	bytes = append(bytes, '"')

	for i := 0; i < len(text); {
		c, width := utf8.DecodeRuneInString(text[i:])

		// Fast path: a run of characters that don't need escaping
		if canPrintWithoutEscape(c, asciiOnly) && (c != utf8.RuneError || width != 1) {
			start := i
			i += width
			for i < len(text) {
				c, width = utf8.DecodeRuneInString(text[i:])
				if !canPrintWithoutEscape(c, asciiOnly) || (c == utf8.RuneError && width == 1) {
					break
				}
				i += width
			}
			bytes = append(bytes, text[start:i]...)
			continue
		}

		i += width
		switch c {
		case '\b':
			bytes = append(bytes, "\\b"...)
		case '\f':
			bytes = append(bytes, "\\f"...)
		case '\n':
			bytes = append(bytes, "\\n"...)
		case '\r':
			bytes = append(bytes, "\\r"...)
		case '\t':
			bytes = append(bytes, "\\t"...)
		case '\\':
			bytes = append(bytes, "\\\\"...)
		case '"':
			bytes = append(bytes, "\\\""...)
		default:
			bytes = appendEscapedUTF16(bytes, c)
		}
	}

	return append(bytes, '"')
}

func appendEscapedUTF16(bytes []byte, c rune) []byte {
	if c <= 0xFFFF {
		return append(bytes, '\\', 'u', hexChars[c>>12], hexChars[(c>>8)&15], hexChars[(c>>4)&15], hexChars[c&15])
	}
	c -= 0x10000
	hi := firstHighSurrogate + ((c >> 10) & 0x3FF)
	lo := firstLowSurrogate + (c & 0x3FF)
	return append(bytes,
		'\\', 'u', hexChars[hi>>12], hexChars[(hi>>8)&15], hexChars[(hi>>4)&15], hexChars[hi&15],
		'\\', 'u', hexChars[lo>>12], hexChars[(lo>>8)&15], hexChars[(lo>>4)&15], hexChars[lo&15],
	)
}
