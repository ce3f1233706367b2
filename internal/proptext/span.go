package proptext

import "strings"

// span marks where a property lives inside the buffer. The value runs from
// valueStart to valueEnd; the line, terminator included, from lineStart to lineEnd.
type span struct {
	lineStart  int
	valueStart int
	valueEnd   int
	lineEnd    int
}

// locate finds the first occurrence of name that stands as a token, i.e. is
// followed by a delimiter, a line break or the end of the buffer. `#BPM` never
// addresses `#BPM01`.
func locate(raw, name string) (span, bool) {
	if name == "" {
		return span{}, false
	}
	from := 0
	for from <= len(raw) {
		idx := strings.Index(raw[from:], name)
		if idx < 0 {
			return span{}, false
		}
		start := from + idx
		end := start + len(name)
		if end == len(raw) || isTokenEnd(raw[end]) {
			return spanAt(raw, start, end), true
		}
		from = start + 1
	}
	return span{}, false
}

func spanAt(raw string, start, end int) span {
	sp := span{lineStart: strings.LastIndexByte(raw[:start], '\n') + 1}

	pos := end
	for pos < len(raw) && isValueDelimiter(raw[pos]) {
		pos++
	}
	sp.valueStart = pos

	if brk := strings.IndexAny(raw[pos:], "\r\n"); brk >= 0 {
		sp.valueEnd = pos + brk
	} else {
		sp.valueEnd = len(raw)
	}

	sp.lineEnd = sp.valueEnd
	if sp.lineEnd < len(raw) && raw[sp.lineEnd] == '\r' {
		sp.lineEnd++
	}
	if sp.lineEnd < len(raw) && raw[sp.lineEnd] == '\n' {
		sp.lineEnd++
	}
	return sp
}

func isValueDelimiter(c byte) bool {
	return c == ' ' || c == '\t' || c == ':'
}

func isTokenEnd(c byte) bool {
	return isValueDelimiter(c) || c == '\r' || c == '\n'
}
