package poller

import (
	"bytes"
	"strings"
)

// watermark marks how far a tracked file has been ingested: the byte offset
// just past the last complete line, and the text of that line.
type watermark struct {
	offset int64
	line   string
}

// lastLine returns the final newline-terminated line of data, without its
// terminator. data must end in '\n' or be empty.
func lastLine(data []byte) string {
	b := bytes.TrimSuffix(data, []byte{'\n'})
	i := bytes.LastIndexByte(b, '\n')
	return strings.TrimSuffix(string(b[i+1:]), "\r")
}

// valid reports whether data still starts with the content the watermark
// was taken from. A file that shrank or whose marked line changed has been
// rewritten.
func (w watermark) valid(data []byte) bool {
	if w.offset == 0 {
		return true
	}
	if int64(len(data)) < w.offset || data[w.offset-1] != '\n' {
		return false
	}
	return lastLine(data[:w.offset]) == w.line
}

// advance splits data into the complete lines after the watermark and the
// watermark that follows them. A trailing partial line is held back.
func (w watermark) advance(data []byte) ([]string, watermark) {
	chunk := data[w.offset:]
	end := bytes.LastIndexByte(chunk, '\n')
	if end < 0 {
		return nil, w
	}
	complete := chunk[:end+1]

	var lines []string
	for _, raw := range strings.Split(string(complete[:end]), "\n") {
		lines = append(lines, strings.TrimSuffix(raw, "\r"))
	}
	next := watermark{
		offset: w.offset + int64(end) + 1,
		line:   lastLine(data[:w.offset+int64(end)+1]),
	}
	return lines, next
}
