package notify

import (
	"bytes"
	"fmt"
	"mime"
	"strings"
	"time"
)

// WrapWidth is the column at which alert bodies are wrapped.
const WrapWidth = 75

// Message is one plain-text mail.
type Message struct {
	To      string
	From    string
	Subject string
	Body    string
}

// Wrap breaks text at spaces so no line exceeds width, unless a single word
// is longer than width. Existing line breaks are kept.
func Wrap(text string, width int) string {
	if width <= 0 {
		return text
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = wrapLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func wrapLine(line string, width int) string {
	words := strings.Split(line, " ")
	var b strings.Builder
	col := 0
	for i, word := range words {
		if i > 0 {
			if col+1+len(word) > width {
				b.WriteByte('\n')
				col = 0
			} else {
				b.WriteByte(' ')
				col++
			}
		}
		b.WriteString(word)
		col += len(word)
	}
	return b.String()
}

// compose renders msg as an RFC 5322 message with CRLF line endings.
func compose(msg Message, now time.Time) []byte {
	var buf bytes.Buffer
	header := func(name, value string) {
		fmt.Fprintf(&buf, "%s: %s\r\n", name, value)
	}

	header("From", msg.From)
	header("To", msg.To)
	header("Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	header("Date", now.Format(time.RFC1123Z))
	header("MIME-Version", "1.0")
	header("Content-Type", "text/plain; charset=UTF-8")
	header("Content-Transfer-Encoding", "8bit")
	buf.WriteString("\r\n")

	body := strings.ReplaceAll(msg.Body, "\r\n", "\n")
	buf.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	if !strings.HasSuffix(body, "\n") {
		buf.WriteString("\r\n")
	}
	return buf.Bytes()
}
