package transport

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/a793181018/omnisharp-intellij/src/omnisharp/internal/errors"
)

const _headerContentLength = "Content-Length:"

// Frame wraps a UTF-8 body in the wire format understood by the analysis server:
//
//	Content-Length: <N>\r\n
//	\r\n
//	<N bytes of body>
func Frame(body string) string {
	return fmt.Sprintf("%s %d\r\n\r\n%s", _headerContentLength, len(body), body)
}

// ReadFrame reads one message from the stream. Blank lines before the header
// are skipped. A line that is neither blank nor a Content-Length header, read
// where a header was expected, is returned as a raw unframed message; this is
// a deliberately lossy compatibility path for line-oriented server output.
func ReadFrame(reader *bufio.Reader) (string, error) {
	contentLength := -1
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if line == "" && contentLength < 0 {
				return "", err
			}
			if contentLength < 0 {
				// Stream ended on an unterminated raw line.
				return strings.TrimSpace(line), nil
			}
			return "", &errors.TruncatedStreamError{Expected: contentLength, Read: 0}
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if contentLength >= 0 {
				break // end of headers
			}
			continue // skip blank lines before the header
		}

		if strings.HasPrefix(trimmed, _headerContentLength) {
			n, err := parseContentLength(trimmed)
			if err != nil {
				return "", err
			}
			contentLength = n
			continue
		}

		if contentLength < 0 {
			// Unframed fallback: surface the line as-is.
			return trimmed, nil
		}
		// Additional headers between Content-Length and the separator are ignored.
	}

	body := make([]byte, contentLength)
	read, err := io.ReadFull(reader, body)
	if err != nil {
		return "", &errors.TruncatedStreamError{Expected: contentLength, Read: read}
	}
	return string(body), nil
}

func parseContentLength(header string) (int, error) {
	value := strings.TrimSpace(strings.TrimPrefix(header, _headerContentLength))
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, &errors.MalformedHeaderError{Header: header}
	}
	return n, nil
}
