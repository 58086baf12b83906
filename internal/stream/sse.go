package stream

import (
	"bufio"
	"io"
	"strings"
)

// readFrame reads one server-sent event from r: `data:` lines accumulated
// until a blank line. Comment lines (leading ':') and non-data fields
// (event:, id:, retry:) are skipped — the wire protocol only ever uses data
// frames carrying a JSON envelope. Returns io.EOF when the transport closes.
func readFrame(r *bufio.Reader) (string, error) {
	var data []string
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			// A partial frame at EOF is discarded; there is no replay.
			return "", err
		}
		line = strings.TrimRight(line, "\r\n")

		switch {
		case line == "":
			if len(data) > 0 {
				return strings.Join(data, "\n"), nil
			}
			// stray blank line between frames

		case strings.HasPrefix(line, ":"):
			// comment / keep-alive

		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
}

// drain discards the rest of a response body so the connection can be
// reused; bounded to avoid reading a live stream forever.
func drain(r io.Reader) {
	io.CopyN(io.Discard, r, 4096)
}
