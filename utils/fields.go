package utils

import (
	"bufio"
	"io"
	"strings"

	"morsedecoder.com/mdc/logger"
)

// NewFieldReader streams the whitespace separated fields of every line of r.
// Comment lines (# or //) and blank lines are skipped, and repeated lines are
// emitted only once. The returned function reports the read error that ended
// the stream early; it must be called only after the channel is drained.
func NewFieldReader(name string, r io.Reader) (<-chan []string, func() error) {
	mdcLogger := logger.NewLogger("FieldReader (" + name + ")")

	out := make(chan []string)
	var readErr error

	go func() {
		defer close(out)

		br := bufio.NewReader(r)
		seen := make(map[uint64]bool)

		for {
			line, err := br.ReadString('\n')
			line = strings.TrimSpace(line)
			if len(line) > 0 && !strings.HasPrefix(line, "#") && !strings.HasPrefix(line, "//") {
				hash := HashString(line)
				if !seen[hash] {
					seen[hash] = true
					out <- strings.Fields(line)
				}
			}

			if err == io.EOF {
				return
			} else if err != nil {
				mdcLogger.Error().Err(err).Msg("Failed to read line")
				readErr = err
				return
			}
		}
	}()

	return out, func() error { return readErr }
}
