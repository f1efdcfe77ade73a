package pipeline

import (
	"fmt"
	"sync"

	"morsedecoder.com/mdc/decoder"
	"morsedecoder.com/mdc/logger"
	"morsedecoder.com/mdc/morse"
)

type decodeJob struct {
	request  Request
	decoding *decoder.Decoding
	err      error
}

type LatticeBuilder func(in <-chan Request) <-chan decodeJob

// NewLatticeBuilder sanitizes incoming streams and builds their lattices.
// maxStreamLength <= 0 disables the length check.
func NewLatticeBuilder(dec *decoder.Decoder, maxStreamLength int) LatticeBuilder {
	mdcLogger := logger.NewLogger("Lattice builder")

	return func(in <-chan Request) <-chan decodeJob {
		out := make(chan decodeJob)

		go func() {
			defer close(out)
			var wg sync.WaitGroup
			for request := range in {
				wg.Add(1)
				go func(request Request) {
					defer wg.Done()
					job := decodeJob{request: request}

					stream, err := SanitizeStream(request.Stream, maxStreamLength)
					if err != nil {
						job.err = err
					} else {
						job.decoding = dec.Prepare(stream)
						mdcLogger.Debug().
							Str("tid", request.Tid).
							Int("stream_length", len(stream)).
							Int("char_edges", job.decoding.Chars.Size()).
							Int("word_edges", job.decoding.Words.Size()).
							Msg("Built lattices")
					}
					out <- job
				}(request)
			}
			wg.Wait()
		}()

		return out
	}
}

// SanitizeStream validates raw and rejects streams longer than maxStreamLength
// symbols. A zero limit disables the check.
func SanitizeStream(raw string, maxStreamLength int) (string, error) {
	stream, err := morse.Sanitize(raw)
	if err != nil {
		return "", err
	}
	if maxStreamLength > 0 && len(stream) > maxStreamLength {
		return "", fmt.Errorf("stream is too long: %d symbols, at most %d allowed", len(stream), maxStreamLength)
	}
	return stream, nil
}
