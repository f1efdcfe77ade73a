package main

import (
	"fmt"
	"io"
	"runtime"

	"golang.org/x/sync/errgroup"

	"morsedecoder.com/mdc/decoder"
	"morsedecoder.com/mdc/morse"
	"morsedecoder.com/mdc/pipeline"
	"morsedecoder.com/mdc/types"
)

func runEncode(w io.Writer, messages []string) {
	for _, message := range messages {
		fmt.Fprintln(w, morse.Encode(message))
	}
}

// runDecode prints one JSON response per stream.
func runDecode(w io.Writer, configPath string, streams []string) error {
	ppln, err := loadPipeline(configPath)
	if err != nil {
		return err
	}
	for i, stream := range streams {
		resp, ok := <-ppln(pipeline.Request{Stream: stream, Tid: fmt.Sprintf("cli-%d", i)})
		if !ok {
			return fmt.Errorf("pipeline returned no response for stream %d", i)
		}
		fmt.Fprintln(w, resp)
	}
	return nil
}

// runWarmNGrams fills the n-gram cache with the tables the given streams need.
// Streams are processed concurrently; the first error stops the run.
func runWarmNGrams(configPath string, streams []string) error {
	cfg, err := types.LoadConfiguration(configPath)
	if err != nil {
		return err
	}
	if !cfg.CheckFeature(types.FeatureScored) {
		return fmt.Errorf("configuration %s does not enable %q", cfg.Name, types.FeatureScored)
	}
	params, err := pipeline.LoadDefaultDecodeParams(cfg)
	if err != nil {
		return err
	}
	dec := decoder.New(params.Lexicon)
	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, raw := range streams {
		i, raw := i, raw
		g.Go(func() error {
			stream, err := pipeline.SanitizeStream(raw, cfg.MaxStreamLength)
			if err != nil {
				return fmt.Errorf("stream %d: %w", i, err)
			}
			decoding := dec.Prepare(stream)
			if !decoding.Words.Complete() {
				return nil
			}
			if _, err := params.Tables.Table(decoding.Vocabulary()); err != nil {
				return fmt.Errorf("stream %d: %w", i, err)
			}
			return nil
		})
	}
	return g.Wait()
}
