package pipeline

import (
	"encoding/json"
	"fmt"
	"sync"

	"morsedecoder.com/mdc/decoder"
	"morsedecoder.com/mdc/lexicon"
	"morsedecoder.com/mdc/logger"
	"morsedecoder.com/mdc/ngrams"
	"morsedecoder.com/mdc/redis"
	"morsedecoder.com/mdc/types"
)

type DefaultDecodeParams struct {
	Config  types.Configuration `json:"config"`
	Lexicon *lexicon.Lexicon    `json:"-"`
	Tables  TableProvider       `json:"-"`
}

// LoadDefaultDecodeParams loads the lexicon and the n-gram provider described by cfg.
func LoadDefaultDecodeParams(cfg types.Configuration) (DefaultDecodeParams, error) {
	lex, err := lexicon.Load(cfg.Lexicon.Path, cfg.Lexicon.ExtraWords...)
	if err != nil {
		return DefaultDecodeParams{}, err
	}
	params := DefaultDecodeParams{Config: cfg, Lexicon: lex}
	if cfg.CheckFeature(types.FeatureScored) {
		params.Tables, err = NewTableProvider(cfg.NGrams)
		if err != nil {
			return DefaultDecodeParams{}, err
		}
	}
	return params, nil
}

func NewTableProvider(cfg types.NGramConfig) (*ngrams.Provider, error) {
	switch cfg.Cache {
	case types.NGramCacheFile:
		return ngrams.NewProvider(cfg.CorpusPath, ngrams.FileCache{Dir: cfg.CacheDir}), nil
	case types.NGramCacheRedis:
		client, err := redis.NewClient(ngrams.CacheDB)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis client for n-gram cache: %w", err)
		}
		return ngrams.NewProvider(cfg.CorpusPath, ngrams.RedisCache{Client: client, TTL: cfg.CacheTTL()}), nil
	}
	return ngrams.NewProvider(cfg.CorpusPath, nil), nil
}

func DefaultDecode(params DefaultDecodeParams) (Pipeline, error) {
	mdcLogger := logger.NewLogger("Default decode pipeline")
	cfg := params.Config
	mdcLogger.Info().
		Interface("config", cfg).
		Int("lexicon_words", params.Lexicon.Len()).
		Str("lexicon_hash", fmt.Sprintf("%X", params.Lexicon.Hash())).
		Msg("Starting default decode pipeline (see parameters in 'config' field)")

	var selectors []Selector
	if cfg.CheckFeature(types.FeatureCount) {
		selectors = append(selectors, NewCounter())
	}
	if cfg.CheckFeature(types.FeatureShortest) {
		selectors = append(selectors, NewShortestSelector())
	}
	if cfg.CheckFeature(types.FeatureScored) {
		if params.Tables == nil {
			return nil, fmt.Errorf("feature %q requires an n-gram table provider", types.FeatureScored)
		}
		selectors = append(selectors, NewScoredSelector(params.Tables))
	}
	if cfg.CheckFeature(types.FeatureSentences) {
		selectors = append(selectors, NewSentenceEnumerator(cfg.MaxSentences))
	}

	latticeBuilder := NewLatticeBuilder(decoder.New(params.Lexicon), cfg.MaxStreamLength)

	return func(request Request) <-chan string {
		responseChan := make(chan string, 1)
		pplnLog := mdcLogger.With().Str("tid", request.Tid).Logger()
		pplnLog.Info().Msg("Started default decode pipeline")
		errLogger := pplnLog.With().Caller().Logger()

		go func() {
			defer close(responseChan)

			in := make(chan Request, 1)
			jobs := latticeBuilder(in)
			in <- request
			close(in)
			job := <-jobs

			response := types.DecodeResponse{
				Tid:    request.Tid,
				Config: cfg.Name,
				Stream: request.Stream,
			}

			if job.err != nil {
				pplnLog.Info().Err(job.err).Msg("Rejected stream")
				response.Error = job.err.Error()
			} else {
				response.Stream = job.decoding.Stream
				response.StreamLength = len(job.decoding.Stream)
				for result := range runSelectors(selectors, job.decoding) {
					if result.Err != nil {
						pplnLog.Info().Err(result.Err).Str("feature", result.Feature).Msg("Selector returned no sentence")
						response.Error = errorMessage(response.Error, result.Err)
						continue
					}
					result.Apply(&response)
				}
			}

			buf, err := json.Marshal(response)
			if err != nil {
				errLogger.Err(err).Msg("Failed to marshall response")
				return
			}
			pplnLog.Info().Msg("Finished default decode pipeline")
			responseChan <- string(buf)
		}()

		return responseChan
	}, nil
}

// runSelectors runs every selector concurrently on the same decoding.
func runSelectors(selectors []Selector, decoding *decoder.Decoding) <-chan Result {
	out := make(chan Result, len(selectors))
	var wg sync.WaitGroup
	for _, selector := range selectors {
		wg.Add(1)
		go func(selector Selector) {
			defer wg.Done()
			out <- selector(decoding)
		}(selector)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}
