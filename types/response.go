package types

type ScoredSentence struct {
	Score    float64  `json:"score"`
	Sentence []string `json:"sentence"`
}

type DecodeResponse struct {
	Tid           string          `json:"tid"`
	Config        string          `json:"config"`
	Stream        string          `json:"stream"`
	StreamLength  int             `json:"stream_length"`
	SentenceCount *string         `json:"sentence_count,omitempty"`
	Shortest      []string        `json:"shortest"`
	Best          *ScoredSentence `json:"best"`
	Sentences     [][]string      `json:"sentences,omitempty"`
	Error         string          `json:"error,omitempty"`
}
