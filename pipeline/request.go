package pipeline

// Pipeline decodes a request and sends the JSON response on the returned channel.
type Pipeline func(request Request) <-chan string

type Request struct {
	Stream string `json:"stream"`
	Tid    string `json:"tid"`
}
