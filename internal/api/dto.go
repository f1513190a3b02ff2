package api

// SeparateRequest is the body of POST /v1/separations. Mixture holds a batch
// of single-channel waveforms; every waveform must have the same length.
type SeparateRequest struct {
	Model   string      `json:"model,omitempty"`
	Mixture [][]float32 `json:"mixture"`
	// Latent additionally returns the masked encoded representation.
	Latent bool `json:"latent,omitempty"`
}

// SeparateResponse is the result of a separation call.
type SeparateResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Model   string `json:"model,omitempty"`
	Created int64  `json:"created"`

	// Sources is indexed (batch, source, time).
	Sources [][][]float32 `json:"sources"`
	Shape   []int         `json:"shape"`

	// Latent is indexed (batch, source, basis, frame); present only when
	// requested.
	Latent      [][][][]float32 `json:"latent,omitempty"`
	LatentShape []int           `json:"latent_shape,omitempty"`

	DurationMS int64 `json:"duration_ms"`
}

// ModelInfo describes one loadable model configuration.
type ModelInfo struct {
	ID         string `json:"id"`
	Object     string `json:"object"`
	Sources    int    `json:"n_sources,omitempty"`
	Parameters int    `json:"parameters,omitempty"`
	Causal     bool   `json:"causal,omitempty"`
}

// ModelList is the body of GET /v1/models.
type ModelList struct {
	Object string      `json:"object"`
	Data   []ModelInfo `json:"data"`
}

// ResponseError is the error payload shape shared by all endpoints.
type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
}
