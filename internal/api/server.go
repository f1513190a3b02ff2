// Package api exposes the separation network over HTTP. Routes follow the
// v1 JSON conventions: one POST endpoint running a forward pass, a model
// listing and a health probe. Models are constructed lazily from
// configuration files and cached by the provider.
package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"dptsep/internal/dpt"
	"dptsep/internal/tensor"
)

// Server carries the handler dependencies.
type Server struct {
	provider ModelProvider
	models   string // directory listed by /v1/models, may be empty
	clock    func() time.Time
}

// NewServer constructs the API server around a model provider.
func NewServer(provider ModelProvider, modelsDir string) *Server {
	return &Server{
		provider: provider,
		models:   modelsDir,
		clock:    time.Now,
	}
}

// Register attaches the routes to e.
func (s *Server) Register(e *echo.Echo) {
	e.POST("/v1/separations", s.handleSeparate)
	e.GET("/v1/models", s.handleListModels)
	e.GET("/healthz", s.handleHealth)
}

func (s *Server) handleSeparate(c *echo.Context) error {
	req, err := decodeJSON[SeparateRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	mix, err := mixtureTensor(req.Mixture)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}

	start := s.clock()
	resp := SeparateResponse{
		ID:      "sep-" + uuid.NewString(),
		Object:  "separation",
		Model:   req.Model,
		Created: start.Unix(),
	}
	err = s.provider.WithModel(c.Request().Context(), req.Model, func(net *dpt.Network) error {
		out, latent, err := net.ExtractLatent(mix)
		if err != nil {
			return newInvalidRequest(err.Error())
		}
		resp.Sources = nestSources(out)
		resp.Shape = append([]int(nil), out.Shape...)
		if req.Latent {
			resp.Latent = nestLatent(latent)
			resp.LatentShape = append([]int(nil), latent.Shape...)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInvalidRequest) {
			return writeBadRequest(c, err.Error())
		}
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error(), "")
	}
	resp.DurationMS = s.clock().Sub(start).Milliseconds()
	return writeJSON(c, http.StatusOK, resp)
}

func (s *Server) handleListModels(c *echo.Context) error {
	list := ModelList{Object: "list", Data: []ModelInfo{}}
	if s.models != "" {
		paths, err := DiscoverModels(s.models)
		if err != nil {
			return writeError(c, http.StatusInternalServerError, "server_error", err.Error(), "")
		}
		for _, p := range paths {
			name := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
			list.Data = append(list.Data, ModelInfo{ID: name, Object: "model"})
		}
	}
	return writeJSON(c, http.StatusOK, list)
}

func (s *Server) handleHealth(c *echo.Context) error {
	return writeJSON(c, http.StatusOK, map[string]string{"status": "ok"})
}

// mixtureTensor validates the request batch and packs it as (B, 1, T).
func mixtureTensor(mixture [][]float32) (*tensor.Tensor, error) {
	if len(mixture) == 0 {
		return nil, fmt.Errorf("mixture must contain at least one waveform")
	}
	t := len(mixture[0])
	if t == 0 {
		return nil, fmt.Errorf("mixture waveforms must be non-empty")
	}
	for i, w := range mixture {
		if len(w) != t {
			return nil, fmt.Errorf("mixture waveform %d has length %d, want %d", i, len(w), t)
		}
	}
	mix := tensor.New(len(mixture), 1, t)
	for i, w := range mixture {
		copy(mix.Data[i*t:], w)
	}
	return mix, nil
}

// nestSources unpacks (B, S, T) into nested slices for JSON encoding.
func nestSources(out *tensor.Tensor) [][][]float32 {
	b, src, t := out.Dim(0), out.Dim(1), out.Dim(2)
	res := make([][][]float32, b)
	for bi := 0; bi < b; bi++ {
		res[bi] = make([][]float32, src)
		for si := 0; si < src; si++ {
			off := (bi*src + si) * t
			res[bi][si] = append([]float32(nil), out.Data[off:off+t]...)
		}
	}
	return res
}

// nestLatent unpacks (B, S, N, T') into nested slices for JSON encoding.
func nestLatent(latent *tensor.Tensor) [][][][]float32 {
	b, src, n, t := latent.Dim(0), latent.Dim(1), latent.Dim(2), latent.Dim(3)
	res := make([][][][]float32, b)
	for bi := 0; bi < b; bi++ {
		res[bi] = make([][][]float32, src)
		for si := 0; si < src; si++ {
			res[bi][si] = make([][]float32, n)
			for ni := 0; ni < n; ni++ {
				off := ((bi*src+si)*n + ni) * t
				res[bi][si][ni] = append([]float32(nil), latent.Data[off:off+t]...)
			}
		}
	}
	return res
}

func decodeJSON[T any](r io.Reader) (*T, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	return &v, nil
}

func writeJSON(c *echo.Context, status int, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Blob(status, "application/json", data)
}

func writeBadRequest(c *echo.Context, msg string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg, "")
}

func writeError(c *echo.Context, status int, errType, msg, code string) error {
	return writeJSON(c, status, map[string]any{
		"error": ResponseError{
			Message: msg,
			Type:    errType,
			Code:    code,
		},
	})
}
