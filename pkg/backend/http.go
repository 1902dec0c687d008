package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// InferenceRequest is the JSON body sent to a serving endpoint. Tensors are
// flattened; shapes travel alongside so the server can reconstruct them.
type InferenceRequest struct {
	RequestID string               `json:"RequestID"`
	Model     string               `json:"Model"`
	Task      string               `json:"Task"`
	BatchSize int                  `json:"BatchSize"`
	Inputs    map[string][]float64 `json:"Inputs"`
	Shapes    map[string][]int     `json:"Shapes"`
	NewTokens int                  `json:"NewTokens,omitempty"`
}

type InferenceResponse struct {
	Status             string `json:"Status"`
	MachineName        string `json:"MachineName"`
	ExecutionTimeMicro int64  `json:"ExecutionTimeMicro"`
	GeneratedTokens    int    `json:"GeneratedTokens"`
}

// HTTPBackend drives a remote model server over JSON/HTTP. Forward posts to
// <endpoint>/forward, generation to <endpoint>/generate. The server is free
// to reject generation; the orchestrator's capability probe handles that.
type HTTPBackend struct {
	client   *http.Client
	endpoint string
	model    string
	task     string
}

func NewHTTPBackend(endpoint, model, task string, timeoutSeconds int) *HTTPBackend {
	return &HTTPBackend{
		client: &http.Client{
			Timeout: time.Duration(timeoutSeconds) * time.Second,
		},
		endpoint: endpoint,
		model:    model,
		task:     task,
	}
}

func (b *HTTPBackend) Name() string {
	return "http"
}

func (b *HTTPBackend) composeRequest(inputs *Inputs, newTokens int) *InferenceRequest {
	request := &InferenceRequest{
		RequestID: uuid.New().String(),
		Model:     b.model,
		Task:      b.task,
		BatchSize: inputs.BatchSize,
		Inputs:    map[string][]float64{},
		Shapes:    map[string][]int{},
		NewTokens: newTokens,
	}
	for name, tensor := range inputs.Fields {
		request.Inputs[name] = tensor.Data
		request.Shapes[name] = tensor.Shape
	}

	return request
}

func (b *HTTPBackend) post(path string, request *InferenceRequest) (*Outputs, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal inference request: %w", err)
	}

	req, err := http.NewRequest("POST", b.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create a HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", request.RequestID)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", path, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned %d on %s: %s", resp.StatusCode, path, string(responseBody))
	}

	var response InferenceResponse
	if err = json.Unmarshal(responseBody, &response); err != nil {
		return nil, fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	if response.Status != "OK" {
		return nil, fmt.Errorf("server reported failure on %s: %s", path, response.Status)
	}

	log.Tracef("(%s)\t %s served by %s in %d[µs]", path, request.RequestID,
		response.MachineName, response.ExecutionTimeMicro)

	return &Outputs{
		GeneratedTokens: response.GeneratedTokens,
	}, nil
}

func (b *HTTPBackend) Forward(inputs *Inputs) (*Outputs, error) {
	return b.post("/forward", b.composeRequest(inputs, 0))
}

func (b *HTTPBackend) Generate(inputs *Inputs, newTokens int) (*Outputs, error) {
	return b.post("/generate", b.composeRequest(inputs, newTokens))
}
