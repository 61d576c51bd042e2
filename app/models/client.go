package models

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"DocChatAI/app/utils/restclient"
)

const (
	chatEndpoint      = "/v1/chat/completions"
	embeddingEndpoint = "/v1/embeddings"

	streamDone = "[DONE]"
)

var _ Interface = &LLMClient{}

type LLMClient struct {
	restClient      restclient.Interface
	cache           sync.Map
	model           string
	embeddingsModel string
	temperature     float64
}

func NewLLMClient(baseURL, model, embModel string) *LLMClient {
	if baseURL == "" {
		baseURL = os.Getenv("LLM_BASE_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:1234"
	}
	var headers map[string]string
	if key := os.Getenv("LLM_API_KEY"); key != "" {
		headers = map[string]string{"Authorization": "Bearer " + key}
	}
	return &LLMClient{
		restClient:      restclient.NewRestClient(baseURL, headers),
		model:           model,
		embeddingsModel: embModel,
		temperature:     0.2,
	}
}

// EmbedTexts embeds the whole batch in one provider call. The response
// items are reordered by their index field, so output i always
// corresponds to input i.
func (mc *LLMClient) EmbedTexts(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return nil, errors.New("no inputs to embed")
	}
	if mc.embeddingsModel == "" {
		return nil, errors.New("embeddings model is empty; configure LLMClient.embeddingsModel")
	}

	req := embeddingRequestPayload{
		Model: mc.embeddingsModel,
		Input: inputs,
	}
	resp, err := mc.sendEmbeddings(ctx, req, 3)
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(inputs) {
		return nil, fmt.Errorf("embedding count mismatch: sent %d, got %d", len(inputs), len(resp.Data))
	}

	out := make([][]float32, len(inputs))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(out) {
			return nil, fmt.Errorf("embedding index %d out of range", item.Index)
		}
		out[item.Index] = item.Embedding
	}
	for i, v := range out {
		if len(v) == 0 {
			return nil, fmt.Errorf("no embedding returned for input %d", i)
		}
		if len(v) != len(out[0]) {
			return nil, fmt.Errorf("embedding dimension mismatch: %d vs %d", len(v), len(out[0]))
		}
	}
	return out, nil
}

func (mc *LLMClient) EmbedText(ctx context.Context, input string) ([]float32, error) {
	if v, ok := mc.cache.Load(input); ok {
		if emb, ok2 := v.([]float32); ok2 {
			return emb, nil
		}
	}

	vectors, err := mc.EmbedTexts(ctx, []string{input})
	if err != nil {
		return nil, err
	}
	mc.cache.Store(input, vectors[0])
	return vectors[0], nil
}

func (mc *LLMClient) sendEmbeddings(ctx context.Context, payload embeddingRequestPayload, maxRetries int) (*embeddingResponse, error) {
	var (
		lastErr error
		out     embeddingResponse
	)

	for i := 0; i < maxRetries; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if i > 0 {
			sleep := time.Duration(100*(1<<uint(i))) * time.Millisecond
			sleep += time.Duration(time.Now().UnixNano() % int64(100*time.Millisecond))
			time.Sleep(sleep)
		}

		body, status, err := mc.restClient.Post(ctx, embeddingEndpoint, payload, nil)
		if err != nil {
			lastErr = err
			log.Printf("⚠️ embed attempt %d failed: err=%v", i+1, err)
			continue
		}
		if status < 200 || status >= 300 {
			lastErr = fmt.Errorf("embeddings HTTP %d: %s", status, body)
			log.Printf("⚠️ embed attempt %d failed: %v", i+1, lastErr)
			continue
		}
		if err = json.Unmarshal(body, &out); err != nil {
			lastErr = fmt.Errorf("parse embeddings json: %w", err)
			log.Printf("⚠️ %v", lastErr)
			continue
		}

		return &out, nil
	}
	return nil, fmt.Errorf("embeddings request failed after %d retries: %w", maxRetries, lastErr)
}

// StreamChat starts a streamed chat completion and relays the
// provider's deltas on the returned channel. The channel closes when
// the provider signals completion; if the stream breaks first, the last
// delta carries the error. Cancelling ctx tears down the stream.
func (mc *LLMClient) StreamChat(ctx context.Context, messages []Message) (<-chan Delta, error) {
	payload := requestPayload{
		Model:       mc.model,
		Messages:    messages,
		Temperature: mc.temperature,
		MaxTokens:   -1,
		Stream:      true,
	}

	body, _, err := mc.restClient.PostStream(ctx, chatEndpoint, payload, nil)
	if err != nil {
		return nil, fmt.Errorf("start completion stream: %w", err)
	}

	deltas := make(chan Delta)
	go func() {
		defer close(deltas)
		defer body.Close()

		scanner := bufio.NewScanner(body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == streamDone {
				return
			}

			var chunk streamChunk
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				log.Printf("⚠️ skipping malformed stream chunk: %v", err)
				continue
			}
			if len(chunk.Choices) == 0 {
				continue
			}
			if content := chunk.Choices[0].Delta.Content; content != "" {
				select {
				case deltas <- Delta{Content: content}:
				case <-ctx.Done():
					return
				}
			}
			if chunk.Choices[0].FinishReason != nil {
				return
			}
		}
		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			select {
			case deltas <- Delta{Err: fmt.Errorf("completion stream broke: %w", err)}:
			case <-ctx.Done():
			}
		}
	}()

	return deltas, nil
}
