package services

import (
	"context"
	"fmt"
	"sync"

	"cloud.google.com/go/vertexai/genai" // VertexAI用
	"google.golang.org/api/option"
	genai_std "google.golang.org/genai" // 標準GenAI用

	"github.com/kabs31/outfit-planner/internal/domain/repositories"
)

// vertexAIClientPool lazily builds one shared Vertex AI client for the
// single-pass render backend.
type vertexAIClientPool struct {
	projectID string
	location  string

	mutex  sync.RWMutex
	client *genai.Client
}

func newVertexAIClientPool(projectID, location string) repositories.VertexAIClientPool {
	return &vertexAIClientPool{projectID: projectID, location: location}
}

func (p *vertexAIClientPool) GetVertexAIClient(ctx context.Context) (*genai.Client, error) {
	p.mutex.RLock()
	if p.client != nil {
		defer p.mutex.RUnlock()
		return p.client, nil
	}
	p.mutex.RUnlock()

	p.mutex.Lock()
	defer p.mutex.Unlock()

	// ダブルチェックロッキング
	if p.client != nil {
		return p.client, nil
	}

	endpoint := fmt.Sprintf("%s-aiplatform.googleapis.com:443", p.location)
	client, err := genai.NewClient(ctx, p.projectID, p.location, option.WithEndpoint(endpoint))
	if err != nil {
		return nil, fmt.Errorf("failed to create VertexAI client: %w", err)
	}

	p.client = client
	return p.client, nil
}

func (p *vertexAIClientPool) Close() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.client != nil {
		err := p.client.Close()
		p.client = nil
		return err
	}
	return nil
}

// genAIClientPool lazily builds one shared Gemini API client for the
// two-pass render backend.
type genAIClientPool struct {
	mutex  sync.RWMutex
	client *genai_std.Client
}

func newGenAIClientPool() repositories.GenAIClientPool {
	return &genAIClientPool{}
}

func (p *genAIClientPool) GetGenAIClient(ctx context.Context, geminiAPIKey string) (*genai_std.Client, error) {
	p.mutex.RLock()
	if p.client != nil {
		defer p.mutex.RUnlock()
		return p.client, nil
	}
	p.mutex.RUnlock()

	p.mutex.Lock()
	defer p.mutex.Unlock()

	// ダブルチェックロッキング
	if p.client != nil {
		return p.client, nil
	}

	client, err := genai_std.NewClient(ctx, &genai_std.ClientConfig{
		APIKey: geminiAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	p.client = client
	return p.client, nil
}

func (p *genAIClientPool) Close() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	// GenAI Clientはリソースクリーンアップ不要
	p.client = nil
	return nil
}

type clientPoolService struct {
	vertexAIPool repositories.VertexAIClientPool
	genAIPool    repositories.GenAIClientPool
}

// NewClientPoolService bundles the pools both render backends draw from.
func NewClientPoolService(projectID, location string) repositories.ClientPoolService {
	return &clientPoolService{
		vertexAIPool: newVertexAIClientPool(projectID, location),
		genAIPool:    newGenAIClientPool(),
	}
}

func (s *clientPoolService) VertexAIPool() repositories.VertexAIClientPool {
	return s.vertexAIPool
}

func (s *clientPoolService) GenAIPool() repositories.GenAIClientPool {
	return s.genAIPool
}

func (s *clientPoolService) Close() error {
	var errs []error

	if err := s.vertexAIPool.Close(); err != nil {
		errs = append(errs, fmt.Errorf("VertexAI pool close error: %w", err))
	}
	if err := s.genAIPool.Close(); err != nil {
		errs = append(errs, fmt.Errorf("GenAI pool close error: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("client pool close errors: %v", errs)
	}
	return nil
}
