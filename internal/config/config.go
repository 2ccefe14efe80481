package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
)

// Config holds all runtime configuration. Every generative backend is
// optional; the service degrades through the render tiers when keys are
// absent.
type Config struct {
	// HTTP listen address, e.g. ":8080"
	Address string `env:"ADDRESS" envDefault:":8080"`

	// Gemini image model (two-pass render backend)
	GeminiAPIKey     string `env:"GEMINI_API_KEY"`
	GeminiImageModel string `env:"GEMINI_IMAGE_MODEL" envDefault:"gemini-2.5-flash-image-preview"`

	// Vertex AI virtual try-on (single-pass sync backend)
	ProjectID string `env:"PROJECT_ID"`
	Location  string `env:"LOCATION" envDefault:"us-central1"`
	VTOModel  string `env:"VTO_MODEL" envDefault:"virtual-try-on-preview-08-04"`
	UseSDK    bool   `env:"USE_SDK" envDefault:"false"`

	// RunPod IDM-VTON (single-pass async job backend)
	RunPodAPIKey     string `env:"RUNPOD_API_KEY"`
	RunPodEndpointID string `env:"RUNPOD_ENDPOINT_ID"`

	// OpenAI-compatible judge/parser endpoint (Groq)
	GroqAPIKey  string `env:"GROQ_API_KEY"`
	GroqBaseURL string `env:"GROQ_BASE_URL" envDefault:"https://api.groq.com/openai/v1"`
	GroqModel   string `env:"GROQ_MODEL" envDefault:"llama-3.1-8b-instant"`

	// Replicate clothing segmentation
	ReplicateAPIToken       string `env:"REPLICATE_API_TOKEN"`
	ReplicateSegmentVersion string `env:"REPLICATE_SEGMENT_VERSION" envDefault:"501aa8488496fffc6bbee9544729dc28654649f2e3c80de0bf08fb9fe71898f8"`

	// RapidAPI product search
	RapidAPIKey string `env:"RAPIDAPI_KEY"`

	// S3 image store
	S3Bucket string `env:"S3_BUCKET"`
	S3Region string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Prefix string `env:"S3_PREFIX" envDefault:"outfits"`

	// Default base model photo used when the caller uploads none
	ModelImageURL string `env:"MODEL_IMAGE_URL" envDefault:"https://i.pinimg.com/1200x/17/cd/c1/17cdc121e45e69310685422a7f1455a2.jpg"`

	Scoring ScoringWeights
	Render  RenderTuning
}

// ScoringWeights are heuristic tuning knobs for the combination scorer.
// The defaults reproduce observed ranking behaviour; they are not asserted
// to be optimal.
type ScoringWeights struct {
	Compatibility    float64 `env:"WEIGHT_COMPATIBILITY" envDefault:"0.5"`
	Price            float64 `env:"WEIGHT_PRICE" envDefault:"0.3"`
	Position         float64 `env:"WEIGHT_POSITION" envDefault:"0.2"`
	CrossSourceBonus float64 `env:"CROSS_SOURCE_BONUS" envDefault:"0.1"`

	// Pairs judged incompatible below this oracle score are dropped.
	CompatibilityCutoff float64 `env:"COMPATIBILITY_CUTOFF" envDefault:"0.4"`

	// Max pairs per remote judge request.
	OracleBatchSize int `env:"ORACLE_BATCH_SIZE" envDefault:"10"`
}

// RenderTuning controls the render pipeline's delays and retry budgets.
type RenderTuning struct {
	// Cooldown before each generative pass, to stay under the shared
	// rate limit.
	PassCooldown time.Duration `env:"PASS_COOLDOWN" envDefault:"10s"`

	// Backoff schedule applied when a pass hits a rate-limit response.
	// Length of the slice is the retry cap.
	RateLimitBackoff []time.Duration `env:"RATE_LIMIT_BACKOFF" envDefault:"10s,20s,30s"`

	// Async job polling.
	PollInterval    time.Duration `env:"POLL_INTERVAL" envDefault:"2s"`
	PollMaxAttempts int           `env:"POLL_MAX_ATTEMPTS" envDefault:"60"`
}

// Load loads .env (if present) and parses environment variables into Config.
func Load() (Config, error) {
	// Load .env if available; ignore error if file does not exist
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// DefaultScoringWeights returns the tuned scoring constants.
func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{
		Compatibility:       0.5,
		Price:               0.3,
		Position:            0.2,
		CrossSourceBonus:    0.1,
		CompatibilityCutoff: 0.4,
		OracleBatchSize:     10,
	}
}

// DefaultRenderTuning returns the production delay schedule.
func DefaultRenderTuning() RenderTuning {
	return RenderTuning{
		PassCooldown:     10 * time.Second,
		RateLimitBackoff: []time.Duration{10 * time.Second, 20 * time.Second, 30 * time.Second},
		PollInterval:     2 * time.Second,
		PollMaxAttempts:  60,
	}
}
