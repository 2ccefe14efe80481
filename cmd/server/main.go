package main

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	appservices "github.com/kabs31/outfit-planner/internal/application/services"
	"github.com/kabs31/outfit-planner/internal/application/usecases"
	"github.com/kabs31/outfit-planner/internal/config"
	"github.com/kabs31/outfit-planner/internal/domain/entities"
	"github.com/kabs31/outfit-planner/internal/domain/repositories"
	domainservices "github.com/kabs31/outfit-planner/internal/domain/services"
	"github.com/kabs31/outfit-planner/internal/infrastructure/api"
	"github.com/kabs31/outfit-planner/internal/infrastructure/external"
	memrepos "github.com/kabs31/outfit-planner/internal/infrastructure/repositories"
	infraservices "github.com/kabs31/outfit-planner/internal/infrastructure/services"
	"github.com/kabs31/outfit-planner/internal/infrastructure/storage"
	"github.com/kabs31/outfit-planner/internal/logging"
)

func main() {
	logging.Setup()
	log := logging.Component("server")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("configuration error")
	}

	ctx := context.Background()

	// Shared AI client pools (Gemini API / Vertex AI)
	pools := infraservices.NewClientPoolService(cfg.ProjectID, cfg.Location)
	defer pools.Close()

	// Image store is optional; without it renders ship inline as data URLs.
	var store repositories.ImageStore
	if cfg.S3Bucket != "" {
		s3Store, err := storage.NewS3Store(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3Prefix, logging.Component("s3"))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize S3 store")
		}
		store = s3Store
	} else {
		log.Warn().Msg("S3_BUCKET not set, rendered images will be returned inline")
	}

	fetcher := external.NewHTTPFetcher(nil, logging.Component("fetcher"))

	// Garment segmentation is optional; the preparer falls back to local
	// background extraction without it.
	var segmenter repositories.GarmentSegmenter
	if cfg.ReplicateAPIToken != "" {
		segmenter = external.NewReplicateSegmenter(cfg.ReplicateAPIToken, cfg.ReplicateSegmentVersion, cfg.Render, fetcher, logging.Component("replicate"))
	}

	// Prompt parsing and compatibility judging share one Groq client. The
	// oracle and parser degrade to local heuristics when the key is absent.
	var judge repositories.CompatibilityJudge
	var parser repositories.PromptParser
	if cfg.GroqAPIKey != "" {
		groq := external.NewGroqClient(cfg.GroqAPIKey, cfg.GroqBaseURL, cfg.GroqModel, logging.Component("groq"))
		judge, parser = groq, groq
	} else {
		log.Warn().Msg("GROQ_API_KEY not set, using keyword heuristics for parsing and compatibility")
		parser = fallbackParser{}
	}

	catalogs := buildCatalogs(cfg, log)

	oracle := domainservices.NewCompatibilityOracle(judge, cfg.Scoring.OracleBatchSize, logging.Component("oracle"))
	scorer := domainservices.NewCombinationScorer(oracle, cfg.Scoring, logging.Component("scorer"))
	preparer := domainservices.NewGarmentPreparer(fetcher, segmenter, store, logging.Component("preparer"))

	// Primary two-pass backend requires a Gemini key; the single-pass slot
	// prefers RunPod when configured and falls back to Vertex AI.
	var generative repositories.GenerativeRenderer
	if cfg.GeminiAPIKey != "" {
		generative = external.NewGeminiRenderer(pools.GenAIPool(), cfg.GeminiAPIKey, cfg.GeminiImageModel, logging.Component("gemini"))
	}
	var singlePass repositories.SinglePassRenderer
	switch {
	case cfg.RunPodAPIKey != "" && cfg.RunPodEndpointID != "":
		singlePass = external.NewRunPodRenderer(cfg.RunPodAPIKey, cfg.RunPodEndpointID, cfg.Render, fetcher, logging.Component("runpod"))
	case cfg.ProjectID != "":
		singlePass = external.NewVertexRenderer(pools.VertexAIPool(), cfg.ProjectID, cfg.Location, cfg.VTOModel, cfg.UseSDK, logging.Component("vertex"))
	default:
		log.Warn().Msg("no single-pass backend configured, renders may fall through to composite cards")
	}

	pipeline := domainservices.NewRenderPipeline(generative, singlePass, cfg.Render, logging.Component("pipeline"))
	orchestrator := domainservices.NewBatchOrchestrator(pipeline, logging.Component("orchestrator"))

	outfitRepo := memrepos.NewMemoryOutfitRepository()

	browseUseCase := usecases.NewBrowseUseCase(parser, catalogs, scorer, outfitRepo, logging.Component("browse"))
	tryOnUseCase := usecases.NewTryOnUseCase(outfitRepo, preparer, orchestrator, fetcher, store, logging.Component("tryon"))

	collaborators := map[string]bool{
		"judge":       judge != nil,
		"parser":      cfg.GroqAPIKey != "",
		"segmenter":   segmenter != nil,
		"store":       store != nil,
		"generative":  generative != nil,
		"single_pass": singlePass != nil,
		"catalogs":    len(catalogs) > 0,
	}
	handler := api.NewOutfitHandler(browseUseCase, tryOnUseCase, appservices.NewParameterService(), store, cfg.ModelImageURL, collaborators, logging.Component("api"))

	r := mux.NewRouter()
	r.HandleFunc("/api/browse", handler.HandleBrowse).Methods("POST")
	r.HandleFunc("/api/tryon", handler.HandleTryOn).Methods("POST")
	r.HandleFunc("/api/upload-model", handler.HandleUploadModel).Methods("POST")
	r.HandleFunc("/healthz", handler.HandleHealth).Methods("GET")

	log.Info().Str("address", cfg.Address).
		Bool("gemini", generative != nil).
		Bool("single_pass", singlePass != nil).
		Int("catalogs", len(catalogs)).
		Msg("starting server")

	if err := http.ListenAndServe(cfg.Address, r); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func buildCatalogs(cfg config.Config, log zerolog.Logger) []repositories.CatalogService {
	if cfg.RapidAPIKey == "" {
		log.Warn().Msg("RAPIDAPI_KEY not set, catalog search will fail")
		return nil
	}
	return []repositories.CatalogService{
		external.NewASOSCatalog(cfg.RapidAPIKey, logging.Component("asos")),
		external.NewAmazonCatalog(cfg.RapidAPIKey, logging.Component("amazon")),
	}
}

// fallbackParser serves prompt parsing without a remote LLM.
type fallbackParser struct{}

func (fallbackParser) ParseOutfitPrompt(_ context.Context, prompt string) entities.ParsedPrompt {
	return domainservices.FallbackParsePrompt(prompt)
}
