package services

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/kabs31/outfit-planner/internal/application/usecases"
)

// ParameterService maps HTTP form values onto use case inputs, applying
// defaults and range clamps so handlers stay free of parsing noise.
type ParameterService struct{}

func NewParameterService() *ParameterService {
	return &ParameterService{}
}

func (s *ParameterService) ParseBrowseRequest(r *http.Request) usecases.BrowseInput {
	return usecases.BrowseInput{
		Prompt:          s.getString(r, "prompt", ""),
		Gender:          s.getString(r, "gender", ""),
		MaxResults:      s.getInt(r, "max_results", 6, 1, 20),
		PerCatalogLimit: s.getInt(r, "per_catalog_limit", 10, 1, 50),
	}
}

func (s *ParameterService) ParseTryOnRequest(r *http.Request) usecases.TryOnInput {
	return usecases.TryOnInput{
		OutfitIDs:     s.getList(r, "outfit_ids"),
		ModelImageURL: s.getString(r, "model_image_url", ""),
		LocalOnly:     s.getBool(r, "local_only", false),
	}
}

func (s *ParameterService) getString(r *http.Request, key, defaultValue string) string {
	value := strings.TrimSpace(r.FormValue(key))
	if value == "" {
		return defaultValue
	}
	return value
}

func (s *ParameterService) getBool(r *http.Request, key string, defaultValue bool) bool {
	value := r.FormValue(key)
	if value == "" {
		return defaultValue
	}
	return value == "true"
}

func (s *ParameterService) getInt(r *http.Request, key string, defaultValue, min, max int) int {
	value := r.FormValue(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	if intVal < min || intVal > max {
		return defaultValue
	}
	return intVal
}

// getList accepts both repeated form values and a single comma-separated
// value for the same key.
func (s *ParameterService) getList(r *http.Request, key string) []string {
	if err := r.ParseForm(); err != nil {
		return nil
	}

	var values []string
	for _, raw := range r.Form[key] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				values = append(values, part)
			}
		}
	}
	return values
}
