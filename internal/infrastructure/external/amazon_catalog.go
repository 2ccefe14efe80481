package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kabs31/outfit-planner/internal/domain/entities"
)

const (
	amazonBaseURL = "https://real-time-amazon-data.p.rapidapi.com"
	amazonHost    = "real-time-amazon-data.p.rapidapi.com"
)

// AmazonCatalog fetches products from the real-time Amazon data RapidAPI
// endpoint. The same RapidAPI key serves both catalogs.
type AmazonCatalog struct {
	apiKey     string
	baseURL    string
	country    string
	httpClient *http.Client
	log        zerolog.Logger
}

func NewAmazonCatalog(apiKey string, log zerolog.Logger) *AmazonCatalog {
	return &AmazonCatalog{
		apiKey:     apiKey,
		baseURL:    amazonBaseURL,
		country:    "US",
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log,
	}
}

func (c *AmazonCatalog) Source() string { return "amazon" }

type amazonSearchResponse struct {
	Data struct {
		Products []amazonProduct `json:"products"`
	} `json:"data"`
}

type amazonProduct struct {
	ASIN         string          `json:"asin"`
	ProductTitle string          `json:"product_title"`
	Title        string          `json:"title"`
	ProductPrice json.RawMessage `json:"product_price"`
	ProductPhoto string          `json:"product_photo"`
	MainImageURL string          `json:"product_main_image_url"`
	Image        string          `json:"image"`
	ProductURL   string          `json:"product_url"`
	ProductBrand string          `json:"product_brand"`
}

func (c *AmazonCatalog) SearchGarments(ctx context.Context, query string, gender string, category entities.GarmentType, limit int) ([]entities.Garment, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("rapidapi key not configured")
	}

	params := url.Values{
		"query":             {query},
		"page":              {"1"},
		"country":           {c.country},
		"sort_by":           {"BEST_SELLERS"},
		"product_condition": {"NEW"},
	}

	endpoint := fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", amazonHost)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("amazon search: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("amazon search status %d: %.200s", resp.StatusCode, string(body))
	}

	var decoded amazonSearchResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	c.log.Info().Int("count", len(decoded.Data.Products)).Str("query", query).Msg("amazon products found")

	garments := make([]entities.Garment, 0, len(decoded.Data.Products))
	for _, p := range decoded.Data.Products {
		g, ok := c.toGarment(p, category)
		if !ok {
			continue
		}
		garments = append(garments, g)
		if len(garments) >= limit {
			break
		}
	}
	return filterByGender(garments, gender), nil
}

func (c *AmazonCatalog) toGarment(p amazonProduct, category entities.GarmentType) (entities.Garment, bool) {
	imageURL := p.ProductPhoto
	if imageURL == "" {
		imageURL = p.MainImageURL
	}
	if imageURL == "" {
		imageURL = p.Image
	}
	if imageURL == "" {
		return entities.Garment{}, false
	}

	name := p.ProductTitle
	if name == "" {
		name = p.Title
	}
	if name == "" {
		name = "Fashion Item"
	}
	displayName := name
	if len(displayName) > 100 {
		displayName = displayName[:100]
	}

	buyURL := p.ProductURL
	if buyURL == "" && p.ASIN != "" {
		buyURL = fmt.Sprintf("https://www.amazon.com/dp/%s", p.ASIN)
	}

	brand := p.ProductBrand
	if brand == "" {
		brand = "Amazon"
	}

	return entities.Garment{
		ID:          p.ASIN,
		Name:        displayName,
		Category:    category,
		Price:       parsePrice(p.ProductPrice),
		Currency:    "USD",
		ImageURL:    imageURL,
		BuyURL:      buyURL,
		Brand:       brand,
		Description: name,
		Source:      "amazon",
	}, true
}

// parsePrice handles both the string form ("$19.99") and the object form
// ({"value": "19.99"}) the API serves.
func parsePrice(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		var obj struct {
			Value string `json:"value"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return 0
		}
		s = obj.Value
	}

	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "$₹£€ ")
	s = strings.ReplaceAll(s, ",", "")
	price, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return price
}
