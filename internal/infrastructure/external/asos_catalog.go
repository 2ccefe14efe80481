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
	asosBaseURL     = "https://asos10.p.rapidapi.com/api/v1"
	asosHost        = "asos10.p.rapidapi.com"
	asosProductBase = "https://www.asos.com/us"
)

// ASOSCatalog fetches products from the ASOS RapidAPI endpoint.
type ASOSCatalog struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

func NewASOSCatalog(apiKey string, log zerolog.Logger) *ASOSCatalog {
	return &ASOSCatalog{
		apiKey:     apiKey,
		baseURL:    asosBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log,
	}
}

func (c *ASOSCatalog) Source() string { return "asos" }

type asosSearchResponse struct {
	Data struct {
		Products []asosProduct `json:"products"`
	} `json:"data"`
	Products []asosProduct `json:"products"`
}

type asosProduct struct {
	ID    json.Number `json:"id"`
	Name  string      `json:"name"`
	Price struct {
		Current struct {
			Value float64 `json:"value"`
		} `json:"current"`
	} `json:"price"`
	ImageURL  string `json:"imageUrl"`
	Image     string `json:"image"`
	URL       string `json:"url"`
	BrandName string `json:"brandName"`
	Colour    string `json:"colour"`
}

func (c *ASOSCatalog) SearchGarments(ctx context.Context, query string, gender string, category entities.GarmentType, limit int) ([]entities.Garment, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("rapidapi key not configured")
	}

	params := url.Values{
		"searchTerm":    {query},
		"limit":         {strconv.Itoa(limit)},
		"offset":        {"0"},
		"sort":          {"recommended"},
		"currency":      {"USD"},
		"country":       {"US"},
		"store":         {"US"},
		"languageShort": {"en"},
		"sizeSchema":    {"US"},
	}

	endpoint := fmt.Sprintf("%s/getProductListBySearchTerm?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", asosHost)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("asos search: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("asos search status %d: %.200s", resp.StatusCode, string(body))
	}

	var decoded asosSearchResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	products := decoded.Data.Products
	if len(products) == 0 {
		products = decoded.Products
	}
	c.log.Info().Int("count", len(products)).Str("query", query).Msg("asos products found")

	garments := make([]entities.Garment, 0, len(products))
	for _, p := range products {
		g, ok := c.toGarment(p, category)
		if !ok {
			continue
		}
		garments = append(garments, g)
	}
	return filterByGender(garments, gender), nil
}

func (c *ASOSCatalog) toGarment(p asosProduct, category entities.GarmentType) (entities.Garment, bool) {
	imageURL := p.ImageURL
	if imageURL == "" {
		imageURL = p.Image
	}
	if imageURL == "" {
		return entities.Garment{}, false
	}
	if !strings.HasPrefix(imageURL, "http") {
		imageURL = "https://" + imageURL
	}

	buyURL := p.URL
	switch {
	case buyURL == "":
		buyURL = fmt.Sprintf("%s/prd/%s", asosProductBase, p.ID.String())
	case !strings.HasPrefix(buyURL, "http"):
		if !strings.HasPrefix(buyURL, "/") {
			buyURL = "/" + buyURL
		}
		buyURL = asosProductBase + buyURL
	}

	brand := p.BrandName
	if brand == "" {
		brand = "ASOS"
	}

	var colors []string
	if p.Colour != "" {
		colors = []string{p.Colour}
	}

	name := p.Name
	if name == "" {
		name = "Fashion Item"
	}

	return entities.Garment{
		ID:          p.ID.String(),
		Name:        name,
		Category:    category,
		Price:       p.Price.Current.Value,
		Currency:    "USD",
		ImageURL:    imageURL,
		BuyURL:      buyURL,
		Brand:       brand,
		Description: name,
		Colors:      colors,
		Source:      "asos",
	}, true
}

// filterByGender drops cross-gender products by keyword. Men's results
// exclude anything labelled for women; women's results exclude anything
// labelled for men.
func filterByGender(garments []entities.Garment, gender string) []entities.Garment {
	var excluded []string
	switch strings.ToLower(gender) {
	case "men", "man", "male":
		excluded = []string{"women", "woman", "ladies", "girls", "dress", "skirt", "blouse"}
	case "women", "woman", "female":
		excluded = []string{" men", "men's", "mens ", "boys"}
	default:
		return garments
	}

	filtered := garments[:0:0]
	for _, g := range garments {
		text := " " + strings.ToLower(g.Name+" "+g.Description) + " "
		keep := true
		for _, word := range excluded {
			if strings.Contains(text, word) {
				keep = false
				break
			}
		}
		if keep {
			filtered = append(filtered, g)
		}
	}
	return filtered
}
