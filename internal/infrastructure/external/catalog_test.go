package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kabs31/outfit-planner/internal/domain/entities"
)

func TestASOSSearchGarments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "rapid-key", r.Header.Get("X-RapidAPI-Key"))
		assert.Equal(t, "casual top", r.URL.Query().Get("searchTerm"))
		fmt.Fprint(w, `{
			"data": {"products": [
				{
					"id": 123,
					"name": "Ribbed crop top",
					"price": {"current": {"value": 24.99}},
					"imageUrl": "images.asos-media.com/products/123.jpg",
					"url": "prd/123",
					"brandName": "ASOS DESIGN",
					"colour": "black"
				},
				{"id": 124, "name": "No image product"}
			]}
		}`)
	}))
	defer srv.Close()

	c := NewASOSCatalog("rapid-key", zerolog.Nop())
	c.baseURL = srv.URL

	got, err := c.SearchGarments(context.Background(), "casual top", "women", entities.GarmentTypeTop, 10)
	require.NoError(t, err)
	require.Len(t, got, 1, "imageless products are dropped")

	g := got[0]
	assert.Equal(t, "123", g.ID)
	assert.Equal(t, "Ribbed crop top", g.Name)
	assert.InDelta(t, 24.99, g.Price, 1e-9)
	assert.Equal(t, "https://images.asos-media.com/products/123.jpg", g.ImageURL)
	assert.Equal(t, "https://www.asos.com/us/prd/123", g.BuyURL)
	assert.Equal(t, "ASOS DESIGN", g.Brand)
	assert.Equal(t, []string{"black"}, g.Colors)
	assert.Equal(t, "asos", g.Source)
}

func TestASOSSearchGarmentsNoKey(t *testing.T) {
	c := NewASOSCatalog("", zerolog.Nop())
	_, err := c.SearchGarments(context.Background(), "top", "women", entities.GarmentTypeTop, 5)
	assert.Error(t, err)
}

func TestAmazonSearchGarments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "jeans", r.URL.Query().Get("query"))
		fmt.Fprint(w, `{
			"data": {"products": [
				{
					"asin": "B0TEST1",
					"product_title": "Slim fit jeans",
					"product_price": "$39.99",
					"product_photo": "https://m.media-amazon.com/images/1.jpg",
					"product_url": "https://www.amazon.com/dp/B0TEST1",
					"product_brand": "Levi's"
				},
				{
					"asin": "B0TEST2",
					"product_title": "Relaxed jeans",
					"product_price": {"value": "49.99"},
					"product_photo": "https://m.media-amazon.com/images/2.jpg"
				}
			]}
		}`)
	}))
	defer srv.Close()

	c := NewAmazonCatalog("rapid-key", zerolog.Nop())
	c.baseURL = srv.URL

	got, err := c.SearchGarments(context.Background(), "jeans", "men", entities.GarmentTypeBottom, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "B0TEST1", got[0].ID)
	assert.InDelta(t, 39.99, got[0].Price, 1e-9)
	assert.Equal(t, "Levi's", got[0].Brand)
	assert.Equal(t, "amazon", got[0].Source)

	assert.InDelta(t, 49.99, got[1].Price, 1e-9)
	assert.Equal(t, "https://www.amazon.com/dp/B0TEST2", got[1].BuyURL)
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{`"$19.99"`, 19.99},
		{`"₹1,499.00"`, 1499},
		{`{"value": "24.50"}`, 24.5},
		{`"not a price"`, 0},
		{``, 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, parsePrice(json.RawMessage(tt.raw)), 1e-9, "raw=%s", tt.raw)
	}
}

func TestFilterByGender(t *testing.T) {
	garments := []entities.Garment{
		{Name: "Classic white shirt"},
		{Name: "Women's floral dress"},
		{Name: "Men's oxford shirt"},
	}

	men := filterByGender(garments, "men")
	require.Len(t, men, 2)
	assert.Equal(t, "Classic white shirt", men[0].Name)
	assert.Equal(t, "Men's oxford shirt", men[1].Name)

	women := filterByGender(garments, "women")
	require.Len(t, women, 2)
	assert.Equal(t, "Classic white shirt", women[0].Name)
	assert.Equal(t, "Women's floral dress", women[1].Name)

	assert.Len(t, filterByGender(garments, ""), 3, "unknown gender keeps everything")
}
