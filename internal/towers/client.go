package towers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/celltrack/celltrack-backend-go/internal/models"
	"github.com/celltrack/celltrack-backend-go/internal/spatial"
)

// DefaultRadiusMeters is the nearby-tower search radius
const DefaultRadiusMeters = 5000

// Client queries the external tower database for towers near a point.
// Lookups are best-effort enrichment: callers treat an error as an empty
// result set and never fail the surrounding analysis on it.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a tower lookup client
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// cellResponse is the relevant subset of the lookup API response
type cellResponse struct {
	Cells []struct {
		CellID int64   `json:"cellid"`
		Lat    float64 `json:"lat"`
		Lon    float64 `json:"lon"`
		Radio  string  `json:"radio"`
	} `json:"cells"`
}

// Nearby fetches towers within radius meters of the given point
func (c *Client) Nearby(lat, lon, radius float64) ([]models.NearbyTower, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("radius", strconv.FormatFloat(radius, 'f', -1, 64))
	params.Set("format", "json")

	resp, err := c.httpClient.Get(c.baseURL + "?" + params.Encode())
	if err != nil {
		return nil, fmt.Errorf("tower lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tower lookup returned status %d", resp.StatusCode)
	}

	var decoded cellResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode tower lookup response: %w", err)
	}

	towers := make([]models.NearbyTower, 0, len(decoded.Cells))
	for _, cell := range decoded.Cells {
		towers = append(towers, models.NearbyTower{
			CellID:    strconv.FormatInt(cell.CellID, 10),
			Latitude:  cell.Lat,
			Longitude: cell.Lon,
			Radio:     cell.Radio,
			DistanceM: spatial.HaversineDistance(lat, lon, cell.Lat, cell.Lon),
		})
	}

	return towers, nil
}
