// Package osrm resolves driving routes against an OSRM HTTP server.
package osrm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"partner/internal/core/domain/model/kernel"
	"partner/internal/pkg/errs"
)

const DefaultTimeout = 5 * time.Second

// ErrNoRoute is returned when the server answers but has no route between the points.
var ErrNoRoute = errors.New("osrm: no route")

// Client implements ports.RouteProvider.
type Client struct {
	endpoint string
	profile  string
	client   *http.Client
}

func NewClient(endpoint string, timeout time.Duration) (*Client, error) {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return nil, errs.NewValueIsRequiredError("endpoint")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		endpoint: endpoint,
		profile:  "driving",
		client:   &http.Client{Timeout: timeout},
	}, nil
}

type routeResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry struct {
			Coordinates [][2]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"routes"`
}

// Route queries /route/v1/driving/{lon1},{lat1};{lon2},{lat2} and returns the full
// GeoJSON geometry of the first route.
func (c *Client) Route(ctx context.Context, from, to kernel.GeoPoint) (kernel.Route, error) {
	if err := errors.Join(from.Validate(), to.Validate()); err != nil {
		return kernel.Route{}, err
	}

	url := fmt.Sprintf("%s/route/v1/%s/%.6f,%.6f;%.6f,%.6f?overview=full&geometries=geojson",
		c.endpoint, c.profile, from.Lng(), from.Lat(), to.Lng(), to.Lat())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return kernel.Route{}, fmt.Errorf("build route request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return kernel.Route{}, fmt.Errorf("route request: %w", err)
	}
	defer resp.Body.Close()

	var out routeResponse
	if err = json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return kernel.Route{}, fmt.Errorf("decode route (status %d): %w", resp.StatusCode, err)
	}
	if out.Code != "Ok" || len(out.Routes) == 0 {
		return kernel.Route{}, fmt.Errorf("%w: %s %s", ErrNoRoute, out.Code, out.Message)
	}

	coords := out.Routes[0].Geometry.Coordinates
	points := make([]kernel.GeoPoint, 0, len(coords))
	for _, lngLat := range coords {
		p, err := kernel.NewGeoPoint(lngLat[1], lngLat[0])
		if err != nil {
			return kernel.Route{}, fmt.Errorf("route geometry: %w", err)
		}
		points = append(points, p)
	}
	return kernel.NewRoute(points)
}
