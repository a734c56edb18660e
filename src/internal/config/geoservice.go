package config

import (
	"github.com/spf13/viper"
	"googlemaps.github.io/maps"
)

type GeoService struct {
	Client *maps.Client
}

// NewGeoService returns a nil-client service when no API key is configured;
// callers fall back to straight-line estimates.
func NewGeoService(viper *viper.Viper) (*GeoService, error) {
	apiKey := viper.GetString("thirdparty.google.api_key")
	if apiKey == "" {
		return &GeoService{}, nil
	}

	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &GeoService{Client: client}, nil
}

func (g *GeoService) MapsClient() *maps.Client {
	if g == nil {
		return nil
	}
	return g.Client
}
