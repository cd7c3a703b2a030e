package yield

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed weather.yaml
var defaultWeatherYAML []byte

// Weather is the seasonal rainfall record the mock engine runs on.
type Weather struct {
	Station             string          `yaml:"station"`
	Source              string          `yaml:"source"`
	ReferenceRainfallMM float64         `yaml:"reference_rainfall_mm"`
	Seasons             []WeatherSeason `yaml:"seasons"`
}

// WeatherSeason is one growing season's rainfall total. Year is the
// planting year; the harvest falls in the following spring.
type WeatherSeason struct {
	Year       int     `yaml:"year"`
	RainfallMM float64 `yaml:"rainfall_mm"`
}

// DefaultWeather parses the embedded Tunis dataset.
func DefaultWeather() (*Weather, error) {
	return parseWeather(defaultWeatherYAML)
}

// LoadWeatherFile reads a weather dataset from a YAML file, replacing the
// embedded default.
func LoadWeatherFile(path string) (*Weather, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading weather file %s: %w", path, err)
	}
	w, err := parseWeather(data)
	if err != nil {
		return nil, fmt.Errorf("weather file %s: %w", path, err)
	}
	return w, nil
}

func parseWeather(data []byte) (*Weather, error) {
	var w Weather
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&w); err != nil {
		return nil, fmt.Errorf("decoding weather data: %w", err)
	}
	if err := w.validate(); err != nil {
		return nil, err
	}
	return &w, nil
}

func (w *Weather) validate() error {
	if w.ReferenceRainfallMM <= 0 {
		return fmt.Errorf("weather data: reference_rainfall_mm must be positive, got %v", w.ReferenceRainfallMM)
	}
	if len(w.Seasons) == 0 {
		return fmt.Errorf("weather data: at least one season is required")
	}
	for i, s := range w.Seasons {
		if s.RainfallMM < 0 {
			return fmt.Errorf("weather data: season %d (%d) has negative rainfall", i+1, s.Year)
		}
	}
	return nil
}

// factor returns the rainfall ratio for the given 1-based season number.
// Records cycle when the simulation runs longer than the dataset.
func (w *Weather) factor(season int) float64 {
	entry := w.Seasons[(season-1)%len(w.Seasons)]
	return entry.RainfallMM / w.ReferenceRainfallMM
}
