package tools

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/tmc/langchaingo/tools"
)

var weatherConditions = []string{
	"sunny",
	"partly cloudy",
	"overcast",
	"light rain",
	"windy",
	"clear",
}

// Weather reports simulated conditions for a city. Conditions are derived
// from the city name, so repeated lookups for the same city agree.
type Weather struct{}

var _ tools.Tool = Weather{}

// NewWeather creates a weather tool.
func NewWeather() Weather {
	return Weather{}
}

// Name returns the name of the tool.
func (Weather) Name() string {
	return "weather"
}

// Description returns the description of the tool.
func (Weather) Description() string {
	return "Look up the current weather for a city. Returns simulated " +
		"conditions, temperature and humidity. Input should be the city name."
}

// Call returns the simulated weather for the city.
func (Weather) Call(_ context.Context, input string) (string, error) {
	city := trimmedInput(input)
	if city == "" {
		return "", fmt.Errorf("city is required")
	}

	h := fnv.New32a()
	h.Write([]byte(strings.ToLower(city)))
	seed := h.Sum32()

	condition := weatherConditions[seed%uint32(len(weatherConditions))]
	temperature := 8 + int(seed%25)
	humidity := 40 + int(seed/7%50)

	return fmt.Sprintf("Weather in %s: %s, %d°C, humidity %d%%.", city, condition, temperature, humidity), nil
}
