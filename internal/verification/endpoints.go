package verification

import (
	"fmt"
	"os"
	"strings"

	"github.com/civicpulse/pulse-backend/internal/config"
	"gopkg.in/yaml.v3"
)

// Endpoint is one OpenAI-compatible chat-completions target.
type Endpoint struct {
	Name   string `yaml:"name"`
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type endpointsFile struct {
	Endpoints []Endpoint `yaml:"endpoints"`
}

// LoadEndpointsFile reads a prioritized endpoint list. ${VAR} references are expanded
// so keys can stay out of the file.
func LoadEndpointsFile(path string) ([]Endpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vision endpoints: %w", err)
	}

	var file endpointsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse vision endpoints: %w", err)
	}

	endpoints := make([]Endpoint, 0, len(file.Endpoints))
	for i, ep := range file.Endpoints {
		ep.URL = strings.TrimSpace(os.ExpandEnv(ep.URL))
		ep.APIKey = strings.TrimSpace(os.ExpandEnv(ep.APIKey))
		if ep.URL == "" || ep.Model == "" {
			return nil, fmt.Errorf("vision endpoint %d: url and model are required", i)
		}
		if ep.Name == "" {
			ep.Name = ep.Model
		}
		endpoints = append(endpoints, ep)
	}
	return endpoints, nil
}

// EndpointsFromConfig builds the fallback chain from env: every Gemini model in order,
// then GLM vision, then OpenAI. Providers without a key are skipped.
func EndpointsFromConfig(cfg *config.Config) []Endpoint {
	var endpoints []Endpoint
	if cfg.GeminiAPIKey != "" {
		for _, model := range cfg.GeminiModelList() {
			endpoints = append(endpoints, Endpoint{
				Name: "gemini/" + model, URL: cfg.GeminiAPIURL, APIKey: cfg.GeminiAPIKey, Model: model,
			})
		}
	}
	if cfg.GLMAPIKey != "" {
		endpoints = append(endpoints, Endpoint{
			Name: "glm/" + cfg.GLMVisionModel, URL: cfg.GLMAPIURL, APIKey: cfg.GLMAPIKey, Model: cfg.GLMVisionModel,
		})
	}
	if cfg.OpenAIAPIKey != "" {
		endpoints = append(endpoints, Endpoint{
			Name: "openai/" + cfg.OpenAIModel, URL: cfg.OpenAIAPIURL, APIKey: cfg.OpenAIAPIKey, Model: cfg.OpenAIModel,
		})
	}
	return endpoints
}
