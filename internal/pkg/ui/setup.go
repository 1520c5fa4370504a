package ui

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/commitgpt/commitgpt/internal/pkg/ai"
	"github.com/commitgpt/commitgpt/internal/pkg/config"
)

// SetupAnswers are the values collected by the setup wizard.
type SetupAnswers struct {
	Provider     string
	Model        string
	Endpoint     string
	Conventional bool
}

// ConfigSetter is the part of config.Manager the wizard writes through.
type ConfigSetter interface {
	Set(key string, value string) error
	GetConfigPath() string
}

// DefaultSetupAnswers returns the suggested values for a provider.
func DefaultSetupAnswers(provider string) SetupAnswers {
	switch provider {
	case ai.ProviderNameDeepSeek:
		return SetupAnswers{Provider: provider, Model: ai.DefaultDeepSeekModel, Endpoint: ai.DefaultDeepSeekEndpoint}
	case ai.ProviderNameOllama:
		return SetupAnswers{Provider: provider, Model: ai.DefaultOllamaModel, Endpoint: ai.DefaultOllamaEndpoint}
	default:
		return SetupAnswers{Provider: ai.ProviderNameOpenAI, Model: ai.DefaultOpenAIModel}
	}
}

// RunInteractiveSetup asks for provider settings and writes them to the
// config file. The API key is not asked for here: it is requested and
// verified on the first run.
func RunInteractiveSetup(cfgMgr ConfigSetter, out io.Writer) error {
	var provider string
	err := huh.NewSelect[string]().
		Title("Select completion provider").
		Options(
			huh.NewOption("OpenAI", ai.ProviderNameOpenAI),
			huh.NewOption("DeepSeek", ai.ProviderNameDeepSeek),
			huh.NewOption("Ollama (Local)", ai.ProviderNameOllama),
		).
		Value(&provider).
		Run()
	if err != nil {
		return mapFormError(err)
	}

	answers := DefaultSetupAnswers(provider)

	fields := []huh.Field{
		huh.NewInput().
			Title("Model Name").
			Value(&answers.Model).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("model name cannot be empty")
				}
				return nil
			}),
	}
	if provider != ai.ProviderNameOpenAI {
		fields = append(fields,
			huh.NewInput().
				Title("API Endpoint").
				Value(&answers.Endpoint),
		)
	}
	fields = append(fields,
		huh.NewConfirm().
			Title("Ask for Conventional Commits by default?").
			Value(&answers.Conventional),
	)

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return mapFormError(err)
	}

	if err := ApplySetup(cfgMgr, answers); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nConfiguration saved to %s\n", cfgMgr.GetConfigPath())
	return nil
}

// ApplySetup writes the answers to the config file.
func ApplySetup(cfgMgr ConfigSetter, answers SetupAnswers) error {
	values := []struct{ key, value string }{
		{"provider.name", answers.Provider},
		{"provider.model", strings.TrimSpace(answers.Model)},
		{"provider.endpoint", strings.TrimSpace(answers.Endpoint)},
		{"commit.conventional", strconv.FormatBool(answers.Conventional)},
	}
	for _, kv := range values {
		if err := cfgMgr.Set(kv.key, kv.value); err != nil {
			return fmt.Errorf("failed to set %s: %w", kv.key, err)
		}
	}

	// Choosing a provider in the wizard counts as seeing the notice.
	if answers.Provider != ai.ProviderNameOllama {
		if m, ok := cfgMgr.(*config.ViperManager); ok {
			_ = m.AcknowledgeSecurityWarning()
		}
	}
	return nil
}
