package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"

	"github.com/ziadkadry99/manualview/internal/assets"
)

// RunWizard runs an interactive configuration wizard, saves the result to
// path and returns it.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to manualview! Let's configure your manual library.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select LLM provider for questions",
		Items: []string{"google", "openai", "ollama", "none"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	provider := ProviderType(providerStr)
	if providerStr == "none" {
		provider = ProviderNone
	}
	cfg.LLM.Provider = provider

	if provider != ProviderNone {
		modelPrompt := promptui.Prompt{
			Label:   "Model",
			Default: GetPreset(provider).Model,
		}
		if cfg.LLM.Model, err = modelPrompt.Run(); err != nil {
			return nil, fmt.Errorf("model: %w", err)
		}
	} else {
		cfg.LLM.Model = ""
	}

	// 2. Storage and assets.
	dbPrompt := promptui.Prompt{Label: "Database path", Default: cfg.DBPath}
	if cfg.DBPath, err = dbPrompt.Run(); err != nil {
		return nil, fmt.Errorf("database path: %w", err)
	}
	imagePrompt := promptui.Prompt{Label: "Step image directory", Default: cfg.Assets.ImageDir}
	if cfg.Assets.ImageDir, err = imagePrompt.Run(); err != nil {
		return nil, fmt.Errorf("image directory: %w", err)
	}
	audioPrompt := promptui.Prompt{Label: "Narration audio directory", Default: cfg.Assets.AudioDir}
	if cfg.Assets.AudioDir, err = audioPrompt.Run(); err != nil {
		return nil, fmt.Errorf("audio directory: %w", err)
	}

	namingPrompt := promptui.Select{
		Label: "Step asset naming",
		Items: []string{
			"id       (assets named after each step id)",
			"template (assets named {tab}_step_NN)",
		},
	}
	namingIdx, _, err := namingPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("naming selection: %w", err)
	}
	cfg.Assets.Naming = string([]assets.Naming{assets.NamingByID, assets.NamingByTemplate}[namingIdx])

	// 3. Import patterns.
	includePrompt := promptui.Prompt{
		Label:   "Converted manual patterns (comma-separated globs)",
		Default: strings.Join(DefaultInclude, ","),
	}
	includeStr, err := includePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("include patterns: %w", err)
	}
	if include := splitAndTrim(includeStr); len(include) > 0 {
		cfg.Import.Include = include
	}

	if envVar := APIKeyEnvVar(provider); envVar != "" && os.Getenv(envVar) == "" {
		fmt.Printf("\nNote: Set %s in your environment before asking questions.\n", envVar)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}
