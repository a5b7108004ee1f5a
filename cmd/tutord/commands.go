package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/learnzverse/tutord/internal/config"
)

// --- ask ---

// chatResult mirrors the POST /chat response envelope.
type chatResult struct {
	Response string `json:"response"`
	Status   string `json:"status"`
	Model    string `json:"model,omitempty"`
	Error    string `json:"error,omitempty"`
}

var askCmd = &cobra.Command{
	Use:   "ask <tutor> <message>",
	Short: "Ask a tutor a question through the running server",
	Long: `Ask a tutor a question through the running server.

Examples:
  tutord ask physics "What is inertia?"
  tutord ask math "Differentiate x^2"`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		tutorID := args[0]
		message := strings.Join(args[1:], " ")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		result, err := askTutor(cmd.Context(), client, tutorID, message)
		if err != nil {
			return err
		}

		if result.Status != "success" {
			printError("%s", result.Response)
			if result.Error != "" {
				printStatus("Detail", "%s", result.Error)
			}
			return fmt.Errorf("chat failed")
		}

		fmt.Println(result.Response)
		printStatus("Model", "%s", result.Model)
		return nil
	},
}

func askTutor(ctx context.Context, client *apiClient, tutorID, message string) (chatResult, error) {
	resp, err := client.post(ctx, "/chat", map[string]any{
		"tutor":   tutorID,
		"message": message,
	})
	if err != nil {
		return chatResult{}, err
	}
	defer resp.Body.Close()

	// The chat endpoint returns a JSON envelope on every status code.
	var result chatResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return chatResult{}, fmt.Errorf("decoding response (HTTP %d): %w", resp.StatusCode, err)
	}
	return result, nil
}

// --- tutors ---

var tutorsCmd = &cobra.Command{
	Use:   "tutors",
	Short: "List the available tutor personas",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/tutors")
		if err != nil {
			return err
		}

		var result struct {
			Tutors []struct {
				ID      string `json:"id"`
				Name    string `json:"name"`
				Subject string `json:"subject"`
			} `json:"tutors"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		for _, t := range result.Tutors {
			printStatus(t.ID, "%s — %s", t.Name, t.Subject)
		}
		return nil
	},
}

// --- models ---

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models available on the upstream service",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/models")
		if err != nil {
			return err
		}

		var result struct {
			Data []struct {
				ID string `json:"id"`
			} `json:"data"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		for _, m := range result.Data {
			fmt.Println(m.ID)
		}
		return nil
	},
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage tutord configuration",
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show all config keys and their current values",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			// Listing should work even without an API key set.
			cfg = config.Config{}
			printWarning("%v", err)
		}

		for _, k := range config.ShowAll(cfg) {
			printStatus(k.Key, "%s  (env %s)", k.Value, k.EnvVar)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Persist a config key to the config file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if err := config.SetKey(key, value); err != nil {
			return fmt.Errorf("%w (valid keys: %s)", err, strings.Join(config.ValidKeys(), ", "))
		}
		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configSetCmd)
}
