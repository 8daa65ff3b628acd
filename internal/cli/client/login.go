package client

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func LoginCmd() *cobra.Command {
	var token string
	var apiURL string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Save API credentials",
		Long:  "Stores the access token and API URL in the global config and verifies them against the server.",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runLogin(token, apiURL, outputJSON)
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Access token")
	cmd.Flags().StringVar(&apiURL, "api-url", "", "API base URL (default: http://localhost:8080)")

	return cmd
}

func runLogin(token, apiURL string, outputJSON bool) error {
	if token == "" {
		token = os.Getenv(envToken)
	}
	if token == "" {
		fmt.Print("Enter access token: ")
		reader := bufio.NewReader(os.Stdin)
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read token: %w", err)
		}
		token = strings.TrimSpace(input)
		if token == "" {
			return fmt.Errorf("token is required")
		}
	}

	if apiURL == "" {
		apiURL = os.Getenv(envAPIURL)
	}
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	api, err := NewAPIClientWithConfig(token, apiURL)
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}

	resp, err := api.Get("/users/me")
	if err != nil {
		return fmt.Errorf("failed to verify credentials: %w", err)
	}

	var user struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
		Tier  string `json:"tier"`
	}
	if err := json.Unmarshal(resp.Data, &user); err != nil {
		return fmt.Errorf("failed to parse user response: %w", err)
	}

	if err := SaveGlobalConfig(&GlobalConfig{Token: token, APIURL: apiURL}); err != nil {
		return err
	}

	if outputJSON {
		result := map[string]interface{}{
			"success": true,
			"user_id": user.ID,
			"email":   user.Email,
			"tier":    user.Tier,
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
	} else {
		fmt.Printf("Logged in as %s (%s, %s tier)\n", user.Email, user.ID, user.Tier)
	}

	return nil
}

func LogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove saved credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := DeleteGlobalConfig(); err != nil {
				return err
			}
			fmt.Println("Logged out")
			return nil
		},
	}
}

func WhoamiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the current account and quota usage",
		RunE:  runWhoami,
	}

	return cmd
}

func runWhoami(cmd *cobra.Command, args []string) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get("/users/me/usage")
	if err != nil {
		return err
	}

	var usage struct {
		Tier               string `json:"tier"`
		Files              int    `json:"files"`
		FileLimit          int    `json:"file_limit"`
		Domains            int    `json:"domains"`
		DomainLimit        int    `json:"domain_limit"`
		QuestionsUsed      int    `json:"questions_used"`
		RemainingQuestions int    `json:"remaining_questions"`
	}
	if err := json.Unmarshal(resp.Data, &usage); err != nil {
		return fmt.Errorf("failed to parse usage response: %w", err)
	}

	outputJSON, _ := cmd.Flags().GetBool("output")
	if outputJSON {
		data, _ := json.MarshalIndent(usage, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("Tier:      %s\n", usage.Tier)
	fmt.Printf("Files:     %d/%d\n", usage.Files, usage.FileLimit)
	fmt.Printf("Domains:   %d/%d\n", usage.Domains, usage.DomainLimit)
	if usage.RemainingQuestions < 0 {
		fmt.Printf("Questions: %d used (unlimited)\n", usage.QuestionsUsed)
	} else {
		fmt.Printf("Questions: %d used, %d remaining in the last 24h\n", usage.QuestionsUsed, usage.RemainingQuestions)
	}
	return nil
}
