package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func AskCmd() *cobra.Command {
	var fileIDs []string
	var sessionID string

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question against the selected domain",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(fileIDs) == 0 {
				return fmt.Errorf("--file is required (repeat for multiple files)")
			}

			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			if sessionID != "" {
				api.WithSession(sessionID)
			}

			question := strings.Join(args, " ")
			resp, err := api.Post("/ask", map[string]interface{}{
				"question": question,
				"file_ids": fileIDs,
			})
			if err != nil {
				return err
			}

			var result struct {
				Answer             string   `json:"answer"`
				Resources          []string `json:"resources"`
				RemainingQuestions int      `json:"remaining_questions"`
			}
			if err := json.Unmarshal(resp.Data, &result); err != nil {
				return fmt.Errorf("failed to parse answer response: %w", err)
			}

			outputJSON, _ := cmd.Flags().GetBool("output")
			if outputJSON {
				fmt.Println(string(resp.Data))
				return nil
			}

			fmt.Println(result.Answer)
			if len(result.Resources) > 0 {
				fmt.Printf("\nSources: %s\n", strings.Join(result.Resources, ", "))
			}
			if result.RemainingQuestions >= 0 {
				fmt.Printf("Questions remaining today: %d\n", result.RemainingQuestions)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&fileIDs, "file", nil, "File ID to search (repeatable)")
	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID for quota accounting")

	return cmd
}
