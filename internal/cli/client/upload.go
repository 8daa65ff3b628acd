package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

type stagedItem struct {
	FileName      string `json:"file_name"`
	SentenceCount int    `json:"sentence_count"`
	StagedAt      string `json:"staged_at"`
}

func UploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Stage and commit document uploads",
		Long:  "Stage files or URLs for processing, then commit them into a domain",
	}

	cmd.AddCommand(uploadFileCmd())
	cmd.AddCommand(uploadURLCmd())
	cmd.AddCommand(uploadListCmd())
	cmd.AddCommand(uploadDiscardCmd())
	cmd.AddCommand(uploadCommitCmd())

	return cmd
}

func uploadFileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "file <path>...",
		Short: "Stage local files for commit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			for _, path := range args {
				resp, err := api.UploadFile("/uploads/", path)
				if err != nil {
					return fmt.Errorf("staging %s: %w", path, err)
				}

				var staged stagedItem
				if err := json.Unmarshal(resp.Data, &staged); err != nil {
					return fmt.Errorf("failed to parse staging response: %w", err)
				}
				fmt.Printf("Staged %s (%d sentences)\n", staged.FileName, staged.SentenceCount)
			}
			return nil
		},
	}
}

func uploadURLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "url <url>",
		Short: "Stage the content behind a URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			resp, err := api.Post("/uploads/url", map[string]string{"url": args[0]})
			if err != nil {
				return err
			}

			var staged stagedItem
			if err := json.Unmarshal(resp.Data, &staged); err != nil {
				return fmt.Errorf("failed to parse staging response: %w", err)
			}
			fmt.Printf("Staged %s (%d sentences)\n", staged.FileName, staged.SentenceCount)
			return nil
		},
	}
}

func uploadListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List staged uploads awaiting commit",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			resp, err := api.Get("/uploads/")
			if err != nil {
				return err
			}

			var staged []stagedItem
			if err := json.Unmarshal(resp.Data, &staged); err != nil {
				return fmt.Errorf("failed to parse staging response: %w", err)
			}

			if len(staged) == 0 {
				fmt.Println("No staged uploads")
				return nil
			}
			for _, s := range staged {
				fmt.Printf("%s  %d sentences  staged %s\n", s.FileName, s.SentenceCount, s.StagedAt)
			}
			return nil
		},
	}
}

func uploadDiscardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "discard <file-name>...",
		Short: "Discard staged uploads without committing",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			if _, err := api.Post("/uploads/discard", map[string][]string{"file_names": args}); err != nil {
				return err
			}

			fmt.Printf("Discarded %d staged uploads\n", len(args))
			return nil
		},
	}
}

func uploadCommitCmd() *cobra.Command {
	var domainID string

	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Commit all staged uploads into a domain",
		RunE: func(cmd *cobra.Command, args []string) error {
			if domainID == "" {
				return fmt.Errorf("--domain is required")
			}

			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			resp, err := api.Post("/uploads/commit", map[string]string{"domain_id": domainID})
			if err != nil {
				return err
			}

			var result struct {
				DomainID  string   `json:"domain_id"`
				FileNames []string `json:"file_names"`
			}
			if err := json.Unmarshal(resp.Data, &result); err != nil {
				return fmt.Errorf("failed to parse commit response: %w", err)
			}

			fmt.Printf("Committed %d files into domain %s\n", len(result.FileNames), result.DomainID)
			return nil
		},
	}

	cmd.Flags().StringVar(&domainID, "domain", "", "Target domain ID")

	return cmd
}
