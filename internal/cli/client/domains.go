package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

type domainItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Default  bool   `json:"default"`
	Selected bool   `json:"selected"`
	Files    []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"files"`
}

func DomainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "domain",
		Short: "Manage document domains",
		Long:  "Create, list, rename, delete, and select domains",
	}

	cmd.AddCommand(domainListCmd())
	cmd.AddCommand(domainCreateCmd())
	cmd.AddCommand(domainRenameCmd())
	cmd.AddCommand(domainDeleteCmd())
	cmd.AddCommand(domainSelectCmd())
	cmd.AddCommand(domainRemoveFileCmd())

	return cmd
}

func domainListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List domains with their files",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			resp, err := api.Get("/domains/")
			if err != nil {
				return err
			}

			var domains []domainItem
			if err := json.Unmarshal(resp.Data, &domains); err != nil {
				return fmt.Errorf("failed to parse domains response: %w", err)
			}

			outputJSON, _ := cmd.Flags().GetBool("output")
			if outputJSON {
				data, _ := json.MarshalIndent(domains, "", "  ")
				fmt.Println(string(data))
				return nil
			}

			for _, d := range domains {
				marker := " "
				if d.Selected {
					marker = "*"
				}
				suffix := ""
				if d.Default {
					suffix = " (default)"
				}
				fmt.Printf("%s %s  %s%s  [%d files]\n", marker, d.ID, d.Name, suffix, len(d.Files))
				for _, f := range d.Files {
					fmt.Printf("    %s  %s\n", f.ID, f.Name)
				}
			}
			return nil
		},
	}
}

func domainCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new domain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			resp, err := api.Post("/domains/", map[string]string{"name": args[0]})
			if err != nil {
				return err
			}

			var d domainItem
			if err := json.Unmarshal(resp.Data, &d); err != nil {
				return fmt.Errorf("failed to parse domain response: %w", err)
			}

			fmt.Printf("Domain created: %s (%s)\n", d.Name, d.ID)
			return nil
		},
	}
}

func domainRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a domain",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			if _, err := api.Put("/domains/"+args[0], map[string]string{"name": args[1]}); err != nil {
				return err
			}

			fmt.Printf("Domain %s renamed to %s\n", args[0], args[1])
			return nil
		},
	}
}

func domainDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a domain and all of its files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			if _, err := api.Delete("/domains/" + args[0]); err != nil {
				return err
			}

			fmt.Printf("Domain %s deleted\n", args[0])
			return nil
		},
	}
}

func domainSelectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select <id>",
		Short: "Select the active domain for questions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			resp, err := api.Post("/domains/"+args[0]+"/select", nil)
			if err != nil {
				return err
			}

			var result struct {
				DomainID   string   `json:"domain_id"`
				DomainName string   `json:"domain_name"`
				Empty      bool     `json:"empty"`
				FileNames  []string `json:"file_names"`
			}
			if err := json.Unmarshal(resp.Data, &result); err != nil {
				return fmt.Errorf("failed to parse selection response: %w", err)
			}

			if result.Empty {
				fmt.Printf("Selected domain %s (empty: upload files before asking questions)\n", result.DomainName)
				return nil
			}
			fmt.Printf("Selected domain %s with %d files\n", result.DomainName, len(result.FileNames))
			return nil
		},
	}
}

func domainRemoveFileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-file <domain-id> <file-id>",
		Short: "Remove a file from a domain",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			if _, err := api.Delete("/domains/" + args[0] + "/files/" + args[1]); err != nil {
				return err
			}

			fmt.Printf("File %s removed\n", args[1])
			return nil
		},
	}
}
