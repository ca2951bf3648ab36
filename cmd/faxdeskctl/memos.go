package main

import (
	"github.com/spf13/cobra"
)

func init() {
	memosCmd := &cobra.Command{Use: "memos", Short: "Memo operations"}

	listCmd := &cobra.Command{
		Use:   "list DOCUMENT_ID",
		Short: "List a document's memos",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printResponse(client().R().Get("/documents/" + args[0] + "/memos"))
		},
	}
	memosCmd.AddCommand(listCmd)

	var page int
	addCmd := &cobra.Command{
		Use:   "add DOCUMENT_ID TEXT",
		Short: "Add a memo",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]interface{}{"text": args[1]}
			if cmd.Flags().Changed("page") {
				payload["page"] = page
			}
			return printResponse(client().R().SetBody(payload).Post("/documents/" + args[0] + "/memos"))
		},
	}
	addCmd.Flags().IntVarP(&page, "page", "p", 0, "Page the memo refers to")
	memosCmd.AddCommand(addCmd)

	var updatePage int
	updateCmd := &cobra.Command{
		Use:   "update DOCUMENT_ID MEMO_ID TEXT",
		Short: "Rewrite a memo in place",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]interface{}{"text": args[2]}
			if cmd.Flags().Changed("page") {
				payload["page"] = updatePage
			}
			return printResponse(client().R().SetBody(payload).Put("/documents/" + args[0] + "/memos/" + args[1]))
		},
	}
	updateCmd.Flags().IntVarP(&updatePage, "page", "p", 0, "Page the memo refers to")
	memosCmd.AddCommand(updateCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete DOCUMENT_ID MEMO_ID",
		Short: "Delete a memo",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printResponse(client().R().Delete("/documents/" + args[0] + "/memos/" + args[1]))
		},
	}
	memosCmd.AddCommand(deleteCmd)

	rootCmd.AddCommand(memosCmd)
}
