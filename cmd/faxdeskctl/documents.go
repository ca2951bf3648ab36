package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	docsCmd := &cobra.Command{Use: "documents", Short: "Document operations", Aliases: []string{"docs"}}

	// list
	var typeFlag, tagFlag, folderFlag, categoryFlag string
	var sortFlag bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := client().R()
			if typeFlag != "" {
				req.SetQueryParam("type", typeFlag)
			}
			if tagFlag != "" {
				req.SetQueryParam("tag", tagFlag)
			}
			if folderFlag != "" {
				req.SetQueryParam("folder", folderFlag)
			}
			if categoryFlag != "" {
				req.SetQueryParam("category", categoryFlag)
			}
			if sortFlag {
				req.SetQueryParam("sort", "receivedAt")
			}
			return printResponse(req.Get("/documents"))
		},
	}
	listCmd.Flags().StringVarP(&typeFlag, "type", "t", "", "Filter by type (fax|email)")
	listCmd.Flags().StringVar(&tagFlag, "tag", "", "Filter by tag")
	listCmd.Flags().StringVar(&folderFlag, "folder", "", "Filter by folder")
	listCmd.Flags().StringVar(&categoryFlag, "category", "", "Filter by category")
	listCmd.Flags().BoolVar(&sortFlag, "sort-received", false, "Sort by receivedAt descending")
	docsCmd.AddCommand(listCmd)

	// show
	showCmd := &cobra.Command{
		Use:   "show DOCUMENT_ID",
		Short: "Show one document with its download URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printResponse(client().R().Get("/documents/" + args[0]))
		},
	}
	docsCmd.AddCommand(showCmd)

	// patch
	var tags []string
	var folder, category string
	patchCmd := &cobra.Command{
		Use:   "patch DOCUMENT_ID",
		Short: "Update tags, folder or category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]interface{}{}
			if cmd.Flags().Changed("tags") {
				payload["tags"] = tags
			}
			if cmd.Flags().Changed("folder") {
				payload["folder"] = folder
			}
			if cmd.Flags().Changed("category") {
				payload["category"] = category
			}
			if len(payload) == 0 {
				return fmt.Errorf("at least one of --tags, --folder, --category required")
			}
			return printResponse(client().R().SetBody(payload).Patch("/documents/" + args[0] + "/tags"))
		},
	}
	patchCmd.Flags().StringSliceVar(&tags, "tags", nil, "Replace tags")
	patchCmd.Flags().StringVar(&folder, "folder", "", "Set folder")
	patchCmd.Flags().StringVar(&category, "category", "", "Set category")
	docsCmd.AddCommand(patchCmd)

	// classify
	classifyCmd := &cobra.Command{
		Use:   "classify DOCUMENT_ID",
		Short: "Classify a document and print the updated record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printResponse(client().R().Post("/documents/" + args[0] + "/classify"))
		},
	}
	docsCmd.AddCommand(classifyCmd)

	rootCmd.AddCommand(docsCmd)
}
