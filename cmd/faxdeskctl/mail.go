package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	var to, subject, body string
	sendCmd := &cobra.Command{
		Use:   "send-mail",
		Short: "Send an email via the service",
		RunE: func(cmd *cobra.Command, args []string) error {
			if to == "" || subject == "" {
				return fmt.Errorf("--to and --subject required")
			}
			payload := map[string]string{"to": to, "subject": subject, "body": body}
			return printResponse(client().R().SetBody(payload).Post("/emails/send"))
		},
	}
	sendCmd.Flags().StringVar(&to, "to", "", "Recipient address (required)")
	sendCmd.Flags().StringVar(&subject, "subject", "", "Subject (required)")
	sendCmd.Flags().StringVar(&body, "body", "", "Plain-text body")
	_ = sendCmd.MarkFlagRequired("to")
	_ = sendCmd.MarkFlagRequired("subject")
	rootCmd.AddCommand(sendCmd)

	var fileName string
	uploadCmd := &cobra.Command{
		Use:   "presign-upload",
		Short: "Request a presigned FAX upload URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			if fileName == "" {
				return fmt.Errorf("--file-name required")
			}
			payload := map[string]string{"fileName": fileName}
			return printResponse(client().R().SetBody(payload).Post("/uploads/presigned-url"))
		},
	}
	uploadCmd.Flags().StringVarP(&fileName, "file-name", "f", "", "Bare file name to upload (required)")
	_ = uploadCmd.MarkFlagRequired("file-name")
	rootCmd.AddCommand(uploadCmd)
}
