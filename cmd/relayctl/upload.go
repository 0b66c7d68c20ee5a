package main

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	uploadPrompt   string
	uploadFile     string
	uploadProvider string
)

var visionCmd = &cobra.Command{
	Use:   "vision",
	Short: "Send an image with a prompt",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUpload("/api/vision", "image")
	},
}

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Send a document (PDF or text) with a prompt",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUpload("/api/document", "file")
	},
}

var audioCmd = &cobra.Command{
	Use:   "audio",
	Short: "Send an audio file with a prompt",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUpload("/api/audio", "audio")
	},
}

func runUpload(path, field string) error {
	file, err := os.Open(uploadFile)
	if err != nil {
		return fmt.Errorf("opening %s: %w", uploadFile, err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, filepath.Base(uploadFile))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, file); err != nil {
		return err
	}
	if uploadPrompt != "" {
		_ = writer.WriteField("prompt", uploadPrompt)
	}
	if uploadProvider != "" {
		_ = writer.WriteField("provider", uploadProvider)
	}
	if err := writer.Close(); err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, serverURL(path), &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	body, err := doRequest(req)
	if err != nil {
		return err
	}
	printResult(body)
	return nil
}

func init() {
	for _, cmd := range []*cobra.Command{visionCmd, documentCmd, audioCmd} {
		cmd.Flags().StringVarP(&uploadPrompt, "prompt", "p", "", "Text prompt (server default when empty)")
		cmd.Flags().StringVarP(&uploadFile, "file", "i", "", "Path to the file to upload (required)")
		cmd.Flags().StringVar(&uploadProvider, "provider", "", "Provider ID (server default when empty)")
		cmd.MarkFlagRequired("file")
		rootCmd.AddCommand(cmd)
	}
}
