package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	genPrompt    string
	genSystem    string
	genProvider  string
	genMaxTokens int
)

var generateCmd = &cobra.Command{
	Use:     "generate",
	Aliases: []string{"gen", "ask"},
	Short:   "Send a text prompt and print the model's response",
	RunE: func(cmd *cobra.Command, args []string) error {
		if genPrompt == "" {
			return fmt.Errorf("prompt cannot be empty")
		}
		body, err := postJSON("/api/generate", map[string]any{
			"prompt":     genPrompt,
			"system":     genSystem,
			"provider":   genProvider,
			"max_tokens": genMaxTokens,
		})
		if err != nil {
			return err
		}
		printResult(body)
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVarP(&genPrompt, "prompt", "p", "", "Text prompt (required)")
	generateCmd.Flags().StringVar(&genSystem, "system", "", "System prompt override")
	generateCmd.Flags().StringVar(&genProvider, "provider", "", "Provider ID (server default when empty)")
	generateCmd.Flags().IntVar(&genMaxTokens, "max-tokens", 0, "Output token cap (0 = provider default)")
	generateCmd.MarkFlagRequired("prompt")
	rootCmd.AddCommand(generateCmd)
}
