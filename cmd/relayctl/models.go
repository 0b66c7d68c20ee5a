package main

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

var modelsProvider string

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models available from a provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "/api/models"
		if modelsProvider != "" {
			path += "?provider=" + url.QueryEscape(modelsProvider)
		}
		req, err := http.NewRequest(http.MethodGet, serverURL(path), nil)
		if err != nil {
			return err
		}
		body, err := doRequest(req)
		if err != nil {
			return err
		}
		if jsonOutput {
			fmt.Println(string(body))
			return nil
		}
		for _, m := range gjson.GetBytes(body, "models").Array() {
			id := m.Get("id").String()
			name := m.Get("display_name").String()
			if name != "" {
				fmt.Printf("%-40s %s\n", id, name)
			} else {
				fmt.Println(id)
			}
		}
		return nil
	},
}

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List configured providers and their capabilities",
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := http.NewRequest(http.MethodGet, serverURL("/api/providers"), nil)
		if err != nil {
			return err
		}
		body, err := doRequest(req)
		if err != nil {
			return err
		}
		if jsonOutput {
			fmt.Println(string(body))
			return nil
		}
		for _, p := range gjson.GetBytes(body, "providers").Array() {
			marker := " "
			if p.Get("default").Bool() {
				marker = "*"
			}
			fmt.Printf("%s %-24s model=%-28s supports=%s\n",
				marker, p.Get("id").String(), p.Get("model").String(), p.Get("supports").Raw)
		}
		return nil
	},
}

func init() {
	modelsCmd.Flags().StringVar(&modelsProvider, "provider", "", "Provider ID (server default when empty)")
	rootCmd.AddCommand(modelsCmd, providersCmd)
}
