// crmctl is a small operator CLI for the automation service: it can invoke
// the scheduler endpoint with the shared secret and check service health.
package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	secret  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "crmctl",
		Short: "Operator CLI for the CRM automation service",
	}
	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the service")

	triggerCmd := &cobra.Command{
		Use:   "trigger",
		Short: "Run a daily-trigger scheduler pass",
		RunE:  runTrigger,
	}
	triggerCmd.Flags().StringVar(&secret, "secret", os.Getenv("CRON_SECRET"), "Cron shared secret (defaults to CRON_SECRET)")

	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Check service health",
		RunE:  runHealth,
	}

	rootCmd.AddCommand(triggerCmd, healthCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runTrigger(cmd *cobra.Command, args []string) error {
	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/cron/daily-triggers", nil)
	if err != nil {
		return err
	}
	if secret != "" {
		req.Header.Set("Authorization", "Bearer "+secret)
	}

	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	fmt.Println(string(body))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("scheduler endpoint returned %s", resp.Status)
	}
	return nil
}

func runHealth(cmd *cobra.Command, args []string) error {
	resp, err := http.Get(baseURL + "/healthz")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	fmt.Println(string(body))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health endpoint returned %s", resp.Status)
	}
	return nil
}
