package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

type researchBody struct {
	Question   string   `json:"question"`
	Context    string   `json:"context,omitempty"`
	QueryType  string   `json:"query_type,omitempty"`
	Priority   string   `json:"priority,omitempty"`
	MaxSources int      `json:"max_sources,omitempty"`
	Keywords   []string `json:"keywords,omitempty"`
	Format     string   `json:"format,omitempty"`
}

func researchBodyFromFlags(cmd *cobra.Command, args []string) researchBody {
	contextStr, _ := cmd.Flags().GetString("context")
	queryType, _ := cmd.Flags().GetString("type")
	priority, _ := cmd.Flags().GetString("priority")
	maxSources, _ := cmd.Flags().GetInt("max-sources")
	keywordsStr, _ := cmd.Flags().GetString("keywords")

	var keywords []string
	if keywordsStr != "" {
		for _, kw := range strings.Split(keywordsStr, ",") {
			if kw = strings.TrimSpace(kw); kw != "" {
				keywords = append(keywords, kw)
			}
		}
	}

	return researchBody{
		Question:   strings.Join(args, " "),
		Context:    contextStr,
		QueryType:  queryType,
		Priority:   priority,
		MaxSources: maxSources,
		Keywords:   keywords,
	}
}

// --- research ---

var researchCmd = &cobra.Command{
	Use:   "research <question>",
	Short: "Run a research query and print the findings",
	Long: `Run a research query and print the findings.

Examples:
  scoutctl research "What are the best practices for Go error handling?"
  scoutctl research --type comparative --max-sources 10 "PostgreSQL vs SQLite for embedded use"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body := researchBodyFromFlags(cmd, args)

		resp, err := newAPIClient().post("/v1/research", body)
		if err != nil {
			return err
		}

		var result struct {
			QueryID     string   `json:"query_id"`
			Status      string   `json:"status"`
			Synthesis   string   `json:"synthesis"`
			KeyFindings []string `json:"key_findings"`
			Sources     []struct {
				Title       string `json:"title"`
				URL         string `json:"url"`
				Credibility string `json:"credibility"`
			} `json:"sources"`
			ConfidenceScore  float64 `json:"confidence_score"`
			ProcessingTimeMs int64   `json:"processing_time_ms"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Research %s completed in %dms", result.QueryID, result.ProcessingTimeMs)
		printStatus("Confidence", "%.2f", result.ConfidenceScore)

		if result.Synthesis != "" {
			fmt.Printf("\n%s\n%s\n", colorize(colorBold, "Synthesis"), result.Synthesis)
		}
		if len(result.KeyFindings) > 0 {
			fmt.Printf("\n%s\n", colorize(colorBold, "Key Findings"))
			for _, f := range result.KeyFindings {
				fmt.Printf("  • %s\n", f)
			}
		}
		if len(result.Sources) > 0 {
			fmt.Printf("\n%s\n", colorize(colorBold, "Sources"))
			for _, s := range result.Sources {
				fmt.Printf("  [%s] %s\n      %s\n", s.Credibility, s.Title, s.URL)
			}
		}
		return nil
	},
}

func init() {
	researchCmd.Flags().String("context", "", "additional context for the question")
	researchCmd.Flags().String("type", "", "query type (technical, comparative, exploratory, deep_dive)")
	researchCmd.Flags().String("priority", "", "query priority (low, medium, high, critical)")
	researchCmd.Flags().Int("max-sources", 0, "maximum number of sources to consult")
	researchCmd.Flags().String("keywords", "", "comma-separated focus keywords")
}

// --- report ---

var reportCmd = &cobra.Command{
	Use:   "report <question>",
	Short: "Run a research query and print a structured report",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")

		body := researchBodyFromFlags(cmd, args)
		body.Format = format

		resp, err := newAPIClient().post("/v1/research/report", body)
		if err != nil {
			return err
		}

		var report struct {
			Title            string `json:"title"`
			ExecutiveSummary string `json:"executive_summary"`
			Sections         []struct {
				Title   string   `json:"title"`
				Content string   `json:"content"`
				Sources []string `json:"sources"`
			} `json:"sections"`
			Recommendations []string `json:"recommendations"`
			ConfidenceLevel string   `json:"confidence_level"`
			Markdown        string   `json:"markdown"`
		}
		if err := decodeJSON(resp, &report); err != nil {
			return err
		}

		if format == "markdown" {
			fmt.Print(report.Markdown)
			return nil
		}

		fmt.Printf("%s\n\n%s\n", colorize(colorBold, report.Title), report.ExecutiveSummary)
		for _, s := range report.Sections {
			fmt.Printf("\n%s\n%s\n", colorize(colorBold, s.Title), s.Content)
		}
		if len(report.Recommendations) > 0 {
			fmt.Printf("\n%s\n", colorize(colorBold, "Recommendations"))
			for i, rec := range report.Recommendations {
				fmt.Printf("  %d. %s\n", i+1, rec)
			}
		}
		fmt.Printf("\nConfidence Level: %s\n", report.ConfidenceLevel)
		return nil
	},
}

func init() {
	reportCmd.Flags().String("context", "", "additional context for the question")
	reportCmd.Flags().String("type", "", "query type (technical, comparative, exploratory, deep_dive)")
	reportCmd.Flags().String("priority", "", "query priority (low, medium, high, critical)")
	reportCmd.Flags().Int("max-sources", 0, "maximum number of sources to consult")
	reportCmd.Flags().String("keywords", "", "comma-separated focus keywords")
	reportCmd.Flags().String("format", "json", "report format (json or markdown)")
}

// --- memory ---

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Inspect or clear the research memory",
}

var memoryShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show stored research interactions",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		resp, err := newAPIClient().get("/v1/memory")
		if err != nil {
			return err
		}

		var state struct {
			TotalEntries int    `json:"total_entries"`
			MaxEntries   int    `json:"max_entries"`
			OldestEntry  string `json:"oldest_entry"`
			NewestEntry  string `json:"newest_entry"`
			Entries      []struct {
				ID        int64  `json:"id"`
				Query     string `json:"query"`
				Timestamp string `json:"timestamp"`
			} `json:"entries"`
		}
		if err := decodeJSON(resp, &state); err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(state)
		}

		printStatus("Entries", "%d of %d", state.TotalEntries, state.MaxEntries)
		if state.OldestEntry != "" {
			printStatus("Oldest", "%s", state.OldestEntry)
			printStatus("Newest", "%s", state.NewestEntry)
		}
		for _, e := range state.Entries {
			query := e.Query
			if len(query) > 80 {
				query = query[:80] + "..."
			}
			fmt.Printf("  %d  %s  %s\n", e.ID, e.Timestamp, query)
		}
		return nil
	},
}

var memoryClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all stored research interactions",
	RunE: func(cmd *cobra.Command, args []string) error {
		confirm, _ := cmd.Flags().GetBool("confirm")
		if !confirm {
			return fmt.Errorf("this deletes all stored interactions; re-run with --confirm")
		}

		resp, err := newAPIClient().delete("/v1/memory")
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			return fmt.Errorf("server returned %d", resp.StatusCode)
		}

		printSuccess("Memory cleared")
		return nil
	},
}

func init() {
	memoryShowCmd.Flags().Bool("json", false, "print raw JSON")
	memoryClearCmd.Flags().Bool("confirm", false, "confirm deletion")
	memoryCmd.AddCommand(memoryShowCmd)
	memoryCmd.AddCommand(memoryClearCmd)
}

// --- status ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show scout system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := newAPIClient().get("/v1/status")
		if err != nil {
			return err
		}

		var status struct {
			Status     string `json:"status"`
			Components struct {
				Agent struct {
					Tools  []string `json:"tools"`
					Status string   `json:"status"`
				} `json:"agent"`
				LLM struct {
					Healthy bool `json:"healthy"`
				} `json:"llm"`
				Memory struct {
					TotalEntries int `json:"totalEntries"`
					MaxEntries   int `json:"maxEntries"`
				} `json:"memory"`
			} `json:"components"`
		}
		if err := decodeJSON(resp, &status); err != nil {
			return err
		}

		if status.Status == "healthy" {
			printSuccess("scout is %s", status.Status)
		} else {
			printError("scout is %s", status.Status)
		}
		printStatus("Agent", "%s (%s)", status.Components.Agent.Status, strings.Join(status.Components.Agent.Tools, ", "))
		printStatus("LLM", "healthy=%t", status.Components.LLM.Healthy)
		printStatus("Memory", "%d of %d entries", status.Components.Memory.TotalEntries, status.Components.Memory.MaxEntries)
		return nil
	},
}
