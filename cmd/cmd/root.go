/*
Copyright © 2025 Your Name

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"livesearch/internal/config"
	"livesearch/internal/llm"
	"livesearch/internal/logger"
	"livesearch/internal/pipeline"
	"livesearch/internal/search"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "livesearch",
	Short: "Livesearch answers questions from live web evidence",
	Long: `Livesearch is a CLI agent that plans a web search for your question,
scrapes and extracts the resulting articles, and synthesizes a cited
outline of what the web currently says. Optionally it can elaborate the
outline into a detailed markdown answer.

Example:
  livesearch ask "ipl 2026 current situation" --location lucknow --lookback 24`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./.livesearch.yaml or $HOME/.livesearch.yaml)")
}

var askCmd = &cobra.Command{
	Use:   "ask [query]",
	Short: "Answer a question from live web search results",
	Long: `Run the full pipeline for a question: plan a search query, collect
and scrape Google results, extract article content, and synthesize a
cited key-findings outline.

Example:
  livesearch ask "latest AI news"
  livesearch ask "ipl current situation" --lookback 24 --elaborate
  livesearch ask "weather updates" --location lucknow`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		query := strings.Join(args, " ")
		location, _ := cmd.Flags().GetString("location")
		lookback, _ := cmd.Flags().GetInt("lookback")
		elaborate, _ := cmd.Flags().GetBool("elaborate")
		maxArticles, _ := cmd.Flags().GetInt("max-articles")
		model, _ := cmd.Flags().GetString("model")

		if err := runAsk(query, location, lookback, maxArticles, model, elaborate); err != nil {
			logger.Error("Failed to answer query", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringP("location", "l", "", "Location context to bias the search (e.g. lucknow)")
	askCmd.Flags().Int("lookback", 0, "Only keep articles published within the last N hours (0 = no limit)")
	askCmd.Flags().Bool("elaborate", false, "Expand the outline into detailed markdown content")
	askCmd.Flags().Int("max-articles", 0, "Override the per-run article cap from configuration")
	askCmd.Flags().String("model", "", "Override the configured completion model")
}

func runAsk(query, location string, lookback, maxArticles int, model string, elaborate bool) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if maxArticles > 0 {
		cfg.Search.MaxArticles = maxArticles
	}
	if model != "" {
		cfg.AI.Model = model
	}
	logger.Init(cfg.App.LogLevel)

	ctx := context.Background()

	var ai *llm.Client
	if cfg.AI.APIKey != "" {
		ai = llm.NewClient(cfg.AI.APIKey, cfg.AI.BaseURL, cfg.AI.Model, cfg.AI.ElaborationModel)
	} else {
		fmt.Println("⚠️  No AI API key configured; skipping query planning and outline synthesis")
	}

	// Phase 1: plan the search.
	searchQuery := query
	if ai != nil {
		planned, cot, err := ai.PlanSearchQuery(ctx, query)
		printSection("📝 Search Plan (Chain of Thought)", cot)
		if err != nil {
			fmt.Printf("⚠️  Could not plan a search query (%s); using the raw query\n", err)
		} else {
			searchQuery = planned
			fmt.Printf("🔍 Suggested base search query: %s\n\n", searchQuery)
		}
	}

	// Phase 2: search, scrape and extract.
	provider := buildProvider(cfg)
	engine := pipeline.NewDefault(cfg, provider)
	result, err := engine.Run(ctx, pipeline.Request{
		Query:         searchQuery,
		Location:      location,
		LookbackHours: lookback,
	})
	if err != nil {
		return fmt.Errorf("search run failed: %w", err)
	}

	fmt.Printf("📰 Retrieved %d articles\n", len(result.Articles))
	for i, a := range result.Articles {
		date := "no date"
		if a.PublishDate != nil {
			date = a.PublishDate.Format("2006-01-02")
		}
		fmt.Printf("  %d. %s (%s, %s, %d chars)\n", i+1, a.Title, a.Domain, date, len(a.Text))
	}
	fmt.Println()

	if ai == nil {
		return nil
	}

	// Phase 3: synthesize the outline.
	outline, cot, err := ai.SynthesizeOutline(ctx, query, result.Articles)
	printSection("💡 Analysis & Outline Generation (Chain of Thought)", cot)
	if err != nil {
		fmt.Printf("⚠️  Could not synthesize an outline: %s\n", err)
		return nil
	}

	fmt.Println("📋 Brief Information Outline")
	fmt.Println("============================")
	fmt.Println(outline)
	fmt.Println()

	// Phase 4: optional elaboration.
	if elaborate {
		content, err := ai.Elaborate(ctx, query, outline)
		if err != nil {
			fmt.Printf("⚠️  Could not elaborate on the outline: %s\n", err)
			return nil
		}
		fmt.Println("🖋️  Elaborated Content")
		fmt.Println("=====================")
		fmt.Println(content)
	}

	return nil
}

// buildProvider wires the Google provider from configuration. Missing
// credentials degrade to no provider; the collector logs and returns
// an empty candidate set.
func buildProvider(cfg *config.Config) search.Provider {
	factory := search.NewProviderFactory()
	provider, err := factory.CreateProvider(search.ProviderTypeGoogle, map[string]string{
		"api_key":   cfg.Search.APIKey,
		"search_id": cfg.Search.SearchID,
	})
	if err != nil {
		fmt.Printf("⚠️  Search provider unavailable: %s\n", err)
		return nil
	}
	return provider
}

func printSection(title, body string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	fmt.Println(title)
	fmt.Println(strings.Repeat("=", len([]rune(title))))
	fmt.Println(body)
	fmt.Println()
}
