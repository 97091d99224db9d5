// Copyright (C) 2025 Phoenix Labs (dev@phoenixlabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/phoenixlabs/PhoenixSprint/services/sprint/datatypes"
)

var (
	rootCmd = &cobra.Command{
		Use:   "phoenix",
		Short: "A CLI for the Phoenix decision-sprint service",
		Long: `Phoenix turns a free-text decision problem into a curated,
phase-ordered set of thinking tools plus a structured brief.`,
	}

	sprintCmd = &cobra.Command{
		Use:   "sprint [problem description]",
		Short: "Run a decision sprint for a problem description",
		Long:  `Sends the problem to the sprint service, which classifies it, retrieves and curates thinking tools, and optionally generates the full guide.`,
		Args:  cobra.MinimumNArgs(1),
		Run:   runSprintCommand,
	}
	generateFlag bool
	temperature  float32

	knowledgeCmd = &cobra.Command{
		Use:   "knowledge",
		Short: "Manage the thinking-tool knowledge base",
	}
	knowledgeLoadCmd = &cobra.Command{
		Use:   "load [file or directory path]",
		Short: "Load knowledge JSON files into the vector store",
		Long:  `Reads knowledge JSON files (one record or an array per file) and sends them to the sprint service for embedding and storage.`,
		Args:  cobra.ExactArgs(1),
		Run:   runKnowledgeLoadCommand,
	}
	knowledgeSummaryCmd = &cobra.Command{
		Use:   "summary",
		Short: "Show knowledge-base counts by tool type",
		Run:   runKnowledgeSummaryCommand,
	}
	knowledgeClearCmd = &cobra.Command{
		Use:   "clear",
		Short: "DANGER: delete all knowledge records",
		Run:   runKnowledgeClearCommand,
	}

	healthCmd = &cobra.Command{
		Use:   "health",
		Short: "Check that the sprint service is reachable",
		Run:   runHealthCommand,
	}
)

func init() {
	sprintCmd.Flags().BoolVarP(&generateFlag, "generate", "g", false, "run the downstream generation call")
	sprintCmd.Flags().Float32VarP(&temperature, "temperature", "t", 0, "generation temperature override")

	knowledgeCmd.AddCommand(knowledgeLoadCmd, knowledgeSummaryCmd, knowledgeClearCmd)
	rootCmd.AddCommand(sprintCmd, knowledgeCmd, healthCmd)
}

func serverURL() string {
	if url := strings.TrimSpace(os.Getenv("PHOENIX_SERVER_URL")); url != "" {
		return strings.TrimSuffix(url, "/")
	}
	return "http://localhost:12310"
}

func httpClient() *http.Client {
	return &http.Client{Timeout: 5 * time.Minute}
}

func runSprintCommand(cmd *cobra.Command, args []string) {
	query := strings.Join(args, " ")

	payload, _ := json.Marshal(datatypes.SprintRequest{
		Query:       query,
		Generate:    generateFlag,
		Temperature: temperature,
	})

	resp, err := httpClient().Post(serverURL()+"/v1/sprint", "application/json", bytes.NewReader(payload))
	if err != nil {
		log.Fatalf("Failed to reach sprint service: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Sprint failed (%s): %s", resp.Status, string(body))
	}

	var envelope datatypes.SprintResponse
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Result == nil {
		log.Fatalf("Unexpected response from sprint service: %v", err)
	}
	printSprintResult(envelope.Result)
}

func printSprintResult(result *datatypes.SprintResult) {
	analysis := result.Analysis
	fmt.Printf("Sprint %s\n", result.SprintID)
	fmt.Printf("Problem: %s\n", analysis.Query)
	fmt.Printf("Classified as %s / %s\n\n", analysis.Complexity, analysis.Urgency)

	fmt.Println("Curated tools:")
	for _, tool := range result.Curation.Tools {
		marker := " "
		if tool.IsFoundational {
			marker = "*"
		}
		fmt.Printf("  %d. [%s]%s %s (%s, score %.2f)\n",
			tool.Order, tool.Phase, marker, tool.Title, tool.Type, tool.FinalScore)
	}

	if len(result.Warnings) > 0 {
		fmt.Println("\nWarnings:")
		for _, w := range result.Warnings {
			fmt.Printf("  - %s\n", w)
		}
	}

	if result.Generated != nil {
		fmt.Printf("\n%s\n", result.Generated.Content)
	} else {
		fmt.Printf("\nBrief (%d estimated tokens):\n%s\n", result.Request.EstimatedTokens, result.Request.Brief)
	}
}

func runKnowledgeLoadCommand(cmd *cobra.Command, args []string) {
	records, err := collectKnowledgeRecords(args[0])
	if err != nil {
		log.Fatalf("Failed to read knowledge files: %v", err)
	}
	if len(records) == 0 {
		log.Fatal("No knowledge records found")
	}
	fmt.Printf("Loaded %d records from disk, sending to sprint service...\n", len(records))

	payload, _ := json.Marshal(datatypes.KnowledgeIngestRequest{Records: records})
	resp, err := httpClient().Post(serverURL()+"/v1/knowledge", "application/json", bytes.NewReader(payload))
	if err != nil {
		log.Fatalf("Failed to reach sprint service: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Ingestion failed (%s): %s", resp.Status, string(body))
	}
	fmt.Println(string(body))
}

// collectKnowledgeRecords reads one JSON file or every .json file in a
// directory tree. Each file may hold a single record or an array.
func collectKnowledgeRecords(path string) ([]datatypes.KnowledgeRecord, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	var files []string
	if info.IsDir() {
		err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(p, ".json") {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	} else {
		files = []string{path}
	}

	var records []datatypes.KnowledgeRecord
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file, err)
		}

		trimmed := bytes.TrimSpace(data)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			var batch []datatypes.KnowledgeRecord
			if err := json.Unmarshal(trimmed, &batch); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", file, err)
			}
			records = append(records, batch...)
			continue
		}

		var record datatypes.KnowledgeRecord
		if err := json.Unmarshal(trimmed, &record); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", file, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func runKnowledgeSummaryCommand(cmd *cobra.Command, args []string) {
	resp, err := httpClient().Get(serverURL() + "/v1/knowledge/summary")
	if err != nil {
		log.Fatalf("Failed to reach sprint service: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Summary failed (%s): %s", resp.Status, string(body))
	}
	fmt.Println(string(body))
}

func runKnowledgeClearCommand(cmd *cobra.Command, args []string) {
	req, err := http.NewRequest(http.MethodDelete, serverURL()+"/v1/knowledge", nil)
	if err != nil {
		log.Fatalf("Failed to build request: %v", err)
	}
	resp, err := httpClient().Do(req)
	if err != nil {
		log.Fatalf("Failed to reach sprint service: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Clear failed (%s): %s", resp.Status, string(body))
	}
	fmt.Println(string(body))
}

func runHealthCommand(cmd *cobra.Command, args []string) {
	resp, err := httpClient().Get(serverURL() + "/health")
	if err != nil {
		log.Fatalf("Sprint service is unreachable: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		fmt.Println("Sprint service is healthy")
		return
	}
	fmt.Printf("Sprint service returned %s\n", resp.Status)
}
