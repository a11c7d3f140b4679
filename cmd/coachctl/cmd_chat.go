// Copyright (C) 2025 AtlasFit Labs (engineering@atlasfit.io)
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
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/atlasfit/coach-engine/services/coach"
	"github.com/atlasfit/coach-engine/services/coach/datatypes"
)

// Chat flag values.
var (
	chatUserID    string
	chatEquipment []string
	chatSkill     string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive coaching session",
	Long: "Opens a REPL against coachd's chat endpoint. The conversation " +
		"history lives in this process; the server is stateless. When the " +
		"coach proposes a training plan, type 'accept' to persist it.",
	Run: runChatCommand,
}

func init() {
	chatCmd.Flags().StringVar(&chatUserID, "user", "", "User id (required)")
	chatCmd.Flags().StringSliceVar(&chatEquipment, "equipment", nil,
		"Available equipment, e.g. Dumbbell,Band")
	chatCmd.Flags().StringVar(&chatSkill, "skill", "", "Skill level, e.g. beginner")
	_ = chatCmd.MarkFlagRequired("user")
}

func runChatCommand(_ *cobra.Command, args []string) {
	if len(args) > 0 {
		fmt.Printf("Warning: unexpected arguments ignored: %v\n", args)
	}

	fmt.Printf("Coaching session for %s (server: %s). Type 'exit' to quit.\n", chatUserID, serverURL)
	fmt.Println("---")

	client := &http.Client{Timeout: 3 * time.Minute}
	var history []datatypes.Message
	var pendingProposal *datatypes.PlanProposal

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}
		if line == "accept" {
			if pendingProposal == nil {
				fmt.Println("No plan proposal to accept yet.")
				continue
			}
			planID, err := acceptPlan(client, *pendingProposal)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			fmt.Printf("Plan saved with id %s\n", planID)
			pendingProposal = nil
			continue
		}

		resp, err := sendChatTurn(client, history, line)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}

		// The server appends the user turn itself, so the local history
		// has to mirror that before recording the model's reply.
		history = append(history, datatypes.NewUserText(line))
		history = append(history, datatypes.NewModelText(resp.Text))

		fmt.Printf("\n%s\n\n", resp.Text)
		if resp.Proposal != nil {
			pendingProposal = resp.Proposal
			printProposal(resp.Proposal)
			fmt.Println("Type 'accept' to save this plan.")
		}
	}
}

// sendChatTurn posts one conversation turn and decodes the reply.
func sendChatTurn(client *http.Client, history []datatypes.Message, message string) (*coach.ChatResponse, error) {
	body := coach.ChatRequest{
		UserID:     chatUserID,
		Message:    message,
		History:    history,
		Equipment:  chatEquipment,
		SkillLevel: chatSkill,
	}
	var resp coach.ChatResponse
	if err := postJSON(client, serverURL+"/v1/coach/chat", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// acceptPlan persists the pending proposal and returns the stored plan id.
func acceptPlan(client *http.Client, plan datatypes.PlanProposal) (string, error) {
	body := coach.AcceptPlanRequest{UserID: chatUserID, Plan: plan}
	var resp coach.AcceptPlanResponse
	if err := postJSON(client, serverURL+"/v1/coach/plans/accept", body, &resp); err != nil {
		return "", err
	}
	return resp.PlanID, nil
}

// postJSON posts body and decodes the response into out, surfacing the
// server's error body on non-200 status.
func postJSON(client *http.Client, url string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	resp, err := client.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("contacting coachd: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var errResp coach.ErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return fmt.Errorf("coachd returned %d: %s", resp.StatusCode, errResp.Error)
		}
		return fmt.Errorf("coachd returned %d: %s", resp.StatusCode, string(respBody))
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

// printProposal renders a plan proposal for the terminal.
func printProposal(p *datatypes.PlanProposal) {
	fmt.Printf("Proposed plan: %s (%d weeks)\n", p.Name, p.DurationWeeks)
	if p.Description != "" {
		fmt.Printf("  %s\n", p.Description)
	}
	for _, day := range p.Days {
		fmt.Printf("  Day %d - %s\n", day.DayNumber, day.DayName)
		for _, ex := range day.Exercises {
			fmt.Printf("    %s: %d x %s, %ds rest\n",
				ex.Name, ex.TargetSets, ex.TargetReps, ex.RestSeconds)
		}
	}
}
