//
// Copyright (C) 2025 InsightHR. All rights reserved.
//
// hragent is licensed under the Apache License Version 2.0.
//

// Command hragent runs the HR assistant as an interactive console session
// against an OpenAI-compatible model, with durable conversation state in
// SQLite.
package main

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	"github.com/insighthr/hragent/assistant"
	"github.com/insighthr/hragent/knowledge/document"
	embopenai "github.com/insighthr/hragent/knowledge/embedder/openai"
	"github.com/insighthr/hragent/knowledge/ingest"
	"github.com/insighthr/hragent/knowledge/retriever"
	vsinmemory "github.com/insighthr/hragent/knowledge/vectorstore/inmemory"
	"github.com/insighthr/hragent/log"
	"github.com/insighthr/hragent/model/openai"
	"github.com/insighthr/hragent/session"
	sessinmemory "github.com/insighthr/hragent/session/inmemory"
	"github.com/insighthr/hragent/telemetry/trace"
	"github.com/insighthr/hragent/tool/hrms"
	hrmsinmemory "github.com/insighthr/hragent/tool/hrms/inmemory"
	"github.com/insighthr/hragent/workflow"
	ckptsqlite "github.com/insighthr/hragent/workflow/checkpoint/sqlite"
)

func main() {
	if err := run(); err != nil {
		log.Errorf("hragent: %v", err)
		os.Exit(1)
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func run() error {
	_ = godotenv.Load()
	ctx := context.Background()

	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		shutdown, err := trace.Start(ctx,
			trace.WithServiceName("hragent"),
			trace.WithEndpoint(endpoint))
		if err != nil {
			return fmt.Errorf("start tracing: %w", err)
		}
		defer shutdown()
	}

	chat := openai.New(getenv("HRAGENT_MODEL", "gpt-4o-mini"),
		openai.WithAPIKey(os.Getenv("OPENAI_API_KEY")),
		openai.WithBaseURL(os.Getenv("OPENAI_BASE_URL")))
	embedder := embopenai.New(
		embopenai.WithModel(getenv("HRAGENT_EMBED_MODEL", "text-embedding-3-small")),
		embopenai.WithAPIKey(os.Getenv("OPENAI_API_KEY")),
		embopenai.WithBaseURL(os.Getenv("OPENAI_BASE_URL")))

	store := vsinmemory.New()
	retr, err := retriever.New(embedder, store)
	if err != nil {
		return err
	}
	if err := seedKnowledge(ctx, embedder, store); err != nil {
		return fmt.Errorf("seed knowledge base: %w", err)
	}

	hrmsClient := seedHRMS()
	registry, err := hrms.NewToolSet(hrmsClient)
	if err != nil {
		return err
	}

	db, err := sql.Open("sqlite", getenv("HRAGENT_CHECKPOINT_DB", "hragent.db"))
	if err != nil {
		return fmt.Errorf("open checkpoint db: %w", err)
	}
	saver, err := ckptsqlite.NewSaver(db)
	if err != nil {
		return err
	}
	defer saver.Close()

	sessions := sessinmemory.NewService()
	defer sessions.Close()
	sessionID := "console"
	if err := sessions.Init(ctx, session.Context{
		SessionID:    sessionID,
		EmployeeID:   getenv("HRAGENT_EMPLOYEE_ID", "emp-1001"),
		EmployeeName: getenv("HRAGENT_EMPLOYEE_NAME", "Alice Chen"),
		Admin:        os.Getenv("HRAGENT_ADMIN") == "1",
		CreatedAt:    time.Now(),
		TTL:          8 * time.Hour,
	}); err != nil {
		return err
	}

	a, err := assistant.New(chat, retr, registry, saver, sessions)
	if err != nil {
		return err
	}
	return repl(ctx, a, sessionID)
}

func repl(ctx context.Context, a *assistant.Assistant, sessionID string) error {
	fmt.Println("hragent console. Type a question, /wipe to reset, /quit to exit.")
	scanner := bufio.NewScanner(os.Stdin)
	var pending *workflow.InterruptRequest
	for {
		if pending != nil {
			fmt.Printf("approval needed: %s [approve/reject]> ", pending.Message)
		} else {
			fmt.Print("> ")
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		switch line {
		case "/quit":
			return nil
		case "/wipe":
			if err := a.WipeThread(ctx, sessionID); err != nil {
				fmt.Println("error:", err)
			} else {
				pending = nil
				fmt.Println("conversation reset")
			}
			continue
		}

		var result *assistant.TurnResult
		var err error
		if pending != nil && (line == "approve" || line == "reject") {
			result, err = a.Resume(ctx, sessionID, workflow.ResumeDecision{Action: line})
		} else {
			result, err = a.Run(ctx, sessionID, line)
		}
		if err != nil {
			fmt.Println("error:", err)
			continue
		}
		if result.Suspended() {
			pending = result.Pending
			continue
		}
		pending = nil
		fmt.Println(result.Reply)
	}
}

func seedKnowledge(ctx context.Context, emb *embopenai.Embedder, store *vsinmemory.VectorStore) error {
	ing, err := ingest.New(emb, store)
	if err != nil {
		return err
	}
	return ing.Ingest(ctx, []*document.Document{
		{
			ID:         "policy-leave",
			Name:       "Leave policy",
			Content:    "Full-time employees receive 15 days of annual leave and 10 days of sick leave per calendar year. Unused annual leave carries over up to 5 days.",
			OwnerScope: document.ScopeCompany,
		},
		{
			ID:         "policy-attendance",
			Name:       "Attendance policy",
			Content:    "Missed clock-ins can be corrected within 7 days through an attendance correction request, subject to manager approval.",
			OwnerScope: document.ScopeCompany,
		},
		{
			ID:         "policy-remote",
			Name:       "Remote work policy",
			Content:    "Employees may work remotely up to 2 days per week with manager agreement.",
			OwnerScope: document.ScopeCompany,
		},
		{
			ID:         "record-1001-contract",
			Name:       "Employment summary",
			Content:    "Alice Chen joined on 2023-04-10 as a senior engineer in the platform team.",
			OwnerScope: "emp-1001",
		},
	})
}

func seedHRMS() *hrmsinmemory.Client {
	client := hrmsinmemory.New()
	client.AddEmployee(
		hrms.Employee{
			ID: "emp-1001", Name: "Alice Chen",
			Department: "Engineering", Title: "Senior Engineer",
			Email: "alice.chen@example.com", HireDate: "2023-04-10",
		},
		hrms.LeaveBalance{LeaveType: "annual", TotalDays: 15, UsedDays: 3},
		hrms.LeaveBalance{LeaveType: "sick", TotalDays: 10},
	)
	client.AddEmployee(
		hrms.Employee{
			ID: "emp-1002", Name: "Bob Liu",
			Department: "Finance", Title: "Accountant",
		},
		hrms.LeaveBalance{LeaveType: "annual", TotalDays: 15},
		hrms.LeaveBalance{LeaveType: "sick", TotalDays: 10},
	)
	return client
}
