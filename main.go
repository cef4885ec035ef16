package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"recursive_protocol_reviewer/auditlog"
	"recursive_protocol_reviewer/refiner"
	"recursive_protocol_reviewer/server"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	configPath := flag.String("config", "config/config.json", "path to config.json")
	docPath := flag.String("doc", "", "path to a document file to refine once from the CLI")
	serve := flag.Bool("serve", false, "start web server")
	addr := flag.String("addr", "", "http listen address when --serve (overrides config.server_addr)")
	flag.Parse()

	cfg, err := refiner.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	audit := auditlog.New(cfg.AuditDir)

	// Web server mode
	if *serve {
		runServer(cfg, audit, *addr)
		return
	}

	if *docPath == "" {
		fmt.Fprintln(os.Stderr, "--doc is required unless --serve is set")
		os.Exit(1)
	}

	docBytes, err := os.ReadFile(*docPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fillLLMDefaults(&cfg)
	llm, err := buildLLM(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	reviewer, err := refiner.NewReviewer(llm)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	ctrl, err := refiner.NewController(reviewer, audit)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log.Printf("[cli] refining doc=%s", *docPath)
	sess, err := ctrl.Run(context.Background(), string(docBytes))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log.Printf("[cli] refinement %s (audit: %s)", refiner.Describe(sess), sess.LogFilename)
	fmt.Println(sess.FinalDocument)
}

func runServer(cfg refiner.Config, audit *auditlog.Logger, addrOverride string) {
	diag := server.NewDiagnostics(audit)
	diag.Run(&cfg)

	var ctrl *refiner.Controller
	clientError := ""
	if llm, err := buildLLM(cfg); err != nil {
		clientError = err.Error()
		diag.Record("error", fmt.Sprintf("Failed to initialize LLM client: %v", err))
	} else {
		ctrl, err = buildController(llm, audit)
		if err != nil {
			clientError = err.Error()
			diag.Record("error", fmt.Sprintf("Failed to initialize refinement controller: %v", err))
		} else {
			diag.Record("info", "LLM client initialized successfully.")
		}
	}

	srv, err := server.New(ctrl, diag, clientError)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	listen := cfg.ServerAddr
	if addrOverride != "" {
		listen = addrOverride
	}
	if listen == "" {
		listen = ":5000"
	}
	log.Printf("Starting web server on %s", listen)
	if err := http.ListenAndServe(listen, srv.Routes()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildController(llm refiner.LLMClient, audit *auditlog.Logger) (*refiner.Controller, error) {
	reviewer, err := refiner.NewReviewer(llm)
	if err != nil {
		return nil, err
	}
	return refiner.NewController(reviewer, audit)
}

func fillLLMDefaults(cfg *refiner.Config) {
	if cfg.LLM == nil {
		cfg.LLM = &refiner.LLMSettings{}
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "openai"
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	}
}

func buildLLM(cfg refiner.Config) (refiner.LLMClient, error) {
	if cfg.LLM == nil || cfg.LLM.Provider == "" {
		return nil, fmt.Errorf("llm config missing; set llm.provider/model/api_key in config or OPENAI_API_KEY in the environment")
	}
	switch cfg.LLM.Provider {
	case "openai":
		return refiner.NewOpenAILLMFromConfig(cfg.LLM)
	case "deepseek":
		// DeepSeek 提供 OpenAI 兼容接口，需填写 base_url（例如官方/网关地址）。
		if cfg.LLM.BaseURL == "" {
			return nil, fmt.Errorf("llm provider deepseek requires base_url (OpenAI-compatible endpoint)")
		}
		return refiner.NewOpenAILLMFromConfig(cfg.LLM)
	case "mock":
		return refiner.MockLLM{}, nil
	default:
		return nil, fmt.Errorf("llm provider %s not supported", cfg.LLM.Provider)
	}
}
