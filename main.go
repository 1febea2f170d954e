package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	orchestratorx "github.com/tanpawarit/cloud-pricing-assistant/agent/agents/orchestrator"
	llmx "github.com/tanpawarit/cloud-pricing-assistant/agent/llm"
	mcpx "github.com/tanpawarit/cloud-pricing-assistant/agent/mcp"
	statex "github.com/tanpawarit/cloud-pricing-assistant/agent/state"
	toolx "github.com/tanpawarit/cloud-pricing-assistant/agent/tool"
	configx "github.com/tanpawarit/cloud-pricing-assistant/pkg/config"
	healthx "github.com/tanpawarit/cloud-pricing-assistant/pkg/health"
	_ "github.com/tanpawarit/cloud-pricing-assistant/pkg/logger/autoload"
)

var serveStatus = flag.Bool("serve", false, "serve /healthz and /debug endpoints alongside the chat loop")

func main() {
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rec := statex.Default()

	auditCfg := configx.MustNew[statex.AuditConfig]("AUDIT")
	if auditCfg.Enabled() {
		sink, err := statex.NewBunAuditSink(ctx, *auditCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open audit sink")
		}
		defer sink.Close()
		rec.WithAudit(sink)
		defer rec.Close()
	}

	mcpCfg := configx.MustNew[mcpx.Config]("MCP")
	cache, err := mcpx.NewCatalogCache(*mcpCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build tool catalog cache")
	}
	if closer, ok := cache.(io.Closer); ok {
		defer closer.Close()
	}
	mcpClient := mcpx.NewClient(*mcpCfg, mcpx.WithRecorder(rec), mcpx.WithCatalogCache(cache))
	if err := mcpClient.Probe(ctx); err != nil {
		log.Warn().Err(err).Msg("mcp probe failed")
	}

	llmCfg := configx.MustNew[llmx.Config]("OPENROUTER")
	backend, err := llmx.NewBackend(ctx, *llmCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build model backend")
	}

	tools := toolx.NewExecutor(toolx.NewRouter(mcpClient))
	orchestrator, err := orchestratorx.New(
		backend,
		tools,
		orchestratorx.Config{ResponseTimeout: llmCfg.ResponseTimeout},
		orchestratorx.WithRecorder(rec),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build orchestrator")
	}
	defer orchestrator.Close()

	if err := orchestrator.Connect(ctx); err != nil {
		log.Warn().Err(err).Msg("model session probe failed")
	}

	if *serveStatus {
		healthCfg := configx.MustNew[healthx.Config]("HEALTH")
		go func() {
			if err := healthx.Serve(ctx, *healthCfg, rec); err != nil {
				log.Error().Err(err).Msg("status surface stopped")
			}
		}()
	}

	if err := chatLoop(ctx, orchestrator, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("chat loop stopped")
	}
}

type turnHandler interface {
	HandleMessage(ctx context.Context, text string) (string, error)
}

// chatLoop treats every non-blank input line as one turn.
func chatLoop(ctx context.Context, h turnHandler, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		reply, err := h.HandleMessage(ctx, text)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error().Err(err).Msg("turn failed")
			continue
		}
		if _, err := fmt.Fprintln(out, reply); err != nil {
			return err
		}
	}
	return scanner.Err()
}
