package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/exeflow/exeflow/pkg/engine"
	"github.com/exeflow/exeflow/pkg/log"
	"github.com/exeflow/exeflow/pkg/metrics"
	"github.com/exeflow/exeflow/pkg/models"
	"github.com/exeflow/exeflow/pkg/notify"
	"github.com/exeflow/exeflow/pkg/persistence"
	persistencefile "github.com/exeflow/exeflow/pkg/persistence/file"
	persistenceredis "github.com/exeflow/exeflow/pkg/persistence/redis"
	"github.com/exeflow/exeflow/pkg/registry"
)

// nodeDefinition is the JSON document accepted by the run command.
type nodeDefinition struct {
	NodeID    string         `json:"node_id"`
	NodeType  string         `json:"node_type"`
	Config    map[string]any `json:"config"`
	InputData map[string]any `json:"input_data,omitempty"`
}

func NewRunCommand() *cli.Command {
	return &cli.Command{
		Name:    "run",
		Aliases: []string{"r"},
		Usage:   "Execute a single node definition from a JSON file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "node-file",
				Aliases:  []string{"f"},
				Usage:    "Path to the node definition JSON file",
				Required: true,
				Sources:  cli.EnvVars("NODE_FILE"),
			},
			&cli.StringFlag{
				Name:    "workflow-id",
				Usage:   "Workflow ID the node belongs to (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("WORKFLOW_ID"),
			},
			&cli.StringFlag{
				Name:    "store-url",
				Usage:   "Execution store URL (file://dir or redis://host:port)",
				Value:   "",
				Sources: cli.EnvVars("STORE_URL"),
			},
			&cli.DurationFlag{
				Name:    "deadline",
				Usage:   "Overall deadline for the invocation",
				Value:   5 * time.Minute,
				Sources: cli.EnvVars("DEADLINE"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))
			logger := log.WithModule("exeflow")

			definition, err := loadNodeDefinition(command.String("node-file"))
			if err != nil {
				return err
			}

			reg := registry.NewRegistry(logger)
			reg.RegisterDefaultStrategies()

			if !reg.Supports(definition.NodeType) {
				return fmt.Errorf("unsupported node type %q (supported: %v)",
					definition.NodeType, reg.SupportedNodeTypes())
			}

			schemaResult, err := reg.ValidateConfig(definition.NodeType, definition.Config)
			if err != nil {
				return err
			}

			for _, warning := range schemaResult.Warnings {
				logger.Warn("configuration warning", "warning", warning)
			}

			if !schemaResult.Valid {
				return fmt.Errorf("configuration rejected by schema: %s", schemaResult.ErrorMessage())
			}

			strategy, err := reg.Create(ctx, definition.NodeType, definition.Config)
			if err != nil {
				return err
			}

			store, err := openStore(command.String("store-url"))
			if err != nil {
				return err
			}

			opts := []engine.Option{
				engine.WithMetrics(metrics.NewSlogCollector(logger)),
			}

			if store != nil {
				defer func() {
					if closeErr := store.Close(ctx); closeErr != nil {
						logger.Error("failed to close execution store", "error", closeErr)
					}
				}()

				opts = append(opts, engine.WithStore(store))
			}

			notifier, _ := notify.NewGoChannelNotifier(logger)
			defer func() {
				if closeErr := notifier.Close(); closeErr != nil {
					logger.Error("failed to close notifier", "error", closeErr)
				}
			}()

			opts = append(opts, engine.WithNotifier(notifier))

			workflowID := command.String("workflow-id")
			if workflowID == "" {
				workflowID = uuid.New().String()
			}

			nodeID := definition.NodeID
			if nodeID == "" {
				nodeID = uuid.New().String()
			}

			nc := models.NewNodeExecutionContext(
				nodeID,
				definition.NodeType,
				workflowID,
				uuid.New().String(),
				definition.InputData,
				definition.Config,
			)

			runCtx, cancel := context.WithTimeout(ctx, command.Duration("deadline"))
			defer cancel()

			result := engine.New(logger, opts...).Run(runCtx, strategy, nc)

			output, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to render result: %w", err)
			}

			_, _ = fmt.Fprintln(os.Stdout, string(output))

			if result.Status != models.StatusCompleted {
				return fmt.Errorf("node execution finished with status %s", result.Status)
			}

			return nil
		},
	}
}

func loadNodeDefinition(path string) (*nodeDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read node file: %w", err)
	}

	var definition nodeDefinition
	if err := json.Unmarshal(data, &definition); err != nil {
		return nil, fmt.Errorf("failed to parse node file: %w", err)
	}

	if definition.NodeType == "" {
		return nil, fmt.Errorf("node file %s is missing node_type", path)
	}

	return &definition, nil
}

func openStore(url string) (persistence.ExecutionStore, error) {
	switch {
	case url == "":
		return nil, nil
	case len(url) >= 8 && url[:8] == "redis://":
		return persistenceredis.NewStore(url, 0)
	default:
		return persistencefile.NewStore(url)
	}
}
