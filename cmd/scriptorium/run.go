package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/dukex/scriptorium/pkg/models"
	"github.com/dukex/scriptorium/pkg/services"
	"github.com/dukex/scriptorium/pkg/tree"
	"github.com/dukex/scriptorium/pkg/workflow"
	cli "github.com/urfave/cli/v3"
)

const previewLength = 60

func runCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Run a stored workflow over a text",
		ArgsUsage: "<workflow-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "text",
				Aliases: []string{"t"},
				Usage:   "Seed text",
			},
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "Read the seed text from a file, - for standard input",
			},
			&cli.StringFlag{
				Name:  "from",
				Usage: "UUID of the node the run starts at (default: first root)",
			},
		},
		Action: withRuntime(func(ctx context.Context, command *cli.Command, rt *runtime) error {
			id := command.Args().First()
			if id == "" {
				return errWorkflowIDRequired
			}

			seed := command.String("text")
			if seed == "" {
				data, err := readInput(command.String("file"), os.Stdin)
				if err != nil {
					return err
				}

				seed = string(data)
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runWorkflow(ctx, command.Root().Writer, rt.workflows, rt.executor, id, command.String("from"), seed)
		}),
	}
}

// runWorkflow executes a stored workflow and prints the report, including the
// partial one when the run fails or is interrupted.
func runWorkflow(
	ctx context.Context,
	w io.Writer,
	workflows *services.Workflow,
	executor *workflow.Executor,
	id, from, seed string,
) error {
	if strings.TrimSpace(seed) == "" {
		return errors.New("seed text is empty")
	}

	doc, err := workflows.FetchByID(ctx, id)
	if err != nil {
		return err
	}

	req := workflow.Request{
		WorkflowID: doc.ID,
		Forest:     &doc.Forest,
		SeedText:   seed,
	}

	if from != "" {
		if _, ok := tree.FindNode(&doc.Forest, from); !ok {
			return &tree.StructuralError{Op: "run", NodeID: from, Err: tree.ErrNodeNotFound}
		}

		req.Start = []string{from}
	}

	result, runErr := executor.Execute(ctx, req)

	if err := printResult(w, result); err != nil {
		return err
	}

	return runErr
}

func printResult(w io.Writer, result *models.ExecutionResult) error {
	rows := make([][]string, 0, len(result.Report))
	for i, entry := range result.Report {
		output := ""
		if _, ok := result.Outputs[entry.NodeUUID]; ok {
			output = "yes"
		}

		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			entry.ActionLabel,
			shortID(entry.NodeUUID),
			output,
			entry.Duration.String(),
			preview(entry.Result),
		})
	}

	table := renderTable(
		[]string{"#", "Action", "Node", "Output", "Duration", "Result"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	)

	if _, err := fmt.Fprintf(w, "%s\nStatus: %s\n", table, result.Status); err != nil {
		return err
	}

	if result.Error != "" {
		if _, err := fmt.Fprintf(w, "Error: %s\n", result.Error); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "\n%s\n", result.FinalText)

	return err
}

func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) <= previewLength {
		return s
	}

	return string(runes[:previewLength-1]) + "…"
}
