package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"

	"github.com/riverbend/agentville/llm"
	"github.com/riverbend/agentville/server"
	simulationloader "github.com/riverbend/agentville/simulation_loader"

	"github.com/spf13/cobra"
)

// console holds everything a single REPL turn needs. A fresh *cobra.Command
// tree is built for every line (cobra commands aren't meant to be re-run),
// but it always closes over the same console so simulation state persists
// across turns.
type console struct {
	server    *server.Server
	storage   *simulationloader.FileStorage
	cognition llm.Cognition
	log       *slog.Logger
	out       io.Writer

	done bool
}

func (c *console) run(scanner *bufio.Scanner) {
	for !c.done {
		fmt.Fprint(c.out, "agentville> ")
		if !scanner.Scan() {
			return
		}

		line := scanner.Text()
		args, err := tokenize(line)
		if err != nil {
			fmt.Fprintf(c.out, "could not parse command: %v\n", err)
			continue
		}
		if len(args) == 0 {
			continue
		}

		root := c.newRootCmd()
		root.SetArgs(args)
		root.SetOut(c.out)
		root.SetErr(c.out)
		if err := root.Execute(); err != nil {
			fmt.Fprintf(c.out, "error: %v\n", err)
		}
	}
}

func (c *console) newRootCmd() *cobra.Command {
	root := &cobra.Command{Use: "agentville", SilenceUsage: true, SilenceErrors: true}

	root.AddCommand(
		c.newRunCmd(),
		c.newSaveCmd(),
		c.newFinCmd(),
		c.newExitCmd(),
		c.newPrintCmd(),
		c.newCallCmd(),
		c.newStartCmd(),
	)

	return root
}

func (c *console) newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <steps>",
		Short: "Advance the simulation by the given number of steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseInt(args[0])
			if err != nil {
				return err
			}

			if err := c.server.Run(n); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "ran %d step(s), now at step %d (%s)\n", n, c.server.Step, c.server.CurrentTime)
			return nil
		},
	}
}

func (c *console) newSaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Persist the current simulation state to disk",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.storage.SaveSimulation(c.server); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "saved")
			return nil
		},
	}
}

func (c *console) newFinCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "fin",
		Aliases: []string{"finish"},
		Short:   "Save the simulation and exit the console",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.storage.SaveSimulation(c.server); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "saved, exiting")
			c.done = true
			return nil
		},
	}
	return cmd
}

func (c *console) newExitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exit",
		Short: "Exit the console without saving and delete the simulation",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.storage.DeleteSimulation(); err != nil {
				return fmt.Errorf("could not delete simulation directory: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "simulation deleted, exiting")
			c.done = true
			return nil
		},
	}
}

func parseInt(s string) (int, error) {
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	return n, nil
}
