package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// newStartCmd implements `start path tester mode`, a diagnostic session that
// probes GetNearbyTiles perception around a persona's current position
// without advancing the simulation.
func (c *console) newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start path tester mode",
		Short: "Probe a persona's nearby-tile perception interactively",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] != "path" || args[1] != "tester" || args[2] != "mode" {
				return fmt.Errorf("usage: start path tester mode")
			}
			return c.runPathTester(cmd)
		},
	}
}

func (c *console) runPathTester(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Path tester mode. Enter a persona name, then a vision radius per probe. Type end_test to leave.")

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Fprint(out, "Persona name: ")
	if !scanner.Scan() {
		return nil
	}
	name := strings.TrimSpace(scanner.Text())
	p, err := c.findPersona(name)
	if err != nil {
		return err
	}

	for {
		fmt.Fprint(out, "Vision radius: ")
		if !scanner.Scan() {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "end_test" {
			return nil
		}

		radius, err := parseInt(line)
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}

		for _, tile := range c.server.Maze.GetNearbyTiles(p.Position(), radius) {
			t := c.server.Maze.GetTile(tile)
			fmt.Fprintf(out, "(%d, %d) %s\n", tile.X, tile.Y, t.Path.ToString())
		}
	}
}
