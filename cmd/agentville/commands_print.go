package main

import (
	"fmt"
	"sort"

	"github.com/riverbend/agentville/agent"
	"github.com/riverbend/agentville/llm"
	"github.com/riverbend/agentville/maze"
	"github.com/riverbend/agentville/memory"

	"github.com/spf13/cobra"
)

func (c *console) findPersona(name string) (*agent.Persona, error) {
	p, ok := c.server.Personas[name]
	if !ok {
		return nil, fmt.Errorf("no persona named %q", name)
	}
	return p, nil
}

func (c *console) newPrintCmd() *cobra.Command {
	printCmd := &cobra.Command{Use: "print", Short: "Inspect simulation state"}

	printCmd.AddCommand(
		&cobra.Command{
			Use:   "current-time",
			Short: "Print the current simulation time",
			RunE: func(cmd *cobra.Command, args []string) error {
				fmt.Fprintln(cmd.OutOrStdout(), c.server.CurrentTime)
				return nil
			},
		},
		c.newPrintPersonaCmd(),
		c.newPrintAllPersonaScheduleCmd(),
		c.newPrintTileCmd(),
	)

	return printCmd
}

func (c *console) newPrintAllPersonaScheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "all-persona-schedule",
		Short: "Print today's schedule for every persona",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := make([]string, 0, len(c.server.Personas))
			for name := range c.server.Personas {
				names = append(names, name)
			}
			sort.Strings(names)

			for _, name := range names {
				fmt.Fprintf(cmd.OutOrStdout(), "%s:\n", name)
				printSchedule(cmd, c.server.Personas[name].DailySchedule())
			}
			return nil
		},
	}
}

func (c *console) newPrintPersonaCmd() *cobra.Command {
	persona := &cobra.Command{Use: "persona", Short: "Inspect a single persona"}

	persona.AddCommand(
		&cobra.Command{
			Use:   "schedule <name>",
			Args:  cobra.ExactArgs(1),
			Short: "Print the persona's schedule as actually lived",
			RunE: func(cmd *cobra.Command, args []string) error {
				p, err := c.findPersona(args[0])
				if err != nil {
					return err
				}
				printSchedule(cmd, p.DailySchedule())
				return nil
			},
		},
		&cobra.Command{
			Use:   "original-schedule <name>",
			Args:  cobra.ExactArgs(1),
			Short: "Print the persona's originally generated hourly schedule",
			RunE: func(cmd *cobra.Command, args []string) error {
				p, err := c.findPersona(args[0])
				if err != nil {
					return err
				}
				printSchedule(cmd, p.OriginalHourlySchedule())
				return nil
			},
		},
		&cobra.Command{
			Use:   "current-tile <name>",
			Args:  cobra.ExactArgs(1),
			Short: "Print the persona's current tile position",
			RunE: func(cmd *cobra.Command, args []string) error {
				p, err := c.findPersona(args[0])
				if err != nil {
					return err
				}
				pos := p.Position()
				fmt.Fprintf(cmd.OutOrStdout(), "%d, %d\n", pos.X, pos.Y)
				return nil
			},
		},
		&cobra.Command{
			Use:   "chatting-with-buffer <name>",
			Args:  cobra.ExactArgs(1),
			Short: "Print the persona's chatting-with cooldown buffer",
			RunE: func(cmd *cobra.Command, args []string) error {
				p, err := c.findPersona(args[0])
				if err != nil {
					return err
				}
				for other, steps := range p.State().ChattingWithBuffer {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %d\n", other, steps)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "spatial-memory <name>",
			Args:  cobra.ExactArgs(1),
			Short: "Print the persona's known world/sector/arena/object tree",
			RunE: func(cmd *cobra.Command, args []string) error {
				p, err := c.findPersona(args[0])
				if err != nil {
					return err
				}
				_, spatial := p.Memory()
				for world, sectors := range spatial.Worlds() {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\n", world)
					for sector, arenas := range sectors {
						fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", sector)
						for arena, objects := range arenas {
							fmt.Fprintf(cmd.OutOrStdout(), "    %s\n", arena)
							for object := range objects {
								fmt.Fprintf(cmd.OutOrStdout(), "      %s\n", object)
							}
						}
					}
				}
				return nil
			},
		},
		c.newPrintPersonaMemoryCmd(),
	)

	return persona
}

func (c *console) newPrintPersonaMemoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "associative-memory <event|thought|chat> <name>",
		Args:  cobra.ExactArgs(2),
		Short: "Print a persona's associative memory nodes of a given type",
		RunE: func(cmd *cobra.Command, args []string) error {
			var want memory.NodeType
			switch args[0] {
			case "event":
				want = memory.NodeTypeEvent
			case "thought":
				want = memory.NodeTypeThought
			case "chat":
				want = memory.NodeTypeChat
			default:
				return fmt.Errorf("unknown memory kind %q, expected event, thought or chat", args[0])
			}

			p, err := c.findPersona(args[1])
			if err != nil {
				return err
			}

			assoc, _ := p.Memory()
			for _, node := range assoc.Nodes() {
				if node.Type != want {
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "[%d] %s (created %s)\n", node.Id, node.Description, node.Created.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}

func (c *console) newPrintTileCmd() *cobra.Command {
	tile := &cobra.Command{Use: "tile", Short: "Inspect a maze tile"}

	tile.AddCommand(
		&cobra.Command{
			Use:   "details <x> <y>",
			Args:  cobra.ExactArgs(2),
			Short: "Print the address and collision state of a tile",
			RunE: func(cmd *cobra.Command, args []string) error {
				pos, err := parseTilePos(args[0], args[1])
				if err != nil {
					return err
				}
				t := c.server.Maze.GetTile(pos)
				fmt.Fprintf(cmd.OutOrStdout(), "path: %s\ncollision: %v\nspawning location: %s\n", t.Path.ToString(), t.Collision, t.SpawningLocation)
				return nil
			},
		},
		&cobra.Command{
			Use:   "events <x> <y>",
			Args:  cobra.ExactArgs(2),
			Short: "Print the events currently attached to a tile",
			RunE: func(cmd *cobra.Command, args []string) error {
				pos, err := parseTilePos(args[0], args[1])
				if err != nil {
					return err
				}
				t := c.server.Maze.GetTile(pos)
				for ev := range t.Events {
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s: %s\n", ev.SPO.Subject, ev.SPO.Predicate, ev.SPO.Object, ev.Description)
				}
				return nil
			},
		},
	)

	return tile
}

func parseTilePos(xs, ys string) (maze.TilePos, error) {
	x, err := parseInt(xs)
	if err != nil {
		return maze.TilePos{}, err
	}
	y, err := parseInt(ys)
	if err != nil {
		return maze.TilePos{}, err
	}
	return maze.TilePos{X: x, Y: y}, nil
}

func printSchedule(cmd *cobra.Command, plan []llm.Plan) {
	for i, p := range plan {
		fmt.Fprintf(cmd.OutOrStdout(), "  %d. %s (%d min)\n", i, p.Activity, p.Duration)
	}
}
