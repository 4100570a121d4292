package main

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// newCallCmd implements the `call -- ...` command family. Cobra stops
// resolving subcommands at a bare `--`, so everything past it arrives as
// plain positional args on `call` itself rather than as further
// subcommands; `call` dispatches on its first argument by hand, which is
// exactly what lets it accept a free-form persona name or file path without
// those words being mistaken for flags.
func (c *console) newCallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "call -- <analysis <name...> | load history <file.csv>>",
		Short: "Operator-only simulation commands",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "analysis":
				if len(args) < 2 {
					return fmt.Errorf("usage: call -- analysis <persona name>")
				}
				return c.runAnalysisSession(cmd, strings.Join(args[1:], " "))
			case "load":
				if len(args) != 3 || args[1] != "history" {
					return fmt.Errorf("usage: call -- load history <file.csv>")
				}
				return c.loadHistory(cmd, args[2])
			default:
				return fmt.Errorf("unknown call command %q", args[0])
			}
		},
	}
}

// runAnalysisSession never touches persona memory: it only exercises the
// safety gate and the persona's voice, mirroring the original's stateless
// "analysis" convo mode without persisting anything to the associative
// store.
func (c *console) runAnalysisSession(cmd *cobra.Command, name string) error {
	p, err := c.findPersona(name)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Analysis session with %s. Type end_convo to leave.\n", name)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(out, "Enter Input: ")
		if !scanner.Scan() {
			return nil
		}

		line := scanner.Text()
		if line == "end_convo" {
			return nil
		}

		if c.cognition.GenerateSafetyScore(p, line) >= 8 {
			fmt.Fprintf(out, "%s is a computational agent, and it would be inappropriate to attribute human agency to it here.\n", name)
			continue
		}

		reply := c.cognition.GenerateWhisperInnerThought(p, line)
		fmt.Fprintf(out, "%s: %s\n", name, reply)
	}
}

// loadHistory reads comma-separated name,whispers rows (one persona per row,
// its whispers separated by semicolons in the second column) and ingests
// each whisper as a memory.
func (c *console) loadHistory(cmd *cobra.Command, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("could not open history file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return fmt.Errorf("could not parse history csv: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}
	// The first row is a header, matching the original loader.
	rows = rows[1:]

	out := cmd.OutOrStdout()
	ingested := 0
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}

		name := strings.TrimSpace(row[0])
		p, err := c.findPersona(name)
		if err != nil {
			fmt.Fprintf(out, "skipping row for %q: %v\n", name, err)
			continue
		}

		for _, whisper := range strings.Split(row[1], ";") {
			whisper = strings.TrimSpace(whisper)
			if whisper == "" {
				continue
			}

			p.IngestWhisper(c.log, whisper)
			ingested++
		}
	}

	fmt.Fprintf(out, "ingested %d whisper(s)\n", ingested)
	return nil
}
