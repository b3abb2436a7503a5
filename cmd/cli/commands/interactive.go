package commands

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// InteractiveCmd creates the interactive command, which keeps one database
// and cache connection open across several commands
func InteractiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "Start an interactive session (connect once, run multiple commands)",
		Long: `Start an interactive session where you can run multiple commands over one connection.
The session will keep running until you type 'exit' or 'quit'.

Type 'help' to see available commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "\nStarting interactive session...")
			fmt.Fprintln(out, "Type 'help' for available commands, 'exit' or 'quit' to leave")

			return runInteractive(cmd.InOrStdin(), out, siblingCommands(cmd))
		},
	}
}

// siblingCommands returns the root's commands that can be run from a session
func siblingCommands(cmd *cobra.Command) map[string]*cobra.Command {
	commands := make(map[string]*cobra.Command)
	for _, subCmd := range cmd.Root().Commands() {
		switch subCmd.Name() {
		case "interactive", "completion", "help":
			continue
		}
		commands[subCmd.Name()] = subCmd
	}
	return commands
}

func runInteractive(in io.Reader, out io.Writer, commands map[string]*cobra.Command) error {
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(out, "> ")

		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmdName := parts[0]
		cmdArgs := parts[1:]

		if cmdName == "exit" || cmdName == "quit" {
			fmt.Fprintln(out, "Goodbye!")
			return nil
		}

		if cmdName == "help" {
			printInteractiveHelp(out, commands)
			continue
		}

		targetCmd, exists := commands[cmdName]
		if !exists {
			fmt.Fprintf(out, "Unknown command: %s (type 'help' for available commands)\n\n", cmdName)
			continue
		}

		if err := runSessionCommand(targetCmd, cmdArgs); err != nil {
			fmt.Fprintf(out, "Error: %v\n\n", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading input: %w", err)
	}

	return nil
}

// runSessionCommand runs a command's RunE directly so PersistentPreRunE does not reconnect
func runSessionCommand(targetCmd *cobra.Command, args []string) error {
	targetCmd.Flags().VisitAll(func(flag *pflag.Flag) {
		flag.Changed = false
		_ = flag.Value.Set(flag.DefValue)
	})

	if err := targetCmd.ParseFlags(args); err != nil {
		return fmt.Errorf("error parsing flags: %w", err)
	}
	args = targetCmd.Flags().Args()

	if targetCmd.Args != nil {
		if err := targetCmd.Args(targetCmd, args); err != nil {
			return err
		}
	}

	if targetCmd.RunE != nil {
		return targetCmd.RunE(targetCmd, args)
	}
	if targetCmd.Run != nil {
		targetCmd.Run(targetCmd, args)
	}
	return nil
}

func printInteractiveHelp(out io.Writer, commands map[string]*cobra.Command) {
	fmt.Fprintln(out, "\nAvailable commands:")

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cmd := commands[name]
		fmt.Fprintf(out, "  %-40s %s\n", cmd.Use, cmd.Short)
	}

	fmt.Fprintln(out, "\n  help                                     Show this help message")
	fmt.Fprintln(out, "  exit, quit                               Exit the interactive session")
}
