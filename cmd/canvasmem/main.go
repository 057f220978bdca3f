package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"

	"github.com/lexlapax/canvasmem/pkg/canvasmem"
	"github.com/lexlapax/canvasmem/pkg/config"
	"github.com/lexlapax/canvasmem/pkg/log"
	"github.com/lexlapax/canvasmem/pkg/reflection"
)

// Constants for the command-line interface
const (
	cmdHelp      = "!help"
	cmdQuit      = "!quit"
	cmdAssistant = "!assistant"
	cmdHuman     = "!human"
	cmdAI        = "!ai"
	cmdArtifact  = "!artifact"
	cmdReflect   = "!reflect"
	cmdShow      = "!show"
	cmdForget    = "!forget"
	cmdReset     = "!reset"
	cmdConfig    = "!config"
)

var commands = []string{cmdHelp, cmdQuit, cmdAssistant, cmdHuman, cmdAI, cmdArtifact, cmdReflect, cmdShow, cmdForget, cmdReset, cmdConfig}

// Command-line help text
const helpText = `
canvasmem - Command Reference:
-----------------------------------------
!help                 - Show this help message
!assistant <id>       - Set the current assistant ID
!human <text>         - Append a human message to the conversation
!ai <text>            - Append an AI message to the conversation
!artifact <text>      - Set the artifact text (no text clears it)
!reflect              - Reflect on the conversation and store the result
!show [style|content] - Show the stored reflections
!forget               - Delete the stored reflections for the assistant
!reset                - Clear the conversation and artifact
!config               - Show current configuration
!quit                 - Exit the application

Notes:
- Regular text input is appended as a human message
- Tab completion is available for commands
- Use up/down arrows for command history`

// historyFile is the file where command history is stored
const historyFile = ".canvasmem_history"

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "", "Path to configuration file (defaults to in-memory store and mock engine)")
	assistantID := flag.String("assistant", "default-assistant", "Assistant ID whose reflections are read and written")
	stdinMode := flag.Bool("s", false, "Read from stdin and exit when complete")
	flag.Parse()

	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
		os.Exit(1)
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadFromFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
			os.Exit(1)
		}
	}

	// Initialize logger
	log.Setup(cfg.Logging)
	log.Info("Starting canvasmem client")

	client, err := canvasmem.New(cfg)
	if err != nil {
		log.Error("Failed to initialize canvasmem client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	s := newSession(client, *assistantID, os.Stdout)
	if *stdinMode {
		s.runStdin(os.Stdin)
		return
	}
	s.runInteractive()
}

// session holds the conversation being built up at the prompt
type session struct {
	client      *canvasmem.Client
	assistantID string
	state       reflection.State
	out         io.Writer
}

func newSession(client *canvasmem.Client, assistantID string, out io.Writer) *session {
	return &session{
		client:      client,
		assistantID: assistantID,
		out:         out,
	}
}

func (s *session) prompt() string {
	return fmt.Sprintf("canvasmem::%s[%d]> ", s.assistantID, len(s.state.Messages))
}

func (s *session) printBanner(mode string) {
	cfg := s.client.Config()
	fmt.Fprintf(s.out, "\n=== canvasmem%s ===\n", mode)
	fmt.Fprintln(s.out, "Store:", cfg.Store.Type)
	fmt.Fprintln(s.out, "Reasoning:", cfg.Reasoning.Provider)
	fmt.Fprintf(s.out, "Current Assistant: %s\n", s.assistantID)
}

// runStdin processes one command per line until EOF or !quit
func (s *session) runStdin(r io.Reader) {
	scanner := bufio.NewScanner(r)
	s.printBanner(" (stdin mode)")

	for scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		// Skip comments for stdin-based testing
		if strings.HasPrefix(input, "#") || strings.HasPrefix(input, "//") {
			continue
		}

		// Echo a fake prompt for better output readability
		fmt.Fprint(s.out, s.prompt(), input, "\n")

		if !s.processCommand(context.Background(), input) {
			return
		}
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(s.out, "Error reading stdin: %v\n", err)
	}
	fmt.Fprintln(s.out, "Goodbye!")
}

// runInteractive runs the liner-backed prompt loop
func (s *session) runInteractive() {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetMultiLineMode(false)

	// Set tab completion
	line.SetCompleter(func(line string) (c []string) {
		for _, cmd := range commands {
			if strings.HasPrefix(cmd, line) {
				c = append(c, cmd)
			}
		}
		return
	})

	// Load history from file if it exists
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}

	// Save history when exiting
	defer func() {
		if f, err := os.Create(historyFile); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	s.printBanner("")
	fmt.Fprintln(s.out, "Type !help for available commands.")

	for {
		input, err := line.Prompt(s.prompt())
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Fprintln(s.out, "\nGoodbye!")
				return
			}
			fmt.Fprintf(s.out, "Error reading input: %v\n", err)
			continue
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if !s.processCommand(context.Background(), input) {
			return
		}
	}
}

// processCommand handles a single command and returns false if the CLI should exit
func (s *session) processCommand(ctx context.Context, input string) bool {
	if !strings.HasPrefix(input, "!") {
		s.appendMessage(reflection.RoleHuman, input)
		return true
	}

	parts := strings.SplitN(input, " ", 2)
	cmd := parts[0]
	arg := ""
	if len(parts) == 2 {
		arg = strings.TrimSpace(parts[1])
	}

	switch cmd {
	case cmdHelp:
		fmt.Fprintln(s.out, helpText)

	case cmdQuit:
		fmt.Fprintln(s.out, "Goodbye!")
		return false

	case cmdAssistant:
		if arg == "" {
			fmt.Fprintf(s.out, "Current assistant: %s\n", s.assistantID)
			return true
		}
		s.assistantID = arg
		fmt.Fprintf(s.out, "Assistant set to: %s\n", s.assistantID)

	case cmdHuman:
		if arg == "" {
			fmt.Fprintln(s.out, "Message text required")
			return true
		}
		s.appendMessage(reflection.RoleHuman, arg)

	case cmdAI:
		if arg == "" {
			fmt.Fprintln(s.out, "Message text required")
			return true
		}
		s.appendMessage(reflection.RoleAI, arg)

	case cmdArtifact:
		if arg == "" {
			s.state.Artifact = nil
			fmt.Fprintln(s.out, "Artifact cleared")
			return true
		}
		s.state.Artifact = &reflection.Artifact{Content: arg}
		fmt.Fprintf(s.out, "Artifact set (%d chars)\n", len(arg))

	case cmdReflect:
		fmt.Fprintf(s.out, "Reflecting on %d messages...\n", len(s.state.Messages))
		if err := s.client.Reflect(ctx, s.assistantID, s.state); err != nil {
			fmt.Fprintf(s.out, "Error during reflection: %v\n", err)
			return true
		}
		fmt.Fprintln(s.out, "Reflection completed successfully")
		s.show(ctx, "")

	case cmdShow:
		s.show(ctx, arg)

	case cmdForget:
		if err := s.client.Forget(ctx, s.assistantID); err != nil {
			fmt.Fprintf(s.out, "Error forgetting reflections: %v\n", err)
			return true
		}
		fmt.Fprintf(s.out, "Reflections for %s deleted\n", s.assistantID)

	case cmdReset:
		s.state = reflection.State{}
		fmt.Fprintln(s.out, "Conversation cleared")

	case cmdConfig:
		s.printConfig()

	default:
		fmt.Fprintf(s.out, "Unknown command: %s\nType !help for available commands.\n", cmd)
	}

	return true
}

func (s *session) appendMessage(role, content string) {
	s.state.Messages = append(s.state.Messages, reflection.Message{Role: role, Content: content})
	fmt.Fprintf(s.out, "Added %s message #%d\n", role, len(s.state.Messages))
}

func (s *session) show(ctx context.Context, which string) {
	var opts []reflection.FormatOption
	switch which {
	case "":
	case "style":
		opts = append(opts, reflection.OnlyStyle())
	case "content":
		opts = append(opts, reflection.OnlyContent())
	default:
		fmt.Fprintf(s.out, "Unknown section: %s (use style or content)\n", which)
		return
	}

	r, err := s.client.Reflections(ctx, s.assistantID)
	if err != nil {
		fmt.Fprintf(s.out, "Error reading reflections: %v\n", err)
		return
	}
	if r == nil {
		fmt.Fprintln(s.out, reflection.NoReflectionsFound)
		return
	}
	fmt.Fprintln(s.out, reflection.FormatReflections(*r, opts...))
}

func (s *session) printConfig() {
	cfg := s.client.Config()

	fmt.Fprintln(s.out, "\nCurrent Configuration:")
	fmt.Fprintln(s.out, "======================")
	fmt.Fprintf(s.out, "Store Type: %s\n", cfg.Store.Type)
	switch cfg.Store.Type {
	case config.StoreBoltDB:
		fmt.Fprintf(s.out, "BoltDB Path: %s\n", cfg.Store.BoltDB.Path)
	case config.StoreSQLite:
		fmt.Fprintf(s.out, "SQLite Path: %s\n", cfg.Store.SQLite.Path)
	case config.StorePostgres:
		fmt.Fprintf(s.out, "PostgreSQL Migrate: %v\n", cfg.Store.Postgres.Migrate)
	}

	fmt.Fprintf(s.out, "\nReasoning Provider: %s\n", cfg.Reasoning.Provider)
	switch cfg.Reasoning.Provider {
	case config.ProviderAnthropic:
		fmt.Fprintf(s.out, "Anthropic Model: %s\n", cfg.Reasoning.Anthropic.Model)
	case config.ProviderOpenAI:
		fmt.Fprintf(s.out, "OpenAI Model: %s\n", cfg.Reasoning.OpenAI.Model)
	}

	fmt.Fprintf(s.out, "\nLog Level: %s\n", cfg.Logging.Level)
	fmt.Fprintf(s.out, "Assistant: %s\n", s.assistantID)
	fmt.Fprintf(s.out, "Messages: %d | Artifact: %v\n", len(s.state.Messages), s.state.Artifact != nil)
}
