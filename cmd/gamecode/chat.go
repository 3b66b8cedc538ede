package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-go-golems/gamecode/pkg/agent"
	"github.com/go-go-golems/gamecode/pkg/backend"
	"github.com/go-go-golems/gamecode/pkg/backend/openai"
	"github.com/go-go-golems/gamecode/pkg/conversation"
	"github.com/go-go-golems/gamecode/pkg/events"
	"github.com/go-go-golems/gamecode/pkg/tools"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tcnksm/go-input"
	"golang.org/x/sync/errgroup"
)

func newChatCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [prompt]",
		Short: "Chat with the agent. With a prompt argument, answer it once and exit",
		RunE:  runChat,
	}

	cmd.Flags().String("region", "", "Backend region (default us-east-1)")
	cmd.Flags().String("profile", "", "Credentials profile from the config file")
	cmd.Flags().String("model", "", "Model used for chat")
	cmd.Flags().String("fast-model", "", "Model used to summarize the context")
	cmd.Flags().Int("max-context-length", 0, "Compress the context once it grows past this length")
	cmd.Flags().String("workdir", ".", "Workspace root the file tools operate in")
	cmd.Flags().Bool("confirm-writes", true, "Ask on the terminal before write_file changes a file")
	cmd.Flags().Bool("print-events", false, "Print agent events to stderr")
	cmd.Flags().String("save-transcript", "", "Write the conversation to this YAML file on exit")
	cmd.Flags().String("load-transcript", "", "Resume the conversation stored in this YAML file")

	for flag, key := range map[string]string{
		"region":             "agent.region",
		"profile":            "agent.profile",
		"model":              "backend.model",
		"fast-model":         "backend.fast-model",
		"max-context-length": "agent.max-context-length",
	} {
		cobra.CheckErr(viper.BindPFlag(key, cmd.Flags().Lookup(flag)))
	}

	return cmd
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadAppConfig(viper.GetViper())
	if err != nil {
		return err
	}

	workdir, _ := cmd.Flags().GetString("workdir")
	confirmWrites, _ := cmd.Flags().GetBool("confirm-writes")
	printEvents, _ := cmd.Flags().GetBool("print-events")
	savePath, _ := cmd.Flags().GetString("save-transcript")
	loadPath, _ := cmd.Flags().GetString("load-transcript")

	opts := []agent.Option{}
	if loadPath != "" {
		transcript, err := conversation.LoadFromFile(loadPath)
		if err != nil {
			return err
		}
		opts = append(opts,
			agent.WithSessionID(transcript.SessionID),
			agent.WithStore(conversation.NewStore(conversation.WithTurns(transcript.Turns...))),
		)
	}

	ws, err := newWorkspace(workdir)
	if err != nil {
		return err
	}
	if confirmWrites && isatty.IsTerminal(os.Stdin.Fd()) {
		ws.confirm = confirmOnTTY
	}

	manager, err := buildManager(cfg, ws, opts...)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	if err := manager.Init(ctx); err != nil {
		return err
	}

	var router *events.EventRouter
	if printEvents {
		router, err = events.NewEventRouter(events.WithVerbose(viper.GetBool("debug")))
		if err != nil {
			return err
		}
		router.AddHandler("printer", events.DefaultTopic, events.PrinterFunc(os.Stderr))
		ctx = events.WithEventSinks(ctx, router.Sink(events.DefaultTopic))
	}

	eg := errgroup.Group{}
	eg.Go(func() error {
		defer cancel()
		if router != nil {
			select {
			case <-router.Running():
			case <-ctx.Done():
				return nil
			}
		}

		if len(args) > 0 {
			return ask(ctx, manager, strings.Join(args, " "), os.Stdout)
		}
		return repl(ctx, manager, os.Stdin, os.Stdout)
	})
	if router != nil {
		eg.Go(func() error {
			defer func() { _ = router.Close() }()
			return router.Run(ctx)
		})
	}

	err = eg.Wait()

	if savePath != "" {
		if saveErr := manager.Store().SaveToFile(savePath, manager.SessionID()); saveErr != nil {
			log.Error().Err(saveErr).Str("path", savePath).Msg("Could not save transcript")
			if err == nil {
				err = saveErr
			}
		}
	}
	return err
}

func buildManager(cfg *appConfig, ws *workspace, opts ...agent.Option) (*agent.Manager, error) {
	client, err := openai.NewClient(cfg.Backend)
	if err != nil {
		return nil, errors.Wrap(err, "could not create backend client")
	}
	retrying := backend.NewRetryingClient(client, cfg.Retry)

	if fast, ok := cfg.fastSettings(); ok {
		fastClient, err := openai.NewClient(fast)
		if err != nil {
			return nil, errors.Wrap(err, "could not create summary backend client")
		}
		opts = append(opts, agent.WithSummaryClient(backend.NewRetryingClient(fastClient, cfg.Retry)))
	}

	registry, err := newWorkspaceRegistry(ws)
	if err != nil {
		return nil, err
	}
	adapter := tools.NewRegistryAdapter(registry, tools.WithToolConfig(cfg.Tools))

	return agent.New(cfg.Agent, retrying, adapter, opts...)
}

// ask runs one turn and prints the reply. A compression failure is logged,
// the reply is still printed.
func ask(ctx context.Context, manager *agent.Manager, prompt string, w io.Writer) error {
	resp, err := manager.ProcessInput(ctx, prompt)
	if resp != nil {
		printResponse(w, resp)
	}
	if err != nil && agent.IsKind(err, agent.KindCompressionError) {
		log.Warn().Err(err).Msg("Context compression failed, continuing with the full context")
		return nil
	}
	return err
}

func printResponse(w io.Writer, resp *agent.Response) {
	for _, r := range resp.ToolResults {
		_, _ = fmt.Fprintf(w, "  ↳ %s: %d bytes\n", r.ToolName, len(r.Result))
	}
	text := strings.TrimRight(resp.Content, "\n")
	if text != "" {
		_, _ = fmt.Fprintln(w, text)
	}
}

// repl reads prompts until EOF, "exit" or "quit". Backend and tool failures
// end the turn, not the session.
func repl(ctx context.Context, manager *agent.Manager, r io.Reader, w io.Writer) error {
	interactive := isatty.IsTerminal(os.Stdin.Fd())
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		if ctx.Err() != nil {
			return nil
		}
		if interactive {
			_, _ = fmt.Fprint(w, "> ")
		}
		if !scanner.Scan() {
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		if err := ask(ctx, manager, line, w); err != nil {
			if agent.IsKind(err, agent.KindNotInitialized) {
				return err
			}
			_, _ = fmt.Fprintf(w, "error: %s\n", err)
		}
	}
}

// confirmOnTTY asks on the controlling terminal, stdin may be a pipe.
func confirmOnTTY(question string) (bool, error) {
	tty_, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return false, err
	}
	defer func() {
		_ = tty_.Close()
	}()

	ui := &input.UI{
		Writer: tty_,
		Reader: tty_,
	}

	answer, err := ui.Ask(question+" [y/n]", &input.Options{
		Default:  "n",
		Required: true,
		Loop:     true,
		ValidateFunc: func(answer string) error {
			switch answer {
			case "y", "Y", "n", "N":
				return nil
			default:
				return fmt.Errorf("please enter 'y' or 'n'")
			}
		},
	})
	if err != nil {
		return false, err
	}
	return answer == "y" || answer == "Y", nil
}
