package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/aretw0/lifecycle"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/tagvault"
	"github.com/aretw0/tagvault/internal/platform"
	lifecycleadapter "github.com/aretw0/tagvault/pkg/adapters/lifecycle"
	"github.com/aretw0/tagvault/pkg/adapters/sim"
	"github.com/aretw0/tagvault/pkg/core"
)

var (
	simulateTags   string
	simulateEvents []string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the control loop against a simulated reader",
	Long: `Run the control loop against a simulated reader driven from stdin.

Commands:
  place <image>   put a tag image in the field (the current one is removed and saved)
  remove          take the tag out of the field and save it
  noise           make the next idle request fail
  state           print the loop state
  quit            save the tag in the field and exit

Image paths are resolved against --tags. With --config, edits to the config file
are applied to the running loop.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg, err := tagvault.LoadConfig(configPath)
		if err != nil {
			fatal("Error loading config", err)
		}

		logger := slog.Default()
		reader := sim.NewReader()
		rt, err := tagvault.New(reader, cfg, tagvault.WithLogger(logger))
		if err != nil {
			fatal("Error building control loop", err)
		}

		done := make(chan struct{})
		lifecycle.Go(ctx, func(ctx context.Context) error {
			defer close(done)
			return rt.Loop.Run(ctx)
		}, lifecycle.WithErrorHandler(func(err error) {
			logger.Error("control loop stopped", "error", err)
		}))

		types := make([]core.EventType, 0, len(simulateEvents))
		for _, name := range simulateEvents {
			types = append(types, core.EventType(strings.ToUpper(strings.TrimSpace(name))))
		}
		src := lifecycleadapter.NewSource(rt.Events, lifecycleadapter.WithTypes(types...))
		if err := src.Start(ctx); err != nil {
			fatal("Error starting event source", err)
		}
		go func() {
			for e := range src.Events() {
				fmt.Println(e)
			}
		}()

		if configPath != "" {
			watcher := platform.NewConfigWatcher(configPath, rt.Loop, logger, nil)
			if err := watcher.Start(ctx); err != nil {
				logger.Warn("config reload disabled", "error", err)
			} else {
				defer watcher.Stop(context.Background())
			}
		}

		s := &simulator{reader: reader, dir: simulateTags}
		lines := make(chan string)
		go func() {
			defer close(lines)
			scanner := bufio.NewScanner(os.Stdin)
			for scanner.Scan() {
				lines <- scanner.Text()
			}
		}()

	loop:
		for {
			select {
			case <-ctx.Done():
				break loop
			case line, ok := <-lines:
				if !ok {
					break loop
				}
				fields := strings.Fields(line)
				if len(fields) == 0 {
					continue
				}
				switch fields[0] {
				case "place":
					if len(fields) != 2 {
						fmt.Fprintln(os.Stderr, "usage: place <image>")
						continue
					}
					if err := s.place(fields[1]); err != nil {
						fmt.Fprintf(os.Stderr, "Error placing tag: %v\n", err)
					}
				case "remove":
					if err := s.remove(); err != nil {
						fmt.Fprintf(os.Stderr, "Error saving tag: %v\n", err)
					}
				case "noise":
					reader.Script(false)
				case "state":
					data, err := yaml.Marshal(rt.Loop.State())
					if err != nil {
						fmt.Fprintf(os.Stderr, "Error encoding state: %v\n", err)
						continue
					}
					fmt.Print(string(data))
				case "quit", "exit":
					break loop
				default:
					fmt.Fprintf(os.Stderr, "unknown command %q\n", fields[0])
				}
			}
		}

		stop()
		<-done
		if err := s.remove(); err != nil {
			fatal("Error saving tag", err)
		}
	},
}

// simulator tracks which image file the tag in the field was loaded from.
type simulator struct {
	reader *sim.Reader
	dir    string
	path   string
}

func (s *simulator) resolve(name string) string {
	if s.dir == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.dir, name)
}

func (s *simulator) place(name string) error {
	if err := s.remove(); err != nil {
		return err
	}
	path := s.resolve(name)
	tag, err := sim.LoadImage(path)
	if err != nil {
		return err
	}
	s.path = path
	s.reader.Place(tag)
	return nil
}

func (s *simulator) remove() error {
	tag := s.reader.Remove()
	if tag == nil {
		return nil
	}
	path := s.path
	s.path = ""
	if err := sim.SaveImage(path, tag); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().StringVar(&simulateTags, "tags", "", "Directory tag image names are resolved against")
	simulateCmd.Flags().StringSliceVar(&simulateEvents, "events", nil, "Print only these event types (e.g. WRITTEN,ABORTED)")
}
