package main

import (
	"fmt"
	"io"
	"os"

	"inkwell/internal/app"
	"inkwell/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

const version = "1.0.0"

var (
	flagConfig  string
	flagProject string
)

func loadConfig() (app.Config, error) {
	path := flagConfig
	if path == "" {
		path = app.DefaultConfigPath()
	}
	cfg, err := app.LoadConfig(path)
	if err != nil {
		return cfg, err
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("INKWELL_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = os.Getenv("INKWELL_BASE_URL")
	}
	if cfg.StorageRoot == "" {
		cfg.StorageRoot = app.DefaultStorageRoot()
	}
	if flagProject != "" {
		cfg.Project = flagProject
	}
	return cfg, nil
}

func openLogger(cfg app.Config) (*app.Logger, io.Closer) {
	if cfg.LogPath == "" {
		return nil, nil
	}
	f, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: cannot open log file %s: %v\n", cfg.LogPath, err)
		return nil, nil
	}
	return app.NewLogger(f), f
}

func runStudio(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, logCloser := openLogger(cfg)
	if logCloser != nil {
		defer logCloser.Close()
	}

	store, err := app.NewSQLiteSessionStore(cfg.StorageRoot)
	if err != nil {
		if logger != nil {
			logger.Warn("session store unavailable, running without persistence", map[string]interface{}{
				"root":  cfg.StorageRoot,
				"error": err.Error(),
			})
		}
		store = nil
	}

	studio, err := app.NewStudio(cfg, logger, sessionStoreOrNil(store))
	if err != nil {
		return err
	}
	defer studio.Close()

	p := tea.NewProgram(tui.NewMainModel(studio), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// sessionStoreOrNil keeps a typed nil *SQLiteSessionStore from sneaking
// into the SessionStore interface.
func sessionStoreOrNil(store *app.SQLiteSessionStore) app.SessionStore {
	if store == nil {
		return nil
	}
	return store
}

func main() {
	root := &cobra.Command{
		Use:     "inkwell",
		Short:   "Inkwell is a terminal companion for long-form fiction drafting",
		Long:    "Inkwell pairs a project outline and a compendium of story facts with an LLM.\nCheck the context you want in the side panel, then draft prose or talk the story through in workshop mode.",
		Version: version,
		RunE:    runStudio,
	}
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file (default: user config dir)")
	root.PersistentFlags().StringVar(&flagProject, "project", "", "project name overriding the config")

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := flagConfig
			if path == "" {
				path = app.DefaultConfigPath()
			}
			if path == "" {
				return fmt.Errorf("cannot determine a config path, pass --config")
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("config already exists at %s", path)
			}
			if err := app.SaveConfig(app.DefaultConfig(), path); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		},
	}
	root.AddCommand(initCmd)

	contextCmd := &cobra.Command{
		Use:   "context",
		Short: "Print the outline and compendium trees for the project",
		Long:  "Builds both selection trees from the configured files and prints every row, so shell scripts can see what the panel would show.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			studio, err := app.NewStudio(cfg, nil, nil)
			if err != nil {
				return err
			}
			defer studio.Close()

			printTree := func(title string, bt *app.BoundTree) {
				fmt.Println(title)
				var walk func(id app.NodeID, depth int)
				walk = func(id app.NodeID, depth int) {
					n, ok := bt.Tree.Node(id)
					if !ok {
						return
					}
					for i := 0; i < depth; i++ {
						fmt.Print("  ")
					}
					fmt.Println(n.Label)
					for _, child := range n.Children {
						walk(child, depth+1)
					}
				}
				for _, rootID := range bt.Tree.Roots() {
					walk(rootID, 1)
				}
			}
			printTree("Project", studio.Forest.Project)
			printTree("Compendium", studio.Forest.Compendium)
			return nil
		},
	}
	root.AddCommand(contextCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
