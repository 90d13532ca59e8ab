package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/bbp/internal"
	pkgconfig "github.com/starford/bbp/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if p := cmd.String("port"); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid port %q: %w", p, err)
		}
		cfg.App.TCP.Port = port
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.RunMCP(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("mcp run error: %w", err)
	}
	return nil
}

func runClient(ctx context.Context, cmd *cli.Command) error {
	port := cmd.String("port")
	if port == "" {
		port = strconv.Itoa(internal.NewDefaultConfig().App.TCP.Port)
	}
	addr := net.JoinHostPort(cmd.String("host"), port)
	return internal.RunClient(ctx, addr, os.Stdin, os.Stdout)
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file (.yaml or .toml)",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("BBP_CONFIG_FILE"),
	}
}

func portFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "port",
		Aliases: []string{"p"},
		Usage:   "Protocol TCP port",
		Sources: cli.EnvVars("BBP_PORT"),
	}
}

func main() {
	cmd := &cli.Command{
		Name:   "bbp",
		Usage:  "Book Builder Protocol server and client",
		Action: serve,
		Flags:  []cli.Flag{configFlag(), portFlag()},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the protocol server and the optional catalog HTTP API",
				Action: serve,
				Flags:  []cli.Flag{configFlag(), portFlag()},
			},
			{
				Name:   "client",
				Usage:  "Connect to a server and send commands interactively",
				Action: runClient,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "host",
						Aliases: []string{"H"},
						Usage:   "Server host",
						Value:   "localhost",
						Sources: cli.EnvVars("BBP_HOST"),
					},
					portFlag(),
				},
			},
			{
				Name:   "mcp",
				Usage:  "Serve the protocol as MCP tools over stdio",
				Action: runMCP,
				Flags:  []cli.Flag{configFlag(), portFlag()},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
