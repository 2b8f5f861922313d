package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/danmuck/gfxtrace/internal/binary"
	"github.com/danmuck/gfxtrace/internal/catalog"
	"github.com/danmuck/gfxtrace/internal/config"
	"github.com/danmuck/gfxtrace/internal/path"
	"github.com/danmuck/gfxtrace/internal/service"
	"github.com/spf13/cobra"
)

var (
	httpURL   string
	useStream bool
)

var capturesCmd = &cobra.Command{
	Use:   "captures",
	Short: "List the captures held by a server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, c *service.Client) error {
			captures, err := c.Captures(ctx)
			if err != nil {
				return err
			}
			for _, capture := range captures {
				info, err := c.Info(ctx, capture)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-24s %8d atoms %10d bytes\n",
					capture.ID, info.Name, info.Atoms, info.Size)
			}
			return nil
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import <name> <capture-file>",
	Short: "Upload an encoded capture",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}
		return withClient(cmd, func(ctx context.Context, c *service.Client) error {
			capture, err := c.ImportCapture(ctx, args[0], data)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), capture)
			return nil
		})
	},
}

var loadCmd = &cobra.Command{
	Use:   "load <file>",
	Short: "Import a capture file from the server's capture directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, c *service.Client) error {
			capture, err := c.LoadCapture(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), capture)
			return nil
		})
	},
}

var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "List the optional calls a server answers",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, c *service.Client) error {
			features, err := c.Features(ctx)
			if err != nil {
				return err
			}
			for _, f := range features {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
			return nil
		})
	},
}

var atomsCmd = &cobra.Command{
	Use:   "atoms <capture-id>",
	Short: "Print the atoms of a capture held by a server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := binary.ParseID(args[0])
		if err != nil {
			return err
		}
		return withClient(cmd, func(ctx context.Context, c *service.Client) error {
			list, err := c.Atoms(ctx, path.NewCapture(id))
			if err != nil {
				return err
			}
			printAtoms(cmd, list)
			return nil
		})
	},
}

func init() {
	for _, cmd := range []*cobra.Command{capturesCmd, importCmd, loadCmd, atomsCmd, featuresCmd} {
		cmd.Flags().StringVar(&httpURL, "url", "", "server base URL (defaults to http://<http.addr>)")
		cmd.Flags().BoolVar(&useStream, "stream", false, "connect over the framed stream instead of HTTP")
	}
}

// withClient dials the configured server, builds a client whose namespace
// includes the server's schema and runs fn with it.
func withClient(cmd *cobra.Command, fn func(context.Context, *service.Client) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	transport, closer, err := dial(ctx, cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	bootstrap, err := service.NewClient(catalog.MustBuild(), transport, cfg.Client)
	if err != nil {
		return err
	}
	entities, err := bootstrap.Schema(ctx)
	if err != nil {
		return fmt.Errorf("fetch schema: %w", err)
	}
	ns, err := catalog.Build(entities...)
	if err != nil {
		return err
	}
	c, err := service.NewClient(ns, transport, cfg.Client)
	if err != nil {
		return err
	}
	return fn(ctx, c)
}

func dial(ctx context.Context, cfg config.Config) (service.Transport, io.Closer, error) {
	if useStream {
		t, err := service.DialStream(ctx, cfg.StreamAddr, cfg.Stream)
		if err != nil {
			return nil, nil, err
		}
		return t, t, nil
	}
	url := httpURL
	if url == "" {
		url = "http://" + cfg.HTTPAddr
	}
	t := service.NewHTTPTransport(url, &http.Client{Timeout: cfg.Client.Timeout}, cfg.Retry).WithAuthToken(cfg.HTTPAuthToken)
	return t, io.NopCloser(nil), nil
}
