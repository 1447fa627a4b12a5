package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/abhisek/aimentor/internal/catalog"
	"github.com/abhisek/aimentor/internal/command"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Import and inspect course material",
}

var catalogSeedCmd = &cobra.Command{
	Use:   "seed <manifest.yaml>",
	Short: "Upload a course from a YAML manifest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read manifest: %w", err)
		}
		m, err := catalog.ParseManifest(data)
		if err != nil {
			return err
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		log, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer log.Sync()

		ctx := cmd.Context()
		s, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer s.Close()

		blobs, closeBlobs, err := newBlobStore(ctx, cfg)
		if err != nil {
			return fmt.Errorf("open blob store: %w", err)
		}
		defer closeBlobs()

		files := os.DirFS(filepath.Dir(args[0]))
		stats, err := catalog.Seed(ctx, m, files, blobs, s.Content())
		if err != nil {
			return err
		}

		loader, closeCache := newCatalogLoader(cfg, s, log)
		defer closeCache()
		if err := loader.Invalidate(ctx); err != nil {
			log.Warn("catalog cache invalidation failed", "error", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d topics, %d blocks, %d chapters (%d files)\n",
			stats.Topics, stats.Blocks, stats.Chapters, stats.Files)
		return nil
	},
}

var catalogShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the catalog fragment embedded in onboarding prompts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		s, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer s.Close()

		layout, _ := cmd.Flags().GetString("layout")
		out, err := renderCatalog(cmd.Context(), s.Content(), layout)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

var catalogSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema a command entry must satisfy",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), command.SchemaJSON())
		return nil
	},
}

func renderCatalog(ctx context.Context, src catalog.Source, layout string) (string, error) {
	topics, err := src.Topics(ctx)
	if err != nil {
		return "", err
	}
	blocks, err := src.Blocks(ctx)
	if err != nil {
		return "", err
	}
	chapters, err := src.Chapters(ctx)
	if err != nil {
		return "", err
	}
	switch layout {
	case "flat":
		return catalog.Flat(topics, blocks, chapters)
	case "hierarchical":
		return catalog.Hierarchical(topics, blocks, chapters)
	case "", "fragment":
		return catalog.Fragment(topics, blocks, chapters)
	}
	return "", fmt.Errorf("unknown layout %q (want fragment, flat or hierarchical)", layout)
}

func init() {
	catalogShowCmd.Flags().String("layout", "fragment", "Output layout: fragment, flat or hierarchical")

	catalogCmd.AddCommand(catalogSeedCmd)
	catalogCmd.AddCommand(catalogShowCmd)
	catalogCmd.AddCommand(catalogSchemaCmd)
}
