package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ehr/fhirviewer/internal/domain/catalog"
	"github.com/ehr/fhirviewer/internal/platform/db"
	"github.com/ehr/fhirviewer/internal/platform/fhir"
	"github.com/ehr/fhirviewer/internal/platform/store"
	"github.com/ehr/fhirviewer/migrations"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           appName,
		Short:         "Browse FHIR resource and profile definitions",
		SilenceUsage:  true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(treeCmd())
	rootCmd.AddCommand(compareCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the definition viewer API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List definitions in a namespace",
		RunE: func(cmd *cobra.Command, args []string) error {
			ns, _ := cmd.Flags().GetString("ns")
			kind, _ := cmd.Flags().GetString("kind")

			ctx := cmd.Context()
			a, err := stderrApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			items, err := a.catalog.List(ctx, ns, kind)
			if err != nil {
				return err
			}
			return renderList(cmd.OutOrStdout(), items)
		},
	}
	cmd.Flags().String("ns", store.NamespaceFHIRR4, "Namespace to list")
	cmd.Flags().String("kind", "", "Only list resource, profile or datatype entries")
	return cmd
}

func showCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show NAME",
		Short: "Print a normalized definition as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ns, _ := cmd.Flags().GetString("ns")

			ctx := cmd.Context()
			a, err := stderrApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			d, err := a.catalog.Get(ctx, ns, args[0])
			if err != nil {
				return err
			}
			return renderJSON(cmd.OutOrStdout(), d)
		},
	}
	cmd.Flags().String("ns", store.NamespaceFHIRR4, "Namespace of the definition")
	return cmd
}

func treeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree NAME",
		Short: "Print the field hierarchy of a definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ns, _ := cmd.Flags().GetString("ns")
			hideExt, _ := cmd.Flags().GetBool("hide-extensions")
			msOnly, _ := cmd.Flags().GetBool("must-support-only")
			maxDepth, _ := cmd.Flags().GetInt("max-depth")
			describe, _ := cmd.Flags().GetBool("describe")
			asJSON, _ := cmd.Flags().GetBool("json")

			ctx := cmd.Context()
			a, err := stderrApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			view, err := a.catalog.Tree(ctx, ns, args[0], fhir.FilterOptions{
				HideExtensions:  hideExt,
				MustSupportOnly: msOnly,
				MaxDepth:        maxDepth,
			})
			if err != nil {
				return err
			}
			if asJSON {
				return renderJSON(cmd.OutOrStdout(), view)
			}
			return renderTree(cmd.OutOrStdout(), view, describe)
		},
	}
	cmd.Flags().String("ns", store.NamespaceFHIRR4, "Namespace of the definition")
	cmd.Flags().Bool("hide-extensions", false, "Hide extension fields")
	cmd.Flags().Bool("must-support-only", false, "Only show must-support fields")
	cmd.Flags().Int("max-depth", 0, "Maximum field depth (0 for unlimited)")
	cmd.Flags().Bool("describe", false, "Print field descriptions")
	cmd.Flags().Bool("json", false, "Print the tree as JSON")
	return cmd
}

func compareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare PROFILE",
		Short: "Compare a profile with the resource it constrains",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ns, _ := cmd.Flags().GetString("ns")
			baseNs, _ := cmd.Flags().GetString("base-ns")
			asJSON, _ := cmd.Flags().GetBool("json")

			ctx := cmd.Context()
			a, err := stderrApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.catalog.Compare(ctx, ns, args[0], baseNs)
			if err != nil {
				return err
			}
			if asJSON {
				return renderJSON(cmd.OutOrStdout(), result)
			}
			return renderComparison(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().String("ns", store.NamespaceUSCore, "Namespace of the profile")
	cmd.Flags().String("base-ns", catalog.DefaultBaseNamespace, "Namespace of the base resource")
	cmd.Flags().Bool("json", false, "Print the comparison as JSON")
	return cmd
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load definition files from a directory into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			migrate, _ := cmd.Flags().GetBool("migrate")

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.DataDir
			}
			a := &app{cfg: cfg, logger: newLogger(cfg, os.Stderr)}
			defer a.Close()

			ctx := cmd.Context()
			pool, err := a.openPool(ctx)
			if err != nil {
				return err
			}
			if migrate {
				if _, err := db.NewMigrator(pool, migrations.FS).Up(ctx); err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
			}

			count, err := importDefinitions(ctx, store.NewFileSource(dir), store.NewPGSource(pool), fhir.NewNormalizer())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d definition(s) from %s.\n", count, dir)
			return nil
		},
	}
	cmd.Flags().String("dir", "", "Definition directory (defaults to DATA_DIR)")
	cmd.Flags().Bool("migrate", false, "Apply pending migrations first")
	return cmd
}

type definitionWriter interface {
	Put(ctx context.Context, e store.IndexEntry, content []byte) error
}

// importDefinitions copies every indexed definition from src to dst. Entry
// counts and base names are recomputed from the normalized descriptor.
func importDefinitions(ctx context.Context, src store.Source, dst definitionWriter, n *fhir.Normalizer) (int, error) {
	idx, err := src.LoadIndex(ctx)
	if err != nil {
		return 0, err
	}
	names := make([]string, 0, len(idx.ByName))
	for name := range idx.ByName {
		names = append(names, name)
	}
	sort.Strings(names)

	count := 0
	for _, name := range names {
		e := idx.ByName[name]
		data, err := src.ReadFile(ctx, e.File)
		if err != nil {
			return count, err
		}
		raw, err := fhir.DecodeRawDefinition(data)
		if err != nil {
			return count, fmt.Errorf("%s: %w", e.File, err)
		}
		d, err := n.Normalize(raw)
		if err != nil {
			return count, fmt.Errorf("%s: %w", e.File, err)
		}
		e.ElementCount = len(d.Elements)
		e.MustSupportCount = d.MustSupportCount
		if e.BaseDefinition == "" {
			e.BaseDefinition = d.BaseType
		}
		if err := dst.Put(ctx, e, data); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	// migrate up
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a := &app{cfg: cfg, logger: newLogger(cfg, os.Stderr)}
			defer a.Close()

			ctx := cmd.Context()
			pool, err := a.openPool(ctx)
			if err != nil {
				return err
			}
			count, err := db.NewMigrator(pool, migrations.FS).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
			return nil
		},
	})

	// migrate status
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a := &app{cfg: cfg, logger: newLogger(cfg, os.Stderr)}
			defer a.Close()

			ctx := cmd.Context()
			pool, err := a.openPool(ctx)
			if err != nil {
				return err
			}
			statuses, err := db.NewMigrator(pool, migrations.FS).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			return renderMigrations(cmd.OutOrStdout(), statuses)
		},
	})

	return cmd
}
