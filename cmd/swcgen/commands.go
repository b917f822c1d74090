package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/c360studio/swcgen/artifact"
	"github.com/c360studio/swcgen/config"
	"github.com/c360studio/swcgen/export"
	"github.com/c360studio/swcgen/graph"
	"github.com/c360studio/swcgen/requirement"
)

var errInvalidGraph = errors.New("project graph is inconsistent")

// writeData encodes v as JSON or YAML.
func writeData(w io.Writer, format string, v any) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (want json or yaml)", format)
	}
}

func parseCmd(opts *globalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "parse [inputs...]",
		Short: "Extract structured requirements",
		Long: `Extract structured requirements from input files, directories or globs.
With no inputs, or "-", plain text is read from stdin.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.app(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			docs, err := app.ReadInputs(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			reqs := []requirement.Document{}
			for _, doc := range docs {
				reqs = append(reqs, app.compiler.CompileDocument(doc).Requirements...)
			}
			return writeData(cmd.OutOrStdout(), format, reqs)
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", "yaml", "Output format (json, yaml)")
	return cmd
}

// generated pairs an input with the artifacts synthesized from it.
type generated struct {
	Source    string        `json:"source" yaml:"source"`
	Artifacts *artifact.Set `json:"artifacts" yaml:"artifacts"`
}

func generateCmd(opts *globalOptions) *cobra.Command {
	var (
		format  string
		summary bool
	)

	cmd := &cobra.Command{
		Use:   "generate [inputs...]",
		Short: "Synthesize artifacts without touching a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.app(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			docs, err := app.ReadInputs(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			out := make([]generated, 0, len(docs))
			total := artifact.Counts{}
			for _, doc := range docs {
				res := app.compiler.CompileDocument(doc)
				out = append(out, generated{Source: res.Source, Artifacts: res.Artifacts})
				for kind, n := range res.Artifacts.Counts() {
					total[kind] += n
				}
			}
			if summary {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), renderCounts("generated", total))
				return err
			}
			return writeData(cmd.OutOrStdout(), format, out)
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", "yaml", "Output format (json, yaml)")
	cmd.Flags().BoolVar(&summary, "summary", false, "Print artifact counts instead of the artifacts")
	return cmd
}

func compileCmd(opts *globalOptions) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "compile [inputs...]",
		Short: "Integrate requirements into a project",
		Long: `Extract, synthesize and integrate requirements into the project graph,
creating the project on first use. Each input is integrated atomically; an
input whose artifacts cannot be resolved aborts the command before saving.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := opts.app(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			docs, err := app.ReadInputs(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			p, err := app.LoadProject(ctx, opts.project, true)
			if err != nil {
				return err
			}

			added := artifact.Counts{}
			for _, doc := range docs {
				report, err := app.compiler.CompileDocumentInto(p, doc)
				if err != nil {
					return err
				}
				for kind, n := range report.Added {
					added[kind] += n
				}
			}

			if !dryRun {
				if err := app.SaveProject(ctx, p); err != nil {
					return err
				}
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), renderSummary(p.Name(), added, p.Counts(), p.Validate()))
			return err
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Do not save the project")
	return cmd
}

func validateCmd(opts *globalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the referential integrity of a project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := opts.app(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			p, err := app.LoadProject(ctx, opts.project, false)
			if err != nil {
				return err
			}
			result := p.Validate()
			if format == "" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), renderValidation(result))
			} else {
				err = writeData(cmd.OutOrStdout(), format, result)
			}
			if err != nil {
				return err
			}
			if !result.Valid {
				return errInvalidGraph
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", "", "Output format (json, yaml); default is a summary")
	return cmd
}

// deleteKinds maps command arguments to delete operations. ids holds the
// resolved entity ids from the positional arguments.
var deleteKinds = map[string]struct {
	kind  artifact.Kind
	arity int
	run   func(p *graph.Project, ids []string) error
}{
	"swc":          {artifact.KindSWC, 1, func(p *graph.Project, ids []string) error { return p.DeleteSWC(ids[0]) }},
	"port":         {artifact.KindPort, 1, func(p *graph.Project, ids []string) error { return p.DeletePort(ids[0]) }},
	"interface":    {artifact.KindInterface, 1, func(p *graph.Project, ids []string) error { return p.DeleteInterface(ids[0]) }},
	"data-type":    {artifact.KindDataType, 1, func(p *graph.Project, ids []string) error { return p.DeleteDataType(ids[0]) }},
	"runnable":     {artifact.KindRunnable, 1, func(p *graph.Project, ids []string) error { return p.DeleteRunnable(ids[0]) }},
	"access-point": {artifact.KindAccessPoint, 1, func(p *graph.Project, ids []string) error { return p.DeleteAccessPoint(ids[0]) }},
	"connection":   {artifact.KindConnection, 1, func(p *graph.Project, ids []string) error { return p.DeleteConnection(ids[0]) }},
	"composition":  {artifact.KindECUComposition, 1, func(p *graph.Project, ids []string) error { return p.DeleteECUComposition(ids[0]) }},
	"instance": {artifact.KindSWCInstance, 2, func(p *graph.Project, ids []string) error {
		return p.DeleteSWCInstance(ids[0], ids[1])
	}},
}

func deleteKindNames() string {
	names := make([]string, 0, len(deleteKinds))
	for name := range deleteKinds {
		names = append(names, name)
	}
	slices.Sort(names)
	return strings.Join(names, ", ")
}

// resolveRef turns a name or id into an entity id. Ids are recognized by
// their kind prefix; names are looked up for named top-level entities.
func resolveRef(p *graph.Project, kind artifact.Kind, ref string) (string, error) {
	if strings.Contains(ref, ":") {
		return ref, nil
	}
	var (
		id string
		ok bool
	)
	switch kind {
	case artifact.KindSWC:
		var swc graph.SWC
		swc, ok = p.SWCByName(ref)
		id = swc.ID
	case artifact.KindInterface:
		var iface graph.Interface
		iface, ok = p.InterfaceByName(ref)
		id = iface.ID
	case artifact.KindDataType:
		var dt graph.DataType
		dt, ok = p.DataTypeByName(ref)
		id = dt.ID
	case artifact.KindECUComposition:
		var comp graph.ECUComposition
		comp, ok = p.CompositionByName(ref)
		id = comp.ID
	default:
		return "", fmt.Errorf("%s entities must be referenced by id", kind)
	}
	if !ok {
		return "", fmt.Errorf("%w: %s %q", graph.ErrNotFound, kind, ref)
	}
	return id, nil
}

func deleteCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete KIND REF [REF]",
		Short: "Delete an entity and everything that depends on it",
		Long: fmt.Sprintf(`Delete an entity with cascading clean-up. KIND is one of: %s.
REF is an entity id, or a name for swc, interface, data-type and composition.
Instances take the composition and the instance id.`, deleteKindNames()),
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			op, ok := deleteKinds[args[0]]
			if !ok {
				return fmt.Errorf("unknown kind %q (want one of: %s)", args[0], deleteKindNames())
			}
			refs := args[1:]
			if len(refs) != op.arity {
				return fmt.Errorf("%s takes %d reference(s), got %d", args[0], op.arity, len(refs))
			}

			ctx := cmd.Context()
			app, err := opts.app(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			p, err := app.LoadProject(ctx, opts.project, false)
			if err != nil {
				return err
			}

			ids := make([]string, len(refs))
			kinds := []artifact.Kind{op.kind}
			if op.arity == 2 {
				kinds = []artifact.Kind{artifact.KindECUComposition, artifact.KindSWCInstance}
			}
			for i, ref := range refs {
				if ids[i], err = resolveRef(p, kinds[i], ref); err != nil {
					return err
				}
			}

			before := p.Counts()
			if err := op.run(p, ids); err != nil {
				return err
			}
			if err := app.SaveProject(ctx, p); err != nil {
				return err
			}

			removed := artifact.Counts{}
			after := p.Counts()
			for kind, n := range before {
				removed[kind] = n - after[kind]
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderCounts("removed", removed))
			_, err = fmt.Fprintln(cmd.OutOrStdout(), renderValidation(p.Validate()))
			return err
		},
	}
	return cmd
}

func renameCmd(opts *globalOptions) *cobra.Command {
	renames := map[string]struct {
		kind artifact.Kind
		run  func(p *graph.Project, id, name string) error
	}{
		"swc":       {artifact.KindSWC, (*graph.Project).RenameSWC},
		"interface": {artifact.KindInterface, (*graph.Project).RenameInterface},
		"data-type": {artifact.KindDataType, (*graph.Project).RenameDataType},
	}

	cmd := &cobra.Command{
		Use:   "rename KIND REF NEW_NAME",
		Short: "Rename a component, interface or data type",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			op, ok := renames[args[0]]
			if !ok {
				return fmt.Errorf("unknown kind %q (want swc, interface or data-type)", args[0])
			}

			ctx := cmd.Context()
			app, err := opts.app(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			p, err := app.LoadProject(ctx, opts.project, false)
			if err != nil {
				return err
			}
			id, err := resolveRef(p, op.kind, args[1])
			if err != nil {
				return err
			}
			if err := op.run(p, id, args[2]); err != nil {
				return err
			}
			if err := app.SaveProject(ctx, p); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "renamed %s %s to %s\n", args[0], id, args[2])
			return err
		},
	}
	return cmd
}

func exportCmd(opts *globalOptions) *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Serialize a validated project",
		Long: fmt.Sprintf(`Serialize the project graph. Export refuses an inconsistent graph.
Formats: %s. Without --format the output file extension decides, else json.`,
			strings.Join(export.Formats(), ", ")),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := export.FormatJSON
			switch {
			case format != "":
				parsed, err := export.ParseFormat(format)
				if err != nil {
					return err
				}
				f = parsed
			case output != "":
				if parsed, err := export.ParseFormat(filepath.Ext(output)); err == nil {
					f = parsed
				}
			}

			ctx := cmd.Context()
			app, err := opts.app(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			p, err := app.LoadProject(ctx, opts.project, false)
			if err != nil {
				return err
			}
			data, err := export.ExportProject(p, f)
			if err != nil {
				return err
			}
			if output == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}
			if err := os.WriteFile(output, data, 0644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			app.logger.Info("Exported project", "project", p.Name(), "format", f, "path", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "Export format")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	return cmd
}

func listCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := opts.app(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			s, err := app.Store(ctx)
			if err != nil {
				return err
			}
			names, err := s.List(ctx)
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func initCmd(opts *globalOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a default project config",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			path := filepath.Join(dir, config.ProjectConfigFile)
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.DefaultConfig().SaveToFile(path); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return err
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config")
	return cmd
}
