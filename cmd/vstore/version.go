package main

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// buildInfo is the version report printed by "vstore version".
type buildInfo struct {
	Version   string            `json:"version"`
	Commit    string            `json:"commit"`
	Date      string            `json:"date"`
	GoVersion string            `json:"go"`
	Platform  string            `json:"platform"`
	Deps      map[string]string `json:"deps,omitempty"`
}

// reportedDeps are the modules whose versions are worth showing when
// diagnosing metrics, tracing or inspector issues.
var reportedDeps = []struct{ label, path string }{
	{"Prometheus", "github.com/prometheus/client_golang"},
	{"OTel", "go.opentelemetry.io/otel"},
	{"chi", "github.com/go-chi/chi/v5"},
	{"websocket", "github.com/gorilla/websocket"},
}

func currentBuildInfo() buildInfo {
	bi := buildInfo{
		Version:   version,
		Commit:    commit,
		Date:      date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return bi
	}
	for _, dep := range info.Deps {
		for _, rd := range reportedDeps {
			if dep.Path == rd.path {
				if bi.Deps == nil {
					bi.Deps = make(map[string]string)
				}
				bi.Deps[dep.Path] = dep.Version
			}
		}
	}
	return bi
}

func versionCmd() *cobra.Command {
	var (
		short  bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print version, commit and build information for the vstore CLI.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printVersion(cmd.OutOrStdout(), currentBuildInfo(), short, asJSON)
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only the version number")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print build information as JSON")

	return cmd
}

func printVersion(w io.Writer, bi buildInfo, short, asJSON bool) error {
	switch {
	case short:
		_, err := fmt.Fprintln(w, bi.Version)
		return err
	case asJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(bi)
	}

	fmt.Fprint(w, banner)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Version:    %s\n", bi.Version)
	fmt.Fprintf(w, "  Commit:     %s\n", bi.Commit)
	fmt.Fprintf(w, "  Built:      %s\n", bi.Date)
	fmt.Fprintf(w, "  Go version: %s\n", bi.GoVersion)
	fmt.Fprintf(w, "  OS/Arch:    %s\n", bi.Platform)
	for _, rd := range reportedDeps {
		if v, ok := bi.Deps[rd.path]; ok {
			fmt.Fprintf(w, "  %-11s %s\n", rd.label+":", v)
		}
	}
	fmt.Fprintln(w)
	return nil
}
