// main.go — the cljd CLI entry point, spec.md §6 + SPEC_FULL.md §7's added
// configuration section.
//
// Grounded on the teacher's cmd/msg/main.go: stdlib `flag`, a usage banner
// printed on bad invocation, explicit `os.Exit` codes rather than panics.
// Where the teacher dispatches subcommands (run/repl/fmt/test/get), this
// CLI has exactly one job — compile a set of namespaces to generated
// source — so it takes flags directly instead of a subcommand dispatch
// table.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	cljd "github.com/TiLogic/ClojureDart"
	"github.com/TiLogic/ClojureDart/driver"
)

const appName = "cljd"

func usage() {
	fmt.Fprintf(os.Stderr, `%s — compile namespaces to generated target source

Usage:
  %s -src <dir> [-out <dir>] [-path <list>] <namespace> [<namespace> ...]

Flags:
  -src   source root searched first, ahead of -path/CLJD_PATH (required)
  -out   output directory for generated files (default "out")
  -path  extra search roots, using the host path-list separator

`, appName, appName)
}

func main() {
	srcDir := flag.String("src", "", "source root directory")
	outDir := flag.String("out", "out", "output directory")
	extraPath := flag.String("path", "", "extra search roots")
	flag.Usage = usage
	flag.Parse()

	namespaces := flag.Args()
	if *srcDir == "" || len(namespaces) == 0 {
		usage()
		os.Exit(2)
	}

	searchPath := append([]string{*srcDir}, driver.DefaultSearchPath()...)
	if *extraPath != "" {
		searchPath = append(searchPath, strings.Split(*extraPath, string(os.PathListSeparator))...)
	}

	reg := cljd.NewRegistry()
	mx := cljd.NewExpander(reg)
	em := cljd.NewEmitter(reg)
	an := cljd.NewAnalyzer(reg, em, mx)

	for _, ns := range namespaces {
		if err := compileNamespace(an, reg, ns, searchPath, *outDir); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %s: %v\n", appName, ns, err)
			os.Exit(1)
		}
	}
}

// compileNamespace reads, analyzes, and writes one namespace's generated
// file — the per-namespace emission routine SPEC_FULL.md's driver section
// names.
func compileNamespace(an *cljd.Analyzer, reg *cljd.Registry, ns string, searchPath []string, outDir string) error {
	src, path, err := driver.ReadNamespaceSource(ns, searchPath)
	if err != nil {
		return err
	}

	reg.SetCurrent(ns)
	forms, meta, err := cljd.ReadAllWithMeta(src)
	if err != nil {
		return cljd.WrapErrorWithName(err, path, src)
	}
	an.Meta = meta

	env := cljd.NewEnv()
	for _, form := range forms {
		if _, err := an.AnalyzeTop(env, form); err != nil {
			return cljd.WrapErrorWithName(err, path, src)
		}
	}

	record, ok := reg.Namespace(ns)
	if !ok {
		return fmt.Errorf("namespace %q was never defined by %s (missing `ns` form?)", ns, path)
	}
	out := an.Emitter.EmitNamespace(record)

	targetPath := driver.TargetFilePath(outDir, ns, ".dart")
	if err := driver.WriteGeneratedFile(targetPath, out); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "%s -> %s\n", path, targetPath)
	return nil
}
