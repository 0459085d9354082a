// driver.go — the file driver, spec.md §6's "External interfaces" +
// SPEC_FULL.md's added file-driver contract.
//
// Grounded on the teacher's modules.go `resolveFS`/`resolveAndFetch`
// algorithm: resolve a name against a list of search roots, trying the
// name with the source extension appended before the bare name, first
// match wins. There, the unit of resolution is an import spec loaded into
// a running interpreter; here it is a namespace being compiled to a
// generated output file, so "fetch and evaluate" becomes "locate the
// source file, and later, write the generated one."
package driver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	env "github.com/xyproto/env/v2"
)

// SourceExt is the on-disk extension for this compiler's source files.
const SourceExt = ".cljd"

// PathEnvVar is the search-path environment variable; DefaultSearchPath
// always reads it, and its roots come after the source root and "." and
// before any explicitly configured roots (SPEC_FULL.md §7's "Configuration").
const PathEnvVar = "CLJD_PATH"

// NotFoundError reports that no search root held a file for a namespace.
type NotFoundError struct {
	Namespace  string
	SearchPath []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("namespace %q not found in search path %v", e.Namespace, e.SearchPath)
}

// DefaultSearchPath returns the configured search path: the current
// working directory first, then every root named in CLJD_PATH (using the
// host's path-list separator), falling back to just the working directory
// when the variable is unset.
func DefaultSearchPath() []string {
	roots := []string{"."}
	raw := env.Str(PathEnvVar, "")
	if raw == "" {
		return roots
	}
	for _, r := range filepath.SplitList(raw) {
		if r != "" {
			roots = append(roots, r)
		}
	}
	return roots
}

// NamespaceToRelPath converts a dotted namespace name to the relative
// path it maps to on disk, e.g. "app.core" -> "app/core".
func NamespaceToRelPath(ns string) string {
	return strings.ReplaceAll(ns, ".", string(filepath.Separator))
}

// ResolveNamespaceFile locates the source file for ns by trying, for each
// root of searchPath in order, the namespace's relative path with
// SourceExt appended and then the bare relative path — the same
// two-filename-try, first-match-wins order as the teacher's resolveFS.
func ResolveNamespaceFile(ns string, searchPath []string) (string, error) {
	rel := NamespaceToRelPath(ns)
	for _, root := range searchPath {
		for _, cand := range []string{filepath.Join(root, rel+SourceExt), filepath.Join(root, rel)} {
			if fi, err := os.Stat(cand); err == nil && !fi.IsDir() {
				abs, err := filepath.Abs(cand)
				if err != nil {
					return cand, nil
				}
				return filepath.Clean(abs), nil
			}
		}
	}
	return "", &NotFoundError{Namespace: ns, SearchPath: searchPath}
}

// ReadNamespaceSource resolves and reads ns's source file.
func ReadNamespaceSource(ns string, searchPath []string) (src, path string, err error) {
	path, err = ResolveNamespaceFile(ns, searchPath)
	if err != nil {
		return "", "", err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(b), path, nil
}

// TargetFilePath maps a namespace to the path its generated output is
// written to under outDir, mirroring NamespaceToRelPath's dots-to-slashes
// convention with the target language's own file extension.
func TargetFilePath(outDir, ns, targetExt string) string {
	return filepath.Join(outDir, NamespaceToRelPath(ns)+targetExt)
}

// WriteGeneratedFile writes contents to path, creating any missing parent
// directories, and guarantees the file handle is closed (and its error
// observed) even when the write itself fails partway through.
func WriteGeneratedFile(path, contents string) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory for %s: %w", path, err)
	}
	f, openErr := os.Create(path)
	if openErr != nil {
		return fmt.Errorf("creating %s: %w", path, openErr)
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()
	if _, werr := f.WriteString(contents); werr != nil {
		err = fmt.Errorf("writing %s: %w", path, werr)
		return err
	}
	return nil
}
