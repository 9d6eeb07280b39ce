// Package conv manages the convention bundle cache under .rigra/conv.
// Bundles are tar.gz archives installed from a file path or a GitHub release
// tag and addressed by conv:name@ver[:subpath] references.
package conv

import (
	"archive/tar"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	kgzip "github.com/klauspost/compress/gzip"

	"github.com/nazahex/rigra/pkg/logger"
)

// Ref addresses an installed convention bundle.
type Ref struct {
	Name    string
	Ver     string
	Subpath string
}

// Source describes where a bundle archive comes from.
type Source struct {
	Kind  string // "gh" or "file"
	Owner string
	Repo  string
	Tag   string
	Path  string
}

// ParseRef parses "conv:name@ver[:subpath]". The subpath defaults to
// index.toml.
func ParseRef(s string) (*Ref, bool) {
	rest, ok := strings.CutPrefix(s, "conv:")
	if !ok {
		return nil, false
	}
	subpath := "index.toml"
	if i := strings.Index(rest, ":"); i >= 0 {
		subpath = rest[i+1:]
		rest = rest[:i]
	}
	name, ver, ok := SplitNameVer(rest)
	if !ok {
		return nil, false
	}
	return &Ref{Name: name, Ver: ver, Subpath: subpath}, true
}

// SplitNameVer splits "name@ver" at the last @, so scoped names like
// "@owner/pkg@v1.0.0" keep their prefix.
func SplitNameVer(s string) (string, string, bool) {
	i := strings.LastIndex(s, "@")
	if i <= 0 {
		return "", "", false
	}
	return s[:i], s[i+1:], true
}

// OwnerRepo derives a GitHub owner/repo pair from a package name. Accepts
// @owner/repo, owner/repo, and bare repo (owner defaults to the repo name).
func OwnerRepo(name string) (string, string, bool) {
	s := strings.TrimPrefix(name, "@")
	if s == "" {
		return "", "", false
	}
	if owner, repo, ok := strings.Cut(s, "/"); ok {
		return owner, repo, true
	}
	return s, s, true
}

// ParseSource parses "gh:owner/repo@tag" or "file:/abs/path.tar.gz".
func ParseSource(s string) (*Source, bool) {
	if rest, ok := strings.CutPrefix(s, "gh:"); ok {
		repoPart, tag, ok := SplitNameVer(rest)
		if !ok {
			return nil, false
		}
		owner, repo, ok := strings.Cut(repoPart, "/")
		if !ok {
			return nil, false
		}
		return &Source{Kind: "gh", Owner: owner, Repo: repo, Tag: tag}, true
	}
	if rest, ok := strings.CutPrefix(s, "file:"); ok {
		return &Source{Kind: "file", Path: rest}, true
	}
	return nil, false
}

// CacheDir returns the bundle cache root for a repository.
func CacheDir(root string) string {
	return filepath.Join(root, ".rigra", "conv")
}

// cacheKey flattens slashes in a bundle name so it can be a directory name.
func cacheKey(nameVer string) string {
	return strings.ReplaceAll(nameVer, "/", "__")
}

// ResolvePath returns the on-disk path a reference points at.
func ResolvePath(root string, r *Ref) string {
	return filepath.Join(CacheDir(root), cacheKey(r.Name+"@"+r.Ver), r.Subpath)
}

// Install fetches the archive described by source and extracts it into the
// cache entry for nameVer, returning the entry directory.
func Install(root, nameVer, source string) (string, error) {
	src, ok := ParseSource(source)
	if !ok {
		return "", fmt.Errorf("unsupported source %q (want gh:owner/repo@tag or file:/path.tar.gz)", source)
	}

	dest := filepath.Join(CacheDir(root), cacheKey(nameVer))
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}

	var archive io.ReadCloser
	stripTop := false
	switch src.Kind {
	case "file":
		f, err := os.Open(src.Path) // #nosec G304 -- source path is operator-supplied configuration
		if err != nil {
			return "", fmt.Errorf("open archive: %w", err)
		}
		archive = f
	case "gh":
		url := fmt.Sprintf("https://github.com/%s/%s/archive/refs/tags/%s.tar.gz", src.Owner, src.Repo, src.Tag)
		client := &http.Client{Timeout: 60 * time.Second}
		resp, err := client.Get(url)
		if err != nil {
			return "", fmt.Errorf("download %s: %w", url, err)
		}
		if resp.StatusCode != http.StatusOK {
			_ = resp.Body.Close()
			return "", fmt.Errorf("download %s: status %s", url, resp.Status)
		}
		archive = resp.Body
		stripTop = true // GitHub tag archives wrap everything in repo-tag/
	}
	defer func() { _ = archive.Close() }()

	if err := extractTarGz(archive, dest, stripTop); err != nil {
		return "", err
	}
	logger.Debug("Installed convention bundle", logger.String("bundle", nameVer), logger.String("dir", dest))
	return dest, nil
}

func extractTarGz(r io.Reader, dest string, stripTop bool) error {
	gz, err := kgzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("open gzip stream: %w", err)
	}
	defer func() { _ = gz.Close() }()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read archive: %w", err)
		}

		name := filepath.ToSlash(filepath.Clean(hdr.Name))
		if name == "." || name == "" {
			continue
		}
		if strings.HasPrefix(name, "..") {
			return fmt.Errorf("archive entry escapes destination: %s", hdr.Name)
		}
		if stripTop {
			if _, rest, ok := strings.Cut(name, "/"); ok {
				name = rest
			} else {
				continue // the wrapping directory itself
			}
		}
		target := filepath.Join(dest, filepath.FromSlash(name))

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(hdr.Mode)&0o777) // #nosec G304 -- target is contained in dest
			if err != nil {
				return err
			}
			// Bound the copy; convention bundles are small text archives.
			if _, err := io.Copy(f, io.LimitReader(tr, 64<<20)); err != nil { // #nosec G110
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
		}
	}
}

// List returns the cache entries for a repository, sorted by name.
func List(root string) []string {
	entries, err := os.ReadDir(CacheDir(root))
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out
}

// Prune removes the whole bundle cache.
func Prune(root string) error {
	return os.RemoveAll(CacheDir(root))
}
