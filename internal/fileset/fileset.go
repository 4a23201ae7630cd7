// Package fileset normalizes the heterogeneous file inputs accepted by
// RequestCore.Files (paths, directories, readers, pre-shaped parts) into a
// uniform part list, per spec.md §4.4. Grounded on
// original_source/core/utils/api/base_request.py's resolve_file/resolve_files.
package fileset

import (
	"io"
	"mime"
	"os"
	"path/filepath"
)

// Part is one normalized multipart file entry. Exactly one of Path or Data
// is populated, chosen by the Chunked flag passed to Normalize: Chunked
// keeps a Path reference for the transport to stream; otherwise bytes are
// read eagerly into Data.
type Part struct {
	Name        string
	Filename    string
	Path        string
	Data        []byte
	ContentType string
}

func (p Part) key() string {
	if p.Path != "" {
		return "path:" + p.Path
	}
	return "name:" + p.Name + "|" + p.Filename
}

// NamedReader is a file-like handle: an io.Reader plus a display name, the
// Go analogue of Python's file objects exposing a ".name" attribute.
type NamedReader struct {
	Name        string
	Reader      io.Reader
	ContentType string
}

// Input is one already-shaped file entry: a field name paired with either a
// NamedReader or raw bytes.
type Input struct {
	FieldName   string
	Filename    string
	Reader      io.Reader
	Data        []byte
	ContentType string
}

// Normalize flattens any mix of string paths, directories, *Input, *NamedReader,
// []Part, and nested slices thereof into a deduplicated, order-preserving
// []Part. Passing the output back through Normalize is a no-op (spec.md §8).
func Normalize(chunked bool, items ...any) ([]Part, error) {
	var out []Part
	seen := make(map[string]bool)

	var walk func(item any) error
	walk = func(item any) error {
		switch v := item.(type) {
		case nil:
			return nil

		case Part:
			return appendUnique(&out, seen, v)

		case []Part:
			for _, p := range v {
				if err := appendUnique(&out, seen, p); err != nil {
					return err
				}
			}
			return nil

		case string:
			return walkPath(chunked, v, &out, seen)

		case Input:
			return walkInput(chunked, v, &out, seen)

		case *Input:
			return walkInput(chunked, *v, &out, seen)

		case NamedReader:
			return walkNamedReader(chunked, v, &out, seen)

		case *NamedReader:
			return walkNamedReader(chunked, *v, &out, seen)

		case []string:
			for _, s := range v {
				if err := walk(s); err != nil {
					return err
				}
			}
			return nil

		case []any:
			for _, x := range v {
				if err := walk(x); err != nil {
					return err
				}
			}
			return nil

		default:
			return nil
		}
	}

	for _, item := range items {
		if err := walk(item); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func appendUnique(out *[]Part, seen map[string]bool, p Part) error {
	k := p.key()
	if seen[k] {
		return nil
	}
	seen[k] = true
	*out = append(*out, p)
	return nil
}

func walkPath(chunked bool, path string, out *[]Part, seen map[string]bool) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	if info.IsDir() {
		return filepath.Walk(path, func(p string, fi os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if fi.IsDir() {
				return nil
			}
			abs, err := filepath.Abs(p)
			if err != nil {
				return err
			}
			part, err := readPart(chunked, abs)
			if err != nil {
				return err
			}
			return appendUnique(out, seen, part)
		})
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	part, err := readPart(chunked, abs)
	if err != nil {
		return err
	}
	return appendUnique(out, seen, part)
}

func partFromPath(chunked bool, abs string) Part {
	filename := filepath.Base(abs)
	name := filename[:len(filename)-len(filepath.Ext(filename))]
	ct := mime.TypeByExtension(filepath.Ext(abs))
	if ct == "" {
		ct = "application/octet-stream"
	}

	p := Part{Name: name, Filename: filename, ContentType: ct}
	if chunked {
		p.Path = abs
	}
	return p
}

func readPart(chunked bool, abs string) (Part, error) {
	p := partFromPath(chunked, abs)
	if chunked {
		return p, nil
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return Part{}, err
	}
	p.Data = data
	return p, nil
}

func walkInput(chunked bool, in Input, out *[]Part, seen map[string]bool) error {
	ct := in.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}

	p := Part{Name: in.FieldName, Filename: in.Filename, ContentType: ct}

	switch {
	case in.Reader != nil:
		data, err := io.ReadAll(in.Reader)
		if err != nil {
			return err
		}
		p.Data = data
	case in.Data != nil:
		if chunked {
			// no path to stream from; fall back to eager bytes
		}
		p.Data = in.Data
	}

	return appendUnique(out, seen, p)
}

func walkNamedReader(chunked bool, nr NamedReader, out *[]Part, seen map[string]bool) error {
	filename := filepath.Base(nr.Name)
	name := filename[:len(filename)-len(filepath.Ext(filename))]
	ct := nr.ContentType
	if ct == "" {
		ct = mime.TypeByExtension(filepath.Ext(filename))
	}
	if ct == "" {
		ct = "application/octet-stream"
	}

	p := Part{Name: name, Filename: filename, ContentType: ct}

	if f, ok := nr.Reader.(*os.File); ok && chunked {
		abs, err := filepath.Abs(f.Name())
		if err != nil {
			return err
		}
		p.Path = abs
		return appendUnique(out, seen, p)
	}

	data, err := io.ReadAll(nr.Reader)
	if err != nil {
		return err
	}
	p.Data = data
	return appendUnique(out, seen, p)
}
