package fs

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/charlievieth/fastwalk"
	"github.com/gabriel-vasile/mimetype"

	"github.com/GriffinCanCode/AgentOS/studio/internal/domain/capability"
	"github.com/GriffinCanCode/AgentOS/studio/internal/shared/types"
)

// ID is the capability ID
const ID = "fs"

// Plugin reads and writes files inside a glob scope
type Plugin struct {
	scope *Scope
}

// New creates the fs plugin
func New(scope *Scope) *Plugin {
	return &Plugin{scope: scope}
}

// Definition returns capability metadata
func (p *Plugin) Definition() types.Capability {
	path := types.Parameter{Name: "path", Type: "string", Description: "Absolute path, or relative to the app data dir", Required: true}
	fromTo := []types.Parameter{
		{Name: "from", Type: "string", Description: "Source path", Required: true},
		{Name: "to", Type: "string", Description: "Destination path", Required: true},
	}
	cmd := func(id, name, desc, returns string, params ...types.Parameter) types.Command {
		return types.Command{ID: ID + "." + id, Name: name, Description: desc, Parameters: params, Returns: returns}
	}

	return types.Capability{
		ID:          ID,
		Name:        "File System",
		Description: "Scoped access to files and directories",
		Category:    types.CategoryFilesystem,
		Commands: []types.Command{
			cmd("read_text_file", "Read Text File", "Read a file as UTF-8 text", "string", path),
			cmd("read_file", "Read File", "Read a file as base64", "string", path),
			cmd("write_text_file", "Write Text File", "Write text to a file", "object", path,
				types.Parameter{Name: "contents", Type: "string", Description: "Text", Required: true},
				types.Parameter{Name: "append", Type: "boolean", Description: "Append instead of truncating", Required: false},
			),
			cmd("write_file", "Write File", "Write base64 data to a file", "object", path,
				types.Parameter{Name: "contents", Type: "string", Description: "Base64 data", Required: true},
			),
			cmd("read_dir", "Read Directory", "List a directory", "array", path,
				types.Parameter{Name: "recursive", Type: "boolean", Description: "Walk subdirectories", Required: false},
			),
			cmd("stat", "Stat", "File metadata including MIME type", "object", path),
			cmd("exists", "Exists", "Whether a path exists", "boolean", path),
			cmd("mkdir", "Make Directory", "Create a directory", "object", path,
				types.Parameter{Name: "recursive", Type: "boolean", Description: "Create parents", Required: false},
			),
			cmd("remove", "Remove", "Remove a file or directory", "object", path,
				types.Parameter{Name: "recursive", Type: "boolean", Description: "Remove contents", Required: false},
			),
			cmd("rename", "Rename", "Rename or move a path", "object", fromTo...),
			cmd("copy_file", "Copy File", "Copy a file", "object", fromTo...),
		},
	}
}

// Execute runs an fs command
func (p *Plugin) Execute(ctx context.Context, command string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	switch command {
	case ID + ".read_text_file":
		return p.readFile(params, false)
	case ID + ".read_file":
		return p.readFile(params, true)
	case ID + ".write_text_file":
		return p.writeFile(params, false)
	case ID + ".write_file":
		return p.writeFile(params, true)
	case ID + ".read_dir":
		return p.readDir(ctx, params)
	case ID + ".stat":
		return p.stat(params)
	case ID + ".exists":
		return p.exists(params)
	case ID + ".mkdir":
		return p.mkdir(params)
	case ID + ".remove":
		return p.remove(params)
	case ID + ".rename":
		return p.rename(params)
	case ID + ".copy_file":
		return p.copyFile(params)
	default:
		return nil, fmt.Errorf("%w: %s", capability.ErrUnknownCommand, command)
	}
}

func (p *Plugin) resolve(params map[string]interface{}, key string) (string, error) {
	raw, _ := params[key].(string)
	if raw == "" {
		return "", fmt.Errorf("%s parameter required", key)
	}
	return p.scope.Resolve(raw)
}

func (p *Plugin) readFile(params map[string]interface{}, binary bool) (*types.Result, error) {
	path, err := p.resolve(params, "path")
	if err != nil {
		return types.Failure(err.Error())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Failure(fmt.Sprintf("failed to read %s: %v", path, err))
	}
	if binary {
		return types.Success(map[string]interface{}{
			"contents": base64.StdEncoding.EncodeToString(data),
			"size":     len(data),
		})
	}
	return types.Success(map[string]interface{}{"contents": string(data), "size": len(data)})
}

func (p *Plugin) writeFile(params map[string]interface{}, binary bool) (*types.Result, error) {
	path, err := p.resolve(params, "path")
	if err != nil {
		return types.Failure(err.Error())
	}
	contents, ok := params["contents"].(string)
	if !ok {
		return types.Failure("contents parameter required")
	}

	data := []byte(contents)
	if binary {
		if data, err = base64.StdEncoding.DecodeString(contents); err != nil {
			return types.Failure(fmt.Sprintf("contents is not valid base64: %v", err))
		}
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if appendMode, _ := params["append"].(bool); appendMode {
		flags = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return types.Failure(fmt.Sprintf("failed to open %s: %v", path, err))
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return types.Failure(fmt.Sprintf("failed to write %s: %v", path, err))
	}
	if err := f.Close(); err != nil {
		return types.Failure(fmt.Sprintf("failed to write %s: %v", path, err))
	}
	return types.Success(map[string]interface{}{"path": path, "written": len(data)})
}

// Entry is one read_dir result
type Entry struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	IsDir     bool   `json:"is_dir"`
	IsFile    bool   `json:"is_file"`
	IsSymlink bool   `json:"is_symlink"`
	Size      int64  `json:"size"`
	Modified  int64  `json:"modified"`
}

func newEntry(path string, d os.DirEntry) (Entry, bool) {
	info, err := d.Info()
	if err != nil {
		return Entry{}, false
	}
	return Entry{
		Name:      d.Name(),
		Path:      path,
		IsDir:     d.IsDir(),
		IsFile:    d.Type().IsRegular(),
		IsSymlink: d.Type()&os.ModeSymlink != 0,
		Size:      info.Size(),
		Modified:  info.ModTime().Unix(),
	}, true
}

func (p *Plugin) readDir(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	root, err := p.resolve(params, "path")
	if err != nil {
		return types.Failure(err.Error())
	}

	var entries []Entry
	if recursive, _ := params["recursive"].(bool); recursive {
		entries, err = walk(ctx, root)
	} else {
		entries, err = list(root)
	}
	if err != nil {
		return types.Failure(fmt.Sprintf("failed to read %s: %v", root, err))
	}

	return types.Success(map[string]interface{}{
		"path":    root,
		"entries": entries,
		"count":   len(entries),
	})
}

func list(root string) ([]Entry, error) {
	dirEntries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(dirEntries))
	for _, d := range dirEntries {
		if e, ok := newEntry(filepath.Join(root, d.Name()), d); ok {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// walk lists root recursively. fastwalk calls back from several goroutines.
func walk(ctx context.Context, root string) ([]Entry, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		entries []Entry
	)
	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, root, func(path string, d os.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err != nil || path == root {
			return nil
		}
		if e, ok := newEntry(path, d); ok {
			mu.Lock()
			entries = append(entries, e)
			mu.Unlock()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

func (p *Plugin) stat(params map[string]interface{}) (*types.Result, error) {
	path, err := p.resolve(params, "path")
	if err != nil {
		return types.Failure(err.Error())
	}
	info, err := os.Lstat(path)
	if err != nil {
		return types.Failure(fmt.Sprintf("failed to stat %s: %v", path, err))
	}

	data := map[string]interface{}{
		"path":       path,
		"name":       info.Name(),
		"size":       info.Size(),
		"is_dir":     info.IsDir(),
		"is_file":    info.Mode().IsRegular(),
		"is_symlink": info.Mode()&os.ModeSymlink != 0,
		"mode":       info.Mode().Perm().String(),
		"modified":   info.ModTime().Unix(),
	}
	if info.Mode().IsRegular() {
		if mtype, err := mimetype.DetectFile(path); err == nil {
			data["mime_type"] = mtype.String()
			data["extension"] = mtype.Extension()
		}
	}
	return types.Success(data)
}

func (p *Plugin) exists(params map[string]interface{}) (*types.Result, error) {
	path, err := p.resolve(params, "path")
	if err != nil {
		return types.Failure(err.Error())
	}
	_, err = os.Lstat(path)
	return types.Success(map[string]interface{}{"exists": err == nil})
}

func (p *Plugin) mkdir(params map[string]interface{}) (*types.Result, error) {
	path, err := p.resolve(params, "path")
	if err != nil {
		return types.Failure(err.Error())
	}
	if recursive, _ := params["recursive"].(bool); recursive {
		err = os.MkdirAll(path, 0o755)
	} else {
		err = os.Mkdir(path, 0o755)
	}
	if err != nil {
		return types.Failure(fmt.Sprintf("failed to create %s: %v", path, err))
	}
	return types.Success(map[string]interface{}{"path": path})
}

func (p *Plugin) remove(params map[string]interface{}) (*types.Result, error) {
	path, err := p.resolve(params, "path")
	if err != nil {
		return types.Failure(err.Error())
	}
	if recursive, _ := params["recursive"].(bool); recursive {
		err = os.RemoveAll(path)
	} else {
		err = os.Remove(path)
	}
	if err != nil {
		return types.Failure(fmt.Sprintf("failed to remove %s: %v", path, err))
	}
	return types.Success(map[string]interface{}{"path": path})
}

func (p *Plugin) fromTo(params map[string]interface{}) (string, string, error) {
	from, err := p.resolve(params, "from")
	if err != nil {
		return "", "", err
	}
	to, err := p.resolve(params, "to")
	if err != nil {
		return "", "", err
	}
	return from, to, nil
}

func (p *Plugin) rename(params map[string]interface{}) (*types.Result, error) {
	from, to, err := p.fromTo(params)
	if err != nil {
		return types.Failure(err.Error())
	}
	if err := os.Rename(from, to); err != nil {
		return types.Failure(fmt.Sprintf("failed to rename %s: %v", from, err))
	}
	return types.Success(map[string]interface{}{"from": from, "to": to})
}

func (p *Plugin) copyFile(params map[string]interface{}) (*types.Result, error) {
	from, to, err := p.fromTo(params)
	if err != nil {
		return types.Failure(err.Error())
	}
	n, err := copyRegular(from, to)
	if err != nil {
		return types.Failure(fmt.Sprintf("failed to copy %s: %v", from, err))
	}
	return types.Success(map[string]interface{}{"from": from, "to": to, "copied": n})
}

func copyRegular(from, to string) (int64, error) {
	src, err := os.Open(from)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return 0, err
	}
	if !info.Mode().IsRegular() {
		return 0, errors.New("not a regular file")
	}

	dst, err := os.OpenFile(to, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	return n, err
}
