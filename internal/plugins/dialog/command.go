package dialog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// Runner executes a dialog tool and returns its stdout and exit code. A
// non-zero exit code is not an error.
type Runner func(ctx context.Context, name string, args ...string) (string, int, error)

// LookPath reports whether a tool is installed
type LookPath func(name string) bool

// ExecRunner runs dialog tools with os/exec
func ExecRunner(ctx context.Context, name string, args ...string) (string, int, error) {
	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return stdout.String(), exitErr.ExitCode(), nil
		}
		return "", -1, err
	}
	return stdout.String(), 0, nil
}

func hasTool(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// NewSystemBackend picks the dialog tool for this OS: osascript on macOS,
// zenity or kdialog elsewhere. Without one, every call fails with
// ErrNoBackend.
func NewSystemBackend() Backend {
	return newCommandBackend(runtime.GOOS, ExecRunner, hasTool)
}

func newCommandBackend(goos string, run Runner, look LookPath) Backend {
	switch {
	case goos == "darwin":
		return &osascript{run: run}
	case goos == "windows":
		return unavailable{}
	case look("zenity"):
		return &zenity{run: run}
	case look("kdialog"):
		return &kdialog{run: run}
	default:
		return unavailable{}
	}
}

type unavailable struct{}

func (unavailable) Message(context.Context, MessageOptions) error { return ErrNoBackend }
func (unavailable) Ask(context.Context, MessageOptions) (bool, error) {
	return false, ErrNoBackend
}
func (unavailable) Confirm(context.Context, MessageOptions) (bool, error) {
	return false, ErrNoBackend
}
func (unavailable) Open(context.Context, FileOptions) ([]string, error) { return nil, ErrNoBackend }
func (unavailable) Save(context.Context, FileOptions) (string, bool, error) {
	return "", false, ErrNoBackend
}

func splitLines(out string) []string {
	var paths []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimRight(line, "\r"); line != "" {
			paths = append(paths, line)
		}
	}
	return paths
}

func toolError(tool string, code int) error {
	return fmt.Errorf("%s exited with code %d", tool, code)
}

// zenity (GTK)
type zenity struct {
	run Runner
}

func (z *zenity) Message(ctx context.Context, opts MessageOptions) error {
	flag := "--info"
	switch opts.Kind {
	case KindWarning:
		flag = "--warning"
	case KindError:
		flag = "--error"
	}
	_, code, err := z.run(ctx, "zenity", flag, "--title="+opts.Title, "--text="+opts.Message)
	if err != nil {
		return err
	}
	if code > 1 {
		return toolError("zenity", code)
	}
	return nil
}

func (z *zenity) question(ctx context.Context, opts MessageOptions, ok, cancel string) (bool, error) {
	_, code, err := z.run(ctx, "zenity", "--question",
		"--title="+opts.Title, "--text="+opts.Message,
		"--ok-label="+ok, "--cancel-label="+cancel)
	if err != nil {
		return false, err
	}
	switch code {
	case 0:
		return true, nil
	case 1:
		return false, nil
	default:
		return false, toolError("zenity", code)
	}
}

func (z *zenity) Ask(ctx context.Context, opts MessageOptions) (bool, error) {
	return z.question(ctx, opts, "Yes", "No")
}

func (z *zenity) Confirm(ctx context.Context, opts MessageOptions) (bool, error) {
	return z.question(ctx, opts, "Ok", "Cancel")
}

func (z *zenity) fileArgs(opts FileOptions) []string {
	args := []string{"--file-selection", "--title=" + opts.Title}
	if opts.DefaultPath != "" {
		args = append(args, "--filename="+opts.DefaultPath)
	}
	for _, f := range opts.Filters {
		globs := make([]string, len(f.Extensions))
		for i, ext := range f.Extensions {
			globs[i] = "*." + ext
		}
		args = append(args, fmt.Sprintf("--file-filter=%s | %s", f.Name, strings.Join(globs, " ")))
	}
	return args
}

func (z *zenity) Open(ctx context.Context, opts FileOptions) ([]string, error) {
	args := z.fileArgs(opts)
	if opts.Directory {
		args = append(args, "--directory")
	}
	if opts.Multiple {
		args = append(args, "--multiple", "--separator=\n")
	}
	out, code, err := z.run(ctx, "zenity", args...)
	if err != nil {
		return nil, err
	}
	switch code {
	case 0:
		return splitLines(out), nil
	case 1:
		return nil, nil
	default:
		return nil, toolError("zenity", code)
	}
}

func (z *zenity) Save(ctx context.Context, opts FileOptions) (string, bool, error) {
	args := append(z.fileArgs(opts), "--save", "--confirm-overwrite")
	out, code, err := z.run(ctx, "zenity", args...)
	if err != nil {
		return "", false, err
	}
	switch code {
	case 0:
		return strings.TrimSpace(out), true, nil
	case 1:
		return "", false, nil
	default:
		return "", false, toolError("zenity", code)
	}
}

// kdialog (KDE)
type kdialog struct {
	run Runner
}

func (k *kdialog) Message(ctx context.Context, opts MessageOptions) error {
	flag := "--msgbox"
	switch opts.Kind {
	case KindWarning:
		flag = "--sorry"
	case KindError:
		flag = "--error"
	}
	_, code, err := k.run(ctx, "kdialog", "--title", opts.Title, flag, opts.Message)
	if err != nil {
		return err
	}
	if code > 1 {
		return toolError("kdialog", code)
	}
	return nil
}

func (k *kdialog) question(ctx context.Context, opts MessageOptions, yes, no string) (bool, error) {
	_, code, err := k.run(ctx, "kdialog", "--title", opts.Title,
		"--yes-label", yes, "--no-label", no, "--yesno", opts.Message)
	if err != nil {
		return false, err
	}
	switch code {
	case 0:
		return true, nil
	case 1:
		return false, nil
	default:
		return false, toolError("kdialog", code)
	}
}

func (k *kdialog) Ask(ctx context.Context, opts MessageOptions) (bool, error) {
	return k.question(ctx, opts, "Yes", "No")
}

func (k *kdialog) Confirm(ctx context.Context, opts MessageOptions) (bool, error) {
	return k.question(ctx, opts, "Ok", "Cancel")
}

func kdialogFilter(filters []Filter) string {
	parts := make([]string, 0, len(filters))
	for _, f := range filters {
		globs := make([]string, len(f.Extensions))
		for i, ext := range f.Extensions {
			globs[i] = "*." + ext
		}
		parts = append(parts, fmt.Sprintf("%s (%s)", f.Name, strings.Join(globs, " ")))
	}
	return strings.Join(parts, "|")
}

func (k *kdialog) Open(ctx context.Context, opts FileOptions) ([]string, error) {
	args := []string{"--title", opts.Title}
	start := opts.DefaultPath
	if start == "" {
		start = "."
	}
	if opts.Directory {
		args = append(args, "--getexistingdirectory", start)
	} else {
		if opts.Multiple {
			args = append(args, "--multiple", "--separate-output")
		}
		args = append(args, "--getopenfilename", start)
		if len(opts.Filters) > 0 {
			args = append(args, kdialogFilter(opts.Filters))
		}
	}
	out, code, err := k.run(ctx, "kdialog", args...)
	if err != nil {
		return nil, err
	}
	switch code {
	case 0:
		return splitLines(out), nil
	case 1:
		return nil, nil
	default:
		return nil, toolError("kdialog", code)
	}
}

func (k *kdialog) Save(ctx context.Context, opts FileOptions) (string, bool, error) {
	start := opts.DefaultPath
	if start == "" {
		start = "."
	}
	args := []string{"--title", opts.Title, "--getsavefilename", start}
	if len(opts.Filters) > 0 {
		args = append(args, kdialogFilter(opts.Filters))
	}
	out, code, err := k.run(ctx, "kdialog", args...)
	if err != nil {
		return "", false, err
	}
	switch code {
	case 0:
		return strings.TrimSpace(out), true, nil
	case 1:
		return "", false, nil
	default:
		return "", false, toolError("kdialog", code)
	}
}

// osascript (macOS)
type osascript struct {
	run Runner
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

func (o *osascript) script(ctx context.Context, src string) (string, int, error) {
	return o.run(ctx, "osascript", "-e", src)
}

func (o *osascript) Message(ctx context.Context, opts MessageOptions) error {
	icon := "note"
	switch opts.Kind {
	case KindWarning:
		icon = "caution"
	case KindError:
		icon = "stop"
	}
	src := fmt.Sprintf(`display dialog %s with title %s buttons {"OK"} default button "OK" with icon %s`,
		quote(opts.Message), quote(opts.Title), icon)
	_, code, err := o.script(ctx, src)
	if err != nil {
		return err
	}
	if code > 1 {
		return toolError("osascript", code)
	}
	return nil
}

func (o *osascript) buttons(ctx context.Context, opts MessageOptions, no, yes string) (bool, error) {
	src := fmt.Sprintf(`display dialog %s with title %s buttons {%s, %s} default button %s`,
		quote(opts.Message), quote(opts.Title), quote(no), quote(yes), quote(yes))
	out, code, err := o.script(ctx, src)
	if err != nil {
		return false, err
	}
	// Cancel buttons make osascript exit 1 (error -128)
	if code == 1 {
		return false, nil
	}
	if code != 0 {
		return false, toolError("osascript", code)
	}
	return strings.Contains(out, "button returned:"+yes), nil
}

func (o *osascript) Ask(ctx context.Context, opts MessageOptions) (bool, error) {
	return o.buttons(ctx, opts, "No", "Yes")
}

func (o *osascript) Confirm(ctx context.Context, opts MessageOptions) (bool, error) {
	return o.buttons(ctx, opts, "Cancel", "OK")
}

func (o *osascript) Open(ctx context.Context, opts FileOptions) ([]string, error) {
	chooser := "choose file"
	if opts.Directory {
		chooser = "choose folder"
	}
	chooser += " with prompt " + quote(opts.Title)
	if opts.DefaultPath != "" {
		chooser += " default location POSIX file " + quote(opts.DefaultPath)
	}
	if !opts.Directory && len(opts.Filters) > 0 {
		var exts []string
		for _, f := range opts.Filters {
			for _, ext := range f.Extensions {
				exts = append(exts, quote(ext))
			}
		}
		chooser += " of type {" + strings.Join(exts, ", ") + "}"
	}

	var src string
	if opts.Multiple {
		src = fmt.Sprintf("set out to \"\"\nrepeat with f in (%s with multiple selections allowed)\nset out to out & POSIX path of f & linefeed\nend repeat\nout", chooser)
	} else {
		src = fmt.Sprintf("POSIX path of (%s)", chooser)
	}

	out, code, err := o.script(ctx, src)
	if err != nil {
		return nil, err
	}
	switch code {
	case 0:
		return splitLines(out), nil
	case 1:
		return nil, nil
	default:
		return nil, toolError("osascript", code)
	}
}

func (o *osascript) Save(ctx context.Context, opts FileOptions) (string, bool, error) {
	src := "choose file name with prompt " + quote(opts.Title)
	if opts.DefaultPath != "" {
		src += " default name " + quote(opts.DefaultPath)
	}
	out, code, err := o.script(ctx, "POSIX path of ("+src+")")
	if err != nil {
		return "", false, err
	}
	switch code {
	case 0:
		return strings.TrimSpace(out), true, nil
	case 1:
		return "", false, nil
	default:
		return "", false, toolError("osascript", code)
	}
}
