package osinfo

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/GriffinCanCode/AgentOS/studio/internal/domain/capability"
	"github.com/GriffinCanCode/AgentOS/studio/internal/shared/types"
)

// ID is the capability ID
const ID = "os"

// Plugin reports facts about the host operating system
type Plugin struct {
	lookupEnv func(string) (string, bool)
}

// New creates the os plugin
func New() *Plugin {
	return &Plugin{lookupEnv: os.LookupEnv}
}

// Definition returns capability metadata
func (p *Plugin) Definition() types.Capability {
	cmd := func(id, name, desc, returns string) types.Command {
		return types.Command{ID: ID + "." + id, Name: name, Description: desc, Returns: returns}
	}
	return types.Capability{
		ID:          ID,
		Name:        "Operating System",
		Description: "Read information about the host operating system",
		Category:    types.CategorySystem,
		Commands: []types.Command{
			cmd("platform", "Platform", "Operating system name (linux, darwin, windows, ...)", "string"),
			cmd("arch", "Architecture", "CPU architecture", "string"),
			cmd("family", "Family", "unix or windows", "string"),
			cmd("version", "Version", "Kernel or OS version", "string"),
			cmd("hostname", "Hostname", "Host name", "string"),
			cmd("locale", "Locale", "BCP-47 locale of the user, if known", "string"),
			cmd("exe_extension", "Executable Extension", "File extension of executables", "string"),
			cmd("eol", "End Of Line", "Line terminator", "string"),
			cmd("info", "Info", "All of the above", "object"),
		},
	}
}

// Execute runs an os command
func (p *Plugin) Execute(ctx context.Context, command string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	switch command {
	case ID + ".platform":
		return value(runtime.GOOS)
	case ID + ".arch":
		return value(runtime.GOARCH)
	case ID + ".family":
		return value(Family())
	case ID + ".version":
		return value(Version())
	case ID + ".hostname":
		name, err := os.Hostname()
		if err != nil {
			return types.Failure(fmt.Sprintf("failed to read hostname: %v", err))
		}
		return value(name)
	case ID + ".locale":
		if loc, ok := p.locale(); ok {
			return value(loc)
		}
		return value(nil)
	case ID + ".exe_extension":
		return value(ExeExtension())
	case ID + ".eol":
		return value(EOL())
	case ID + ".info":
		return p.info()
	default:
		return nil, fmt.Errorf("%w: %s", capability.ErrUnknownCommand, command)
	}
}

func (p *Plugin) info() (*types.Result, error) {
	hostname, _ := os.Hostname()
	data := map[string]interface{}{
		"platform":      runtime.GOOS,
		"arch":          runtime.GOARCH,
		"family":        Family(),
		"version":       Version(),
		"hostname":      hostname,
		"exe_extension": ExeExtension(),
		"eol":           EOL(),
		"cpus":          runtime.NumCPU(),
	}
	if loc, ok := p.locale(); ok {
		data["locale"] = loc
	}
	return types.Success(data)
}

// locale derives a BCP-47 tag from the POSIX locale variables
func (p *Plugin) locale() (string, bool) {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		raw, ok := p.lookupEnv(key)
		if !ok || raw == "" {
			continue
		}
		if i := strings.IndexAny(raw, ".@"); i >= 0 {
			raw = raw[:i]
		}
		if raw == "C" || raw == "POSIX" || raw == "" {
			continue
		}
		return strings.ReplaceAll(raw, "_", "-"), true
	}
	return "", false
}

// Family returns "windows" or "unix"
func Family() string {
	if runtime.GOOS == "windows" {
		return "windows"
	}
	return "unix"
}

// ExeExtension returns the executable suffix without the dot
func ExeExtension() string {
	if runtime.GOOS == "windows" {
		return "exe"
	}
	return ""
}

// EOL returns the platform line terminator
func EOL() string {
	if runtime.GOOS == "windows" {
		return "\r\n"
	}
	return "\n"
}

func value(v interface{}) (*types.Result, error) {
	return types.Success(map[string]interface{}{"value": v})
}
