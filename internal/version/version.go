// Package version provides build version information and runtime metadata.
package version

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
	"time"
)

// Name is the binary name reported by Info.
const Name = "codexhud"

var (
	// These are set via ldflags at build time
	Version = ""
	Commit  = ""
	Date    = ""

	once sync.Once

	execCommand = exec.CommandContext
	readBuild   = debug.ReadBuildInfo
)

const gitTimeout = 2 * time.Second

func ensureInitialized() {
	once.Do(func() {
		buildVersion, buildCommit, buildDate := fromBuildInfo()
		if Date == "" {
			Date = buildDate
		}
		if Date == "" {
			Date = time.Now().Format("2006-01-02")
		}
		if Commit == "" {
			Commit = buildCommit
		}
		if Commit == "" {
			Commit = gitCommit()
		}
		if Version == "" {
			Version = buildVersion
		}
		if Version == "" {
			Version = gitVersion()
		}
	})
}

// fromBuildInfo reads the module version and VCS stamp embedded by go build.
func fromBuildInfo() (ver, commit, date string) {
	info, ok := readBuild()
	if !ok || info == nil {
		return "", "", ""
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		ver = strings.TrimPrefix(v, "v")
	}
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			commit = s.Value[:min(len(s.Value), 12)]
		case "vcs.time":
			if t, err := time.Parse(time.RFC3339, s.Value); err == nil {
				date = t.UTC().Format("2006-01-02")
			}
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if commit != "" && dirty {
		commit += "-dirty"
	}
	return ver, commit, date
}

func runGit(args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), gitTimeout)
	defer cancel()

	cmd := execCommand(ctx, "git", args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return strings.TrimSpace(out.String()), nil
}

func gitCommit() string {
	out, err := runGit("describe", "--always", "--dirty")
	if err != nil || out == "" {
		return "unknown"
	}
	return out
}

func gitVersion() string {
	out, err := runGit("describe", "--tags", "--abbrev=0")
	if err != nil || out == "" {
		return "dev"
	}
	return strings.TrimPrefix(out, "v")
}

// GetVersion returns the resolved version.
func GetVersion() string {
	ensureInitialized()
	return Version
}

// GetCommit returns the resolved commit.
func GetCommit() string {
	ensureInitialized()
	return Commit
}

// GetDate returns the resolved build date.
func GetDate() string {
	ensureInitialized()
	return Date
}

// Info returns a one-line description of the running build.
func Info() string {
	ensureInitialized()
	return fmt.Sprintf("%s %s (commit: %s, built: %s, %s/%s)",
		Name, Version, Commit, Date, runtime.GOOS, runtime.GOARCH)
}

// Reset clears resolved values so the next accessor resolves them again.
func Reset() {
	Version, Commit, Date = "", "", ""
	once = sync.Once{}
}
