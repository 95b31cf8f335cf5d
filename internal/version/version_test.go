package version

import (
	"context"
	"os"
	"os/exec"
	"runtime/debug"
	"strings"
	"testing"
)

// TestHelperProcess isn't a real test. It stands in for git.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	defer os.Exit(0)

	args := os.Args
	for len(args) > 0 {
		if args[0] == "--" {
			args = args[1:]
			break
		}
		args = args[1:]
	}
	if len(args) < 3 || args[0] != "git" || args[1] != "describe" {
		os.Exit(2)
	}

	switch args[2] {
	case "--always":
		if os.Getenv("MOCK_GIT_COMMIT_FAIL") == "1" {
			os.Exit(1)
		}
		os.Stdout.WriteString("abc1234\n")
	case "--tags":
		if os.Getenv("MOCK_GIT_VERSION_FAIL") == "1" {
			os.Exit(1)
		}
		os.Stdout.WriteString("v1.2.0\n")
	}
}

func fakeGit(env ...string) func(context.Context, string, ...string) *exec.Cmd {
	return func(ctx context.Context, name string, arg ...string) *exec.Cmd {
		cs := append([]string{"-test.run=TestHelperProcess", "--", name}, arg...)
		cmd := exec.CommandContext(ctx, os.Args[0], cs...)
		cmd.Env = append([]string{"GO_WANT_HELPER_PROCESS=1"}, env...)
		return cmd
	}
}

func noBuildInfo() (*debug.BuildInfo, bool) { return nil, false }

func stub(t *testing.T, build func() (*debug.BuildInfo, bool), env ...string) {
	t.Helper()
	origExec, origBuild := execCommand, readBuild
	t.Cleanup(func() {
		execCommand, readBuild = origExec, origBuild
		Reset()
	})
	execCommand = fakeGit(env...)
	readBuild = build
	Reset()
}

func TestInfo_FromGit(t *testing.T) {
	tests := []struct {
		name       string
		env        []string
		wantVer    string
		wantCommit string
	}{
		{"Success", nil, "1.2.0", "abc1234"},
		{"CommitFail", []string{"MOCK_GIT_COMMIT_FAIL=1"}, "1.2.0", "unknown"},
		{"VersionFail", []string{"MOCK_GIT_VERSION_FAIL=1"}, "dev", "abc1234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub(t, noBuildInfo, tt.env...)

			if got := GetVersion(); got != tt.wantVer {
				t.Errorf("GetVersion() = %v, want %v", got, tt.wantVer)
			}
			if got := GetCommit(); got != tt.wantCommit {
				t.Errorf("GetCommit() = %v, want %v", got, tt.wantCommit)
			}
			if got := GetDate(); got == "" {
				t.Error("GetDate() returned empty string")
			}
			if info := Info(); !strings.HasPrefix(info, "codexhud "+tt.wantVer) {
				t.Errorf("Info() = %q, want prefix %q", info, "codexhud "+tt.wantVer)
			}
		})
	}
}

func TestInfo_FromBuildInfo(t *testing.T) {
	stub(t, func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{
			Main: debug.Module{Version: "v0.4.1"},
			Settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "0123456789abcdef0123"},
				{Key: "vcs.time", Value: "2026-01-23T10:00:00Z"},
				{Key: "vcs.modified", Value: "true"},
			},
		}, true
	}, "MOCK_GIT_COMMIT_FAIL=1", "MOCK_GIT_VERSION_FAIL=1")

	if got := GetVersion(); got != "0.4.1" {
		t.Errorf("GetVersion() = %v, want 0.4.1", got)
	}
	if got := GetCommit(); got != "0123456789ab-dirty" {
		t.Errorf("GetCommit() = %v, want 0123456789ab-dirty", got)
	}
	if got := GetDate(); got != "2026-01-23" {
		t.Errorf("GetDate() = %v, want 2026-01-23", got)
	}
}

func TestInfo_LdflagsWin(t *testing.T) {
	stub(t, noBuildInfo)
	Version, Commit, Date = "9.9.9", "feed", "2026-02-01"

	if got := Info(); !strings.Contains(got, "codexhud 9.9.9 (commit: feed, built: 2026-02-01") {
		t.Errorf("Info() = %q", got)
	}
}
