package dialog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Message levels.
const (
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"
)

// ErrUnsupported is returned on platforms without a dialog helper.
var ErrUnsupported = errors.New("native dialogs are not supported on this platform")

// MessageRequest describes a message or confirmation box.
type MessageRequest struct {
	Title   string
	Message string
	Level   string
}

// FileRequest describes a file picker.
type FileRequest struct {
	Title       string
	DefaultPath string
	Directory   bool
	Multiple    bool
}

// Presenter shows dialogs. A cancelled picker returns no paths and no error.
type Presenter interface {
	Message(ctx context.Context, req MessageRequest) error
	Confirm(ctx context.Context, req MessageRequest) (bool, error)
	Open(ctx context.Context, req FileRequest) ([]string, error)
	Save(ctx context.Context, req FileRequest) (string, error)
}

// Runner executes a helper program and reports its stdout and exit code.
// A non-nil error means the program could not be run at all.
type Runner func(ctx context.Context, name string, args ...string) (stdout string, exitCode int, err error)

func execRunner(ctx context.Context, name string, args ...string) (string, int, error) {
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &out
	err := cmd.Run()

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return out.String(), exitErr.ExitCode(), nil
	}
	if err != nil {
		return "", -1, err
	}
	return out.String(), 0, nil
}

// ScriptPresenter drives the platform's dialog helper: zenity on Linux and
// the BSDs, osascript on macOS, PowerShell on Windows.
type ScriptPresenter struct {
	goos string
	run  Runner
}

// NewScriptPresenter returns a presenter for goos that executes helpers
// through run.
func NewScriptPresenter(goos string, run Runner) *ScriptPresenter {
	return &ScriptPresenter{goos: goos, run: run}
}

type kind int

const (
	kindMessage kind = iota
	kindConfirm
	kindOpen
	kindSave
)

type invocation struct {
	name string
	args []string
}

func (p *ScriptPresenter) present(ctx context.Context, k kind, msg MessageRequest, file FileRequest) (string, bool, error) {
	inv, err := build(p.goos, k, msg, file)
	if err != nil {
		return "", false, err
	}
	out, code, err := p.run(ctx, inv.name, inv.args...)
	if err != nil {
		return "", false, fmt.Errorf("failed to run %s: %w", inv.name, err)
	}
	switch code {
	case 0:
		return strings.TrimRight(out, "\r\n"), false, nil
	case 1:
		// zenity and osascript both exit 1 on cancel.
		return "", true, nil
	default:
		return "", false, fmt.Errorf("%s exited with status %d", inv.name, code)
	}
}

func (p *ScriptPresenter) Message(ctx context.Context, req MessageRequest) error {
	_, _, err := p.present(ctx, kindMessage, req, FileRequest{})
	return err
}

func (p *ScriptPresenter) Confirm(ctx context.Context, req MessageRequest) (bool, error) {
	out, cancelled, err := p.present(ctx, kindConfirm, req, FileRequest{})
	if err != nil || cancelled {
		return false, err
	}
	if p.goos == "windows" {
		return strings.TrimSpace(out) == "OK", nil
	}
	return true, nil
}

func (p *ScriptPresenter) Open(ctx context.Context, req FileRequest) ([]string, error) {
	out, cancelled, err := p.present(ctx, kindOpen, MessageRequest{}, req)
	if err != nil || cancelled {
		return nil, err
	}
	var paths []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimRight(line, "\r"); line != "" {
			paths = append(paths, line)
		}
	}
	return paths, nil
}

func (p *ScriptPresenter) Save(ctx context.Context, req FileRequest) (string, error) {
	out, cancelled, err := p.present(ctx, kindSave, MessageRequest{}, req)
	if err != nil || cancelled {
		return "", err
	}
	return out, nil
}

func build(goos string, k kind, msg MessageRequest, file FileRequest) (invocation, error) {
	switch goos {
	case "linux", "freebsd", "openbsd", "netbsd", "dragonfly", "solaris", "illumos":
		return zenity(k, msg, file), nil
	case "darwin":
		return osascript(k, msg, file), nil
	case "windows":
		return powershell(k, msg, file), nil
	default:
		return invocation{}, fmt.Errorf("%w (%s)", ErrUnsupported, goos)
	}
}

func zenity(k kind, msg MessageRequest, file FileRequest) invocation {
	var args []string
	switch k {
	case kindMessage:
		args = []string{"--" + msg.Level, "--title", msg.Title, "--text", msg.Message}
	case kindConfirm:
		args = []string{"--question", "--title", msg.Title, "--text", msg.Message}
	case kindOpen, kindSave:
		args = []string{"--file-selection", "--title", file.Title}
		if k == kindSave {
			args = append(args, "--save")
		}
		if file.Directory {
			args = append(args, "--directory")
		}
		if file.Multiple && k == kindOpen {
			args = append(args, "--multiple", "--separator=\n")
		}
		if file.DefaultPath != "" {
			args = append(args, "--filename", file.DefaultPath)
		}
	}
	return invocation{name: "zenity", args: args}
}

func appleString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

func osascript(k kind, msg MessageRequest, file FileRequest) invocation {
	var lines []string
	switch k {
	case kindMessage:
		icon := map[string]string{LevelInfo: "note", LevelWarning: "caution", LevelError: "stop"}[msg.Level]
		lines = []string{fmt.Sprintf(`display dialog %s with title %s buttons {"OK"} default button "OK" with icon %s`,
			appleString(msg.Message), appleString(msg.Title), icon)}
	case kindConfirm:
		lines = []string{fmt.Sprintf(`display dialog %s with title %s buttons {"Cancel", "OK"} default button "OK"`,
			appleString(msg.Message), appleString(msg.Title))}
	case kindOpen:
		chooser := "choose file"
		if file.Directory {
			chooser = "choose folder"
		}
		if file.Multiple {
			lines = []string{
				`set out to ""`,
				fmt.Sprintf(`repeat with f in (%s with prompt %s with multiple selections allowed)`, chooser, appleString(file.Title)),
				`set out to out & POSIX path of f & linefeed`,
				`end repeat`,
				`out`,
			}
		} else {
			lines = []string{fmt.Sprintf(`POSIX path of (%s with prompt %s)`, chooser, appleString(file.Title))}
		}
	case kindSave:
		lines = []string{fmt.Sprintf(`POSIX path of (choose file name with prompt %s)`, appleString(file.Title))}
	}

	args := make([]string, 0, 2*len(lines))
	for _, l := range lines {
		args = append(args, "-e", l)
	}
	return invocation{name: "osascript", args: args}
}

func psString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func powershell(k kind, msg MessageRequest, file FileRequest) invocation {
	var script string
	switch k {
	case kindMessage:
		icon := map[string]string{LevelInfo: "Information", LevelWarning: "Warning", LevelError: "Error"}[msg.Level]
		script = fmt.Sprintf("Add-Type -AssemblyName PresentationFramework; [void][System.Windows.MessageBox]::Show(%s, %s, 'OK', '%s')",
			psString(msg.Message), psString(msg.Title), icon)
	case kindConfirm:
		script = fmt.Sprintf("Add-Type -AssemblyName PresentationFramework; [System.Windows.MessageBox]::Show(%s, %s, 'OKCancel', 'Question')",
			psString(msg.Message), psString(msg.Title))
	case kindOpen:
		if file.Directory {
			script = fmt.Sprintf("Add-Type -AssemblyName System.Windows.Forms; $d = New-Object System.Windows.Forms.FolderBrowserDialog; $d.Description = %s; if ($d.ShowDialog() -eq 'OK') { $d.SelectedPath }",
				psString(file.Title))
		} else {
			script = fmt.Sprintf("Add-Type -AssemblyName System.Windows.Forms; $d = New-Object System.Windows.Forms.OpenFileDialog; $d.Title = %s; $d.Multiselect = $%t; if ($d.ShowDialog() -eq 'OK') { $d.FileNames -join \"`n\" }",
				psString(file.Title), file.Multiple)
		}
	case kindSave:
		script = fmt.Sprintf("Add-Type -AssemblyName System.Windows.Forms; $d = New-Object System.Windows.Forms.SaveFileDialog; $d.Title = %s; $d.FileName = %s; if ($d.ShowDialog() -eq 'OK') { $d.FileName }",
			psString(file.Title), psString(file.DefaultPath))
	}
	return invocation{name: "powershell", args: []string{"-NoProfile", "-NonInteractive", "-Command", script}}
}
