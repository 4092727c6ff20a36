package prompt

import (
	"fmt"
	"io"
	"os"
	"os/user"
	"strings"
)

const (
	DefaultPrompt = "tsh> "
	PathPrompt    = `tsh \w > `
)

// Render expands \u (user), \h (host), \w (working directory, ~ for HOME)
// and \$ in tmpl.
func Render(tmpl string) string {
	userName, hostName, cwd := "username", "hostname", "~"
	homeDir, ok := os.LookupEnv("HOME")

	if curUser, err := user.Current(); err == nil {
		userName = curUser.Username
	}

	if curHostName, err := os.Hostname(); err == nil {
		hostName = curHostName
	}

	if curCwd, err := os.Getwd(); err == nil {
		cwd = curCwd
		if ok && homeDir != "" && strings.HasPrefix(curCwd, homeDir) {
			cwd = strings.Replace(curCwd, homeDir, "~", 1)
		}
	}

	dollar := "$"
	if os.Geteuid() == 0 {
		dollar = "#"
	}

	return strings.NewReplacer(`\u`, userName, `\h`, hostName, `\w`, cwd, `\$`, dollar).Replace(tmpl)
}

func Out(w io.Writer, tmpl string) {
	fmt.Fprint(w, Render(tmpl))
}
