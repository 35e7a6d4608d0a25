// Package announce prints the connection banner participants read off the
// judge machine's screen.
package announce

import (
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

const rule = "=================================================="

// DefaultTitle heads the banner.
const DefaultTitle = "Central Judge Server"

// Announcement is everything participants need to connect.
type Announcement struct {
	Title        string
	IP           string
	Port         int
	AgentCommand string
	AgentURL     string
}

// Endpoint returns ip:port.
func (a Announcement) Endpoint() string {
	return net.JoinHostPort(a.IP, strconv.Itoa(a.Port))
}

// Write renders the banner to w.
func Write(w io.Writer, a Announcement) error {
	title := a.Title
	if title == "" {
		title = DefaultTitle
	}

	cyan := color.New(color.FgCyan)
	bold := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen, color.Bold)
	yellow := color.New(color.FgYellow)

	var b strings.Builder
	cyan.Fprintln(&b, rule)
	bold.Fprintf(&b, "  %s\n", title)
	cyan.Fprintln(&b, rule)
	fmt.Fprintf(&b, "  Server address:  %s\n", green.Sprint(a.Endpoint()))
	fmt.Fprintf(&b, "  Judge port:      %d\n", a.Port)
	if a.AgentCommand != "" {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "  Participants run:")
		fmt.Fprintf(&b, "    %s\n", yellow.Sprint(a.AgentCommand))
	}
	if a.AgentURL != "" {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "  Then open:")
		fmt.Fprintf(&b, "    %s\n", yellow.Sprint(a.AgentURL))
	}
	cyan.Fprintln(&b, rule)

	_, err := io.WriteString(w, b.String())
	return err
}

// Failure renders a startup failure and an optional hint.
func Failure(w io.Writer, err error, hint string) {
	color.New(color.FgRed).Fprintf(w, "✗ %v\n", err)
	if hint != "" {
		color.New(color.FgYellow).Fprintf(w, "💡 %s\n", hint)
	}
}
