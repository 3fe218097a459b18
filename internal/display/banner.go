// Package display holds presentation helpers: the startup banner and
// human-readable sizes and durations for the run summary.
package display

import (
	"fmt"
	"io"

	"github.com/backmassage/hlsgrab/internal/term"
)

const banner = ` _     _                           _
| |__ | |___  __ _ _ __ __ _| |__
| '_ \| / __|/ _` + "`" + ` | '__/ _` + "`" + ` | '_ \
| | | | \__ \ (_| | | | (_| | |_) |
|_| |_|_|___/\__, |_|  \__,_|_.__/
             |___/
`

// PrintBanner writes the ASCII banner and version to w, in bold magenta
// when colors are enabled.
func PrintBanner(w io.Writer, version string) {
	fmt.Fprint(w, term.Paint(term.Magenta, banner))
	fmt.Fprintf(w, "hlsgrab %s\n\n", version)
}
