package scenario

import (
	"fmt"
	"io"
	"strings"

	"github.com/rlch/inlay"
)

// Render writes a human readable report. Verbose includes the splice of every step.
func Render(w io.Writer, report *Report, styles *Styles, verbose bool) error {
	if styles == nil {
		styles = PlainStyles()
	}

	var b strings.Builder

	status := styles.Pass.Render(styles.SymbolPass)
	if !report.Passed() {
		status = styles.Fail.Render(styles.SymbolFail)
	}

	title := styles.Bold.Render(report.Name)
	if report.Path != "" {
		title += " " + styles.Path.Render(report.Path)
	}

	fmt.Fprintf(&b, "%s %s\n", status, title)

	for i, step := range report.Steps {
		branch := styles.TreeMiddle
		if i == len(report.Steps)-1 {
			branch = styles.TreeEnd
		}

		renderStep(&b, step, styles, styles.Dim.Render(branch), verbose)
	}

	_, err := io.WriteString(w, b.String())

	return err
}

func renderStep(b *strings.Builder, step StepResult, styles *Styles, branch string, verbose bool) {
	status := styles.Pass.Render(styles.SymbolPass)
	if step.Failed() {
		status = styles.Fail.Render(styles.SymbolFail)
	}

	fmt.Fprintf(b, "%s %s %s", branch, status, step.Name)

	if verbose {
		fmt.Fprintf(b, " %s", styles.Dim.Render(fmt.Sprintf("(%d queries)", step.Queries)))
	}

	b.WriteString("\n")

	indent := "     "

	if step.Err != nil {
		fmt.Fprintf(b, "%s%s\n", indent, styles.Fail.Render(step.Err.Error()))
	}

	if verbose {
		renderSplice(b, step.Splice, styles, indent)
	}

	for _, check := range step.Checks {
		switch {
		case check.Err != nil:
			fmt.Fprintf(b, "%s%s %s\n", indent, styles.Fail.Render(styles.SymbolFail), check.Err)
		case !check.Passed:
			fmt.Fprintf(b, "%s%s %s\n", indent, styles.Fail.Render(styles.SymbolFail), check.Expression)
		case verbose:
			fmt.Fprintf(b, "%s%s %s\n", indent, styles.Pass.Render(styles.SymbolPass), styles.Dim.Render(check.Expression))
		}
	}
}

func renderSplice(b *strings.Builder, splice inlay.Splice, styles *Styles, indent string) {
	for _, id := range splice.Remove {
		fmt.Fprintf(b, "%s%s\n", indent, styles.Remove.Render("- "+id.String()))
	}

	for _, ins := range splice.Insert {
		line := fmt.Sprintf("+ %s @%d %s %q", ins.ID, ins.Anchor.Offset, ins.Hint.Kind, ins.Hint.Label)
		fmt.Fprintf(b, "%s%s\n", indent, styles.Kind(ins.Hint.Kind).Render(line))
	}
}
