package commands

import (
	"bytes"
	"fmt"
	"go/format"
	"go/parser"
	"go/token"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/martianoff/exprdual/internal/duality/transform"
)

var transformCmd = &cobra.Command{
	Use:   "transform <path> <output-path> <direction>",
	Short: "Rewrite a Go source file to the dual encoding",
	Long: `transform reads the Go source file at <path>, rewrites every
interface+generator declaration to a sealed datatype+consumer declaration
(direction oo-to-fp) or every datatype+consumer declaration to an
interface+generator declaration (direction fp-to-oo), and writes the
result to <output-path>.`,
	Args: cobra.ExactArgs(3),
	RunE: runTransform,
}

func runTransform(cmd *cobra.Command, args []string) error {
	inputPath, outputPath, directionArg := args[0], args[1], args[2]

	dir, err := transform.ParseDirection(directionArg)
	if err != nil {
		return err
	}

	src, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", inputPath, err)
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, inputPath, src, parser.ParseComments)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", inputPath, err)
	}

	out, err := transform.Run(file, dir)
	if err != nil {
		return fmt.Errorf("transforming %s: %w", inputPath, err)
	}

	var buf bytes.Buffer
	if err := format.Node(&buf, token.NewFileSet(), out); err != nil {
		return fmt.Errorf("rendering output: %w", err)
	}

	formatted, err := gofmt(buf.Bytes())
	if err != nil {
		// gofmt is a convenience pass only; fall back to the unformatted
		// rendering rather than failing the whole run if it is unavailable.
		fmt.Fprintln(os.Stderr, errorPrefix()+"gofmt unavailable, writing unformatted output: "+err.Error())
		formatted = buf.Bytes()
	}

	if err := os.WriteFile(outputPath, formatted, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outputPath, err)
	}
	fmt.Printf("Wrote %s (%s)\n", outputPath, dir)
	return nil
}

// gofmt shells out to the external gofmt binary as the final formatting
// pass, the way SPEC_FULL.md §0 assigns printing/formatting to the "host
// ecosystem" collaborator the original specification leaves unspecified.
func gofmt(src []byte) ([]byte, error) {
	cmd := exec.Command("gofmt")
	cmd.Stdin = bytes.NewReader(src)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: %s", err, stderr.String())
	}
	return out.Bytes(), nil
}
