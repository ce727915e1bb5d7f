// Command pgoc is the pgoc compiler driver: parse one Pascal source
// file, run it through codegen, and hand the resulting LLVM IR to
// clang, matching tawago/main.go's build/typeinfo shape (spec.md §6).
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"os"
	"os/exec"
	"strings"

	"github.com/alecthomas/repr"
	"github.com/urfave/cli/v2"
	"github.com/ztrue/tracerr"
	"gopkg.in/yaml.v2"

	"github.com/gopascal/pgoc/codegen"
	"github.com/gopascal/pgoc/lexer"
	"github.com/gopascal/pgoc/parser"
	"github.com/gopascal/pgoc/reader"
)

// pascalModule is the `Pascal Module Information` manifest, the pgoc
// analogue of tawago's `Tawa Module Information`/tawaModule.
type pascalModule struct {
	Package string   `yaml:"Package"`
	Runtime []string `yaml:"Runtime"`
}

const manifestName = "Pascal Module Information"

func main() {
	app := &cli.App{
		Name:  "pgoc",
		Usage: "pascal compiler",
		ExitErrHandler: func(c *cli.Context, err error) {
			log.Fatalf("pgoc: %v", err)
		},
		Commands: []*cli.Command{
			initCommand,
			buildCommand,
			typeinfoCommand,
		},
	}
	if err := app.Run(os.Args); err != nil {
		tracerr.PrintSourceColor(err)
		os.Exit(1)
	}
}

var initCommand = &cli.Command{
	Name:  "init",
	Usage: "create a Pascal Module Information manifest in the current directory",
	Action: func(c *cli.Context) error {
		name := c.Args().First()
		if name == "" {
			return fmt.Errorf("no module name provided")
		}
		out, err := yaml.Marshal(pascalModule{Package: name})
		if err != nil {
			return err
		}
		return ioutil.WriteFile(manifestName, out, 0644)
	},
}

var typeinfoCommand = &cli.Command{
	Name:  "typeinfo",
	Usage: "dump the type-info blob embedded in a compiled object",
	Action: func(c *cli.Context) error {
		file := c.Args().Get(0)
		if file == "" {
			return fmt.Errorf("usage: pgoc typeinfo <compiled object>")
		}
		raw, err := reader.ReadTypeInfo(file)
		if err != nil {
			return err
		}
		var info codegen.Info
		if err := json.Unmarshal([]byte(raw), &info); err != nil {
			return err
		}
		repr.Println(info)
		return nil
	},
}

var buildCommand = &cli.Command{
	Name:  "build",
	Usage: "compile a Pascal source file",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "output"},
		&cli.IntFlag{Name: "verbose", Value: 0},
		&cli.BoolFlag{Name: "dump"},
		&cli.BoolFlag{Name: "emit-object"},
	},
	Action: func(c *cli.Context) error {
		src := c.Args().First()
		if src == "" {
			return fmt.Errorf("usage: pgoc build <file>")
		}
		verbose := c.Int("verbose")

		out := c.String("output")
		if out == "" {
			out = strings.TrimSuffix(src, filepathExt(src))
		}

		manifest, err := readManifest()
		if err != nil && verbose > 0 {
			fmt.Fprintf(os.Stderr, "pgoc: %v (proceeding without a manifest)\n", err)
		}

		f, err := os.Open(src)
		if err != nil {
			return err
		}
		defer f.Close()

		l := lexer.New(f, src)
		if verbose > 0 {
			dumpTokens(l)
			f.Seek(0, io.SeekStart)
			l = lexer.New(f, src)
		}

		p := parser.New(l)
		prog, err := p.Parse()
		if err != nil {
			return err
		}
		if p.Diags.Failed() {
			p.Diags.PrintAll()
			return fmt.Errorf("compilation failed with %d error(s)", p.Diags.Count())
		}

		if verbose > 1 {
			repr.Println(prog)
		}

		module, cgDiags := codegen.Generate(prog)
		if cgDiags.Failed() {
			cgDiags.PrintAll()
			return fmt.Errorf("code generation failed with %d error(s)", cgDiags.Count())
		}
		ir := module.String()

		if c.Bool("dump") {
			fmt.Println(ir)
			return nil
		}

		return link(ir, out, manifest, c.Bool("emit-object"))
	},
}

func filepathExt(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i:]
	}
	return ""
}

func readManifest() (pascalModule, error) {
	var m pascalModule
	data, err := ioutil.ReadFile(manifestName)
	if err != nil {
		return m, err
	}
	err = yaml.Unmarshal(data, &m)
	return m, err
}

func dumpTokens(l *lexer.Lexer) {
	for {
		t := l.Lex()
		repr.Println(t)
		if t.Kind == 0 {
			return
		}
	}
}

// link writes ir to a temporary .ll file and invokes clang to produce
// a native object or executable, matching tawago's build command's use
// of exec.Command("clang", ...) exactly, minus the -nostdlib/raw-entry
// flags a libc-linked runtime no longer needs.
func link(ir, out string, manifest pascalModule, emitObject bool) error {
	fi, err := ioutil.TempFile("", "*.ll")
	if err != nil {
		return err
	}
	defer os.Remove(fi.Name())
	defer fi.Close()

	if _, err := io.Copy(fi, strings.NewReader(ir)); err != nil {
		return err
	}

	args := []string{"-o", out}
	if emitObject {
		args = append(args, "-c")
	}
	for _, lib := range manifest.Runtime {
		args = append(args, "-l"+lib)
	}
	args = append(args, fi.Name())

	cmd := exec.Command("clang", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
