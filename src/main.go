package main

import (
	"fmt"
	"os"

	"kolga/src/codegen"
	"kolga/src/lexer"
	"kolga/src/parser"
	"kolga/src/symtab"
	"kolga/src/token"
	"kolga/src/typecheck"
	"kolga/src/util"
)

// run executes the compiler pipeline end to end: lex, parse, type-check,
// generate. It stops at the first stage to report a diagnostic — later
// stages never run over a program an earlier stage already rejected.
func run(opt util.Options) error {
	src, err := util.ReadSource(opt)
	if err != nil {
		return fmt.Errorf("could not read source: %s", err)
	}

	if opt.Tokens {
		return dumpTokens(src)
	}

	trace(opt, "lexing and parsing")
	lx := lexer.New(src)
	st := symtab.New()
	p := parser.New(lx, st)
	prog, errs := p.Parse()
	parseErrs := util.NewPerror(len(errs))
	parseErrs.AppendAll(errs)
	if parseErrs.Len() > 0 {
		util.ReportDiagnostics(parseErrs)
		return fmt.Errorf("parse failed with %d error(s)", parseErrs.Len())
	}

	trace(opt, "type-checking")
	if tcErrs := typecheck.Check(prog); len(tcErrs) > 0 {
		pe := util.NewPerror(len(tcErrs))
		pe.AppendAll(tcErrs)
		util.ReportDiagnostics(pe)
		return fmt.Errorf("type check failed with %d error(s)", pe.Len())
	}

	trace(opt, "generating LLVM IR")
	gen := codegen.New(moduleName(opt.Src))
	defer gen.Dispose()
	if err := gen.Gen(prog); err != nil {
		pe := util.NewPerror(1)
		pe.Append(err)
		util.ReportDiagnostics(pe)
		return fmt.Errorf("code generation failed")
	}

	var out *os.File
	if opt.Out != "" {
		f, err := os.Create(opt.Out)
		if err != nil {
			return fmt.Errorf("could not open output file: %s", err)
		}
		defer f.Close()
		out = f
	}
	w := util.NewWriter(out)
	return w.WriteString(gen.IR())
}

func moduleName(src string) string {
	if src == "" {
		return "kolga"
	}
	return src
}

func trace(opt util.Options, stage string) {
	if opt.Verbose {
		fmt.Fprintf(os.Stderr, "kolga: %s\n", stage)
	}
}

// dumpTokens implements the -tokens flag: print every token's kind and
// source position, one per line, and stop before parsing.
func dumpTokens(src string) error {
	lx := lexer.New(src)
	for {
		t, err := lx.Next()
		if err != nil {
			return err
		}
		fmt.Printf("%d:%d: %s\n", t.Line, t.Column, t.Kind)
		if t.Kind == token.EOF {
			return nil
		}
	}
}

func main() {
	opt, err := util.ParseArgs()
	if err != nil {
		fmt.Fprintf(os.Stderr, "kolga: %s\n", err)
		os.Exit(1)
	}
	if err := run(opt); err != nil {
		fmt.Fprintf(os.Stderr, "kolga: %s\n", err)
		os.Exit(1)
	}
}
