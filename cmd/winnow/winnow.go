package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/jessevdk/go-flags"
	"github.com/peco/winnow"
	"github.com/peco/winnow/internal/util"
	"github.com/peco/winnow/ui"
)

const version = "v0.1.0"

type options struct {
	OptHelp     bool   `short:"h" long:"help" description:"show this help message and exit"`
	OptVersion  bool   `long:"version" description:"print the version and exit"`
	OptQuery    string `long:"query" description:"initial value for the query"`
	OptPrompt   string `long:"prompt" description:"prompt string drawn before the query"`
	OptRcfile   string `long:"rcfile" description:"path to the settings file"`
	OptMulti    bool   `short:"m" long:"multi" description:"enable multi-select with Tab"`
	OptReversed bool   `long:"reversed" description:"prompt at the bottom, list grows upwards"`
	OptNoSort   bool   `long:"no-sort" description:"keep matches in input order instead of ranking"`
	OptTty      string `long:"tty" description:"terminal device to draw on" default:"/dev/tty"`
}

func main() {
	os.Exit(run())
}

func run() int {
	var opts options
	parser := flags.NewParser(&opts, flags.PrintErrors|flags.PassDoubleDash)
	args, err := parser.Parse()
	if err != nil {
		return 2
	}

	if opts.OptHelp {
		parser.WriteHelp(os.Stderr)
		return 0
	}
	if opts.OptVersion {
		fmt.Fprintf(os.Stderr, "winnow version %s (built with %s)\n", version, runtime.Version())
		return 0
	}

	cfg := winnow.NewConfig()
	if opts.OptRcfile != "" {
		if err := cfg.ReadFilename(opts.OptRcfile); err != nil {
			fmt.Fprintf(os.Stderr, "winnow: %s\n", err)
			return 2
		}
	}
	cfg.Query = opts.OptQuery
	if opts.OptPrompt != "" {
		cfg.Prompt = opts.OptPrompt
	}
	cfg.MultiSelect = opts.OptMulti
	cfg.Reversed = opts.OptReversed
	if opts.OptNoSort {
		cfg.SortResults = false
	}

	in, name, err := openInput(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "winnow: %s\n", err)
		return 2
	}
	if closer, ok := in.(io.Closer); ok {
		defer closer.Close()
	}

	picker, err := winnow.New[string](winnow.RenderFunc[string](func(s *string) string {
		return *s
	}), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "winnow: %s\n", err)
		return 2
	}

	inj := picker.Injector()
	go func() {
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 256*1024), 1024*1024)
		for scanner.Scan() {
			inj.Push(scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			picker.Post(winnow.Event{Kind: winnow.EventUser, Err: fmt.Errorf("reading %s: %w", name, err)})
		}
	}()

	outcome, err := picker.PickOn(context.Background(), ui.NewTcellDev(opts.OptTty))
	if err != nil {
		if !util.IsAbortedError(err) {
			fmt.Fprintf(os.Stderr, "winnow: %s\n", err)
		}
		if st, ok := util.GetExitStatus(err); ok {
			return st
		}
		return 2
	}

	for _, item := range outcome.Items {
		fmt.Println(item)
	}
	return outcome.ExitStatus()
}

func openInput(args []string) (io.Reader, string, error) {
	if len(args) > 0 {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, "", err
		}
		return f, args[0], nil
	}
	if util.IsTty(os.Stdin) {
		return nil, "", fmt.Errorf("you must supply something to filter via a filename or stdin")
	}
	return os.Stdin, "-", nil
}
