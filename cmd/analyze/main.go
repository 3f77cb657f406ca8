// Command analyze runs the pattern engine over a shoe history and prints the
// report.
//
// The history comes from the arguments or, when none are given, from stdin.
// Letters and comma-separated words both work:
//
//	go run ./cmd/analyze PPBBTPPBBPB
//	go run ./cmd/analyze player,banker,tie
//	echo PPBBTPPBBPB | go run ./cmd/analyze -format json
//
// Exit code 2 means the input was not a valid history.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mbd888/shoewatch/internal/analysis"
	"github.com/mbd888/shoewatch/internal/outcome"
)

func main() {
	format := flag.String("format", "text", "output format: text or json")
	flag.Parse()

	if *format != "text" && *format != "json" {
		fmt.Fprintf(os.Stderr, "unknown format %q (want text or json)\n", *format)
		os.Exit(1)
	}

	input, err := readInput(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "read input: %v\n", err)
		os.Exit(1)
	}

	history, err := outcome.ParseSequence(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	result, err := analysis.Analyze(history)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	if *format == "json" {
		out, err := json.MarshalIndent(map[string]interface{}{
			"rounds": len(history),
			"result": result,
		}, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "encode result: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(out))
		return
	}

	fmt.Print(analysis.RenderReport(history, result))
}

// readInput joins the history arguments, or reads stdin when none are given.
func readInput(args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	var b strings.Builder
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		b.WriteString(strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return b.String(), nil
}
