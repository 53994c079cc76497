package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/robertkrimen/isatty"
	"github.com/weftdb/weft/pkg"
)

var url = flag.String("url", "ws://localhost:9000/ws", "URL of Weft server to connect to")

func main() {
	// get cmdline flags
	flag.Parse()

	// connect to server
	client, connErr := weft.NewClient(*url)
	if connErr != nil {
		fmt.Println("couldn't connect:", connErr)
		os.Exit(1)
		return
	}
	defer client.Close()

	// check if is TTY
	isInputTty := isatty.Check(os.Stdin.Fd())

	if isInputTty {
		fmt.Println("Weft shell")
		fmt.Println("\\h for help")
	}

	// initialize readline
	prompt := ""
	if isInputTty {
		prompt = fmt.Sprintf("%s> ", *url)
	}
	l, err := readline.NewEx(&readline.Config{
		Prompt:            prompt,
		HistoryFile:       "/tmp/.weft-history",
		InterruptPrompt:   "^C",
		EOFPrompt:         "bye!",
		HistorySearchFold: true,
	})
	if err != nil {
		panic(err)
	}
	defer l.Close()

	// start holds the fact reference the next specification compiles against.
	var start *weft.FactReference

	// Specifications span lines; accumulate until braces balance.
	var pending []string
	depth := 0

	for {
		line, readlineErr := l.Readline()
		if readlineErr != nil {
			fmt.Println("bye!")
			os.Exit(0)
		}

		if depth == 0 {
			if line == `\h` {
				fmt.Println(`\h	help`)
				fmt.Println(`\declare Type role...	declare a fact type and its roles`)
				fmt.Println(`\start Type hash	set the start reference for compilation`)
				fmt.Println(`\bookmark feedId	show a feed's bookmark`)
				fmt.Println(`(name: Type) { ... }	compile a specification to feeds`)
				continue
			}
			if strings.HasPrefix(line, `\declare `) {
				fields := strings.Fields(strings.TrimPrefix(line, `\declare `))
				if len(fields) == 0 {
					fmt.Println("error: \\declare needs a type name")
					continue
				}
				if err := client.Declare(fields[0], fields[1:]...); err != nil {
					fmt.Println("error:", err)
					continue
				}
				fmt.Println("declared", fields[0])
				continue
			}
			if strings.HasPrefix(line, `\start `) {
				fields := strings.Fields(strings.TrimPrefix(line, `\start `))
				if len(fields) != 2 {
					fmt.Println("error: \\start needs a type and a hash")
					continue
				}
				start = &weft.FactReference{Type: fields[0], Hash: fields[1]}
				continue
			}
			if strings.HasPrefix(line, `\bookmark `) {
				feedID := strings.TrimSpace(strings.TrimPrefix(line, `\bookmark `))
				bookmark, err := client.Bookmark(feedID)
				if err != nil {
					fmt.Println("error:", err)
					continue
				}
				fmt.Printf("bookmark: %#v\n", bookmark)
				continue
			}
			if len(strings.Trim(line, "\t ")) == 0 {
				continue
			}
		}

		pending = append(pending, line)
		depth += strings.Count(line, "{") - strings.Count(line, "}")
		if depth > 0 {
			continue
		}

		spec := strings.Join(pending, "\n")
		pending = nil
		depth = 0

		if start == nil {
			fmt.Println("error: set a start reference with \\start first")
			continue
		}
		feeds, err := client.Feeds(spec, *start)
		if err != nil {
			fmt.Println("error:", err)
			continue
		}
		for _, feed := range feeds {
			printJSON(feed.FeedID, feed)
		}
	}
}

func printJSON(tag string, thing interface{}) {
	indented, _ := json.MarshalIndent(thing, "", "  ")
	fmt.Printf("%s:\n%s\n", tag, indented)
}
