package main

import (
	"os"

	"git.home.luguber.info/inful/docviewer/cmd/docviewer/commands"
)

func main() {
	cli := &commands.CLI{}
	globals := &commands.Global{Stdout: os.Stdout, Stderr: os.Stderr}

	parser, err := commands.NewParser(cli, globals)
	if err != nil {
		panic(err)
	}
	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	os.Exit(commands.Execute(kctx, cli, globals))
}
