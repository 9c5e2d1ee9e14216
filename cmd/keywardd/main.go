package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/keyward/keyward"
	keywardd "github.com/keyward/keyward/cmd/keywardd/app"
	"github.com/keyward/keyward/commands/server"
	"github.com/tendermint/tendermint/libs/log"
)

var (
	flagHome = "home"
	varHome  *string
)

func init() {
	defaultHome := filepath.Join(os.ExpandEnv("$HOME"), ".keyward")
	varHome = flag.String(flagHome, defaultHome, "directory to store files under")

	flag.CommandLine.Usage = helpMessage
}

func helpMessage() {
	fmt.Println("keywardd")
	fmt.Println("          Guardian governed custody node")
	fmt.Println("")
	fmt.Println("help      Print this message")
	fmt.Println("init      Initialize app state in genesis file [-f] [admin address]")
	fmt.Println("start     Run the abci server [-bind] [-debug] [-metrics]")
	fmt.Println("validate  Check genesis files load cleanly")
	fmt.Println("version   Print the app version")
	fmt.Println(`
  -home string
        directory to store files under (default "$HOME/.keyward")`)
}

func main() {
	logger := log.NewTMLogger(log.NewSyncWriter(os.Stdout)).
		With("module", "keyward")

	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Println("Missing command:")
		helpMessage()
		os.Exit(1)
	}

	cmd := flag.Arg(0)
	rest := flag.Args()[1:]

	var err error
	switch cmd {
	case "help":
		helpMessage()
	case "init":
		err = server.InitCmd(keywardd.GenInitOptions, logger, *varHome, rest)
	case "start":
		err = server.StartCmd(keywardd.GenerateApp, logger, *varHome, rest)
	case "validate":
		if len(rest) == 0 {
			rest = []string{filepath.Join(*varHome, server.DirConfig, server.GenesisFile)}
		}
		err = server.ValidateGenesis(keywardd.Initializers(), rest)
	case "version":
		fmt.Println(keyward.Version())
	default:
		err = fmt.Errorf("unknown command: %s", cmd)
	}

	if err != nil {
		fmt.Printf("Error: %+v\n\n", err)
		helpMessage()
		os.Exit(1)
	}
}
