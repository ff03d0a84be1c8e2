package main

import (
	"beatrender/config"
	"beatrender/db"
	"beatrender/utils"
	"fmt"
	"os"
	"path/filepath"
)

func main() {
	cfg := config.Load()
	utils.InitLogger(utils.ParseLevel(cfg.LogLevel))

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	if err := prepareDirs(cfg); err != nil {
		utils.Log.Fatal("%v", err)
	}

	client, err := db.NewSQLiteClient(cfg.DBPath)
	if err != nil {
		utils.Log.Fatal("%v", err)
	}
	defer client.Close()

	var cmdErr error
	switch os.Args[1] {
	case "render":
		if len(os.Args) < 3 {
			usage()
			os.Exit(2)
		}
		title := ""
		if len(os.Args) > 3 {
			title = os.Args[3]
		}
		cmdErr = renderPattern(cfg, client, os.Args[2], title)
	case "list":
		owner := cfg.Owner
		if len(os.Args) > 2 {
			owner = os.Args[2]
		}
		cmdErr = listRenders(client, owner)
	case "inspect":
		if len(os.Args) < 3 {
			usage()
			os.Exit(2)
		}
		cmdErr = inspect(os.Args[2])
	case "cleanup":
		cmdErr = cleanup(client)
	default:
		usage()
		os.Exit(2)
	}

	if cmdErr != nil {
		reportError(cmdErr)
		client.Close()
		os.Exit(1)
	}
}

// prepareDirs creates the output directory and the one holding the catalogue.
func prepareDirs(cfg config.Config) error {
	for _, dir := range []string{cfg.OutputDir, filepath.Dir(cfg.DBPath)} {
		if err := utils.MkDir(dir); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  beatrender render <pattern.json> [title]")
	fmt.Println("  beatrender list [owner]")
	fmt.Println("  beatrender inspect <file.wav>")
	fmt.Println("  beatrender cleanup")
}
