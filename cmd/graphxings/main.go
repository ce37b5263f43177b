package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"graphxings/internal/config"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: graphxings <serve|play> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "  serve   expose the move engine over HTTP")
	fmt.Fprintln(os.Stderr, "  play    run a two-round match between two local agents")
}

func loadConfig(path string) config.Config {
	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			log.Fatal().Err(err).Str("file", path).Msg("config not loaded")
		}
		cfg = loaded
	}
	zerolog.SetGlobalLevel(cfg.Level())
	return cfg
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "serve":
		fs := flag.NewFlagSet("serve", flag.ExitOnError)
		addr := fs.String("addr", ":8080", "listen address")
		cfgPath := fs.String("config", "", "JSON config file")
		fs.Parse(os.Args[2:])
		if err := serve(*addr, loadConfig(*cfgPath)); err != nil {
			log.Fatal().Err(err).Msg("server stopped")
		}
	case "play":
		fs := flag.NewFlagSet("play", flag.ExitOnError)
		opts := playOptions{}
		cfgPath := fs.String("config", "", "JSON config file")
		fs.StringVar(&opts.graphFile, "graph", "", "graph file; a random graph is generated when empty")
		fs.IntVar(&opts.vertices, "vertices", 30, "vertices of the random graph")
		fs.IntVar(&opts.edges, "edges", 60, "edges of the random graph")
		fs.IntVar(&opts.width, "width", 20, "board width")
		fs.IntVar(&opts.height, "height", 20, "board height")
		fs.StringVar(&opts.objective, "objective", "crossings", "crossings or crossing-angles")
		fs.StringVar(&opts.saveGraph, "save-graph", "", "write the played graph to this file")
		fs.Parse(os.Args[2:])
		opts.cfg = loadConfig(*cfgPath)
		if err := play(opts); err != nil {
			log.Fatal().Err(err).Msg("match aborted")
		}
	default:
		usage()
		os.Exit(2)
	}
}
