package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/bodgit/wal"
	"github.com/bodgit/wal/catalog"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

const defaultDB = "wal.db"

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newLogger(c *cli.Context) (*zap.Logger, error) {
	if c.Bool("verbose") {
		return zap.NewDevelopment()
	}
	return zap.NewNop(), nil
}

// session is an open catalog and the logger it writes to.
type session struct {
	*catalog.Catalog
	logger *zap.Logger
}

// Close closes the catalog and flushes any buffered log output.
func (s *session) Close() error {
	err := s.Catalog.Close()
	// Syncing a terminal can fail harmlessly
	_ = s.logger.Sync()
	return err
}

func openCatalog(c *cli.Context) (*session, error) {
	logger, err := newLogger(c)
	if err != nil {
		return nil, err
	}
	cat, err := catalog.New(c.String("db"), logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	return &session{Catalog: cat, logger: logger}, nil
}

func info(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	h, pixels, err := wal.DecodeFile(c.Args().First())
	switch {
	case err == nil:
	case errors.Is(err, wal.ErrSourceUnavailable), errors.Is(err, wal.ErrTruncatedHeader):
		return cli.Exit(err, 1)
	default:
		// The header is still worth showing
		printHeader(c.App.Writer, h)
		return cli.Exit(err, 1)
	}

	printHeader(c.App.Writer, h)
	fmt.Fprintf(c.App.Writer, "Pixels:    %d\n", len(pixels))

	return nil
}

func scan(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	cat, err := openCatalog(c)
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer cat.Close()

	added, err := cat.Scan(c.Context, c.Args().First())
	if err != nil {
		return cli.Exit(err, 1)
	}

	fmt.Fprintf(c.App.Writer, "Added %d textures\n", added)

	return nil
}

func lookup(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	cat, err := openCatalog(c)
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer cat.Close()

	name := c.Args().First()

	entries, err := cat.FindByName(name)
	if err != nil {
		return cli.Exit(err, 1)
	}
	if len(entries) == 0 {
		return cli.Exit(fmt.Sprintf("no texture named %q", name), 1)
	}

	for _, e := range entries {
		printEntry(c.App.Writer, e)
	}

	frames, err := cat.Animation(name)
	if err != nil {
		return cli.Exit(err, 1)
	}

	if len(frames) > 1 {
		fmt.Fprintln(c.App.Writer, "Animation:")
		for _, f := range frames {
			printEntry(c.App.Writer, f)
		}
	}

	return nil
}

func newApp(cwd string) *cli.App {
	app := cli.NewApp()

	app.Name = "wal"
	app.Usage = "WAL texture inspection utility"
	app.Version = "1.0.0"

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"WAL_DB"},
			Value:   filepath.Join(cwd, defaultDB),
			Usage:   "path to texture catalog",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:      "info",
			Usage:     "Print the header of a WAL texture",
			ArgsUsage: "FILE",
			Action:    info,
		},
		{
			Name:      "scan",
			Usage:     "Add all WAL textures under a directory to the catalog",
			ArgsUsage: "DIRECTORY",
			Action:    scan,
		},
		{
			Name:      "lookup",
			Usage:     "Find textures in the catalog by name",
			ArgsUsage: "NAME",
			Action:    lookup,
		},
	}

	return app
}

func main() {
	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	if err := newApp(cwd).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
