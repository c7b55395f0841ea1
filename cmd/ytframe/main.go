package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/bodgit/ytframe"
	"github.com/bodgit/ytframe/ffmpeg"
	"github.com/bodgit/ytframe/upload"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"
)

const defaultDB = "ytframe.db"

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(io.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

func newConfig(c *cli.Context) ytframe.Config {
	return ytframe.Config{
		Width:     c.Int("width"),
		Height:    c.Int("height"),
		Block:     c.Int("block"),
		Gutter:    c.Int("gutter"),
		FPS:       c.Int("fps"),
		Compress:  c.Bool("compress"),
		ZstdLevel: c.Int("zlevel"),
	}
}

// decodeConfig defaults the decode geometry from the encode run's
// manifest when one is supplied, so a manifest alone is enough to recover
// a video. Flags win only when explicitly set on the command line.
func decodeConfig(cfg ytframe.Config, set map[string]bool, m *ytframe.Manifest) ytframe.Config {
	if m == nil || m.Width == 0 || m.Height == 0 {
		return cfg
	}
	if !set["width"] {
		cfg.Width = m.Width
	}
	if !set["height"] {
		cfg.Height = m.Height
	}
	if !set["block"] && m.BlockSize > 0 {
		cfg.Block = m.BlockSize
	}
	if !set["gutter"] && m.BlockSize > 0 {
		cfg.Gutter = m.Gutter
	}
	if !set["fps"] && m.FPS > 0 {
		cfg.FPS = m.FPS
	}
	return cfg
}

func setFlags(c *cli.Context, names ...string) map[string]bool {
	set := make(map[string]bool)
	for _, name := range names {
		if c.IsSet(name) {
			set[name] = true
		}
	}
	return set
}

func geometryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "width",
			Value: 1920,
			Usage: "frame width in pixels",
		},
		&cli.IntFlag{
			Name:  "height",
			Value: 1080,
			Usage: "frame height in pixels",
		},
		&cli.IntFlag{
			Name:  "block",
			Value: 8,
			Usage: "block size in pixels",
		},
		&cli.IntFlag{
			Name:  "gutter",
			Value: 1,
			Usage: "gutter between blocks in pixels",
		},
		&cli.IntFlag{
			Name:  "fps",
			Value: 60,
			Usage: "video frame rate",
		},
		&cli.BoolFlag{
			Name:  "compress",
			Usage: "compress the payload with zstd",
		},
		&cli.StringFlag{
			Name:  "ffmpeg",
			Value: "ffmpeg",
			Usage: "path to the ffmpeg binary",
		},
	}
}

func main() {
	app := cli.NewApp()

	app.Name = "ytframe"
	app.Usage = "Store arbitrary files as video frames"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"YTFRAME_DB"},
			Value:   filepath.Join(cwd, defaultDB),
			Usage:   "path to run database",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "encode",
			Usage:       "Encode a file into a video",
			Description: "Renders FILE into a lossless VP9 webm in DIRECTORY, along with a manifest.json.",
			ArgsUsage:   "FILE DIRECTORY",
			Flags: append(geometryFlags(),
				&cli.IntFlag{
					Name:  "zlevel",
					Value: ytframe.DefaultZstdLevel,
					Usage: "zstd compression level",
				},
				&cli.StringFlag{
					Name:  "outfile",
					Value: "encoded.webm",
					Usage: "output video filename",
				},
				&cli.BoolFlag{
					Name:  "upload",
					Usage: "upload the video through the hosting backend",
				},
				&cli.StringFlag{
					Name:    "backend",
					EnvVars: []string{"YTFRAME_BACKEND"},
					Value:   "http://localhost:8000/upload",
					Usage:   "hosting backend upload endpoint",
				},
			),
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				db, err := ytframe.NewRunDB(c.String("db"))
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer db.Close()

				y := ytframe.New(db, newLogger(c))
				t := ffmpeg.New(ffmpeg.WithBinary(c.String("ffmpeg")))

				run, err := y.Encode(c.Context, newConfig(c), c.Args().Get(0), c.Args().Get(1), c.String("outfile"), t)
				if err != nil {
					return cli.Exit(err, 1)
				}

				fmt.Printf("Encoded %s into %d frames\n", c.Args().Get(0), run.Frames)

				if !c.Bool("upload") {
					return nil
				}

				description, err := json.Marshal(run.Manifest())
				if err != nil {
					return cli.Exit(err, 1)
				}

				videoPath := filepath.Join(c.Args().Get(1), c.String("outfile"))
				videoID, err := upload.New(c.String("backend")).Upload(c.Context, videoPath, run.InputFile, string(description))
				if err != nil {
					return cli.Exit(err, 1)
				}

				if err := db.SetVideoID(run.ID, videoID); err != nil {
					return cli.Exit(err, 1)
				}

				fmt.Println("Video link:", upload.WatchURL(videoID))

				return nil
			},
		},
		{
			Name:        "decode",
			Usage:       "Recover a file from a video",
			Description: "Extracts the raster stream from VIDEO and reconstructs the original file. Geometry flags must match the encode run exactly.",
			ArgsUsage:   "VIDEO",
			Flags: append(geometryFlags(),
				&cli.StringFlag{
					Name:  "manifest",
					Usage: "manifest file for header fallback and checksum verification",
				},
				&cli.StringFlag{
					Name:  "outfile",
					Usage: "output file path, stdout if unset",
				},
			),
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				var m *ytframe.Manifest
				if path := c.String("manifest"); path != "" {
					var err error
					if m, err = ytframe.ReadManifest(path); err != nil {
						return cli.Exit(err, 1)
					}
				}

				y := ytframe.New(nil, newLogger(c))
				t := ffmpeg.New(ffmpeg.WithBinary(c.String("ffmpeg")))

				cfg := decodeConfig(newConfig(c), setFlags(c, "width", "height", "block", "gutter", "fps"), m)

				orig, err := y.Decode(c.Context, cfg, c.Args().First(), m, t)
				if err != nil {
					return cli.Exit(err, 1)
				}

				if out := c.String("outfile"); out != "" {
					if err := os.WriteFile(out, orig, 0o644); err != nil {
						return cli.Exit(err, 1)
					}
					fmt.Println("Wrote recovered file:", out)
				} else if _, err := os.Stdout.Write(orig); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
		{
			Name:  "runs",
			Usage: "List recorded encode runs",
			Action: func(c *cli.Context) error {
				db, err := ytframe.NewRunDB(c.String("db"))
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer db.Close()

				runs, err := db.List()
				if err != nil {
					return cli.Exit(err, 1)
				}

				t := table.NewWriter()
				t.SetOutputMirror(os.Stdout)
				t.AppendHeader(table.Row{"Created", "Input", "Video", "Video ID", "Geometry", "Bytes", "Frames", "CRC32"})
				for _, r := range runs {
					t.AppendRow(table.Row{
						r.CreatedAt.Format("2006-01-02 15:04:05"),
						r.InputFile,
						r.VideoFile,
						r.VideoID,
						fmt.Sprintf("%dx%d b%d g%d @%d", r.Width, r.Height, r.Block, r.Gutter, r.FPS),
						r.OriginalLength,
						r.Frames,
						r.PayloadCRC32,
					})
				}
				t.Render()

				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
