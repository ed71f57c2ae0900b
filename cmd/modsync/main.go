package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/eiannone/keyboard"
	"github.com/urfave/cli/v2"

	"github.com/overviewer/bg3-modsync/internal/config"
	"github.com/overviewer/bg3-modsync/internal/deploy"
	"github.com/overviewer/bg3-modsync/internal/fetch"
	"github.com/overviewer/bg3-modsync/internal/manifest"
	"github.com/overviewer/bg3-modsync/internal/steam"
	"github.com/overviewer/bg3-modsync/pkg/models"
	"github.com/overviewer/bg3-modsync/pkg/utils"
	"github.com/overviewer/bg3-modsync/pkg/version"
)

func main() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"v"},
		Usage:   "print the version",
	}

	pathFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "game",
			Aliases: []string{"g"},
			Usage:   "path to the game folder",
		},
		&cli.StringFlag{
			Name:    "appdata",
			Aliases: []string{"a"},
			Usage:   "path to the game's appdata folder",
		},
		&cli.StringFlag{
			Name:    "steam",
			Aliases: []string{"s"},
			Usage:   "path to Steam's main install folder",
		},
	}
	applyFlags := append([]cli.Flag{
		&cli.BoolFlag{
			Name:    "dry-run",
			Aliases: []string{"n"},
			Usage:   "print the actions to take, then exit",
		},
		&cli.BoolFlag{
			Name:    "yes",
			Aliases: []string{"y"},
			Usage:   "skip the confirmation prompt",
		},
	}, pathFlags...)

	app := &cli.App{
		Name:                 "modsync",
		Usage:                "staging-to-install sync tool for Baldur's Gate 3 mod files",
		Version:              version.Version,
		EnableBashCompletion: true,
		Commands: []*cli.Command{
			{
				Name:  "version",
				Usage: "Print detailed version information",
				Action: func(c *cli.Context) error {
					fmt.Printf("Version:    %s\n", version.Version)
					fmt.Printf("Git commit: %s\n", version.GitCommit)
					fmt.Printf("Built:      %s\n", version.BuildTime)
					return nil
				},
			},
			{
				Name:      "deploy",
				Usage:     "Sync the staging trees into a Steam library root",
				ArgsUsage: "<library-root>",
				Description: "Validates the staging directory and the library root, then copies " +
					"the appdata tree and the Data tree onto their destinations. New and " +
					"changed files are copied; nothing is ever deleted.",
				Action: runDeploy,
			},
			{
				Name:   "install",
				Usage:  "Install staged mod files, tracking them for later removal",
				Flags:  append([]cli.Flag{&cli.BoolFlag{Name: "optional", Aliases: []string{"o"}, Usage: "also install optional mods"}}, applyFlags...),
				Action: runInstall,
			},
			{
				Name:   "uninstall",
				Usage:  "Remove previously installed, unmodified files",
				Flags:  applyFlags,
				Action: runUninstall,
			},
			{
				Name:   "status",
				Usage:  "Show what is tracked in each managed root",
				Flags:  pathFlags,
				Action: runStatus,
			},
			{
				Name:   "discover",
				Usage:  "Print the resolved Steam, game, and appdata paths",
				Flags:  pathFlags,
				Action: runDiscover,
			},
			{
				Name:   "fetch",
				Usage:  "Mirror the mod bundle from the configured bucket into the staging directory",
				Action: runFetch,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(models.ExitCode(err))
	}
}

// runDeploy is the plain one-shot sync: validate everything up front,
// then copy the two trees in order.
func runDeploy(c *cli.Context) error {
	if c.NArg() != 1 {
		cli.ShowSubcommandHelp(c)
		return &models.PathError{Err: errors.New("exactly one library root argument is required")}
	}

	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	paths, err := deploy.ResolvePaths(wd, c.Args().First())
	if err != nil {
		var pathErr *models.PathError
		if errors.As(err, &pathErr) {
			cli.ShowSubcommandHelp(c)
		}
		return err
	}
	return deploy.Run(paths)
}

func runInstall(c *cli.Context) error {
	return applyChanges(c, false)
}

func runUninstall(c *cli.Context) error {
	return applyChanges(c, true)
}

// applyChanges is the shared install/uninstall pipeline: discover paths,
// plan stale removals, optionally plan installs, summarize, confirm,
// commit.
func applyChanges(c *cli.Context, uninstallOnly bool) error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := config.Load(wd)
	if err != nil {
		return err
	}

	paths, err := newFinder(c, cfg).Discover()
	if err != nil {
		return err
	}
	fmt.Println()

	gameIns, err := deploy.NewInstaller(paths.Game, cfg.Blacklist.Patterns)
	if err != nil {
		return err
	}
	defer gameIns.Close()
	appIns, err := deploy.NewInstaller(paths.AppData, cfg.Blacklist.Patterns)
	if err != nil {
		return err
	}
	defer appIns.Close()

	if err := gameIns.PlanUninstall(); err != nil {
		return err
	}
	if err := appIns.PlanUninstall(); err != nil {
		return err
	}

	if !uninstallOnly {
		for _, dir := range cfg.Mods.Dirs {
			if src := filepath.Join(wd, dir); isDir(src) {
				if err := gameIns.PlanTree(src, dir); err != nil {
					return err
				}
			}
		}
		if c.Bool("optional") || cfg.Mods.Optional {
			for _, dir := range cfg.Mods.Dirs {
				if src := filepath.Join(wd, models.OptionalDir, dir); isDir(src) {
					if err := gameIns.PlanTree(src, dir); err != nil {
						return err
					}
				}
			}
		}
		if src := filepath.Join(wd, models.AppDataDirName); isDir(src) {
			if err := appIns.PlanTree(src, ""); err != nil {
				return err
			}
		}
	}

	if gameIns.Len()+appIns.Len() == 0 {
		fmt.Println("Nothing to do.")
		return nil
	}

	gameIns.Summarize()
	fmt.Println()
	appIns.Summarize()

	if c.Bool("dry-run") {
		return nil
	}
	if !c.Bool("yes") {
		fmt.Println()
		ok, err := confirm()
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("exiting...")
			return nil
		}
	}

	fmt.Println()
	if err := gameIns.Commit(); err != nil {
		return err
	}
	fmt.Println()
	if err := appIns.Commit(); err != nil {
		return err
	}
	fmt.Println()
	fmt.Println("Done.")
	return nil
}

func runStatus(c *cli.Context) error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := config.Load(wd)
	if err != nil {
		return err
	}
	paths, err := newFinder(c, cfg).Discover()
	if err != nil {
		return err
	}
	fmt.Println()

	roots := []struct {
		label string
		path  string
	}{
		{"Game", paths.Game},
		{"AppData", paths.AppData},
	}
	for _, root := range roots {
		fmt.Printf("%s: %s\n", root.label, root.path)
		if !manifest.Exists(root.path) {
			fmt.Println("  No files tracked")
			continue
		}
		db, err := manifest.Open(root.path)
		if err != nil {
			return err
		}
		stats, err := db.Stats()
		db.Close()
		if err != nil {
			return err
		}
		fmt.Printf("  Tracked: %d files (%s), %d directories\n",
			stats.TrackedFiles, utils.FormatSize(stats.TrackedSize), stats.TrackedDirs)
		fmt.Printf("  Unmodified: %d (%s)\n", stats.UnmodifiedFiles, utils.FormatSize(stats.UnmodifiedSize))
		fmt.Printf("  Modified: %d (%s)\n", stats.ModifiedFiles, utils.FormatSize(stats.ModifiedSize))
		fmt.Printf("  Missing: %d\n", stats.MissingFiles)
	}
	return nil
}

func runDiscover(c *cli.Context) error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := config.Load(wd)
	if err != nil {
		return err
	}
	paths, err := newFinder(c, cfg).Discover()
	if err != nil {
		return err
	}
	fmt.Println()

	if paths.Steam != "" {
		fmt.Printf("Steam:     %s\n", paths.Steam)
	}
	for _, library := range paths.Libraries {
		fmt.Printf("Library:   %s\n", library)
	}
	fmt.Printf("Game:      %s\n", paths.Game)
	fmt.Printf("Game data: %s\n", paths.GameData)
	fmt.Printf("Game bin:  %s\n", paths.GameBin)
	fmt.Printf("AppData:   %s\n", paths.AppData)
	return nil
}

func runFetch(c *cli.Context) error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := config.Load(wd)
	if err != nil {
		return err
	}

	fetcher, err := fetch.New(cfg.Fetch, wd)
	if err != nil {
		return err
	}
	summary, err := fetcher.Mirror(context.Background())
	if err != nil {
		return err
	}
	fmt.Println(summary)
	return nil
}

// newFinder builds path discovery from flags over config over platform
// defaults.
func newFinder(c *cli.Context, cfg config.Config) *steam.Finder {
	pick := func(flag, conf string) string {
		if flag != "" {
			return flag
		}
		return conf
	}
	return &steam.Finder{
		Steam:   pick(c.String("steam"), cfg.Paths.Steam),
		Game:    pick(c.String("game"), cfg.Paths.Game),
		AppData: pick(c.String("appdata"), cfg.Paths.AppData),
	}
}

// confirm reads a single Y/n keypress; enter means yes.
func confirm() (bool, error) {
	fmt.Print("Perform the actions listed above (Y/n)? ")
	ch, key, err := keyboard.GetSingleKey()
	if err != nil {
		return false, err
	}
	fmt.Println(string(ch))
	return key == keyboard.KeyEnter || ch == 'Y' || ch == 'y', nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
