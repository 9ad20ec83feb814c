// grfcli is a command-line utility for inspecting and extracting from
// Ragnarok Online GRF archives.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/grfpack/internal/config"
	"github.com/Faultbox/grfpack/internal/logger"
	"github.com/Faultbox/grfpack/pkg/grf"
)

func main() {
	config.ParseFlags()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	command := flag.Arg(0)
	args := flag.Args()[1:]

	switch command {
	case "info":
		cmdInfo(cfg, args)
	case "list", "ls":
		cmdList(cfg, args)
	case "extract", "x":
		cmdExtract(cfg, args)
	case "find", "search":
		cmdFind(cfg, args)
	case "stats":
		cmdStats(cfg, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`grfcli - Ragnarok Online GRF archive utility

Usage:
  grfcli [flags] <command> [options]

Commands:
  info <file.grf>                    Show archive header and directory summary
  list <file.grf> [glob]             List files (optional glob pattern)
  extract <file.grf> <path> [output] Extract a file or glob to a directory
  find <file.grf> <substring>        Search files by substring
  stats <file.grf>                   Show load statistics and cache hit rate

Flags:
  -config string     Path to config file
  -debug             Enable debug logging
  -encoding string   Force filename encoding (auto, utf-8, cp949, euc-kr, latin-1)
  -output string     Output directory for extract
  -cache int         Extraction cache capacity

Examples:
  grfcli info data.grf
  grfcli list data.grf "*.spr"
  grfcli extract data.grf data\sprite\npc\npc.spr ./output
  grfcli find data.grf prontera`)
}

func openArchive(cfg *config.Config, path string) (*grf.Archive, error) {
	opts := []grf.Option{
		grf.WithAutoDetectThreshold(cfg.Archive.AutoDetectThreshold),
		grf.WithMaxFileUncompressedBytes(cfg.Archive.MaxFileMB * 1024 * 1024),
		grf.WithMaxEntries(cfg.Archive.MaxEntries),
		grf.WithCacheCapacity(cfg.Archive.CacheCapacity),
		grf.WithLogger(logger.Log),
	}
	opts = append(opts, grf.WithUseBytePool(cfg.Archive.UseBytePool))
	if enc := grf.FilenameEncoding(cfg.Archive.FilenameEncoding); enc != "" {
		opts = append(opts, grf.WithFilenameEncoding(enc))
	}

	archive, err := grf.OpenFile(path, opts...)
	if err != nil {
		return nil, err
	}
	if err := archive.Load(context.Background()); err != nil {
		archive.Close()
		return nil, err
	}
	return archive, nil
}

func cmdInfo(cfg *config.Config, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: grfcli info <file.grf>")
		os.Exit(1)
	}

	archive, err := openArchive(cfg, args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer archive.Close()

	stats, _ := archive.GetStats()
	enc, _ := archive.GetDetectedEncoding()

	fmt.Printf("Archive:          %s\n", args[0])
	fmt.Printf("Declared entries: %d\n", stats.DeclaredFileCount)
	fmt.Printf("Retained files:   %d\n", stats.RetainedFileCount)
	fmt.Printf("Bad names:        %d\n", stats.BadNameCount)
	fmt.Printf("Name collisions:  %d\n", stats.CollisionCount)
	fmt.Printf("Encoding:         %s\n", enc)
	fmt.Println()
	fmt.Println("Files by extension:")

	type extStat struct {
		ext   string
		count int
	}
	exts := make([]extStat, 0, len(stats.ExtensionCounts))
	for ext, count := range stats.ExtensionCounts {
		exts = append(exts, extStat{ext, count})
	}
	sort.Slice(exts, func(i, j int) bool { return exts[i].count > exts[j].count })

	for _, s := range exts {
		if s.count >= 10 {
			fmt.Printf("  %-10s %d\n", s.ext, s.count)
		}
	}
}

func cmdList(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	limit := fs.Int("n", 0, "Limit output to N files (0 = all)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: grfcli list <file.grf> [glob]")
		os.Exit(1)
	}

	archive, err := openArchive(cfg, fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer archive.Close()

	var names []string
	if fs.NArg() > 1 {
		names, err = archive.FindGlob(fs.Arg(1), 0)
	} else {
		names, err = archive.ListFiles()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	sort.Strings(names)

	count := 0
	for _, name := range names {
		fmt.Println(name)
		count++
		if *limit > 0 && count >= *limit {
			break
		}
	}
	fmt.Fprintf(os.Stderr, "\n(%d files)\n", count)
}

func cmdExtract(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: grfcli extract <file.grf> <path|glob> [output_dir]")
		os.Exit(1)
	}

	grfPath := fs.Arg(0)
	target := fs.Arg(1)
	outputDir := cfg.Extract.OutputDir
	if fs.NArg() > 2 {
		outputDir = fs.Arg(2)
	}

	archive, err := openArchive(cfg, grfPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer archive.Close()

	if strings.ContainsAny(target, "*?") {
		extractGlob(archive, target, outputDir, cfg.Extract.PreserveStructure)
		return
	}

	data, err := archive.GetFile(context.Background(), target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		os.Exit(1)
	}

	if err := writeExtracted(outputDir, target, data, cfg.Extract.PreserveStructure); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Extracted: %s (%d bytes)\n", target, len(data))
}

func extractGlob(archive *grf.Archive, pattern, outputDir string, preserveStructure bool) {
	names, err := archive.FindGlob(pattern, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	extracted := 0
	for _, name := range names {
		data, err := archive.GetFile(context.Background(), name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", name, err)
			continue
		}
		if err := writeExtracted(outputDir, name, data, preserveStructure); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", name, err)
			continue
		}
		fmt.Printf("Extracted: %s\n", name)
		extracted++
	}

	fmt.Fprintf(os.Stderr, "\nExtracted %d files\n", extracted)
}

func writeExtracted(outputDir, name string, data []byte, preserveStructure bool) error {
	rel := filepath.Base(name)
	if preserveStructure {
		rel = strings.ReplaceAll(name, "\\", "/")
	}
	outputPath := filepath.Join(outputDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return err
	}
	return os.WriteFile(outputPath, data, 0644)
}

func cmdFind(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("find", flag.ExitOnError)
	limit := fs.Int("n", 50, "Limit results (0 = all)")
	ext := fs.String("ext", "", "Restrict to an extension")
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: grfcli find <file.grf> <substring>")
		os.Exit(1)
	}

	archive, err := openArchive(cfg, fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer archive.Close()

	names, err := archive.Find(grf.FindCriteria{
		Substring:  fs.Arg(1),
		Extension:  *ext,
		MaxResults: *limit,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	for _, name := range names {
		fmt.Println(name)
	}
	if len(names) == 0 {
		fmt.Fprintln(os.Stderr, "No files found")
	} else {
		fmt.Fprintf(os.Stderr, "\n(%d files found)\n", len(names))
	}
}

func cmdStats(cfg *config.Config, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: grfcli stats <file.grf>")
		os.Exit(1)
	}

	archive, err := openArchive(cfg, args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer archive.Close()

	stats, _ := archive.GetStats()
	logger.Log.Info("archive loaded",
		zap.Int64("declared", stats.DeclaredFileCount),
		zap.Int("retained", stats.RetainedFileCount),
	)

	fmt.Printf("Declared: %d\n", stats.DeclaredFileCount)
	fmt.Printf("Retained: %d\n", stats.RetainedFileCount)
	fmt.Printf("Bad names: %d\n", stats.BadNameCount)
	fmt.Printf("Collisions: %d\n", stats.CollisionCount)
	fmt.Printf("Cache hit rate: %.2f%%\n", archive.CacheHitRate()*100)
}
