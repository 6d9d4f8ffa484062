package main

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cryptoconditions/cc-go/catalog"
	"github.com/cryptoconditions/cc-go/conditions"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

const usage = "usage: cc-catalog [flags] put-fulfillment|put-condition|get|verify|delete|list"

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("cc-catalog", flag.ContinueOnError)
	fs.SetOutput(stderr)

	defaults := catalog.DefaultConfig()
	configPath := fs.String("config", "", "JSON config file (flags override it)")
	dataDir := fs.String("datadir", "", "catalog data directory (default "+defaults.DataDir+")")
	logLevel := fs.String("log-level", "", "log level: debug|info|warn|error")
	maxBytes := fs.Int("max-fulfillment-bytes", 0, "largest fulfillment accepted by put-fulfillment")
	encHex := fs.String("hex", "", "DER encoding, hex")
	uri := fs.String("uri", "", "condition URI")
	msgHex := fs.String("message-hex", "", "message to verify, hex")
	dryRun := fs.Bool("dry-run", false, "print effective config and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg := defaults
	if *configPath != "" {
		loaded, err := catalog.LoadConfig(*configPath)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "config load failed: %v\n", err)
			return 2
		}
		cfg = loaded
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *maxBytes != 0 {
		cfg.MaxFulfillmentBytes = *maxBytes
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if err := catalog.ValidateConfig(cfg); err != nil {
		_, _ = fmt.Fprintf(stderr, "invalid config: %v\n", err)
		return 2
	}
	if *dryRun {
		if err := printConfig(stdout, cfg); err != nil {
			_, _ = fmt.Fprintf(stderr, "config encode failed: %v\n", err)
			return 1
		}
		return 0
	}
	if fs.NArg() != 1 {
		_, _ = fmt.Fprintln(stderr, usage)
		return 2
	}

	logger, err := catalog.NewLogger(cfg.LogLevel, stderr)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "logger init failed: %v\n", err)
		return 2
	}
	store, err := catalog.Open(cfg, logger)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "catalog open failed: %v\n", err)
		return 2
	}
	defer store.Close()

	if err := dispatch(store, fs.Arg(0), *encHex, *uri, *msgHex, stdout); err != nil {
		_, _ = fmt.Fprintf(stderr, "%s failed: %v\n", fs.Arg(0), err)
		if errors.Is(err, errUsage) {
			return 2
		}
		return 1
	}
	return 0
}

var errUsage = errors.New(usage)

func dispatch(store *catalog.Store, cmd, encHex, uri, msgHex string, stdout io.Writer) error {
	switch cmd {
	case "put-fulfillment":
		b, err := hex.DecodeString(encHex)
		if err != nil {
			return fmt.Errorf("bad -hex: %w", err)
		}
		f, err := conditions.DecodeFulfillment(b)
		if err != nil {
			return err
		}
		stored, err := store.PutFulfillment(f)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(stdout, stored)
		return nil

	case "put-condition":
		b, err := hex.DecodeString(encHex)
		if err != nil {
			return fmt.Errorf("bad -hex: %w", err)
		}
		c, err := conditions.DecodeCondition(b)
		if err != nil {
			return err
		}
		stored, err := store.PutCondition(c)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(stdout, stored)
		return nil

	case "get":
		c, err := store.GetCondition(uri)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(stdout, "condition: %x\n", c.Encode())
		f, err := store.GetFulfillment(uri)
		switch {
		case errors.Is(err, catalog.ErrNotFound):
			_, _ = fmt.Fprintln(stdout, "fulfillment: none")
		case err != nil:
			return err
		default:
			_, _ = fmt.Fprintf(stdout, "fulfillment: %x\n", f.Encode())
		}
		return nil

	case "verify":
		msg, err := hex.DecodeString(msgHex)
		if err != nil {
			return fmt.Errorf("bad -message-hex: %w", err)
		}
		if msg == nil {
			msg = []byte{}
		}
		ok, err := store.Verify(uri, msg)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(stdout, "verified: %v\n", ok)
		return nil

	case "delete":
		return store.Delete(uri)

	case "list":
		entries, err := store.List()
		if err != nil {
			return err
		}
		for _, e := range entries {
			_, _ = fmt.Fprintf(stdout, "%s fulfilled=%v\n", e.URI, e.Fulfilled)
		}
		return nil
	}
	return errUsage
}

func printConfig(w io.Writer, cfg catalog.Config) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(cfg)
}
