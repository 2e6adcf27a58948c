package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"setprotocol/cmd/internal/passphrase"
	"setprotocol/config"
	"setprotocol/contracts"
	"setprotocol/crypto"
	"setprotocol/journal"
	"setprotocol/observability/logging"
	telemetry "setprotocol/observability/otel"
	"setprotocol/sdk/setprotocol"
)

const (
	serviceName   = "setctl"
	defaultConfig = "./setprotocol.toml"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(serviceName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfgPath := fs.String("config", defaultConfig, "Path to the setprotocol config file")
	from := fs.String("from", "", "Sender address; defaults to the keystore account")
	wait := fs.Bool("wait", false, "Wait for submitted transactions to be mined")
	timeout := fs.Duration("timeout", 2*time.Minute, "Overall deadline for the command")
	fs.Usage = func() { printUsage(stderr) }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		printUsage(stderr)
		return 1
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	logOpts := cfg.LogOptions()
	logOpts.Console = stderr
	logger, err := logging.Setup(serviceName, cfg.Environment, logOpts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	shutdown, err := telemetry.Init(ctx, cfg.TelemetryConfig(serviceName))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(flushCtx)
	}()

	a := newApp(cfg, logger, stdout, stderr)
	a.from = *from
	a.wait = *wait
	defer a.close()

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()
	return a.dispatch(ctx, fs.Args())
}

// app carries the lazily opened resources of one invocation.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	stdout io.Writer
	stderr io.Writer
	from   string
	wait   bool
	poll   time.Duration

	dial        func(ctx context.Context, signer contracts.Signer) (*setprotocol.Client, error)
	loadSigner  func() (contracts.Signer, error)
	openJournal func() (*journal.Journal, error)

	client  *setprotocol.Client
	signed  bool
	journal *journal.Journal
}

func newApp(cfg *config.Config, logger *slog.Logger, stdout, stderr io.Writer) *app {
	a := &app{
		cfg:    cfg,
		logger: logger,
		stdout: stdout,
		stderr: stderr,
		poll:   setprotocol.DefaultPollInterval,
	}
	a.dial = a.dialSession
	a.loadSigner = a.loadWallet
	a.openJournal = a.openConfiguredJournal
	return a
}

func (a *app) dispatch(ctx context.Context, args []string) int {
	switch strings.ToLower(args[0]) {
	case "balance":
		return a.runBalance(ctx, args[1:])
	case "supply":
		return a.runSupply(ctx, args[1:])
	case "set-details":
		return a.runSetDetails(ctx, args[1:])
	case "required":
		return a.runRequired(ctx, args[1:])
	case "issue":
		return a.runIssue(ctx, args[1:])
	case "redeem":
		return a.runRedeem(ctx, args[1:])
	case "price":
		return a.runPrice(ctx, args[1:])
	case "rebalancing":
		return a.runRebalancingCommand(ctx, args[1:])
	case "manager":
		return a.runManagerCommand(ctx, args[1:])
	case "tx":
		return a.runTxCommand(ctx, args[1:])
	case "help", "-h", "--help":
		printUsage(a.stdout)
		return 0
	default:
		fmt.Fprintf(a.stderr, "Unknown command %q\n", args[0])
		printUsage(a.stderr)
		return 1
	}
}

func (a *app) close() {
	if a.client != nil {
		a.client.Close()
	}
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			a.logger.Warn("close journal", slog.Any("error", err))
		}
	}
}

// session returns the SDK client, loading the keystore first when the command
// signs transactions.
func (a *app) session(ctx context.Context, needSigner bool) (*setprotocol.Client, error) {
	if a.client != nil && (a.signed || !needSigner) {
		return a.client, nil
	}
	var signer contracts.Signer
	if needSigner {
		s, err := a.loadSigner()
		if err != nil {
			return nil, err
		}
		signer = s
	}
	client, err := a.dial(ctx, signer)
	if err != nil {
		return nil, err
	}
	if a.client != nil {
		a.client.Close()
	}
	a.client = client
	a.signed = needSigner
	return client, nil
}

func (a *app) dialSession(ctx context.Context, signer contracts.Signer) (*setprotocol.Client, error) {
	session, err := a.cfg.Session()
	if err != nil {
		return nil, err
	}
	opts := []contracts.Option{
		contracts.WithLogger(a.logger),
		contracts.WithTracer(telemetry.Tracer()),
	}
	if signer != nil {
		opts = append(opts, contracts.WithSigner(signer))
	}
	a.logger.Debug("connecting",
		slog.String("rpc_url", logging.RedactURL(session.RPCURL)),
		slog.String("network", a.cfg.Network))
	return setprotocol.Dial(ctx, session, opts...)
}

func (a *app) loadWallet() (contracts.Signer, error) {
	if a.cfg.ChainID == 0 {
		return nil, errors.New("ChainID must be configured to sign transactions")
	}
	if strings.TrimSpace(a.cfg.KeystorePath) == "" {
		return nil, errors.New("KeystorePath must be configured to sign transactions")
	}
	a.logger.Debug("loading keystore", logging.MaskField("keystore", a.cfg.KeystorePath))
	pass, err := passphrase.NewSource(a.cfg.PassphraseEnv).Get()
	if err != nil {
		return nil, err
	}
	chainID := new(big.Int).SetUint64(a.cfg.ChainID)
	return crypto.LoadWallet(chainID, a.cfg.KeystorePath, pass)
}

// openConfiguredJournal returns nil when no journal is configured.
func (a *app) openConfiguredJournal() (*journal.Journal, error) {
	if strings.TrimSpace(a.cfg.JournalPath) == "" {
		return nil, nil
	}
	return journal.Open(a.cfg.JournalPath)
}

func (a *app) txJournal() (*journal.Journal, error) {
	if a.journal != nil {
		return a.journal, nil
	}
	j, err := a.openJournal()
	if err != nil {
		return nil, err
	}
	a.journal = j
	return j, nil
}

func (a *app) fail(err error) int {
	fmt.Fprintf(a.stderr, "Error: %v\n", err)
	return 1
}

func (a *app) usageError(usage string) int {
	fmt.Fprintf(a.stderr, "Usage: setctl %s\n", usage)
	return 1
}

func (a *app) printJSON(v any) int {
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return a.fail(err)
	}
	fmt.Fprintln(a.stdout, string(pretty))
	return 0
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `Usage: setctl [-config path] [-from address] [-wait] [-timeout d] <command> [args]

Commands:
  balance <token> <owner>                 ERC20 balance of owner
  supply <token>                          ERC20 total supply
  set-details <set>                       Set token details and composition
  required <set> <quantity>               Component amounts consumed by issuing quantity
  issue <set> <quantity>                  Issue a set through Core
  redeem <set> <quantity>                 Redeem a set through Core
  price <medianizer>                      Current medianizer price
  rebalancing <details|state|proposal|progress|bid-price|propose|start|settle|bid|end-failed|withdraw> ...
  manager <details|propose|initial-propose|confirm-propose> ...
  tx <list|wait> ...                      Inspect journaled transactions`)
}
