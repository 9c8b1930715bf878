// Command gitwatch continuously syncs a local git working copy with its
// upstream and runs user-defined reactors on every advance. Grounded on the
// teacher's cmd/gitbatch/main.go kingpin-flags-then-run() shape.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kingpin"

	"github.com/watchloop/gitwatch/internal/apperrors"
	"github.com/watchloop/gitwatch/internal/applog"
	"github.com/watchloop/gitwatch/internal/bootstrap"
	"github.com/watchloop/gitwatch/internal/credentials"
	"github.com/watchloop/gitwatch/internal/ctxmap"
	"github.com/watchloop/gitwatch/internal/orchestrator"
	"github.com/watchloop/gitwatch/internal/reactor"
	"github.com/watchloop/gitwatch/internal/repo"
	"github.com/watchloop/gitwatch/internal/settings"
	"github.com/watchloop/gitwatch/internal/trigger"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "gitwatch: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := settings.Load(preScanConfigPath(args))
	if err != nil {
		return err
	}

	app := kingpin.New("gitwatch", "Continuously sync a git working copy and react to every advance.")
	app.Version(version)

	directory := app.Arg("directory", "Git working copy to watch.").Required().String()
	scripts := app.Flag("script", "One-shot command, run through argv (repeatable).").Strings()
	scriptsInShell := app.Flag("script-in-shell", "One-shot command, run through the platform shell (repeatable).").Strings()
	process := app.Flag("process", "Long-running managed command, run through argv.").String()
	processInShell := app.Flag("process-in-shell", "Long-running managed command, run through the platform shell.").String()
	on := app.Flag("on", "Update trigger: push | tag | tag:<glob>.").Required().String()
	every := app.Flag("every", "Periodic check interval (0 disables); suffixes s,m,h,d.").
		Default(cfg.String("every", "0s")).String()
	httpAddr := app.Flag("http", "Bind address for the HTTP trigger, host:port.").
		Default(cfg.String("http", "")).String()
	once := app.Flag("once", "Check exactly once, then exit.").Bool()
	sshKey := app.Flag("ssh-key", "Path to an SSH private key.").
		Default(cfg.String("ssh_key", "")).String()
	gitUsername := app.Flag("git-username", "HTTPS username.").
		Default(cfg.String("git_username", "")).String()
	gitToken := app.Flag("git-token", "HTTPS token/password.").
		Default(cfg.String("git_token", "")).String()
	gitKnownHost := app.Flag("git-known-host", "Extra known_hosts line to seed.").
		Default(cfg.String("git_known_host", "")).String()
	seedKnownHosts := app.Flag("seed-known-hosts", "Seed known_hosts with common git hosts.").Bool()
	processRetries := app.Flag("process-retries", "Unsupervised process exits tolerated before giving up.").
		Default(cfg.String("process_retries", "3")).Int()
	stopSignal := app.Flag("stop-signal", "Signal used to stop the managed process.").
		Default(cfg.String("stop_signal", "TERM")).String()
	stopTimeout := app.Flag("stop-timeout", "Grace period before force-killing the managed process.").
		Default(cfg.String("stop_timeout", "10s")).String()
	verbosity := app.Flag("verbose", "Increase log verbosity (repeatable).").Short('v').Counter()
	quiet := app.Flag("quiet", "Silence everything but fatal startup errors.").Bool()
	_ = app.Flag("config", "Path to a YAML settings file.").String()

	if _, err := app.Parse(args); err != nil {
		return err
	}

	if *quiet {
		applog.SetQuiet()
	} else {
		applog.SetVerbosity(*verbosity)
	}

	absDir, err := filepath.Abs(*directory)
	if err != nil {
		return err
	}
	if info, statErr := os.Stat(absDir); statErr != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", apperrors.ErrNotARepository, absDir)
	}

	if err := bootstrap.Run(bootstrap.Options{
		WorkingDir:     absDir,
		KnownHostLine:  *gitKnownHost,
		SeedKnownHosts: *seedKnownHosts,
	}); err != nil {
		return err
	}

	repository, err := repo.Open(absDir)
	if err != nil {
		return err
	}

	policy, err := parsePolicy(*on)
	if err != nil {
		return err
	}

	credOpts := credentials.Options{SSHKeyPath: *sshKey, GitUsername: *gitUsername, GitToken: *gitToken}
	checker := orchestrator.CheckFunc(func(ctx context.Context, cc *ctxmap.Context) (bool, error) {
		result, err := repository.Check(ctx, policy, credOpts, cc)
		if err != nil {
			return false, err
		}
		return result.Advanced, nil
	})

	reactors, err := buildReactors(absDir, *scripts, *scriptsInShell, *process, *processInShell, *processRetries, *stopSignal, *stopTimeout)
	if err != nil {
		return err
	}

	triggers, err := buildTriggers(*once, *every, *httpAddr)
	if err != nil {
		return err
	}

	o := &orchestrator.Orchestrator{Triggers: triggers, Checker: checker, Reactors: reactors}
	return o.Run(context.Background())
}

func parsePolicy(on string) (repo.UpdatePolicy, error) {
	switch {
	case on == "push":
		return repo.OnPush{}, nil
	case on == "tag":
		return repo.OnTag{Glob: "*"}, nil
	case strings.HasPrefix(on, "tag:"):
		return repo.OnTag{Glob: strings.TrimPrefix(on, "tag:")}, nil
	default:
		return nil, fmt.Errorf("%w: --on=%q (expected push, tag, or tag:<glob>)", apperrors.ErrCommandParse, on)
	}
}

func buildReactors(directory string, scripts, scriptsInShell []string, process, processInShell string, retries int, stopSignal, stopTimeout string) ([]orchestrator.Reactor, error) {
	var reactors []orchestrator.Reactor

	for _, raw := range scripts {
		s, err := reactor.NewScript(directory, raw, false)
		if err != nil {
			return nil, err
		}
		reactors = append(reactors, s)
	}
	for _, raw := range scriptsInShell {
		s, err := reactor.NewScript(directory, raw, true)
		if err != nil {
			return nil, err
		}
		reactors = append(reactors, s)
	}

	timeout, err := parseHumanDuration(stopTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrSignalParseFailure, err)
	}

	switch {
	case process != "":
		p, err := reactor.NewProcess(directory, process, false, retries, stopSignal, timeout)
		if err != nil {
			return nil, err
		}
		if err := p.Start(ctxmap.New()); err != nil {
			return nil, err
		}
		reactors = append(reactors, p)
	case processInShell != "":
		p, err := reactor.NewProcess(directory, processInShell, true, retries, stopSignal, timeout)
		if err != nil {
			return nil, err
		}
		if err := p.Start(ctxmap.New()); err != nil {
			return nil, err
		}
		reactors = append(reactors, p)
	}

	return reactors, nil
}

func buildTriggers(once bool, every, httpAddr string) ([]orchestrator.Trigger, error) {
	if once {
		return []orchestrator.Trigger{trigger.Once{}}, nil
	}

	var triggers []orchestrator.Trigger

	interval, err := parseHumanDuration(every)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrCommandParse, err)
	}
	if interval > 0 {
		triggers = append(triggers, trigger.Periodic{Interval: interval})
	}
	if httpAddr != "" {
		triggers = append(triggers, trigger.HTTP{BindAddr: httpAddr})
	}
	triggers = append(triggers, trigger.Signal{})

	return triggers, nil
}

// preScanConfigPath finds --config's value without a full flag parse, so
// settings.Load can run before kingpin flag defaults are computed.
func preScanConfigPath(args []string) string {
	for i, a := range args {
		if a == "--config" && i+1 < len(args) {
			return args[i+1]
		}
		if strings.HasPrefix(a, "--config=") {
			return strings.TrimPrefix(a, "--config=")
		}
	}
	return ""
}
