package tools

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/isdmx/opsgate/sandbox"
)

func (ts *Toolset) requireService(args Args) (string, error) {
	service, err := args.RequireString("service")
	if err != nil {
		return "", err
	}
	if !ts.cfg.ServiceAllowed(service) {
		return "", &ValidationError{Message: fmt.Sprintf(
			"unknown service: %s, allowed: %s",
			service, strings.Join(ts.cfg.Sandbox.AllowedServices, ", "))}
	}
	return service, nil
}

func (ts *Toolset) readLog(ctx context.Context, args Args) (any, error) {
	service, err := ts.requireService(args)
	if err != nil {
		return nil, err
	}

	lines := args.Int("lines", 100)
	if lines < 1 || lines > 10000 {
		return nil, &ValidationError{Message: "lines must be between 1 and 10000"}
	}

	argv := []string{"docker", "logs", "--tail", strconv.Itoa(lines)}
	if since := args.String("since", ""); since != "" {
		argv = append(argv, "--since", since)
	}
	argv = append(argv, service)

	result, err := ts.runner.Run(ctx, sandbox.Command{Argv: argv, Timeout: ts.cfg.GetDefaultTimeout()})
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"service":         service,
		"lines_requested": lines,
		"logs":            result.Stdout,
		"stderr":          result.Stderr,
		"success":         result.Success,
	}, nil
}

func (ts *Toolset) searchLogs(ctx context.Context, args Args) (any, error) {
	pattern, err := args.RequireString("pattern")
	if err != nil {
		return nil, err
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, &ValidationError{Message: fmt.Sprintf("invalid pattern: %v", err)}
	}

	since := args.String("since", "1h")
	maxLines := args.Int("lines", 500)

	services := ts.cfg.Sandbox.AllowedServices
	if service := args.String("service", ""); service != "" {
		if !ts.cfg.ServiceAllowed(service) {
			return nil, &ValidationError{Message: fmt.Sprintf("unknown service: %s", service)}
		}
		services = []string{service}
	}

	matches := map[string][]string{}
	total := 0
	for _, service := range services {
		result, err := ts.runner.Run(ctx, sandbox.Command{
			Argv:    []string{"docker", "logs", "--since", since, service},
			Timeout: ts.cfg.GetDefaultTimeout(),
		})
		if err != nil {
			return nil, err
		}

		// docker logs writes container output to both streams
		hits := filterLines(result.Stdout+result.Stderr, re, maxLines)
		if len(hits) > 0 {
			matches[service] = hits
			total += len(hits)
		}
	}

	return map[string]any{
		"pattern":       pattern,
		"since":         since,
		"matches":       matches,
		"total_matches": total,
	}, nil
}

func (ts *Toolset) tailLogs(ctx context.Context, args Args) (any, error) {
	service, err := ts.requireService(args)
	if err != nil {
		return nil, err
	}
	lines := args.Int("lines", 50)

	result, err := ts.runner.Run(ctx, sandbox.Command{
		Argv:    []string{"docker", "logs", "--tail", strconv.Itoa(lines), service},
		Timeout: 10 * time.Second,
	})
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"service":   service,
		"lines":     lines,
		"logs":      result.Stdout,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// filterLines keeps the last max lines of text matching re.
func filterLines(text string, re *regexp.Regexp, max int) []string {
	var hits []string
	for _, line := range strings.Split(text, "\n") {
		if line != "" && re.MatchString(line) {
			hits = append(hits, line)
		}
	}
	if max > 0 && len(hits) > max {
		hits = hits[len(hits)-max:]
	}
	return hits
}
