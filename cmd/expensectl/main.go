package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // -tz must resolve on hosts without zoneinfo

	"spendwise/internal/client"

	"golang.org/x/term"
)

// now is replaced in tests.
var now = time.Now

const usage = "Usage: expensectl <login|summary|insights|list|categories> [flags]"

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprintln(stderr, usage)
		return fmt.Errorf("missing command")
	}
	command, args := args[0], args[1:]

	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	fs.SetOutput(stderr)
	baseURL := fs.String("url", envOr("API_BASE_URL", "http://localhost:8080"), "API base URL")
	token := fs.String("token", os.Getenv("API_TOKEN"), "Bearer token")
	start := fs.String("start", "", "Start date (YYYY-MM-DD or RFC3339)")
	end := fs.String("end", "", "End date (YYYY-MM-DD or RFC3339)")
	tz := fs.String("tz", envOr("TIMEZONE", "UTC"), "Server reference time zone; picks the current month for insights")

	var email, category, sortBy *string
	var page, pageSize *int
	switch command {
	case "login":
		email = fs.String("email", "", "Account email")
	case "list":
		category = fs.String("category", "", "Exact category name")
		sortBy = fs.String("sort", "", "newest, oldest, amount-high, or amount-low")
		page = fs.Int("page", 0, "Page number")
		pageSize = fs.Int("page-size", 0, "Items per page")
	case "summary", "insights", "categories":
	default:
		fmt.Fprintln(stderr, usage)
		return fmt.Errorf("unknown command: %s", command)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	c := client.New(*baseURL, nil)
	ctx = client.WithToken(ctx, *token)
	window := client.Window{StartDate: *start, EndDate: *end}

	switch command {
	case "login":
		if *email == "" {
			fs.PrintDefaults()
			return fmt.Errorf("missing required flag: email")
		}
		fmt.Fprint(stderr, "Password: ")
		password, err := readPassword(stdin)
		fmt.Fprintln(stderr)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		tok, err := c.Login(ctx, *email, password)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, tok)
		return nil

	case "summary":
		summary, err := c.Summary(ctx, window)
		if err != nil {
			return err
		}
		return printJSON(stdout, summary)

	case "insights":
		loc, err := time.LoadLocation(*tz)
		if err != nil {
			return fmt.Errorf("invalid time zone %q: %w", *tz, err)
		}
		summary, err := c.Summary(ctx, window)
		if err != nil {
			return err
		}
		return printJSON(stdout, client.ComputeInsights(summary, now().In(loc)))

	case "list":
		list, err := c.ListExpenses(ctx, client.ListQuery{
			Window:   window,
			Category: *category,
			Sort:     *sortBy,
			Page:     *page,
			PageSize: *pageSize,
		})
		if err != nil {
			return err
		}
		return printJSON(stdout, list)

	default:
		categories, err := c.Categories(ctx)
		if err != nil {
			return err
		}
		return printJSON(stdout, categories)
	}
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// Pipes and tests
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return strings.TrimRight(scanner.Text(), "\r"), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
