package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/recipebook/api/internal/services"
)

// readPassword prompts without echo. Tests replace it.
var readPassword = func(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}

const usage = `usage: manage <command> [flags]

commands:
  createsuperuser -email <email> [-password <password>]
  activate        -email <email>
  deactivate      -email <email>
  deleteuser      -email <email>`

func run(ctx context.Context, auth services.AuthService, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	cmd, rest := args[0], args[1:]
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "password; prompted for when empty")
	if err := fs.Parse(rest); err != nil {
		return fmt.Errorf("%s: %w", cmd, err)
	}
	if strings.TrimSpace(*email) == "" && cmd != "help" {
		return fmt.Errorf("%s: -email is required", cmd)
	}

	switch cmd {
	case "createsuperuser":
		pw := *password
		if pw == "" {
			var err error
			if pw, err = readPassword("Password: "); err != nil {
				return err
			}
			again, err := readPassword("Password (again): ")
			if err != nil {
				return err
			}
			if pw != again {
				return errors.New("passwords didn't match")
			}
		}
		u, err := auth.CreateSuperuser(ctx, *email, pw)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "superuser %s created\n", u.Email)

	case "activate", "deactivate":
		u, err := auth.SetActive(ctx, *email, cmd == "activate")
		if err != nil {
			return err
		}
		state := "inactive"
		if u.IsActive {
			state = "active"
		}
		fmt.Fprintf(out, "%s is now %s\n", u.Email, state)

	case "deleteuser":
		if err := auth.DeleteUser(ctx, *email); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s deleted\n", *email)

	case "help":
		fmt.Fprintln(out, usage)

	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
	return nil
}
