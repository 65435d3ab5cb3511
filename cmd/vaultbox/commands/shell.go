package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/brown-csci1660/vaultbox/internal/cli/output"
	"github.com/brown-csci1660/vaultbox/internal/cli/prompt"
	"github.com/brown-csci1660/vaultbox/internal/client"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive vaultbox shell",
	Long: `Drive the eight vaultbox operations interactively against the
configured stores.

Commands inside the shell:
  register            create an account and log in
  login               log in to an existing account
  whoami              show the current user
  upload <file> <data|@path>
  download <file>
  append <file> <data|@path>
  share <file> <recipient>
  receive <file> <sender>
  revoke <file> <recipient>
  help
  exit`,
	RunE: runShell,
}

func runShell(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store, dir, closer, err := buildStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	c := client.New(store, dir)
	var user *client.User

	fmt.Println("vaultbox shell. Type 'help' for commands, 'exit' to quit.")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		if user != nil {
			fmt.Printf("%s> ", user.Username())
		} else {
			fmt.Print("> ")
		}
		if !scanner.Scan() {
			return scanner.Err()
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		command, rest := fields[0], fields[1:]

		switch command {
		case "exit", "quit":
			return nil

		case "help":
			fmt.Println(cmd.Long)

		case "register", "login":
			username, err := prompt.InputRequired("Username")
			if err != nil {
				printShellError(err)
				continue
			}
			var password string
			if command == "register" {
				password, err = prompt.PasswordWithConfirmation("Password", "Confirm password", 1)
			} else {
				password, err = prompt.Password("Password")
			}
			if err != nil {
				printShellError(err)
				continue
			}

			var u *client.User
			if command == "register" {
				u, err = c.CreateUser(ctx, username, password)
			} else {
				u, err = c.AuthenticateUser(ctx, username, password)
			}
			if err != nil {
				printShellError(err)
				continue
			}
			user = u
			fmt.Println("logged in as", user.Username())

		case "whoami":
			if user == nil {
				fmt.Println("not logged in")
			} else {
				table := output.NewTableData("USERNAME")
				table.AddRow(user.Username())
				_ = output.PrintTable(os.Stdout, table)
			}

		case "upload", "append":
			if user == nil {
				fmt.Println("log in first")
				continue
			}
			if len(rest) < 2 {
				fmt.Printf("usage: %s <file> <data|@path>\n", command)
				continue
			}
			data, err := readShellData(strings.Join(rest[1:], " "))
			if err != nil {
				printShellError(err)
				continue
			}
			if command == "upload" {
				err = user.UploadFile(ctx, rest[0], data)
			} else {
				err = user.AppendFile(ctx, rest[0], data)
			}
			if err != nil {
				printShellError(err)
				continue
			}
			fmt.Println("ok")

		case "download":
			if user == nil {
				fmt.Println("log in first")
				continue
			}
			if len(rest) != 1 {
				fmt.Println("usage: download <file>")
				continue
			}
			data, err := user.DownloadFile(ctx, rest[0])
			if err != nil {
				printShellError(err)
				continue
			}
			os.Stdout.Write(data)
			fmt.Println()

		case "share", "receive", "revoke":
			if user == nil {
				fmt.Println("log in first")
				continue
			}
			if len(rest) != 2 {
				fmt.Printf("usage: %s <file> <user>\n", command)
				continue
			}
			var err error
			switch command {
			case "share":
				err = user.ShareFile(ctx, rest[0], rest[1])
			case "receive":
				err = user.ReceiveFile(ctx, rest[0], rest[1])
			case "revoke":
				err = user.RevokeFile(ctx, rest[0], rest[1])
			}
			if err != nil {
				printShellError(err)
				continue
			}
			fmt.Println("ok")

		default:
			fmt.Printf("unknown command %q, type 'help'\n", command)
		}
	}
}

// readShellData interprets a data argument: "@path" reads a local file,
// anything else is taken literally.
func readShellData(arg string) ([]byte, error) {
	if strings.HasPrefix(arg, "@") {
		return os.ReadFile(arg[1:])
	}
	return []byte(arg), nil
}

func printShellError(err error) {
	if prompt.IsAborted(err) {
		fmt.Println("aborted")
		return
	}
	if code, ok := client.Code(err); ok {
		fmt.Printf("error [%s]: %v\n", code, err)
		return
	}
	fmt.Println("error:", err)
}
