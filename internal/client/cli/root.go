package cli

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
)

func (a *App) getStatus() string {
	if a.userName == "" {
		return ""
	}
	return fmt.Sprintf("(%s)", a.userName)
}

func (a *App) Root(ctx context.Context) {

	log.Println("Welcome to the file-share CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Printf("fshare %s> ", a.getStatus())
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Println("Available commands: upload, download, list, shared, share, shares, update, revoke, link, verify, delete, exit")
			} else {
				fmt.Println("Available commands: register, login, verify, exit")
			}

		case "register":
			a.register(ctx)
		case "login":
			a.login(ctx)
		case "upload":
			a.upload(ctx, args)
		case "download":
			a.download(ctx, args)
		case "list":
			a.list(ctx)
		case "shared":
			a.shared(ctx)
		case "share":
			a.share(ctx, args)
		case "shares":
			a.shares(ctx, args)
		case "update":
			a.updateShare(ctx, args)
		case "revoke":
			a.revoke(ctx, args)
		case "link":
			a.link(ctx, args)
		case "verify":
			a.verify(ctx, args)
		case "delete":
			a.delete(ctx, args)
		case "exit", "quit":
			fmt.Println("Bye!")
			return
		default:
			fmt.Println("Unknown command:", cmd)
		}
	}

}
