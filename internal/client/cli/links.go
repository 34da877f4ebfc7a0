package cli

import (
	"context"
	"fmt"
)

func (a *App) link(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: link <file-id>")
		return
	}

	link, err := a.api.GenerateLink(ctx, args[0])
	if err != nil {
		fmt.Println(err.Error())
		return
	}

	fmt.Println("Share link:", link.URL)
}

func (a *App) verify(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: verify <token>")
		return
	}

	fileID, err := a.api.VerifyLink(ctx, args[0])
	if err != nil {
		fmt.Println(err.Error())
		return
	}

	fmt.Println("Link points to file", fileID)
}
