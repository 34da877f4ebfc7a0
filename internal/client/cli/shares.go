package cli

import (
	"context"
	"fmt"
	"strings"
)

func (a *App) share(ctx context.Context, args []string) {
	if len(args) < 3 {
		fmt.Println("Usage: share <file-id> <username> <VIEW|DOWNLOAD>")
		return
	}

	share, err := a.api.ShareFile(ctx, args[0], args[1], strings.ToUpper(args[2]))
	if err != nil {
		fmt.Println(err.Error())
		return
	}

	fmt.Printf("Shared with %s as %s (share id %s)\n", share.Grantee, share.Permission, share.ID)
}

func (a *App) shares(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: shares <file-id>")
		return
	}

	list, err := a.api.ListShares(ctx, args[0])
	if err != nil {
		fmt.Println(err.Error())
		return
	}

	if len(list) == 0 {
		fmt.Println("No shares on this file.")
		return
	}
	for _, s := range list {
		fmt.Printf("%s  %s  [%s]\n", s.ID, s.Grantee, s.Permission)
	}
}

func (a *App) updateShare(ctx context.Context, args []string) {
	if len(args) < 3 {
		fmt.Println("Usage: update <file-id> <share-id> <VIEW|DOWNLOAD>")
		return
	}

	share, err := a.api.UpdateShare(ctx, args[0], args[1], strings.ToUpper(args[2]))
	if err != nil {
		fmt.Println(err.Error())
		return
	}

	fmt.Printf("Updated %s to %s\n", share.Grantee, share.Permission)
}

func (a *App) revoke(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: revoke <file-id> <share-id>")
		return
	}

	if err := a.api.RevokeShare(ctx, args[0], args[1]); err != nil {
		fmt.Println(err.Error())
		return
	}

	fmt.Println("Revoked.")
}
