package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

func (a *App) upload(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: upload <path>")
		return
	}

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Println(err.Error())
		return
	}

	file, err := a.files.Upload(ctx, filepath.Base(path), data)
	if err != nil {
		fmt.Println(err.Error())
		return
	}

	fmt.Printf("Uploaded %s (id %s)\n", file.FileName, file.ID)
}

func (a *App) download(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: download <file-id> [dir]")
		return
	}

	name, plaintext, err := a.files.Download(ctx, args[0])
	if err != nil {
		fmt.Println(err.Error())
		return
	}

	dir := "."
	if len(args) > 1 {
		dir = args[1]
	}
	dest := filepath.Join(dir, name)

	if err := os.WriteFile(dest, plaintext, 0o600); err != nil {
		fmt.Println(err.Error())
		return
	}

	fmt.Println("Saved to", dest)
}

func (a *App) list(ctx context.Context) {
	files, err := a.api.ListFiles(ctx)
	if err != nil {
		fmt.Println(err.Error())
		return
	}

	if len(files) == 0 {
		fmt.Println("No files yet.")
		return
	}
	for _, f := range files {
		fmt.Printf("%s  %s  (uploaded %s)\n", f.ID, f.FileName, f.CreatedAt)
	}
}

func (a *App) shared(ctx context.Context) {
	files, err := a.api.ListSharedWithMe(ctx)
	if err != nil {
		fmt.Println(err.Error())
		return
	}

	if len(files) == 0 {
		fmt.Println("Nothing shared with you.")
		return
	}
	for _, f := range files {
		fmt.Printf("%s  %s  from %s  [%s]\n", f.ID, f.FileName, f.Owner, f.Permission)
	}
}

func (a *App) delete(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: delete <file-id>")
		return
	}

	if err := a.api.DeleteFile(ctx, args[0]); err != nil {
		fmt.Println(err.Error())
		return
	}

	fmt.Println("Deleted.")
}
