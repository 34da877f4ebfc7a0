package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/mayankramina/secure-file-share/internal/cryptox"
)

func (a *App) register(ctx context.Context) {

	userName, err := GetSimpleText(a.reader, "Enter user name", os.Stdout)
	if err != nil {
		fmt.Println(err.Error())
		return
	}

	password, err := GetPassword(os.Stdout)
	if err != nil {
		fmt.Println(err.Error())
		return
	}
	defer cryptox.Wipe(password)

	if err := a.api.Register(ctx, userName, string(password)); err != nil {
		fmt.Println(err.Error())
		return
	}

	fmt.Println("Success! You can now log in.")
}

func (a *App) login(ctx context.Context) {

	userName, err := GetSimpleText(a.reader, "Enter user name", os.Stdout)
	if err != nil {
		fmt.Println(err.Error())
		return
	}

	password, err := GetPassword(os.Stdout)
	if err != nil {
		fmt.Println(err.Error())
		return
	}
	defer cryptox.Wipe(password)

	if err := a.api.Login(ctx, userName, string(password)); err != nil {
		fmt.Println(err.Error())
		return
	}

	a.userName = userName
	fmt.Println("Logged in as", userName)
}
