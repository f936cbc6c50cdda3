package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/pmarinho/analisador-fiscal/internal/auth"
	"github.com/pmarinho/analisador-fiscal/internal/cli"
	"github.com/pmarinho/analisador-fiscal/internal/registry"
)

func loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate against the analysis service",
		Long: `Authenticate with your service credentials and save the session token.

The token is stored locally and attached to every later request. Run
'analisador tools' afterwards to see which tools your account can use.`,
		RunE: runLogin,
	}

	cmd.Flags().StringP("username", "u", "", "service username (prompted when omitted)")

	return cmd
}

func runLogin(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	username, _ := cmd.Flags().GetString("username")
	if username == "" {
		fmt.Print("Usuário: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read username: %w", err)
		}
		username = strings.TrimSpace(line)
	}
	if username == "" {
		return fmt.Errorf("username cannot be empty")
	}

	fmt.Print("Senha: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	store, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	client := newClient(store)
	token, err := client.Login(ctx, username, string(password))
	if err != nil {
		fmt.Println(cli.FormatError("Usuário ou senha inválidos. Tente novamente."))
		return err
	}

	if err := store.SaveToken(ctx, token); err != nil {
		return err
	}

	fmt.Println(cli.FormatSuccess("Sessão iniciada."))

	claims, err := auth.DecodeClaims(token)
	if err != nil {
		// Token accepted by the service but opaque to us; permission
		// listing is a courtesy only.
		return nil
	}
	if claims.Exp != 0 {
		fmt.Println(cli.SubtleStyle.Render(
			fmt.Sprintf("Sessão válida até %s", time.Unix(claims.Exp, 0).Format("02/01/2006 15:04"))))
	}
	available := registry.Available(claims.Has)
	fmt.Printf("Ferramentas disponíveis: %d (veja 'analisador tools')\n", len(available))
	return nil
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the saved session token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.ClearToken(ctx); err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess("Sessão encerrada."))
			return nil
		},
	}
}
