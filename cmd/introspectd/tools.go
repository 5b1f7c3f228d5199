package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/hellojohn-introspect/internal/security/secretbox"
	"github.com/dropDatabas3/hellojohn-introspect/internal/security/subject"
	tokens "github.com/dropDatabas3/hellojohn-introspect/internal/security/token"
)

func contextWithTimeout(cmd *cobra.Command, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(cmd.Context())
	}
	return context.WithTimeout(cmd.Context(), d)
}

// subject: calcula el sub pairwise que vería un sector, para soporte.
func newSubjectCmd() *cobra.Command {
	var salt string
	cmd := &cobra.Command{
		Use:   "subject <account_id> <sector_identifier>",
		Short: "Calcula el sub pairwise de una cuenta para un sector",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := subject.New(subject.Config{PairwiseSalt: salt})
			fmt.Fprintln(cmd.OutOrStdout(), m.Compute(args[0], args[1]))
			return nil
		},
	}
	cmd.Flags().StringVar(&salt, "salt", envOr("PAIRWISE_SALT", ""), "Pairwise salt (env PAIRWISE_SALT)")
	return cmd
}

// encrypt-secret: cifra un client secret para secret_enc (clients.yaml u oauth_client).
func newEncryptCmd() *cobra.Command {
	var key string
	cmd := &cobra.Command{
		Use:   "encrypt-secret <secret>",
		Short: "Cifra un client secret con SECRETBOX_MASTER_KEY",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if key == "" {
				return errors.New("SECRETBOX_MASTER_KEY not set")
			}
			box, err := secretbox.New(key)
			if err != nil {
				return err
			}
			enc, err := box.Encrypt(args[0])
			if err != nil {
				return fmt.Errorf("encrypt: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), enc)
			return nil
		},
	}
	cmd.Flags().StringVar(&key, "key", envOr("SECRETBOX_MASTER_KEY", ""), "Master key (env SECRETBOX_MASTER_KEY)")
	return cmd
}

// token: genera un token opaco y su hash de almacenamiento.
func newTokenCmd() *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Genera un token opaco aleatorio y su token_hash",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tok, err := tokens.GenerateOpaqueToken(n)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "token=%s\ntoken_hash=%s\n", tok, tokens.SHA256Base64URL(tok))
			return nil
		},
	}
	cmd.Flags().IntVar(&n, "bytes", 32, "Bytes de entropía")
	return cmd
}
