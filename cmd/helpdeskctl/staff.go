package main

import (
	"github.com/spf13/cobra"

	"github.com/noah-isme/ifmis-helpdesk/internal/repository"
	"github.com/noah-isme/ifmis-helpdesk/internal/service"
	"github.com/noah-isme/ifmis-helpdesk/pkg/database"
)

func staffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "staff",
		Short: "Manage staff accounts and admin-group membership",
	}

	var (
		password string
		admin    bool
		group    string
	)

	create := &cobra.Command{
		Use:   "create <username>",
		Short: "Create a staff account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAuthService(func(auth *service.AuthService) error {
				user, err := auth.CreateAccount(cmd.Context(), args[0], password)
				if err != nil {
					return err
				}
				if admin {
					if err := auth.SetGroupMembership(cmd.Context(), user.Username, group, true); err != nil {
						return err
					}
				}
				cmd.Printf("created staff account %s (id %d)\n", user.Username, user.ID)
				return nil
			})
		},
	}
	create.Flags().StringVar(&password, "password", "", "Initial password (at least 8 characters)")
	create.Flags().BoolVar(&admin, "admin", false, "Add the account to the admin group")
	create.Flags().StringVar(&group, "group", "", "Group to join with --admin (defaults to ADMIN_GROUP)")
	_ = create.MarkFlagRequired("password")

	cmd.AddCommand(create, membershipCmd("grant", true), membershipCmd("revoke", false))
	return cmd
}

func membershipCmd(use string, member bool) *cobra.Command {
	var group string
	short := "Add an account to a group"
	if !member {
		short = "Remove an account from a group"
	}
	cmd := &cobra.Command{
		Use:   use + " <username>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAuthService(func(auth *service.AuthService) error {
				if err := auth.SetGroupMembership(cmd.Context(), args[0], group, member); err != nil {
					return err
				}
				cmd.Printf("%s: %s\n", use, args[0])
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&group, "group", "", "Group name (defaults to ADMIN_GROUP)")
	return cmd
}

func withAuthService(fn func(auth *service.AuthService) error) error {
	cfg, logr, err := bootstrap()
	if err != nil {
		return err
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	auth := service.NewAuthService(repository.NewStaffUserRepository(db), nil, nil, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
		AdminGroup: cfg.Site.AdminGroup,
	})
	return fn(auth)
}
