package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"aeroclassifieds/internal/adapter/repository"
	"aeroclassifieds/internal/domain/entity"
	"aeroclassifieds/internal/infrastructure/firebase"
	"aeroclassifieds/internal/usecase"
	"aeroclassifieds/pkg/config"
	"aeroclassifieds/pkg/logger"
)

// backend holds the clients a command needs. close releases all of them.
type backend struct {
	cfg           *config.Config
	app           *firebase.App
	conversations *usecase.ConversationUseCase
}

func openBackend(ctx context.Context) (*backend, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Init(cfg.Environment)

	dedupMode, err := entity.ParseDedupMode(cfg.DedupMode)
	if err != nil {
		return nil, err
	}

	app, err := firebase.NewApp(ctx, cfg)
	if err != nil {
		return nil, err
	}

	convRepo := repository.NewFirestoreConversationRepository(app.Firestore)
	msgRepo := repository.NewFirestoreMessageRepository(app.Firestore)

	return &backend{
		cfg:           cfg,
		app:           app,
		conversations: usecase.NewConversationUseCase(convRepo, msgRepo, dedupMode, nil, nil),
	}, nil
}

func (b *backend) close() {
	if err := b.app.Close(); err != nil {
		logger.Warn("Failed to close Firestore client: %v", err)
	}
}

// CleanupCmd purges every conversation still flagged isDeleted.
func CleanupCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Purge conversations pending deletion and their messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			b, err := openBackend(ctx)
			if err != nil {
				return err
			}
			defer b.close()

			purged, err := b.conversations.CleanupDeletedConversations(ctx)
			if purged > 0 {
				fmt.Printf("%s purged %d conversation(s)\n", color.GreenString("✓"), purged)
			} else if err == nil {
				fmt.Println("Nothing to clean up")
			}
			if err != nil {
				fmt.Printf("%s some conversations could not be purged\n", color.RedString("✗"))
				return err
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "abort after this long")
	return cmd
}

// SweepStagingCmd drops expired staged attachments.
func SweepStagingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep-staging",
		Short: "Remove expired staged attachments",
		Long: `Remove staged attachment bytes whose TTL has passed. Redis expires keys on
its own, so against a redis backend this only verifies connectivity.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			logger.Init(cfg.Environment)

			staging, closeStaging, err := repository.NewStagingFromConfig(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeStaging()

			removed, err := usecase.NewAttachmentUseCase(staging, cfg.AttachmentMaxBytes, cfg.StagingTTL).SweepExpired(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("%s removed %d expired staged attachment(s)\n", color.GreenString("✓"), removed)
			return nil
		},
	}
}

// ConversationsCmd prints what a user's conversation list subscription would show.
func ConversationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "conversations <uid>",
		Short: "List a user's conversations, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			b, err := openBackend(ctx)
			if err != nil {
				return err
			}
			defer b.close()

			views, err := b.conversations.ListConversations(ctx, args[0])
			if err != nil {
				return err
			}
			if len(views) == 0 {
				fmt.Println("No conversations")
				return nil
			}

			for _, v := range views {
				fmt.Println(formatConversation(v))
			}
			return nil
		},
	}
}

func formatConversation(v *entity.ConversationView) string {
	line := fmt.Sprintf("%s  %-11s %s with %s", color.CyanString(v.ID), v.Role, v.ListingTitle, v.OtherUserName)
	if v.UnreadCount > 0 {
		line += color.New(color.FgYellow).Sprintf(" (%d unread)", v.UnreadCount)
	}
	if v.IsStarred {
		line += color.New(color.FgHiMagenta).Sprint(" ★")
	}
	if v.IsArchived {
		line += color.New(color.Faint).Sprint(" [archived]")
	}
	if v.LastMessage != nil {
		line += fmt.Sprintf("\n    %s: %s", v.LastMessage.SenderID, v.LastMessage.Content)
	}
	return line
}
