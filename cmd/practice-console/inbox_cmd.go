package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/practice/console/internal/domain/messaging"
	"github.com/practice/console/internal/platform/recording"
	"github.com/practice/console/pkg/wire"
)

// conversationLine is one row of `inbox list`.
func conversationLine(c messaging.Conversation) string {
	last := ""
	if m, ok := c.LastMessage(); ok {
		last = m.MessageValue
		if last == "" && m.HasMedia() {
			last = "[" + string(m.MediaType) + "]"
		}
	}
	if len(last) > 60 {
		last = last[:57] + "..."
	}
	name := c.InterlocutorName
	if name == "" {
		name = c.InterlocutorPhone
	}
	return fmt.Sprintf("%-36s  %-9s  %-24s  %s", c.PublicID, c.Responder, name, last)
}

// parseParams reads repeated key=value flags.
func parseParams(kvs []string) (map[string]string, error) {
	if len(kvs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(kvs))
	for _, kv := range kvs {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid --param %q: want key=value", kv)
		}
		out[strings.TrimSpace(k)] = v
	}
	return out, nil
}

func inboxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "Patient conversations with the assistant and doctors",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List conversations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.messaging.Reload(ctx); err != nil {
					return err
				}
				for _, c := range a.messaging.Inbox().Conversations() {
					fmt.Fprintln(cmd.OutOrStdout(), conversationLine(c))
				}
				return nil
			})
		},
	}

	showCmd := &cobra.Command{
		Use:   "show <public-id>",
		Short: "Show a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				c, err := a.messaging.Conversation(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), c)
			})
		},
	}

	sendCmd := &cobra.Command{
		Use:   "send <public-id>",
		Short: "Send a message, optionally with one attachment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, _ := cmd.Flags().GetString("text")
			file, _ := cmd.Flags().GetString("file")
			return withApp(cmd, func(ctx context.Context, a *app) error {
				comp := messaging.Composer{Text: text}
				if file != "" {
					f, err := os.Open(file)
					if err != nil {
						return err
					}
					defer f.Close()
					ct := recording.ContentTypeFor(file)
					m, err := a.messaging.UploadMedia(ctx, filepath.Base(file), ct, f)
					if err != nil {
						return err
					}
					comp.Media = m
				}
				res, err := a.messaging.Send(ctx, args[0], comp)
				if err != nil {
					return err
				}
				if res == nil {
					fmt.Fprintln(cmd.ErrOrStderr(), "nothing to send")
					return nil
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
	sendCmd.Flags().String("text", "", "message text")
	sendCmd.Flags().String("file", "", "attachment to upload and send")

	takeoverCmd := &cobra.Command{
		Use:   "takeover <public-id>",
		Short: "Take the conversation over from the assistant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, _ := cmd.Flags().GetString("provider")
			message, _ := cmd.Flags().GetString("message")
			return withApp(cmd, func(ctx context.Context, a *app) error {
				c, err := a.messaging.TakeOver(ctx, args[0], wire.FlexID(provider), message)
				return printSwitch(cmd, c, err)
			})
		},
	}
	takeoverCmd.Flags().String("provider", "", "provider id taking over")
	takeoverCmd.Flags().String("message", "", "hand-off message to the patient")
	takeoverCmd.MarkFlagRequired("provider")

	delegateCmd := &cobra.Command{
		Use:   "delegate <public-id>",
		Short: "Hand the conversation back to the assistant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message, _ := cmd.Flags().GetString("message")
			return withApp(cmd, func(ctx context.Context, a *app) error {
				c, err := a.messaging.Delegate(ctx, args[0], message)
				return printSwitch(cmd, c, err)
			})
		},
	}
	delegateCmd.Flags().String("message", "", "hand-off message to the patient")

	templateCmd := &cobra.Command{
		Use:   "template <template-name>",
		Short: "Send or preview a message template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			publicID, _ := cmd.Flags().GetString("public-id")
			phone, _ := cmd.Flags().GetString("phone")
			kvs, _ := cmd.Flags().GetStringArray("param")
			preview, _ := cmd.Flags().GetBool("preview")
			params, err := parseParams(kvs)
			if err != nil {
				return err
			}
			req := &messaging.TemplateRequest{PublicID: publicID, PhoneNumber: phone, TemplateName: args[0], Parameters: params}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if preview {
					p, err := a.messaging.PreviewTemplate(ctx, req)
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), p.Preview)
					return nil
				}
				res, err := a.messaging.SendTemplate(ctx, req)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
	templateCmd.Flags().String("public-id", "", "conversation to send in")
	templateCmd.Flags().String("phone", "", "recipient phone number")
	templateCmd.Flags().StringArray("param", nil, "template parameter key=value (repeatable)")
	templateCmd.Flags().Bool("preview", false, "render without sending")

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll the inbox and print changes until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
				defer stop()

				seen := map[string]string{}
				inbox := a.messaging.Inbox()
				selected, _ := cmd.Flags().GetString("select")
				if selected != "" {
					inbox.Select(selected)
				}
				gone := false
				poller := messaging.NewPoller(a.messaging, a.cfg.PollInterval(), a.logger,
					messaging.OnReload(func(err error) {
						if err != nil {
							return
						}
						for _, c := range inbox.Conversations() {
							key := string(c.Responder)
							if m, ok := c.LastMessage(); ok {
								key += "/" + m.MessageID.String()
							}
							if seen[c.PublicID] != key {
								seen[c.PublicID] = key
								fmt.Fprintln(cmd.OutOrStdout(), conversationLine(c))
							}
						}
						if selected == "" {
							return
						}
						_, ok := inbox.Selected()
						if !ok && !gone {
							fmt.Fprintf(cmd.ErrOrStderr(), "%s is no longer in the inbox\n", selected)
						}
						gone = !ok
					}))
				err := poller.Run(ctx)
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			})
		},
	}

	watchCmd.Flags().String("select", "", "conversation to follow; reports when it leaves the inbox")

	cmd.AddCommand(listCmd, showCmd, sendCmd, takeoverCmd, delegateCmd, templateCmd, watchCmd)
	return cmd
}

func printSwitch(cmd *cobra.Command, c *messaging.Conversation, err error) error {
	if errors.Is(err, messaging.ErrReloadAfterSwitch) {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning:", err)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s is now answered by the %s\n", c.PublicID, c.Responder)
	return nil
}
