package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/practice/console/internal/domain/encounter"
	"github.com/practice/console/internal/platform/recording"
	"github.com/practice/console/pkg/wire"
)

func readAudioFile(path string) (encounter.Audio, error) {
	f, err := os.Open(path)
	if err != nil {
		return encounter.Audio{}, err
	}
	defer f.Close()
	data, err := recording.ReadAudio(f)
	if err != nil {
		return encounter.Audio{}, err
	}
	return encounter.Audio{
		FileName:    filepath.Base(path),
		ContentType: recording.ContentTypeFor(path),
		Data:        data,
	}, nil
}

func encounterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encounter",
		Short: "In-person encounters and their recordings",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Start an in-person encounter",
		RunE: func(cmd *cobra.Command, args []string) error {
			patient, _ := cmd.Flags().GetString("patient")
			reason, _ := cmd.Flags().GetString("reason")
			return withApp(cmd, func(ctx context.Context, a *app) error {
				enc, err := a.encounters.CreateEncounter(ctx, &encounter.CreateEncounterRequest{
					PatientID: wire.FlexID(patient),
					Reason:    reason,
				})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), enc)
			})
		},
	}
	createCmd.Flags().String("patient", "", "patient id")
	createCmd.Flags().String("reason", "", "reason for the visit")
	createCmd.MarkFlagRequired("patient")

	uploadCmd := &cobra.Command{
		Use:   "upload <public-id> <audio-file>",
		Short: "Upload a recording and print the generated note",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			audio, err := readAudioFile(args[1])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				res, err := a.encounters.UploadAudio(ctx, args[0], audio)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}

	processCmd := &cobra.Command{
		Use:   "process <audio-file>",
		Short: "Generate a note from a recording without an encounter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			audio, err := readAudioFile(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				note, err := a.encounters.ProcessAudio(ctx, audio)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), note)
			})
		},
	}

	cmd.AddCommand(createCmd, uploadCmd, processCmd)
	return cmd
}
