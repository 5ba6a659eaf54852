package encounter

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/practice/console/internal/platform/recording"
	"github.com/practice/console/internal/platform/validation"
)

var ErrPublicIDRequired = errors.New("encounter public id is required")

type Service struct {
	repo    Repository
	archive recording.Archive
	logger  zerolog.Logger
}

// NewService builds the encounter service. archive may be nil, in which case
// recordings are only sent upstream.
func NewService(repo Repository, archive recording.Archive, logger zerolog.Logger) *Service {
	return &Service{repo: repo, archive: archive, logger: logger.With().Str("component", "encounter").Logger()}
}

func (s *Service) CreateEncounter(ctx context.Context, req *CreateEncounterRequest) (*Encounter, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	enc, err := s.repo.CreateEncounter(ctx, req)
	if err != nil {
		s.logger.Error().Err(err).Str("patient_id", req.PatientID.String()).Msg("create encounter")
		return nil, err
	}
	if enc.Status != "" && !enc.KnownStatus() {
		s.logger.Warn().Str("public_id", enc.PublicID).Str("status", enc.Status).Msg("unknown encounter status")
	}
	s.logger.Info().Str("public_id", enc.PublicID).Str("patient_id", req.PatientID.String()).Msg("encounter created")
	return enc, nil
}

// UploadAudio attaches a recording to an encounter and returns the generated
// note. With an archive configured the recording is stored there first and
// the upload does not happen if that fails.
func (s *Service) UploadAudio(ctx context.Context, publicID string, audio Audio) (*UploadResult, error) {
	if publicID == "" {
		return nil, ErrPublicIDRequired
	}
	if err := checkAudio(audio); err != nil {
		return nil, err
	}

	res := &UploadResult{EncounterID: publicID}
	if s.archive != nil {
		meta, err := s.archive.Store(ctx, recording.Metadata{
			EncounterID: publicID,
			FileName:    audio.FileName,
			ContentType: audio.ContentType,
		}, audio.Data)
		if err != nil {
			s.logger.Error().Err(err).Str("public_id", publicID).Msg("archive recording")
			return nil, fmt.Errorf("archive recording: %w", err)
		}
		res.ArchiveKey = meta.Key
		s.logger.Info().Str("public_id", publicID).Str("key", meta.Key).Int64("size", meta.Size).Msg("recording archived")
	}

	note, err := s.repo.UploadAudio(ctx, publicID, audio)
	if err != nil {
		s.logger.Error().Err(err).Str("public_id", publicID).Str("archive_key", res.ArchiveKey).Msg("upload recording")
		return nil, err
	}
	if note.Empty() {
		s.logger.Warn().Str("public_id", publicID).Msg("server returned an empty clinical note")
	}
	res.Note = note
	return res, nil
}

// ProcessAudio sends a recording to the legacy processing endpoint, which is
// not tied to an encounter.
func (s *Service) ProcessAudio(ctx context.Context, audio Audio) (*ClinicalNote, error) {
	if err := checkAudio(audio); err != nil {
		return nil, err
	}
	note, err := s.repo.ProcessAudio(ctx, audio)
	if err != nil {
		s.logger.Error().Err(err).Str("file", audio.FileName).Msg("process audio")
		return nil, err
	}
	return note, nil
}

func checkAudio(a Audio) error {
	if err := recording.CheckAudio(a.FileName, a.ContentType); err != nil {
		return err
	}
	if len(a.Data) == 0 {
		return recording.ErrEmptyRecording
	}
	if int64(len(a.Data)) > recording.MaxFileSize {
		return recording.ErrFileTooLarge
	}
	return nil
}
