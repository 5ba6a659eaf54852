package encounter

import "context"

type Repository interface {
	CreateEncounter(ctx context.Context, req *CreateEncounterRequest) (*Encounter, error)
	UploadAudio(ctx context.Context, publicID string, audio Audio) (*ClinicalNote, error)
	ProcessAudio(ctx context.Context, audio Audio) (*ClinicalNote, error)
}
