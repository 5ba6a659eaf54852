package encounter

import (
	"bytes"
	"context"
	"net/url"

	"github.com/practice/console/internal/platform/apiclient"
)

const (
	pathEncounters   = "/in-person-encounters/"
	pathProcessAudio = "/ai-processing/process-audio/"
	audioField       = "audio"
)

type repoHTTP struct {
	client *apiclient.Client
	health *apiclient.Client
}

// NewRepoHTTP builds the gateway. Audio processing goes to the legacy health
// host through health.
func NewRepoHTTP(client, health *apiclient.Client) Repository {
	return &repoHTTP{client: client, health: health}
}

func (r *repoHTTP) CreateEncounter(ctx context.Context, req *CreateEncounterRequest) (*Encounter, error) {
	var out Encounter
	if err := r.client.Post(ctx, pathEncounters, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *repoHTTP) UploadAudio(ctx context.Context, publicID string, audio Audio) (*ClinicalNote, error) {
	var out ClinicalNote
	path := pathEncounters + url.PathEscape(publicID) + "/upload-audio/"
	if err := r.client.Upload(ctx, path, audioFile(audio), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *repoHTTP) ProcessAudio(ctx context.Context, audio Audio) (*ClinicalNote, error) {
	var out ClinicalNote
	if err := r.health.Upload(ctx, pathProcessAudio, audioFile(audio), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func audioFile(a Audio) apiclient.File {
	return apiclient.File{
		FieldName:   audioField,
		FileName:    a.FileName,
		ContentType: a.ContentType,
		Content:     bytes.NewReader(a.Data),
	}
}
