package printify

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"pawtraits/server/internal/domain"
	"pawtraits/server/internal/portrait"
)

// Publisher adapts the Printify client to the orchestrator's best-effort
// publish contract. The primary deliverable is the generated image; the
// upload is an enhancement, so no failure here ever reaches the caller.
type Publisher struct {
	client *Client
	logger zerolog.Logger
	now    func() time.Time
}

func NewPublisher(client *Client, logger zerolog.Logger) *Publisher {
	return &Publisher{
		client: client,
		logger: logger,
		now:    time.Now,
	}
}

// Publish uploads the bytes to the media library. Missing credentials yield
// an empty result without any network call; upload failures are logged and
// swallowed.
func (p *Publisher) Publish(ctx context.Context, data []byte, category domain.Category) portrait.PublishResult {
	if p == nil || p.client == nil || !p.client.HasCredentials() {
		return portrait.PublishResult{}
	}
	fileName := fmt.Sprintf("portrait-%s-%d.jpg", category, p.now().UnixMilli())
	upload, err := p.client.UploadImage(ctx, fileName, data)
	if err != nil {
		p.logger.Warn().Err(err).Str("file_name", fileName).Msg("printify upload failed")
		return portrait.PublishResult{}
	}
	assetURL := upload.PreviewURL
	if assetURL == "" {
		assetURL = upload.URL
	}
	return portrait.PublishResult{AssetID: upload.ID, AssetURL: assetURL}
}

var _ portrait.Publisher = (*Publisher)(nil)
