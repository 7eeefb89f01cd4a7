package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"pawtraits/server/internal/domain"
	"pawtraits/server/internal/portrait"
)

type generateRequest struct {
	ImageBase64   string `json:"imageBase64"`
	ImageMimeType string `json:"imageMimeType"`
	Category      string `json:"category"`
	CatLabel      string `json:"catLabel"`
	StylePrompt   string `json:"stylePrompt"`
	Style         string `json:"style"`
	Gender        string `json:"gender"`
	PhotoCount    int    `json:"photoCount"`
	IsMultiPhoto  bool   `json:"isMultiPhoto"`
}

type generateResponse struct {
	ImageData          string  `json:"imageData"`
	PrintifyImageID    *string `json:"printifyImageId"`
	PrintifyImageURL   *string `json:"printifyImageUrl"`
	PortraitImageURL   *string `json:"portraitImageUrl"`
	SubjectDescription string  `json:"subjectDescription,omitempty"`
	Category           string  `json:"category"`
	Gender             string  `json:"gender"`
	SubjectCount       int     `json:"subjectCount"`
	MultiSubject       bool    `json:"multiSubject"`
}

// Generate is the entry point of the portrait pipeline: photo in, stylized
// portrait out, with a best-effort media-library upload on the side.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	imageBytes, err := decodeImagePayload(req.ImageBase64)
	if err != nil {
		a.error(w, http.StatusBadRequest, "imageBase64 is not valid base64")
		return
	}

	style := strings.TrimSpace(req.StylePrompt)
	if style == "" {
		style = strings.TrimSpace(req.Style)
	}

	result, err := a.Portraits.Generate(r.Context(), portrait.GenerateRequest{
		ImageBytes:    imageBytes,
		MimeType:      req.ImageMimeType,
		Category:      domain.Category(strings.ToLower(strings.TrimSpace(req.Category))),
		Label:         req.CatLabel,
		StyleOverride: style,
		GenderHint:    domain.GenderHint(req.Gender),
		SubjectCount:  req.PhotoCount,
		MultiPhoto:    req.IsMultiPhoto,
	})
	if err != nil {
		a.generateError(w, err)
		return
	}

	a.json(w, http.StatusOK, generateResponse{
		ImageData:          result.ImageData,
		PrintifyImageID:    optionalString(result.AssetID),
		PrintifyImageURL:   optionalString(result.AssetURL),
		PortraitImageURL:   optionalString(result.AssetURL),
		SubjectDescription: result.SubjectDescription,
		Category:           string(result.Attributes.Category),
		Gender:             string(result.Attributes.EffectiveGender),
		SubjectCount:       result.Attributes.SubjectCount,
		MultiSubject:       result.Attributes.IsMultiSubject,
	})
}

// generateError maps the orchestrator's error taxonomy onto HTTP statuses.
// The payload is always {"error": ...} with no partial image data.
func (a *App) generateError(w http.ResponseWriter, err error) {
	var validation *domain.ValidationError
	if errors.As(err, &validation) {
		a.error(w, http.StatusBadRequest, validation.Error())
		return
	}
	var config *domain.ConfigurationError
	if errors.As(err, &config) {
		a.error(w, http.StatusInternalServerError, config.Error())
		return
	}
	a.Logger.Error().Err(err).Msg("generation failed")
	a.error(w, http.StatusBadGateway, err.Error())
}

// decodeImagePayload accepts a bare base64 string or a full data URL.
func decodeImagePayload(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if strings.HasPrefix(raw, "data:") {
		if idx := strings.Index(raw, ","); idx >= 0 {
			raw = raw[idx+1:]
		}
	}
	return base64.StdEncoding.DecodeString(raw)
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
